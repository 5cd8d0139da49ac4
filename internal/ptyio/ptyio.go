// Package ptyio exposes a robot's raw byte stream as a pseudo-terminal so serial tools
// (screen, minicom, vendor IDEs) can talk to a robot connected over Bluetooth.
//
// A Port owns the master side of a PTY pair. Bytes passed to Write are queued in a ring
// and pumped to the slave; bytes the slave writes are queued in a second ring and either
// read with Read or delivered to the OnData callback.
//
//	port, err := ptyio.Open(ptyio.Options{ReadBufferSize: 4096, WriteBufferSize: 4096})
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//	port.OnData(func(b []byte) { _ = dev.Send(ctx, b) })
//	fmt.Println("serial port:", port.Name())
//
// Neither ring blocks its producer. A full ring drops the excess and counts it in Stats.
package ptyio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"github.com/smallnest/ringbuffer"
	"github.com/srg/botlink/internal/groutine"
	"golang.org/x/term"
)

const (
	// DefaultBufferSize is used for a ring whose size is not set.
	DefaultBufferSize = 4096

	// DefaultPollTimeout bounds how long a pump waits for readiness before rechecking
	// for shutdown. It is also the worst-case Close latency.
	DefaultPollTimeout = 50 * time.Millisecond

	chunkSize = 4096
)

// ErrNoData is returned by Read when nothing is buffered.
var ErrNoData = syscall.EAGAIN

// Options configures Open.
type Options struct {
	ReadBufferSize  int // bytes buffered from the slave
	WriteBufferSize int // bytes buffered towards the slave
	PollTimeout     time.Duration

	// Link, when set, is created as a symlink to the slave and removed on Close.
	Link string

	Logger  *logrus.Logger
	OnError func(error) // called at most once per pump on a fatal I/O error
}

// Stats is a snapshot of the port counters.
type Stats struct {
	ReadQueued   int
	ReadCap      int
	WriteQueued  int
	WriteCap     int
	BytesRead    uint64
	BytesWritten uint64
	DroppedRead  uint64
	DroppedWrite uint64
}

// Port is the master side of a PTY pair.
type Port struct {
	logger  *logrus.Logger
	master  *os.File
	slave   *os.File
	name    string
	link    string
	timeout time.Duration
	onError func(error)

	toSlave   *ringbuffer.RingBuffer
	fromSlave *ringbuffer.RingBuffer

	onData   atomic.Pointer[func([]byte)]
	pending  chan struct{}
	outbound chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
	droppedRead  atomic.Uint64
	droppedWrite atomic.Uint64
}

// Open creates a PTY pair with a raw-mode slave and starts the pumps.
func Open(opts Options) (*Port, error) {
	master, slave, err := openPair()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	p := &Port{
		logger:    logger,
		master:    master,
		slave:     slave,
		name:      slave.Name(),
		timeout:   opts.PollTimeout,
		onError:   opts.OnError,
		toSlave:   ringbuffer.New(sizeOr(opts.WriteBufferSize)),
		fromSlave: ringbuffer.New(sizeOr(opts.ReadBufferSize)),
		pending:   make(chan struct{}, 1),
		outbound:  make(chan struct{}, 1),
	}
	if p.timeout <= 0 {
		p.timeout = DefaultPollTimeout
	}

	if opts.Link != "" {
		if err := os.Symlink(p.name, opts.Link); err != nil {
			_ = master.Close()
			_ = slave.Close()
			return nil, fmt.Errorf("failed to link %s -> %s: %w", opts.Link, p.name, err)
		}
		p.link = opts.Link
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.start(ctx, "pty-pump-out", p.pumpOut)
	p.start(ctx, "pty-pump-in", p.pumpIn)
	p.start(ctx, "pty-dispatch", p.dispatch)

	p.logger.WithFields(logrus.Fields{"tty": p.name, "link": p.link}).Debug("PTY opened")
	return p, nil
}

func sizeOr(n int) int {
	if n <= 0 {
		return DefaultBufferSize
	}
	return n
}

func openPair() (*os.File, *os.File, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open PTY: %w", err)
	}

	fail := func(step string, err error) (*os.File, *os.File, error) {
		name := slave.Name()
		_ = master.Close()
		_ = slave.Close()
		return nil, nil, fmt.Errorf("failed to %s on %s: %w", step, name, err)
	}

	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		return fail("set raw mode", err)
	}
	if err := syscall.SetNonblock(int(master.Fd()), true); err != nil {
		return fail("set non-blocking mode", err)
	}
	return master, slave, nil
}

func (p *Port) start(ctx context.Context, name string, loop func(ctx context.Context)) {
	p.wg.Add(1)
	groutine.Go(ctx, name, func(ctx context.Context) {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.WithField("loop", name).Errorf("PTY loop panicked: %v", r)
			}
		}()
		loop(ctx)
	})
}

// Name returns the slave device path.
func (p *Port) Name() string { return p.name }

// Link returns the symlink path, empty when none was requested.
func (p *Port) Link() string { return p.link }

// Write queues data for the slave. It never blocks; the returned count is short when
// the ring is full.
func (p *Port) Write(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, os.ErrClosed
	}
	if len(data) == 0 {
		return 0, nil
	}

	n, err := p.toSlave.Write(data)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsFull) {
		return n, err
	}
	if dropped := len(data) - n; dropped > 0 {
		p.droppedWrite.Add(uint64(dropped))
		p.logger.WithField("dropped", dropped).Warn("PTY write buffer full")
	}
	if n > 0 {
		signal(p.outbound)
	}
	return n, nil
}

// Read copies buffered slave output into b. It returns ErrNoData when nothing is
// buffered. Bytes consumed by an OnData callback are not seen by Read.
func (p *Port) Read(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, os.ErrClosed
	}
	if len(b) == 0 {
		return 0, nil
	}

	n, err := p.fromSlave.TryRead(b)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
		return n, err
	}
	if n == 0 {
		return 0, ErrNoData
	}
	return n, nil
}

// OnData registers cb to receive slave output as it arrives. nil unregisters. Each call
// gets its own copy of the chunk.
func (p *Port) OnData(cb func([]byte)) {
	if cb == nil {
		p.onData.Store(nil)
		return
	}
	p.onData.Store(&cb)
	signal(p.pending)
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Stats returns the current counters.
func (p *Port) Stats() Stats {
	return Stats{
		ReadQueued:   p.fromSlave.Length(),
		ReadCap:      p.fromSlave.Capacity(),
		WriteQueued:  p.toSlave.Length(),
		WriteCap:     p.toSlave.Capacity(),
		BytesRead:    p.bytesRead.Load(),
		BytesWritten: p.bytesWritten.Load(),
		DroppedRead:  p.droppedRead.Load(),
		DroppedWrite: p.droppedWrite.Load(),
	}
}

// Close removes the link, closes both ends and waits for the pumps. It is idempotent.
func (p *Port) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.cancel()

	var errs []error
	if p.link != "" {
		if err := os.Remove(p.link); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove link %s: %w", p.link, err))
		}
	}
	if err := p.master.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close master: %w", err))
	}
	if err := p.slave.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close slave: %w", err))
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3*p.timeout + time.Second):
		p.logger.WithField("tty", p.name).Error("PTY pumps did not stop in time")
	}

	p.logger.WithField("tty", p.name).Debug("PTY closed")
	return errors.Join(errs...)
}
