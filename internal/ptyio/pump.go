package ptyio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"

	"github.com/smallnest/ringbuffer"
	"golang.org/x/sys/unix"
)

// maxChunksPerWake bounds how many chunks dispatch delivers before yielding to the
// next wake-up.
const maxChunksPerWake = 16

// poll waits up to the poll timeout for events on the master. It reports false on
// timeout so the caller can recheck ctx.
func (p *Port) poll(events int16) bool {
	fds := []unix.PollFd{{Fd: int32(p.master.Fd()), Events: events}}
	n, err := unix.Poll(fds, int(p.timeout.Milliseconds()))
	if err != nil && !errors.Is(err, syscall.EINTR) {
		p.logger.WithError(err).Debug("PTY poll failed")
	}
	return n > 0
}

// ioResult classifies an I/O error from the master.
type ioResult int

const (
	ioRetry ioResult = iota
	ioWait
	ioStop
)

func classify(err error) ioResult {
	switch {
	case errors.Is(err, syscall.EINTR):
		return ioRetry
	case errors.Is(err, syscall.EAGAIN):
		return ioWait
	default:
		// EBADF after Close, EIO once the slave hangs up, io.EOF
		return ioStop
	}
}

func (p *Port) fatal(once *sync.Once, loop string, err error) {
	if errors.Is(err, syscall.EBADF) || errors.Is(err, io.EOF) || p.closed.Load() {
		p.logger.WithField("loop", loop).Debug("PTY pump stopped")
		return
	}
	p.logger.WithError(err).WithField("loop", loop).Warn("PTY pump failed")
	if p.onError != nil {
		once.Do(func() { p.onError(fmt.Errorf("%s: %w", loop, err)) })
	}
}

// pumpOut drains the outbound ring into the master.
func (p *Port) pumpOut(ctx context.Context) {
	var once sync.Once
	buf := make([]byte, chunkSize)

	for ctx.Err() == nil {
		n, err := p.toSlave.TryRead(buf)
		if n == 0 {
			if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
				p.logger.WithError(err).Debug("PTY outbound ring read failed")
			}
			select {
			case <-ctx.Done():
			case <-p.outbound:
			}
			continue
		}

		for off := 0; off < n && ctx.Err() == nil; {
			w, err := p.master.Write(buf[off:n])
			off += w
			p.bytesWritten.Add(uint64(w))
			if err == nil {
				continue
			}
			switch classify(err) {
			case ioRetry:
			case ioWait:
				p.poll(unix.POLLOUT)
			case ioStop:
				p.fatal(&once, "pump-out", err)
				return
			}
		}
	}
}

// pumpIn copies slave output from the master into the inbound ring.
func (p *Port) pumpIn(ctx context.Context) {
	var once sync.Once
	buf := make([]byte, chunkSize)

	for ctx.Err() == nil {
		if !p.poll(unix.POLLIN) {
			continue
		}

		n, err := p.master.Read(buf)
		if n > 0 {
			p.store(buf[:n])
		}
		if err == nil {
			continue
		}
		if classify(err) == ioStop {
			p.fatal(&once, "pump-in", err)
			return
		}
	}
}

func (p *Port) store(data []byte) {
	w, err := p.fromSlave.Write(data)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsFull) {
		p.logger.WithError(err).Debug("PTY inbound ring write failed")
	}
	if dropped := len(data) - w; dropped > 0 {
		p.droppedRead.Add(uint64(dropped))
		p.logger.WithField("dropped", dropped).Warn("PTY read buffer full")
	}
	p.bytesRead.Add(uint64(w))
	if w > 0 && p.onData.Load() != nil {
		signal(p.pending)
	}
}

// dispatch hands buffered slave output to the OnData callback. A panicking callback is
// unregistered.
func (p *Port) dispatch(ctx context.Context) {
	var once sync.Once
	buf := make([]byte, chunkSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.pending:
		}

		for i := 0; i < maxChunksPerWake && ctx.Err() == nil; i++ {
			cb := p.onData.Load()
			if cb == nil {
				break
			}
			n, _ := p.fromSlave.TryRead(buf)
			if n == 0 {
				break
			}
			if err := p.deliver(*cb, append([]byte(nil), buf[:n]...)); err != nil {
				p.onData.Store(nil)
				p.fatal(&once, "dispatch", err)
				break
			}
		}

		if p.fromSlave.Length() > 0 && p.onData.Load() != nil {
			signal(p.pending)
		}
	}
}

func (p *Port) deliver(cb func([]byte), chunk []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("data callback panicked: %v", r)
		}
	}()
	cb(chunk)
	return nil
}
