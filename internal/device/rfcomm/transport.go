// Package rfcomm is the serial port half of the platform layer. Classic robots (EV3,
// Sphero 2.0, mBot) expose an RFCOMM channel that carries the raw byte stream.
package rfcomm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/groutine"
)

const (
	// DefaultChannel is the RFCOMM channel serial port services listen on.
	DefaultChannel uint8 = 1

	readBufferSize = 1024
)

// Dialer opens a stream to channel of the peer at address (can be overridden in tests)
//
//nolint:revive // Dialer name is intentional for test mocking
var Dialer = dial

type socket struct {
	id device.SocketID

	mu      sync.Mutex
	address string
	uuid    string
	conn    io.ReadWriteCloser
	paused  atomic.Bool
	closing atomic.Bool
}

func (s *socket) info() device.SocketInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return device.SocketInfo{
		ID:        s.id,
		Address:   s.address,
		UUID:      s.uuid,
		Connected: s.conn != nil,
		Paused:    s.paused.Load(),
	}
}

// Transport implements device.Transport over RFCOMM stream sockets.
type Transport struct {
	Channel uint8
	// ConnectTimeout bounds a single dial. Zero leaves it to ctx.
	ConnectTimeout time.Duration

	logger *logrus.Logger
	nextID atomic.Int64

	mu       sync.RWMutex
	receiver device.Receiver
	sockets  *hashmap.Map[device.SocketID, *socket]
}

func NewTransport(logger *logrus.Logger) *Transport {
	return &Transport{
		Channel: DefaultChannel,
		logger:  logger,
		sockets: hashmap.New[device.SocketID, *socket](),
	}
}

func (t *Transport) SetReceiver(r device.Receiver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.receiver = r
}

func (t *Transport) currentReceiver() device.Receiver {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.receiver
}

func (t *Transport) socket(op string, id device.SocketID) (*socket, error) {
	s, ok := t.sockets.Get(id)
	if !ok {
		return nil, &device.TransportError{
			Op:   op,
			Kind: device.KindSocketNotFound,
			Err:  &device.NotFoundError{Resource: "socket", Names: []string{fmt.Sprint(id)}},
		}
	}
	return s, nil
}

func (t *Transport) Create(_ context.Context) (device.SocketID, error) {
	id := device.SocketID(t.nextID.Add(1))
	t.sockets.Set(id, &socket{id: id})
	return id, nil
}

// Connect dials the configured channel. uuid is recorded for GetInfo; channel
// selection does not use SDP.
func (t *Transport) Connect(ctx context.Context, id device.SocketID, address, uuid string) error {
	s, err := t.socket("connect", id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return device.ErrAlreadyConnected
	}

	dialCtx := ctx
	if t.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, t.ConnectTimeout)
		defer cancel()
	}

	logger := t.logger.WithFields(logrus.Fields{"address": address, "channel": t.Channel})
	logger.Debug("Dialing RFCOMM channel...")
	conn, err := Dialer(dialCtx, address, t.Channel)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(device.ErrTimeout, err)
		}
		return normalizeError("connect", err, device.KindConnectFailed)
	}

	s.address, s.uuid, s.conn = address, uuid, conn
	s.paused.Store(false)
	s.closing.Store(false)
	groutine.Go(context.Background(), fmt.Sprintf("rfcomm-reader-%d", id), func(ctx context.Context) {
		t.readLoop(s, conn)
	})
	logger.Info("RFCOMM channel connected")
	return nil
}

func (t *Transport) readLoop(s *socket, conn io.ReadWriteCloser) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 && !s.paused.Load() {
			if r := t.currentReceiver(); r != nil {
				r.OnReceive(s.id, append([]byte(nil), buf[:n]...))
			}
		}
		if err == nil {
			continue
		}
		if s.closing.Load() {
			return
		}

		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		_ = conn.Close()

		kind := device.KindDisconnected
		if errors.Is(err, io.EOF) {
			err = device.ErrNotConnected
		}
		t.logger.WithError(err).WithField("address", s.address).Warn("RFCOMM channel dropped")
		if r := t.currentReceiver(); r != nil {
			r.OnReceiveError(s.id, normalizeError("receive", err, kind))
		}
		return
	}
}

func (t *Transport) Send(_ context.Context, id device.SocketID, data []byte) (int, error) {
	s, err := t.socket("send", id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return 0, &device.TransportError{Op: "send", Kind: device.KindTransient, Err: device.ErrNotConnected}
	}
	n, err := conn.Write(data)
	if err != nil {
		return n, normalizeError("send", err, device.KindUnknown)
	}
	return n, nil
}

func (t *Transport) Disconnect(_ context.Context, id device.SocketID) error {
	s, err := t.socket("disconnect", id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	s.closing.Store(true)
	if err := conn.Close(); err != nil {
		return normalizeError("disconnect", err, device.KindUnknown)
	}
	t.logger.WithField("address", s.address).Info("RFCOMM channel disconnected")
	return nil
}

func (t *Transport) Close(ctx context.Context, id device.SocketID) error {
	if _, err := t.socket("close", id); err != nil {
		return err
	}
	err := t.Disconnect(ctx, id)
	t.sockets.Del(id)
	return err
}

func (t *Transport) GetInfo(_ context.Context, id device.SocketID) (device.SocketInfo, error) {
	s, err := t.socket("info", id)
	if err != nil {
		return device.SocketInfo{}, err
	}
	return s.info(), nil
}

func (t *Transport) GetSockets(_ context.Context) ([]device.SocketInfo, error) {
	out := make([]device.SocketInfo, 0, t.sockets.Len())
	t.sockets.Range(func(_ device.SocketID, s *socket) bool {
		out = append(out, s.info())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *Transport) SetPaused(_ context.Context, id device.SocketID, paused bool) error {
	s, err := t.socket("pause", id)
	if err != nil {
		return err
	}
	s.paused.Store(paused)
	return nil
}
