package devicefactory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
)

type route struct {
	backend device.Transport
	name    string
	id      device.SocketID
}

// Transport routes sockets to a backend chosen at connect time: the serial port UUID
// goes to RFCOMM and every other UUID to GATT. It hands out its own socket ids.
type Transport struct {
	logger *logrus.Logger
	gatt   device.Transport
	serial device.Transport
	nextID atomic.Int64

	mu       sync.RWMutex
	receiver device.Receiver
	routes   *hashmap.Map[device.SocketID, *route]
	reverse  *hashmap.Map[string, device.SocketID]
}

// NewTransport creates a router over the given backends. Either may be nil.
func NewTransport(logger *logrus.Logger, gatt, serial device.Transport) *Transport {
	t := &Transport{
		logger:  logger,
		gatt:    gatt,
		serial:  serial,
		routes:  hashmap.New[device.SocketID, *route](),
		reverse: hashmap.New[string, device.SocketID](),
	}
	if gatt != nil {
		gatt.SetReceiver(&forwarder{t: t, name: "gatt"})
	}
	if serial != nil {
		serial.SetReceiver(&forwarder{t: t, name: "rfcomm"})
	}
	return t
}

func reverseKey(name string, id device.SocketID) string {
	return fmt.Sprintf("%s/%d", name, id)
}

// forwarder translates backend socket ids into router ids.
type forwarder struct {
	t    *Transport
	name string
}

func (f *forwarder) target(id device.SocketID) (device.Receiver, device.SocketID, bool) {
	local, ok := f.t.reverse.Get(reverseKey(f.name, id))
	if !ok {
		return nil, 0, false
	}
	f.t.mu.RLock()
	r := f.t.receiver
	f.t.mu.RUnlock()
	return r, local, r != nil
}

func (f *forwarder) OnReceive(id device.SocketID, data []byte) {
	if r, local, ok := f.target(id); ok {
		r.OnReceive(local, data)
	}
}

func (f *forwarder) OnReceiveError(id device.SocketID, err error) {
	if r, local, ok := f.target(id); ok {
		r.OnReceiveError(local, err)
	}
}

func (t *Transport) SetReceiver(r device.Receiver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.receiver = r
}

func (t *Transport) route(op string, id device.SocketID) (*route, error) {
	r, ok := t.routes.Get(id)
	if !ok {
		return nil, &device.TransportError{
			Op:   op,
			Kind: device.KindSocketNotFound,
			Err:  &device.NotFoundError{Resource: "socket", Names: []string{fmt.Sprint(id)}},
		}
	}
	return r, nil
}

func (t *Transport) backendFor(uuid string) (device.Transport, string, error) {
	if device.NormalizeUUID(uuid) == device.SerialPortUUID {
		if t.serial == nil {
			return nil, "", fmt.Errorf("rfcomm: %w", device.ErrUnsupported)
		}
		return t.serial, "rfcomm", nil
	}
	if t.gatt == nil {
		return nil, "", fmt.Errorf("gatt: %w", device.ErrUnsupported)
	}
	return t.gatt, "gatt", nil
}

func (t *Transport) Create(_ context.Context) (device.SocketID, error) {
	id := device.SocketID(t.nextID.Add(1))
	t.routes.Set(id, &route{})
	return id, nil
}

func (t *Transport) Connect(ctx context.Context, id device.SocketID, address, uuid string) error {
	r, err := t.route("connect", id)
	if err != nil {
		return err
	}
	backend, name, err := t.backendFor(uuid)
	if err != nil {
		return &device.TransportError{Op: "connect", Kind: device.KindConnectFailed, Err: err}
	}

	if r.backend == nil || r.name != name {
		if r.backend != nil {
			t.release(ctx, r)
		}
		bid, err := backend.Create(ctx)
		if err != nil {
			return err
		}
		r = &route{backend: backend, name: name, id: bid}
		t.routes.Set(id, r)
		t.reverse.Set(reverseKey(name, bid), id)
	}

	t.logger.WithFields(logrus.Fields{"address": address, "backend": name}).Debug("Routing connection")
	return r.backend.Connect(ctx, r.id, address, uuid)
}

func (t *Transport) release(ctx context.Context, r *route) {
	if err := r.backend.Close(ctx, r.id); err != nil {
		t.logger.WithError(err).Debug("Failed to close backend socket")
	}
	t.reverse.Del(reverseKey(r.name, r.id))
}

func (t *Transport) Send(ctx context.Context, id device.SocketID, data []byte) (int, error) {
	r, err := t.route("send", id)
	if err != nil {
		return 0, err
	}
	if r.backend == nil {
		return 0, &device.TransportError{Op: "send", Kind: device.KindTransient, Err: device.ErrNotConnected}
	}
	return r.backend.Send(ctx, r.id, data)
}

// WriteCharacteristic forwards to a backend that supports characteristic writes.
func (t *Transport) WriteCharacteristic(ctx context.Context, id device.SocketID, uuid string, data []byte) error {
	r, err := t.route("write", id)
	if err != nil {
		return err
	}
	w, ok := r.backend.(device.CharacteristicWriter)
	if !ok {
		return fmt.Errorf("characteristic write: %w", device.ErrUnsupported)
	}
	return w.WriteCharacteristic(ctx, r.id, uuid, data)
}

func (t *Transport) Disconnect(ctx context.Context, id device.SocketID) error {
	r, err := t.route("disconnect", id)
	if err != nil {
		return err
	}
	if r.backend == nil {
		return nil
	}
	return r.backend.Disconnect(ctx, r.id)
}

func (t *Transport) Close(ctx context.Context, id device.SocketID) error {
	r, err := t.route("close", id)
	if err != nil {
		return err
	}
	if r.backend != nil {
		t.release(ctx, r)
	}
	t.routes.Del(id)
	return nil
}

func (t *Transport) GetInfo(ctx context.Context, id device.SocketID) (device.SocketInfo, error) {
	r, err := t.route("info", id)
	if err != nil {
		return device.SocketInfo{}, err
	}
	if r.backend == nil {
		return device.SocketInfo{ID: id}, nil
	}
	info, err := r.backend.GetInfo(ctx, r.id)
	if err != nil {
		return device.SocketInfo{}, err
	}
	info.ID = id
	return info, nil
}

func (t *Transport) GetSockets(ctx context.Context) ([]device.SocketInfo, error) {
	var ids []device.SocketID
	t.routes.Range(func(id device.SocketID, _ *route) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]device.SocketInfo, 0, len(ids))
	for _, id := range ids {
		info, err := t.GetInfo(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

func (t *Transport) SetPaused(ctx context.Context, id device.SocketID, paused bool) error {
	r, err := t.route("pause", id)
	if err != nil {
		return err
	}
	if r.backend == nil {
		return nil
	}
	return r.backend.SetPaused(ctx, r.id, paused)
}
