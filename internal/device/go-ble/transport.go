package goble

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/groutine"
)

type socket struct {
	id device.SocketID

	mu      sync.Mutex
	address string
	uuid    string
	client  Client
	write   *ble.Characteristic
	notify  []*ble.Characteristic
	chars   map[string]*ble.Characteristic
	paused  atomic.Bool
	cancel  context.CancelFunc
}

func (s *socket) info() device.SocketInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return device.SocketInfo{
		ID:        s.id,
		Address:   s.address,
		UUID:      s.uuid,
		Connected: s.client != nil,
		Paused:    s.paused.Load(),
	}
}

// Transport maps sockets onto GATT connections. The connect UUID names either a service
// or a characteristic: writes go to the first writable characteristic of that service and
// every notifying characteristic in it feeds the receiver.
type Transport struct {
	// ConnectTimeout bounds dialing and profile discovery. Zero leaves it to ctx.
	ConnectTimeout time.Duration

	logger *logrus.Logger
	nextID atomic.Int64

	mu       sync.RWMutex
	central  Central
	receiver device.Receiver
	sockets  *hashmap.Map[device.SocketID, *socket]
}

// NewTransport creates a GATT transport. The host central is opened on first connect.
func NewTransport(logger *logrus.Logger) *Transport {
	return &Transport{
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

func (t *Transport) open() (Central, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.central != nil {
		return t.central, nil
	}
	c, err := DeviceFactory()
	if err != nil {
		return nil, err
	}
	t.central = c
	return c, nil
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

func (t *Transport) Connect(ctx context.Context, id device.SocketID, address, uuid string) error {
	s, err := t.socket("connect", id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return device.ErrAlreadyConnected
	}

	central, err := t.open()
	if err != nil {
		return err
	}

	connCtx, cancel := ctx, context.CancelFunc(func() {})
	if t.ConnectTimeout > 0 {
		connCtx, cancel = context.WithTimeout(ctx, t.ConnectTimeout)
	}
	defer cancel()

	logger := t.logger.WithFields(logrus.Fields{"address": address, "uuid": uuid})
	logger.Debug("Dialing BLE device...")
	client, err := central.Dial(connCtx, address)
	if err != nil {
		return connectFailed(err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cerr := client.CancelConnection(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to cancel connection during profile discovery failure")
		}
		return connectFailed(err)
	}

	write, notify, chars := selectCharacteristics(profile, uuid)
	if write == nil {
		if cerr := client.CancelConnection(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to cancel connection")
		}
		return &device.TransportError{
			Op:   "connect",
			Kind: device.KindConnectFailed,
			Err:  &device.NotFoundError{Resource: "characteristic", Names: []string{uuid}},
		}
	}

	for _, c := range notify {
		indicate := c.Property&ble.CharNotify == 0
		if err := client.Subscribe(c, indicate, func(data []byte) { t.deliver(s, data) }); err != nil {
			logger.WithError(err).WithField("char_uuid", c.UUID.String()).Warn("Failed to subscribe")
		}
	}

	s.address, s.uuid = address, uuid
	s.client, s.write, s.notify, s.chars = client, write, notify, chars
	s.paused.Store(false)

	monitorCtx, stop := context.WithCancel(context.Background())
	s.cancel = stop
	if dc, ok := client.(interface{ Disconnected() <-chan struct{} }); ok {
		groutine.Go(monitorCtx, "ble-connection-monitor", func(ctx context.Context) {
			select {
			case <-dc.Disconnected():
				t.dropped(s, client)
			case <-ctx.Done():
			}
		})
	}

	logger.WithFields(logrus.Fields{
		"write":  write.UUID.String(),
		"notify": len(notify),
	}).Info("BLE device connected")
	return nil
}

func connectFailed(err error) error {
	err = NormalizeError("connect", err)
	if terr, ok := err.(*device.TransportError); ok && terr.Kind == device.KindUnknown {
		terr.Kind = device.KindConnectFailed
	}
	return err
}

// selectCharacteristics resolves the write and notify characteristics for target and
// indexes every discovered characteristic by normalized UUID.
func selectCharacteristics(p *ble.Profile, target string) (*ble.Characteristic, []*ble.Characteristic, map[string]*ble.Characteristic) {
	target = device.NormalizeUUID(target)
	chars := make(map[string]*ble.Characteristic)
	var scope *ble.Service
	var exact *ble.Characteristic

	for _, svc := range p.Services {
		if device.NormalizeUUID(svc.UUID.String()) == target {
			scope = svc
		}
		for _, c := range svc.Characteristics {
			u := device.NormalizeUUID(c.UUID.String())
			chars[u] = c
			if u == target && scope == nil {
				scope, exact = svc, c
			}
		}
	}
	if scope == nil {
		return nil, nil, chars
	}

	write := exact
	if write != nil && !writable(write) {
		write = nil
	}
	var notify []*ble.Characteristic
	for _, c := range scope.Characteristics {
		if write == nil && writable(c) {
			write = c
		}
		if c.Property&(ble.CharNotify|ble.CharIndicate) != 0 {
			notify = append(notify, c)
		}
	}
	return write, notify, chars
}

func writable(c *ble.Characteristic) bool {
	return c.Property&(ble.CharWrite|ble.CharWriteNR) != 0
}

func (t *Transport) deliver(s *socket, data []byte) {
	if s.paused.Load() {
		return
	}
	if r := t.currentReceiver(); r != nil {
		r.OnReceive(s.id, append([]byte(nil), data...))
	}
}

// dropped handles a link the platform reported as gone.
func (t *Transport) dropped(s *socket, client Client) {
	s.mu.Lock()
	if s.client != client {
		s.mu.Unlock()
		return
	}
	s.client, s.write, s.notify = nil, nil, nil
	s.mu.Unlock()

	t.logger.WithField("address", s.address).Warn("BLE device reported disconnection")
	if r := t.currentReceiver(); r != nil {
		r.OnReceiveError(s.id, &device.TransportError{
			Op:   "receive",
			Kind: device.KindDisconnected,
			Err:  device.ErrNotConnected,
		})
	}
}

func (t *Transport) Send(_ context.Context, id device.SocketID, data []byte) (int, error) {
	s, err := t.socket("send", id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	client, c := s.client, s.write
	s.mu.Unlock()
	if client == nil {
		return 0, &device.TransportError{Op: "send", Kind: device.KindTransient, Err: device.ErrNotConnected}
	}
	if err := client.WriteCharacteristic(c, data, c.Property&ble.CharWrite == 0); err != nil {
		return 0, NormalizeError("send", err)
	}
	return len(data), nil
}

// WriteCharacteristic writes data to any discovered characteristic of the socket.
func (t *Transport) WriteCharacteristic(_ context.Context, id device.SocketID, uuid string, data []byte) error {
	s, err := t.socket("write", id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	client, c := s.client, s.chars[device.NormalizeUUID(uuid)]
	s.mu.Unlock()
	if client == nil {
		return device.ErrNotConnected
	}
	if c == nil {
		return &device.NotFoundError{Resource: "characteristic", Names: []string{uuid}}
	}
	if err := client.WriteCharacteristic(c, data, c.Property&ble.CharWrite == 0); err != nil {
		return NormalizeError("write", err)
	}
	return nil
}

func (t *Transport) Disconnect(_ context.Context, id device.SocketID) error {
	s, err := t.socket("disconnect", id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	client, notify, cancel := s.client, s.notify, s.cancel
	s.client, s.write, s.notify, s.cancel = nil, nil, nil, nil
	s.mu.Unlock()
	if client == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}
	for _, c := range notify {
		if err := client.Unsubscribe(c, c.Property&ble.CharNotify == 0); err != nil {
			t.logger.WithError(err).WithField("char_uuid", c.UUID.String()).Debug("Failed to unsubscribe")
		}
	}
	if err := client.CancelConnection(); err != nil {
		return NormalizeError("disconnect", err)
	}
	t.logger.WithField("address", s.address).Info("BLE device disconnected")
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
