package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/srg/botlink/internal/device"
	"github.com/stretchr/testify/mock"
)

// MockTransport is a testify mock of device.Transport for strict call assertions.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Create(ctx context.Context) (device.SocketID, error) {
	args := m.Called(ctx)
	return args.Get(0).(device.SocketID), args.Error(1)
}

func (m *MockTransport) Connect(ctx context.Context, id device.SocketID, address, uuid string) error {
	return m.Called(ctx, id, address, uuid).Error(0)
}

func (m *MockTransport) Send(ctx context.Context, id device.SocketID, data []byte) (int, error) {
	args := m.Called(ctx, id, data)
	return args.Int(0), args.Error(1)
}

func (m *MockTransport) Disconnect(ctx context.Context, id device.SocketID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTransport) Close(ctx context.Context, id device.SocketID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTransport) GetInfo(ctx context.Context, id device.SocketID) (device.SocketInfo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(device.SocketInfo), args.Error(1)
}

func (m *MockTransport) GetSockets(ctx context.Context) ([]device.SocketInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]device.SocketInfo), args.Error(1)
}

func (m *MockTransport) SetPaused(ctx context.Context, id device.SocketID, paused bool) error {
	return m.Called(ctx, id, paused).Error(0)
}

func (m *MockTransport) SetReceiver(r device.Receiver) {
	m.Called(r)
}

// FakeTransport is an in-memory device.Transport. Sockets connect instantly unless
// ConnectGate is set, in which case Connect blocks until the gate is closed.
type FakeTransport struct {
	mu       sync.Mutex
	nextID   device.SocketID
	sockets  map[device.SocketID]*device.SocketInfo
	receiver device.Receiver

	ConnectGate chan struct{}
	ConnectErr  error
	SendErr     error
	InfoErr     error

	CreateCalls     int
	ConnectCalls    int
	DisconnectCalls int
	Sent            [][]byte
	CharWrites      map[string][][]byte
}

// NewFakeTransport returns an empty FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		sockets:    make(map[device.SocketID]*device.SocketInfo),
		CharWrites: make(map[string][][]byte),
	}
}

func (f *FakeTransport) Create(context.Context) (device.SocketID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	f.nextID++
	f.sockets[f.nextID] = &device.SocketInfo{ID: f.nextID}
	return f.nextID, nil
}

func (f *FakeTransport) Connect(ctx context.Context, id device.SocketID, address, uuid string) error {
	f.mu.Lock()
	f.ConnectCalls++
	gate := f.ConnectGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	s, ok := f.sockets[id]
	if !ok {
		return fmt.Errorf("socket not found: %d", id)
	}
	s.Address = address
	s.UUID = uuid
	s.Connected = true
	return nil
}

func (f *FakeTransport) Send(_ context.Context, id device.SocketID, data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return 0, f.SendErr
	}
	f.Sent = append(f.Sent, append([]byte(nil), data...))
	return len(data), nil
}

func (f *FakeTransport) Disconnect(_ context.Context, id device.SocketID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DisconnectCalls++
	if s, ok := f.sockets[id]; ok {
		s.Connected = false
	}
	return nil
}

func (f *FakeTransport) Close(_ context.Context, id device.SocketID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sockets, id)
	return nil
}

func (f *FakeTransport) GetInfo(_ context.Context, id device.SocketID) (device.SocketInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InfoErr != nil {
		return device.SocketInfo{}, f.InfoErr
	}
	s, ok := f.sockets[id]
	if !ok {
		return device.SocketInfo{}, &device.TransportError{Op: "getInfo", Kind: device.KindSocketNotFound}
	}
	return *s, nil
}

func (f *FakeTransport) GetSockets(context.Context) ([]device.SocketInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]device.SocketInfo, 0, len(f.sockets))
	for _, s := range f.sockets {
		out = append(out, *s)
	}
	return out, nil
}

func (f *FakeTransport) SetPaused(_ context.Context, id device.SocketID, paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sockets[id]; ok {
		s.Paused = paused
	}
	return nil
}

func (f *FakeTransport) SetReceiver(r device.Receiver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiver = r
}

func (f *FakeTransport) WriteCharacteristic(_ context.Context, _ device.SocketID, uuid string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CharWrites[uuid] = append(f.CharWrites[uuid], append([]byte(nil), data...))
	return nil
}

// OpenSocket registers an already connected socket, as left behind by a previous run.
func (f *FakeTransport) OpenSocket(address string) device.SocketID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sockets[f.nextID] = &device.SocketInfo{ID: f.nextID, Address: address, Connected: true}
	return f.nextID
}

// Emit delivers inbound bytes to the registered receiver.
func (f *FakeTransport) Emit(id device.SocketID, data []byte) {
	f.mu.Lock()
	r := f.receiver
	f.mu.Unlock()
	if r != nil {
		r.OnReceive(id, data)
	}
}

// EmitError delivers a receive error to the registered receiver.
func (f *FakeTransport) EmitError(id device.SocketID, err error) {
	f.mu.Lock()
	r := f.receiver
	f.mu.Unlock()
	if r != nil {
		r.OnReceiveError(id, err)
	}
}

// SentFrames returns a copy of everything sent so far.
func (f *FakeTransport) SentFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.Sent))
	copy(out, f.Sent)
	return out
}

// ResetSent forgets recorded sends.
func (f *FakeTransport) ResetSent() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = nil
}

// Calls returns (create, connect) call counts.
func (f *FakeTransport) Calls() (create, connect int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CreateCalls, f.ConnectCalls
}

// FakeAdapter is an in-memory device.Adapter.
type FakeAdapter struct {
	mu       sync.Mutex
	devices  []device.DeviceInfo
	listener device.AdapterListener
	calls    int
}

func NewFakeAdapter(devices ...device.DeviceInfo) *FakeAdapter {
	return &FakeAdapter{devices: devices}
}

func (a *FakeAdapter) GetDevices(context.Context) ([]device.DeviceInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return append([]device.DeviceInfo(nil), a.devices...), nil
}

func (a *FakeAdapter) SetListener(l device.AdapterListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

// SetDevices replaces the reported peripheral list.
func (a *FakeAdapter) SetDevices(devices ...device.DeviceInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.devices = devices
}

// GetDevicesCalls returns how many scans were requested.
func (a *FakeAdapter) GetDevicesCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Listener returns the registered listener.
func (a *FakeAdapter) Listener() device.AdapterListener {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener
}
