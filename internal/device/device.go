package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/frame"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SocketEvent is fired with the socket and address a connection state change applies to.
type SocketEvent func(id SocketID, address string)

// ConnectCallback is the one-shot continuation of Connect.
type ConnectCallback func(d *Device)

// Device is one paired or discovered robot peripheral. Device values are long-lived: the
// registry creates one per address and reuses it across reconnects.
//
// State machine: disconnected -> connecting -> connected -> disconnected. A Connect while
// connecting is a no-op. hasSocket is true only after a transport connection succeeded
// and until the socket is closed; connected is the authoritative "usable now" flag.
type Device struct {
	mu     sync.RWMutex
	sendMu sync.Mutex
	recvMu sync.Mutex

	logger    *logrus.Logger
	transport Transport

	address     string
	name        string
	deviceClass uint32
	uuids       []string
	profile     *Profile

	connected   bool
	connecting  bool
	paired      bool
	connectable bool
	paused      bool

	socketID  SocketID
	hasSocket bool

	connectErrors int

	handlers   *orderedmap.OrderedMap[string, *dataHandler]
	handlerAll FrameCallback

	connectEvent       SocketEvent
	disconnectEvent    SocketEvent
	connectCallback    ConnectCallback
	disconnectCallback func()
}

// New creates a Device for a discovered peripheral. profile may be nil for peripherals
// that were registered without a match; such devices cannot connect.
func New(info DeviceInfo, profile *Profile, transport Transport, logger *logrus.Logger) *Device {
	if logger == nil {
		logger = logrus.New()
	}
	return &Device{
		logger:      logger,
		transport:   transport,
		address:     info.Address,
		name:        info.Name,
		deviceClass: info.DeviceClass,
		uuids:       append([]string(nil), info.UUIDs...),
		profile:     profile,
		connected:   info.Connected,
		paired:      info.Paired,
		connectable: info.Connectable,
		handlers:    orderedmap.New[string, *dataHandler](),
	}
}

// Address returns the Bluetooth address the device was discovered with.
func (d *Device) Address() string { return d.address }

// Name returns the advertised name, which a rescan may refresh.
func (d *Device) Name() string { return d.name }

// DeviceClass returns the classic Bluetooth class of device, 0 for LE peripherals.
func (d *Device) DeviceClass() uint32 { return d.deviceClass }

// UUIDs returns a copy of the advertised service UUIDs.
func (d *Device) UUIDs() []string {
	return append([]string(nil), d.uuids...)
}

// Profile returns the matched hardware profile, or nil.
func (d *Device) Profile() *Profile { return d.profile }

// Type returns the matched profile name, or "".
func (d *Device) Type() string {
	if d.profile == nil {
		return ""
	}
	return d.profile.Name
}

// Indicator returns the profile's name indicator, or "".
func (d *Device) Indicator() string {
	if d.profile == nil {
		return ""
	}
	return d.profile.Indicator
}

// IsConnected reports whether the socket is connected.
func (d *Device) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// IsConnecting reports whether a Connect call is in flight.
func (d *Device) IsConnecting() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connecting
}

// IsConnectable reports whether the last scan saw the device as connectable.
func (d *Device) IsConnectable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connectable
}

// IsPaired reports whether the platform lists the device as paired.
func (d *Device) IsPaired() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.paired
}

// IsPaused reports whether inbound delivery is paused.
func (d *Device) IsPaused() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.paused
}

// SocketID returns the current socket and whether there is one.
func (d *Device) SocketID() (SocketID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.socketID, d.hasSocket
}

// HasSocket reports whether a transport socket is associated.
func (d *Device) HasSocket() bool {
	_, ok := d.SocketID()
	return ok
}

// ConnectErrors returns how many connect attempts failed with a connection failure.
func (d *Device) ConnectErrors() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connectErrors
}

// Info returns a snapshot in adapter form.
func (d *Device) Info() DeviceInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return DeviceInfo{
		Address:     d.address,
		Name:        d.name,
		DeviceClass: d.deviceClass,
		UUIDs:       append([]string(nil), d.uuids...),
		Connected:   d.connected,
		Connectable: d.connectable,
		Paired:      d.paired,
	}
}

// SetConnectable overrides the connectable flag until the next scan.
func (d *Device) SetConnectable(connectable bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connectable = connectable
}

// SetConnectEvent registers fn to run after every successful connect.
func (d *Device) SetConnectEvent(fn SocketEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connectEvent = fn
}

// SetDisconnectEvent registers fn to run after every disconnect.
func (d *Device) SetDisconnectEvent(fn SocketEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnectEvent = fn
}

func (d *Device) log() *logrus.Entry {
	return d.logger.WithFields(logrus.Fields{
		"address": d.address,
		"name":    d.name,
	})
}

// Connect opens a socket to the device using the profile's service UUID and blocks until
// the attempt finishes. It is a no-op while another attempt is in flight and when the
// device is already connected. onConnected fires once, after a successful connection.
func (d *Device) Connect(ctx context.Context, onConnected ConnectCallback) error {
	d.mu.Lock()
	if d.connecting {
		d.mu.Unlock()
		d.log().Debug("Connect ignored: connection attempt already in progress")
		return nil
	}
	if d.connected && d.hasSocket {
		id := d.socketID
		d.mu.Unlock()
		d.log().WithField("socket", id).Warn("Device is already connected")
		return nil
	}
	if d.profile == nil {
		d.mu.Unlock()
		return &NotFoundError{Resource: "profile", Names: []string{d.address}}
	}
	d.connecting = true
	d.connectCallback = onConnected
	uuid := d.profile.UUID
	d.mu.Unlock()

	d.log().Info("Connecting device...")

	id, err := d.transport.Create(ctx)
	if err != nil {
		d.log().WithError(err).Warn("Failed to create socket")
		d.mu.Lock()
		d.connecting = false
		d.connectCallback = nil
		d.mu.Unlock()
		return fmt.Errorf("failed to create socket for %s: %w", d.address, err)
	}

	d.log().WithField("socket", id).Debug("Connecting socket...")
	if err := d.transport.Connect(ctx, id, d.address, uuid); err != nil {
		return d.handleConnectError(ctx, id, err)
	}

	d.handleConnect(ctx, id)
	return nil
}

func (d *Device) handleConnectError(ctx context.Context, id SocketID, err error) error {
	kind := Classify(err)
	d.log().WithFields(logrus.Fields{
		"socket": id,
		"kind":   kind,
		"error":  err,
	}).Warn("Socket connection failed")

	d.mu.Lock()
	if kind == KindConnectFailed {
		d.connectErrors++
	}
	d.connecting = false
	d.connectCallback = nil
	d.mu.Unlock()

	// release the socket that never connected
	if cerr := d.transport.Close(ctx, id); cerr != nil {
		d.log().WithError(cerr).Debug("Failed to close unconnected socket")
	}
	return fmt.Errorf("failed to connect %s: %w", d.address, err)
}

func (d *Device) handleConnect(ctx context.Context, id SocketID) {
	d.mu.Lock()
	d.socketID = id
	d.hasSocket = true
	d.connected = true
	d.connecting = false
	event := d.connectEvent
	cb := d.connectCallback
	d.connectCallback = nil
	d.mu.Unlock()

	d.log().WithField("socket", id).Info("Connected to socket")
	d.UpdateInfo(ctx)

	if event != nil {
		event(id, d.address)
	}
	if cb != nil {
		cb(d)
	}
}

// Disconnect asks the transport to disconnect the socket. Without a socket it only
// clears a stuck connecting flag when force is set. cb runs once the device is
// disconnected, or immediately when there was nothing to disconnect.
func (d *Device) Disconnect(ctx context.Context, force bool, cb func()) error {
	d.mu.Lock()
	if !d.hasSocket {
		if force {
			d.connecting = false
		}
		d.mu.Unlock()
		if cb != nil {
			cb()
		}
		return nil
	}
	id := d.socketID
	d.disconnectCallback = cb
	d.mu.Unlock()

	err := d.transport.Disconnect(ctx, id)
	if err != nil {
		d.log().WithError(err).Warn("Socket disconnect reported an error")
	}
	d.handleDisconnect(ctx)
	return err
}

func (d *Device) handleDisconnect(ctx context.Context) {
	d.mu.Lock()
	id := d.socketID
	d.connected = false
	d.connecting = false
	d.connectCallback = nil
	event := d.disconnectEvent
	cb := d.disconnectCallback
	d.disconnectCallback = nil
	d.mu.Unlock()

	d.log().WithField("socket", id).Warn("Disconnected from socket")
	d.UpdateInfo(ctx)
	d.resetReaders()

	if event != nil {
		event(id, d.address)
	}
	if cb != nil {
		cb()
	}
}

// Close closes the socket and forgets it.
func (d *Device) Close(ctx context.Context) {
	d.mu.RLock()
	id, ok := d.socketID, d.hasSocket
	d.mu.RUnlock()
	if !ok {
		return
	}
	if err := d.transport.Close(ctx, id); err != nil {
		d.log().WithError(err).Debug("Socket close reported an error")
	}
	d.handleClose(id)
}

func (d *Device) handleClose(id SocketID) {
	d.mu.Lock()
	d.connected = false
	d.connecting = false
	d.hasSocket = false
	d.socketID = 0
	d.mu.Unlock()

	d.resetReaders()
	d.log().WithField("socket", id).Info("Closed socket")
}

// UpdateInfo refreshes connected/paused from the transport. A socket the platform no
// longer knows is treated as closed.
func (d *Device) UpdateInfo(ctx context.Context) {
	d.mu.RLock()
	id, ok := d.socketID, d.hasSocket
	d.mu.RUnlock()
	if !ok {
		return
	}

	info, err := d.transport.GetInfo(ctx, id)
	if err != nil {
		if Classify(err) == KindSocketNotFound {
			d.handleClose(id)
			return
		}
		d.log().WithError(err).Debug("Failed to refresh socket info")
		return
	}

	d.mu.Lock()
	d.connected = info.Connected
	d.paused = info.Paused
	d.mu.Unlock()
}

// GetSocket adopts an already open platform socket for this address, e.g. after the
// process restarted while the robot stayed connected.
func (d *Device) GetSocket(ctx context.Context) error {
	sockets, err := d.transport.GetSockets(ctx)
	if err != nil {
		d.mu.Lock()
		d.hasSocket = false
		d.socketID = 0
		d.connected = false
		d.mu.Unlock()
		return fmt.Errorf("failed to list sockets: %w", err)
	}

	for _, s := range sockets {
		d.mu.Lock()
		adopt := s.Connected && s.Address == d.address && (!d.hasSocket || d.socketID != s.ID)
		if adopt {
			d.socketID = s.ID
			d.hasSocket = true
			d.paused = s.Paused
		}
		d.mu.Unlock()

		if adopt {
			d.log().WithField("socket", s.ID).Info("Reconnecting device to existing socket")
			d.UpdateInfo(ctx)
			return nil
		}
	}
	return nil
}

// Send writes data to the socket. Without a socket it does nothing. Transient link
// errors only mark the device disconnected; other errors are returned.
func (d *Device) Send(ctx context.Context, data []byte) error {
	d.mu.RLock()
	id, ok := d.socketID, d.hasSocket
	d.mu.RUnlock()
	if !ok {
		return nil
	}

	d.sendMu.Lock()
	_, err := d.transport.Send(ctx, id, data)
	d.sendMu.Unlock()
	if err == nil {
		if d.logger.IsLevelEnabled(logrus.TraceLevel) {
			d.log().WithField("data", fmt.Sprintf("% X", data)).Trace("Sent")
		}
		return nil
	}

	if Classify(err) == KindTransient {
		d.mu.Lock()
		d.connected = false
		d.mu.Unlock()
		d.log().WithError(err).Debug("Send on a dropped link")
		return nil
	}

	d.log().WithError(err).Error("Socket error")
	d.UpdateInfo(ctx)
	return fmt.Errorf("send to %s failed: %w", d.address, err)
}

// WriteCharacteristic writes directly to a GATT characteristic when the transport supports it.
func (d *Device) WriteCharacteristic(ctx context.Context, uuid string, data []byte) error {
	w, ok := d.transport.(CharacteristicWriter)
	if !ok {
		return fmt.Errorf("characteristic write: %w", ErrUnsupported)
	}
	id, has := d.SocketID()
	if !has {
		return ErrNoSocket
	}
	return w.WriteCharacteristic(ctx, id, uuid, data)
}

// Pause stops inbound delivery on a connected socket.
func (d *Device) Pause(ctx context.Context) error {
	return d.setPaused(ctx, true)
}

// Unpause resumes inbound delivery.
func (d *Device) Unpause(ctx context.Context) error {
	return d.setPaused(ctx, false)
}

func (d *Device) setPaused(ctx context.Context, paused bool) error {
	d.mu.RLock()
	id, connected, current := d.socketID, d.connected && d.hasSocket, d.paused
	d.mu.RUnlock()
	if !connected || current == paused {
		return nil
	}
	if err := d.transport.SetPaused(ctx, id, paused); err != nil {
		return fmt.Errorf("set paused=%t: %w", paused, err)
	}
	d.UpdateInfo(ctx)
	return nil
}

// SetDataHandler registers callback for frames starting with header, buffered until at
// least minSize bytes are available. A nil header registers the catch-all handler, which
// receives every raw chunk unframed.
func (d *Device) SetDataHandler(callback FrameCallback, header []byte, minSize int) {
	if len(header) == 0 {
		d.recvMu.Lock()
		d.handlerAll = callback
		d.recvMu.Unlock()
		return
	}
	if minSize <= 0 {
		minSize = DefaultMinFrameSize
	}
	d.SetFrameHandler(callback, frame.Options{
		Headers: [][]byte{append([]byte(nil), header...)},
		MinSize: minSize,
	})
}

// SetFrameHandler registers callback with full framing options. Handlers are keyed by
// their headers; registering the same headers again replaces the previous handler.
func (d *Device) SetFrameHandler(callback FrameCallback, opts frame.Options) {
	key := handlerKey(opts.Headers)
	d.recvMu.Lock()
	defer d.recvMu.Unlock()
	d.handlers.Set(key, &dataHandler{
		key:      key,
		reader:   frame.NewStreamReader(opts),
		callback: callback,
	})
}

// RemoveDataHandlers drops every registered handler.
func (d *Device) RemoveDataHandlers() {
	d.recvMu.Lock()
	defer d.recvMu.Unlock()
	d.handlers = orderedmap.New[string, *dataHandler]()
	d.handlerAll = nil
}

// HandleData feeds one inbound chunk to the catch-all handler and to every header
// handler. Each handler advances its own reader over the same bytes. Callbacks run after
// the readers are released, so they may send, close or re-register handlers.
func (d *Device) HandleData(data []byte) {
	if len(data) == 0 {
		return
	}

	d.recvMu.Lock()
	all := d.handlerAll
	var ready []readyFrame
	for pair := d.handlers.Oldest(); pair != nil; pair = pair.Next() {
		ready = pair.Value.collect(data, ready)
	}
	d.recvMu.Unlock()

	if all != nil {
		all(append([]byte(nil), data...))
	}
	for _, r := range ready {
		r.callback(r.frame)
	}
}

// HandleError processes an asynchronous receive error. A dropped link takes the
// disconnect path and closes the socket; anything else only clears connecting.
func (d *Device) HandleError(ctx context.Context, err error) {
	d.log().WithError(err).Debug("Receive error")

	if Classify(err) == KindDisconnected && d.HasSocket() {
		d.handleDisconnect(ctx)
		d.Close(ctx)
	}

	d.mu.Lock()
	d.connecting = false
	d.mu.Unlock()
}

func (d *Device) resetReaders() {
	d.recvMu.Lock()
	defer d.recvMu.Unlock()
	for pair := d.handlers.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.reader.Reset()
	}
}

// Update refreshes the identity fields and the connectable flag from a rescan.
func (d *Device) Update(info DeviceInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if info.Name != "" {
		d.name = info.Name
	}
	d.uuids = append([]string(nil), info.UUIDs...)
	d.connectable = info.Connectable
	d.paired = info.Paired
}
