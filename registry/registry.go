// Package registry discovers robot peripherals through the platform adapter and keeps one
// long-lived device.Device per matched address.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/events"
	"github.com/srg/botlink/internal/groutine"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	DefaultRescanInterval   = 5 * time.Second
	DefaultThrottleInterval = time.Second
	defaultEventCapacity    = 100
)

// Options configures a Devices registry. Zero values select the defaults.
type Options struct {
	RescanInterval   time.Duration
	ThrottleInterval time.Duration
	// Profiles replaces the built-in profile table. Order is match order.
	Profiles []device.Profile
}

// ConnectedFunc receives the device handed out by AutoConnectDevice.
type ConnectedFunc func(dev *device.Device, address string)

// Devices is the address-keyed registry of robot peripherals. It is the transport
// Receiver and the adapter listener.
type Devices struct {
	mu     sync.Mutex
	scanMu sync.Mutex

	logger    *logrus.Logger
	adapter   device.Adapter
	transport device.Transport
	options   Options

	profiles  *orderedmap.OrderedMap[string, *device.Profile]
	devices   *hashmap.Map[string, *device.Device]
	socketIDs *hashmap.Map[device.SocketID, *device.Device]

	fingerprint  string
	unknownNames *hashmap.Map[string, struct{}]

	events   *events.RingChannel[Event]
	throttle *Throttle

	ctx      context.Context
	cancel   context.CancelFunc
	prepared bool
}

// New creates an unprepared registry.
func New(adapter device.Adapter, transport device.Transport, opts Options, logger *logrus.Logger) *Devices {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.RescanInterval <= 0 {
		opts.RescanInterval = DefaultRescanInterval
	}
	if opts.ThrottleInterval <= 0 {
		opts.ThrottleInterval = DefaultThrottleInterval
	}
	if len(opts.Profiles) == 0 {
		opts.Profiles = device.DefaultProfiles()
	}

	profiles := orderedmap.New[string, *device.Profile]()
	for i := range opts.Profiles {
		p := opts.Profiles[i]
		profiles.Set(p.Name, &p)
	}

	return &Devices{
		logger:       logger,
		adapter:      adapter,
		transport:    transport,
		options:      opts,
		profiles:     profiles,
		devices:      hashmap.New[string, *device.Device](),
		socketIDs:    hashmap.New[device.SocketID, *device.Device](),
		unknownNames: hashmap.New[string, struct{}](),
		events:       events.NewRingChannel[Event](defaultEventCapacity),
		ctx:          context.Background(),
	}
}

// Prepare closes sockets left over by a previous run, subscribes to adapter and
// transport notifications, starts the periodic rescan and runs the first scan.
// Calling it again is a no-op.
func (d *Devices) Prepare(ctx context.Context) error {
	d.mu.Lock()
	if d.prepared {
		d.mu.Unlock()
		return nil
	}
	d.prepared = true
	d.ctx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
	d.throttle = NewThrottle(d.options.ThrottleInterval, func() {
		if err := d.UpdateDevices(d.ctx); err != nil {
			d.logger.WithError(err).Warn("Throttled rescan failed")
		}
	})
	runCtx := d.ctx
	d.mu.Unlock()

	d.logger.Debug("Preparing devices...")
	d.closeSockets(ctx)
	d.transport.SetReceiver(d)
	d.adapter.SetListener(d)

	groutine.Every(runCtx, "registry-rescan", d.options.RescanInterval, func(ctx context.Context) {
		if err := d.UpdateDevices(ctx); err != nil {
			d.logger.WithError(err).Debug("Periodic rescan failed")
		}
	})
	return d.UpdateDevices(ctx)
}

func (d *Devices) closeSockets(ctx context.Context) {
	sockets, err := d.transport.GetSockets(ctx)
	if err != nil {
		d.logger.WithError(err).Debug("Failed to list existing sockets")
		return
	}
	for _, s := range sockets {
		if err := d.transport.Close(ctx, s.ID); err != nil {
			d.logger.WithError(err).WithField("socket", s.ID).Debug("Failed to close stale socket")
			continue
		}
		d.logger.WithField("socket", s.ID).Debug("Closed stale socket")
	}
}

// UpdateDevices fetches the peripheral list and reconciles the registry with it. A list
// identical to the previous one is ignored.
func (d *Devices) UpdateDevices(ctx context.Context) error {
	d.scanMu.Lock()
	defer d.scanMu.Unlock()

	infos, err := d.adapter.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Address < infos[j].Address })
	fp, err := json.Marshal(infos)
	if err != nil {
		return fmt.Errorf("failed to fingerprint devices: %w", err)
	}

	d.mu.Lock()
	unchanged := d.fingerprint != "" && d.fingerprint == string(fp)
	d.mu.Unlock()
	if unchanged {
		return nil
	}

	if len(infos) == 0 {
		d.logger.Warn("Did not find any Bluetooth devices!")
	}

	for _, info := range infos {
		d.reconcile(ctx, info)
	}

	d.mu.Lock()
	d.fingerprint = string(fp)
	d.mu.Unlock()
	return nil
}

func (d *Devices) reconcile(ctx context.Context, info device.DeviceInfo) {
	profile := d.GetDeviceProfile(info)
	if profile == nil {
		d.logger.WithFields(logrus.Fields{
			"address": info.Address,
			"name":    info.Name,
		}).Debug("Found no device profile")
		return
	}

	dev, known := d.devices.Get(info.Address)
	if known {
		dev.Update(info)
		dev.UpdateInfo(ctx)
	} else {
		dev = device.New(info, profile, d.transport, d.logger)
		dev.SetConnectEvent(d.handleConnect)
		dev.SetDisconnectEvent(d.handleDisconnect)

		d.mu.Lock()
		d.devices.Set(info.Address, dev)
		d.mu.Unlock()

		d.logger.WithFields(logrus.Fields{
			"address": info.Address,
			"name":    info.Name,
			"profile": profile.Name,
		}).Info("Found device")
		d.emit(DeviceAdded, dev)
	}

	if info.Connected {
		if err := dev.GetSocket(ctx); err != nil {
			d.logger.WithError(err).Debug("Failed to look up existing socket")
			return
		}
		if id, ok := dev.SocketID(); ok {
			d.mu.Lock()
			d.socketIDs.Set(id, dev)
			d.mu.Unlock()
		}
	}
}

// GetDeviceProfile returns the first profile info matches, or nil.
func (d *Devices) GetDeviceProfile(info device.DeviceInfo) *device.Profile {
	for pair := d.profiles.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Matches(info) {
			return pair.Value
		}
	}
	return nil
}

// GetDevice returns the device registered for address.
func (d *Devices) GetDevice(address string) (*device.Device, error) {
	if dev, ok := d.devices.Get(address); ok {
		return dev, nil
	}
	d.logger.WithField("address", address).Error("Bluetooth device address is unknown")
	return nil, &device.NotFoundError{Resource: "device", Names: []string{address}}
}

// GetDeviceByName finds a device whose profile indicator contains name. Connected
// devices win over disconnected ones; among equal candidates multiSearch picks one at
// random, otherwise the lowest address wins.
func (d *Devices) GetDeviceByName(name string, multiSearch bool) *device.Device {
	var connected, disconnected []*device.Device
	for _, dev := range d.List() {
		if !strings.Contains(dev.Indicator(), name) {
			continue
		}
		if dev.IsConnected() {
			connected = append(connected, dev)
		} else {
			disconnected = append(disconnected, dev)
		}
	}

	switch {
	case len(connected) > 0:
		d.unknownNames.Del(name)
		return pick(connected, multiSearch)
	case len(disconnected) > 0:
		return pick(disconnected, multiSearch)
	}

	if _, logged := d.unknownNames.GetOrInsert(name, struct{}{}); !logged {
		d.logger.WithField("name", name).Error("Bluetooth device with name is unknown")
	}
	return nil
}

func pick(candidates []*device.Device, random bool) *device.Device {
	if random && len(candidates) > 1 {
		return candidates[rand.IntN(len(candidates))]
	}
	return candidates[0]
}

// AutoConnectDevice looks up a device by name and makes sure it is connected. cb fires
// immediately for a live connection, otherwise after Connect succeeds. Nothing happens
// when no device matches; the returned device is nil then.
func (d *Devices) AutoConnectDevice(ctx context.Context, name string, cb ConnectedFunc, multiSearch bool) (*device.Device, error) {
	dev := d.GetDeviceByName(name, multiSearch)
	if dev == nil {
		return nil, nil
	}

	if dev.IsConnected() && dev.HasSocket() {
		if cb != nil {
			cb(dev, dev.Address())
		}
		return dev, nil
	}

	err := dev.Connect(ctx, func(connected *device.Device) {
		if cb != nil {
			cb(connected, connected.Address())
		}
	})
	return dev, err
}

// List returns the registered devices ordered by address.
func (d *Devices) List() []*device.Device {
	out := make([]*device.Device, 0, d.devices.Len())
	d.devices.Range(func(_ string, dev *device.Device) bool {
		out = append(out, dev)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Address() < out[j].Address() })
	return out
}

// Events returns registry notifications. Slow readers lose the oldest events.
func (d *Devices) Events() <-chan Event {
	return d.events.C()
}

// Close stops background rescans and disconnects every device.
func (d *Devices) Close(ctx context.Context) {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	if d.throttle != nil {
		d.throttle.Stop()
	}
	d.mu.Unlock()

	for _, dev := range d.List() {
		if !dev.HasSocket() {
			continue
		}
		if err := dev.Disconnect(ctx, true, nil); err != nil {
			d.logger.WithError(err).WithField("address", dev.Address()).Debug("Disconnect on close failed")
		}
		dev.Close(ctx)
	}
	d.events.Close()
}

func (d *Devices) handleConnect(id device.SocketID, address string) {
	dev, ok := d.devices.Get(address)
	if !ok {
		d.logger.WithFields(logrus.Fields{"socket": id, "address": address}).Debug("Connected socket of unknown device")
		return
	}
	d.mu.Lock()
	d.socketIDs.Set(id, dev)
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{"socket": id, "address": address}).Debug("Connected device")
	d.emit(DeviceConnected, dev)
}

func (d *Devices) handleDisconnect(id device.SocketID, address string) {
	d.mu.Lock()
	d.socketIDs.Del(id)
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{"socket": id, "address": address}).Debug("Disconnected device")
	if dev, ok := d.devices.Get(address); ok {
		d.emit(DeviceDisconnected, dev)
	}
}

func (d *Devices) emit(t EventType, dev *device.Device) {
	ev := Event{Type: t, Address: dev.Address(), Name: dev.Name(), Profile: dev.Type()}
	if id, ok := dev.SocketID(); ok {
		ev.Socket = id
	}
	d.events.Send(ev)
}

func (d *Devices) fireRescan() {
	d.mu.Lock()
	t := d.throttle
	d.mu.Unlock()
	if t != nil {
		t.Fire()
	}
}

// OnDeviceAdded implements device.AdapterListener.
func (d *Devices) OnDeviceAdded(device.DeviceInfo) {
	d.fireRescan()
}

// OnDeviceChanged implements device.AdapterListener.
func (d *Devices) OnDeviceChanged(device.DeviceInfo) {
	d.fireRescan()
}

// OnDeviceRemoved implements device.AdapterListener. A known, disconnected device is
// dropped from the registry; a rescan is requested either way.
func (d *Devices) OnDeviceRemoved(info device.DeviceInfo) {
	d.logger.WithField("address", info.Address).Debug("Bluetooth device removed")

	if dev, ok := d.devices.Get(info.Address); ok && !dev.HasSocket() {
		d.mu.Lock()
		d.devices.Del(info.Address)
		var stale []device.SocketID
		d.socketIDs.Range(func(id device.SocketID, owner *device.Device) bool {
			if owner == dev {
				stale = append(stale, id)
			}
			return true
		})
		for _, id := range stale {
			d.socketIDs.Del(id)
		}
		d.fingerprint = ""
		d.mu.Unlock()
		d.emit(DeviceRemoved, dev)
	}
	d.fireRescan()
}

// OnReceive implements device.Receiver.
func (d *Devices) OnReceive(id device.SocketID, data []byte) {
	if dev := d.bySocket(id); dev != nil {
		dev.HandleData(data)
	}
}

// OnReceiveError implements device.Receiver.
func (d *Devices) OnReceiveError(id device.SocketID, err error) {
	if dev := d.bySocket(id); dev != nil {
		d.mu.Lock()
		ctx := d.ctx
		d.mu.Unlock()
		dev.HandleError(ctx, err)
	}
}

// bySocket resolves a socket id, falling back to a scan for sockets adopted outside the
// connect path.
func (d *Devices) bySocket(id device.SocketID) *device.Device {
	if dev, ok := d.socketIDs.Get(id); ok {
		return dev
	}
	for _, dev := range d.List() {
		if sid, ok := dev.SocketID(); ok && sid == id {
			d.mu.Lock()
			d.socketIDs.Set(id, dev)
			d.mu.Unlock()
			return dev
		}
	}
	d.logger.WithField("socket", id).Debug("Dropping data for unknown socket")
	return nil
}
