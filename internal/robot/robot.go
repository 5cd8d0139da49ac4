// Package robot holds what every robot family shares: the closed command set, typed
// parameters, decoded events with per-channel dedup, and the monitoring poller.
//
// A family package builds a Handler (command -> frame builder), embeds a *Base for the
// device binding, and registers its frame decoder on the device during Connect:
//
//	api := ev3.New(logger)
//	if err := api.Connect(ctx, dev); err != nil { ... }
//	sub := api.Events().Subscribe(64)
//	err := api.Exec(ctx, robot.MoveSteps, robot.Params{"steps": 360})
package robot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/events"
)

// Api is one robot family bound to a connected device.
type Api interface {
	Name() string
	Connect(ctx context.Context, dev *device.Device) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	IsPrepared() bool
	Exec(ctx context.Context, cmd Command, params Params) error
	Build(cmd Command, params Params) ([][]byte, error)
	Monitor(ctx context.Context, enable bool)
	Events() *events.Bus[Event]
	Commands() []Command
}

// CommandFunc encodes one command into the frames to send, in order.
type CommandFunc func(p *ParamReader) ([][]byte, error)

// Handler is a family's command table.
type Handler map[Command]CommandFunc

// Frames is a convenience for CommandFuncs that produce frames without failing.
func Frames(frames ...[]byte) ([][]byte, error) {
	return frames, nil
}

// Base implements the device binding, dispatch and event plumbing of an Api.
type Base struct {
	Logger *logrus.Logger

	name    string
	handler Handler
	bus     *events.Bus[Event]
	monitor *Monitor
	cache   *ValueCache

	mu       sync.RWMutex
	device   *device.Device
	prepared bool
}

// NewBase creates the shared part of a family Api.
func NewBase(name string, handler Handler, logger *logrus.Logger) *Base {
	if logger == nil {
		logger = logrus.New()
	}
	return &Base{
		Logger:  logger,
		name:    name,
		handler: handler,
		bus:     events.NewBus[Event](),
		monitor: NewMonitor(name, logger),
		cache:   NewValueCache(),
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) log() *logrus.Entry {
	return b.Logger.WithField("robot", b.name)
}

// Attach binds dev. fresh is false when the robot was already prepared on dev, in which
// case Connect must not run the init sequence again.
func (b *Base) Attach(dev *device.Device) (fresh bool, err error) {
	if dev == nil || !dev.IsConnected() {
		b.log().Error("Robot is not ready yet...")
		return false, fmt.Errorf("%s: %w", b.name, device.ErrNotConnected)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.prepared && b.device == dev {
		return false, nil
	}
	b.device = dev
	b.prepared = false
	b.log().WithField("address", dev.Address()).Info("Preparing robot api")
	return true, nil
}

// MarkPrepared records that the init sequence was sent.
func (b *Base) MarkPrepared() {
	b.mu.Lock()
	b.prepared = true
	b.mu.Unlock()
}

// Detach stops monitoring, drops cached values and unbinds the device.
func (b *Base) Detach() {
	b.monitor.Stop()
	b.cache.Reset()
	b.mu.Lock()
	dev := b.device
	b.device = nil
	b.prepared = false
	b.mu.Unlock()
	if dev != nil {
		dev.RemoveDataHandlers()
	}
}

// Device returns the bound device, or nil.
func (b *Base) Device() *device.Device {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}

func (b *Base) IsConnected() bool {
	dev := b.Device()
	return dev != nil && dev.IsConnected()
}

func (b *Base) IsPrepared() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.prepared
}

// Send writes frames to the bound device in order. Without a device it does nothing.
func (b *Base) Send(ctx context.Context, frames ...[]byte) error {
	dev := b.Device()
	if dev == nil {
		return nil
	}
	for _, f := range frames {
		if err := dev.Send(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// Build encodes cmd without sending it.
func (b *Base) Build(cmd Command, params Params) ([][]byte, error) {
	fn, ok := b.handler[cmd]
	if !ok {
		return nil, &UnknownCommandError{Name: cmd.String(), Robot: b.name}
	}
	if params == nil {
		params = Params{}
	}
	return fn(params.Reader(cmd))
}

// Exec encodes cmd and sends the resulting frames.
func (b *Base) Exec(ctx context.Context, cmd Command, params Params) error {
	if b.Device() == nil {
		return fmt.Errorf("%s %s: %w", b.name, cmd, ErrNotPrepared)
	}
	frames, err := b.Build(cmd, params)
	if err != nil {
		return err
	}
	b.log().WithFields(logrus.Fields{"command": cmd.String(), "frames": len(frames)}).Debug("Exec")
	return b.Send(ctx, frames...)
}

// Commands lists the commands of the family, sorted by name.
func (b *Base) Commands() []Command {
	cmds := make([]Command, 0, len(b.handler))
	for c := range b.handler {
		cmds = append(cmds, c)
	}
	return SortCommands(cmds)
}

// Events returns the bus decoded events are published on.
func (b *Base) Events() *events.Bus[Event] {
	return b.bus
}

// Poller exposes the monitor so families can define their poll tasks.
func (b *Base) Poller() *Monitor {
	return b.monitor
}

// Monitor starts or stops sensor polling. Starting requires a connected device.
func (b *Base) Monitor(ctx context.Context, enable bool) {
	if enable && b.IsConnected() {
		b.monitor.Start(ctx)
	} else if !enable {
		b.monitor.Stop()
	}
}

// Cache exposes the dedup cache.
func (b *Base) Cache() *ValueCache {
	return b.cache
}

// Publish sends an event unless the value on its channel is unchanged.
func (b *Base) Publish(typ EventType, channel string, port int, value any) bool {
	if !b.cache.Changed(string(typ)+"/"+channel, value) {
		return false
	}
	b.Emit(typ, channel, port, value)
	return true
}

// Emit sends an event without dedup.
func (b *Base) Emit(typ EventType, channel string, port int, value any) {
	b.bus.Publish(Event{
		Type:    typ,
		Robot:   b.name,
		Channel: channel,
		Port:    port,
		Value:   value,
		Time:    time.Now(),
	})
}

// Close detaches and closes the event bus.
func (b *Base) Close() {
	b.Detach()
	b.bus.Close()
}
