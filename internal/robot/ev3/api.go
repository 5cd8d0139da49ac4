// Package ev3 talks to a Lego Mindstorms EV3 brick over the serial port profile using
// direct commands.
package ev3

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/frame"
	"github.com/srg/botlink/internal/robot"
)

// Name is the profile name of the family.
const Name = "ev3"

// FrameOptions delimits replies: no header, a little-endian length that excludes its own
// two bytes, and at least the callback prefix plus the reply type.
var FrameOptions = frame.Options{
	MinSize: 5,
	Length: func(buf []byte) (int, bool) {
		if len(buf) < 2 {
			return 0, false
		}
		return frame.Uint16LE(buf[:2]) + 2, true
	},
}

// PortDevice is what the brick reported for one port.
type PortDevice struct {
	Name DeviceName
	Type string
	Mode int
	kind deviceKind
}

// Api drives one EV3 brick.
type Api struct {
	*robot.Base

	options  robot.Options
	commands *Commands

	mu       sync.RWMutex
	ports    map[InputPort]PortDevice
	roles    map[DeviceName]InputPort
	actors   map[DeviceName]byte
	sensors  map[DeviceName]InputPort
	firmware string
}

// New creates an unbound EV3 api.
func New(logger *logrus.Logger, opts ...robot.Option) *Api {
	a := &Api{
		options:  robot.NewOptions(opts...),
		commands: NewCommands(),
	}
	a.resetPorts()
	a.Base = robot.NewBase("EV3", a.handler(), logger)
	return a
}

func (a *Api) resetPorts() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ports = make(map[InputPort]PortDevice)
	a.roles = make(map[DeviceName]InputPort)
	a.actors = make(map[DeviceName]byte)
	a.sensors = make(map[DeviceName]InputPort)
}

// Connect binds dev and sends the init sequence once.
func (a *Api) Connect(ctx context.Context, dev *device.Device) error {
	fresh, err := a.Attach(dev)
	if err != nil || !fresh {
		return err
	}
	dev.SetFrameHandler(a.handleFrame, FrameOptions)
	return a.prepare(ctx)
}

func (a *Api) prepare(ctx context.Context) error {
	c := a.commands
	frames := [][]byte{
		c.PlayTone(2000, 200, 25),
		c.GetFirmware(),
		c.GetBattery(),
	}
	frames = append(frames, c.GetDeviceTypes(InputPorts)...)
	frames = append(frames,
		c.PlayTone(3000, 200, 50),
		c.DrawClean(),
		c.DrawLine(0, 0, 999, 999, 1),
		c.DrawImage("Test/Smile", 0, 0, 1),
		c.DrawUpdate(),
	)
	if err := a.Send(ctx, frames...); err != nil {
		return fmt.Errorf("prepare EV3: %w", err)
	}
	a.MarkPrepared()
	return nil
}

// Disconnect stops all motors, clears sensor values and releases the device.
func (a *Api) Disconnect(ctx context.Context) error {
	dev := a.Device()
	if dev == nil {
		return nil
	}
	if err := a.Send(ctx, a.commands.Stop(OutputAll, false), a.commands.Clear()); err != nil {
		a.Logger.WithError(err).Warn("EV3 clean up failed")
	}
	a.Poller().Clear()
	a.Detach()
	a.resetPorts()
	return dev.Disconnect(ctx, false, nil)
}

// Firmware returns the firmware version reported during prepare.
func (a *Api) Firmware() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.firmware
}

// Ports returns a snapshot of the detected devices.
func (a *Api) Ports() map[InputPort]PortDevice {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[InputPort]PortDevice, len(a.ports))
	for p, d := range a.ports {
		out[p] = d
	}
	return out
}

// ActorMask returns the output bit of the motor playing role, or 0.
func (a *Api) ActorMask(role DeviceName) byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.actors[role]
}

func (a *Api) handleFrame(f []byte) {
	if len(f) < 5 {
		return
	}
	cb := CallbackType(f[2])
	port := InputPort(f[3])
	data := f[5:]

	switch cb {
	case CallbackFirmware:
		fw := cString(data)
		a.mu.Lock()
		a.firmware = fw
		a.mu.Unlock()
		a.Logger.WithField("firmware", fw).Info("EV3 Firmware Version")
		a.Publish(robot.EventFirmware, "", 0, fw)
	case CallbackBattery:
		a.Logger.WithField("data", fmt.Sprintf("% X", data)).Info("EV3 Battery level")
		a.Publish(robot.EventBattery, "", 0, append([]byte(nil), data...))
	case CallbackDeviceName:
		a.updateDeviceType(port, cString(data))
	case CallbackPct, CallbackRaw:
		if len(data) > 0 && a.known(port) {
			a.Publish(robot.EventSensorValue, port.String(), int(port), int(data[0]))
		}
	case CallbackSi:
		if len(data) >= 4 && a.known(port) {
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))
			a.Publish(robot.EventSensorValue, port.String(), int(port), math.Round(v*10)/10)
		}
	case CallbackActorValue:
		if len(data) >= 4 && a.known(port) {
			a.Publish(robot.EventSensorValue, port.String(), int(port), int(int32(binary.LittleEndian.Uint32(data))))
		}
	default:
		a.Logger.WithFields(logrus.Fields{
			"callback": fmt.Sprintf("0x%02X", byte(cb)),
			"frame":    fmt.Sprintf("% X", f),
		}).Debug("Unknown EV3 reply")
	}
}

func (a *Api) known(port InputPort) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.ports[port]
	return ok
}

func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

func normalizeType(t string) string {
	t = strings.ReplaceAll(t, "-", "_")
	return strings.Join(strings.Fields(t), "")
}

// updateDeviceType records a DEVICE_NAME reply and (re)defines the port's poll task.
func (a *Api) updateDeviceType(port InputPort, typ string) {
	log := a.Logger.WithField("port", port.String())
	normalized := normalizeType(typ)
	if normalized == "NONE" || normalized == "" {
		a.clearPort(port)
		return
	}
	kind, ok := deviceKinds[normalized]
	if !ok {
		switch typ {
		case "PORT ERROR":
			log.Error("Received Port Error, please restart the EV3 to fix this error!")
		case "TERMINAL":
			log.Warn("Please check connection on port!")
		default:
			log.WithField("type", normalized).Warn("Unknown device, please re-connect the device on port!")
		}
		return
	}

	a.mu.Lock()
	name := kind.name
	if owner, taken := a.roles[name]; taken && owner != port {
		switch name {
		case LargeMotor:
			name = LargeMotorOpt
		case MediumMotor:
			name = MediumMotorOpt
		case TouchSensor:
			name = TouchSensorOpt
		}
	}
	prev, had := a.ports[port]
	a.ports[port] = PortDevice{Name: name, Type: kind.typ, Mode: kind.mode, kind: kind}
	a.roles[name] = port
	if port.IsActor() {
		a.actors[name] = port.OutputMask()
	} else {
		a.sensors[name] = port
	}
	a.mu.Unlock()

	log.WithFields(logrus.Fields{"device": name, "mode": kind.mode}).Info("Found device")
	a.Publish(robot.EventDeviceType, port.String(), int(port), robot.DeviceType{
		Name: string(name), Type: kind.typ, Mode: kind.mode,
	})

	if had && prev.Type == kind.typ && prev.Mode == kind.mode {
		return
	}
	poll := a.pollFrame(port, kind)
	if err := a.Send(context.Background(), poll); err != nil {
		log.WithError(err).Warn("Initial sensor read failed")
	}
	a.Poller().Define(port.String(), a.options.Interval(kind.typ, kind.interval), func(ctx context.Context) {
		if err := a.Send(ctx, poll); err != nil {
			a.Logger.WithError(err).Debug("Monitor send failed")
		}
	})
}

func (a *Api) clearPort(port InputPort) {
	a.mu.Lock()
	prev, had := a.ports[port]
	if had {
		delete(a.ports, port)
		if a.roles[prev.Name] == port {
			delete(a.roles, prev.Name)
			delete(a.actors, prev.Name)
			delete(a.sensors, prev.Name)
		}
	}
	a.mu.Unlock()
	if had {
		a.Poller().Remove(port.String())
	}
}

func (a *Api) pollFrame(port InputPort, kind deviceKind) []byte {
	switch kind.read {
	case readPct:
		return a.commands.GetSensorDataPct(port, kind.mode)
	case readSi:
		return a.commands.GetSensorDataSi(port, kind.mode)
	case readActor:
		return a.commands.GetActorData(port, kind.mode)
	default:
		return a.commands.GetSensorData(port, kind.mode)
	}
}

// ParsePort accepts "1".."4", "A".."D" or a raw port number.
func ParsePort(s string) (InputPort, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 {
		switch c := s[0]; {
		case c >= '1' && c <= '4':
			return InputPort(c - '1'), nil
		case c >= 'A' && c <= 'D':
			return InputA + InputPort(c-'A'), nil
		}
	}
	n, err := strconv.ParseInt(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid EV3 port %q", s)
	}
	p := InputPort(n)
	if p > InputFour && !p.IsActor() {
		return 0, fmt.Errorf("invalid EV3 port %q", s)
	}
	return p, nil
}
