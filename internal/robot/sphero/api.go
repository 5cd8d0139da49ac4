// Package sphero drives Sphero robots: the classic Sphero 2.0 over the serial port
// profile and the v1 BLE family (BB-8), which share one command set.
package sphero

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/frame"
	"github.com/srg/botlink/internal/robot"
)

// Profile names of the two variants.
const (
	Name   = "sphero_classic"
	NameV1 = "sphero_v1"
)

const locationInterval = time.Second

// FrameOptions delimits acknowledgements (FF FF) and async messages (FF FE). Both carry
// their data length in the fifth byte.
var FrameOptions = frame.Options{
	Headers: [][]byte{{sop1, responseAck}, {sop1, responseAsync}},
	MinSize: 7,
	Length: func(b []byte) (int, bool) {
		if len(b) < 5 {
			return 0, false
		}
		return int(b[4]) + 5, true
	},
	Checksum: frame.SpheroChecksum,
}

// Color is an RGB LED reading.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Api drives one Sphero.
type Api struct {
	*robot.Base

	v1       bool
	options  robot.Options
	commands *Commands

	mu          sync.Mutex
	speed       int
	heading     int
	calibrating bool
}

// New creates an api for the classic Sphero.
func New(logger *logrus.Logger, opts ...robot.Option) *Api {
	return newApi("Sphero Classic", false, logger, opts)
}

// NewV1 creates an api for the BLE Sphero family. Connect unlocks the developer mode
// characteristics before the init sequence.
func NewV1(logger *logrus.Logger, opts ...robot.Option) *Api {
	return newApi("Sphero v1", true, logger, opts)
}

func newApi(name string, v1 bool, logger *logrus.Logger, opts []robot.Option) *Api {
	a := &Api{
		v1:       v1,
		options:  robot.NewOptions(opts...),
		commands: NewCommands(),
		speed:    defaultSpeed,
	}
	a.Base = robot.NewBase(name, a.handler(), logger)
	return a
}

// Connect binds dev and runs the init sequence and self test once.
func (a *Api) Connect(ctx context.Context, dev *device.Device) error {
	fresh, err := a.Attach(dev)
	if err != nil || !fresh {
		return err
	}
	if a.v1 {
		if err := a.unlock(ctx, dev); err != nil {
			a.Detach()
			return err
		}
	}
	dev.SetFrameHandler(a.handleFrame, FrameOptions)
	a.Poller().Define("location", a.options.Interval("location", locationInterval), func(ctx context.Context) {
		if err := a.Send(ctx, a.commands.GetLocation()); err != nil {
			a.Logger.WithError(err).Debug("Monitor send failed")
		}
	})
	return a.prepare(ctx)
}

// unlock enables the developer mode of v1 robots: anti-DoS code, TX power and wake.
func (a *Api) unlock(ctx context.Context, dev *device.Device) error {
	writes := []struct {
		uuid string
		data []byte
	}{
		{CharAntiDOS, []byte(unlockCode)},
		{CharTXPower, []byte{0x07}},
		{CharWake, []byte{0x01}},
	}
	for _, w := range writes {
		if err := dev.WriteCharacteristic(ctx, w.uuid, w.data); err != nil {
			return fmt.Errorf("unlock Sphero %s: %w", w.uuid, err)
		}
	}
	return nil
}

func (a *Api) prepare(ctx context.Context) error {
	c := a.commands
	frames := [][]byte{
		c.SetRGB(255, 0, 0, true), c.GetRGB(),
		c.SetRGB(0, 255, 0, true), c.GetRGB(),
		c.SetRGB(0, 0, 255, true), c.GetRGB(),
		c.DefaultCollisionDetection(),
	}
	frames = append(frames, a.selfTest()...)
	if err := a.Send(ctx, frames...); err != nil {
		return fmt.Errorf("prepare %s: %w", a.Name(), err)
	}
	a.MarkPrepared()
	return nil
}

func (a *Api) selfTest() [][]byte {
	a.Logger.Debug("Prepare self test...")
	c := a.commands
	frames := [][]byte{
		c.SetRGB(255, 0, 0, true),
		c.SetRGB(0, 255, 0, true),
		c.SetRGB(0, 0, 255, true),
		c.SetRGB(0, 0, 0, true),
	}
	for _, level := range []int{100, 75, 50, 25, 0} {
		frames = append(frames, c.SetBackLed(level))
	}
	return append(frames, c.SetRGB(255, 0, 0, true), a.roll(0, 180, true))
}

// Disconnect stops monitoring and releases the device.
func (a *Api) Disconnect(ctx context.Context) error {
	dev := a.Device()
	if dev == nil {
		return nil
	}
	a.Logger.Info("Clean up Sphero...")
	a.Poller().Clear()
	a.Detach()
	return dev.Disconnect(ctx, false, nil)
}

// roll encodes a roll and remembers speed and heading for the next one.
func (a *Api) roll(speed, heading int, state bool) []byte {
	a.mu.Lock()
	a.speed, a.heading = speed, heading
	a.mu.Unlock()
	return a.commands.Roll(speed, heading, state)
}

// RollState returns the last speed and heading.
func (a *Api) RollState() (speed, heading int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speed, a.heading
}

func (a *Api) handleFrame(f []byte) {
	n := int(f[4]) + 5
	if len(f) < n {
		return
	}
	data := f[5 : n-1]
	switch f[1] {
	case responseAck:
		a.handleAck(f[2], CallbackType(f[3]), data)
	case responseAsync:
		a.handleAsync(f[2], data)
	}
}

func (a *Api) handleAck(mrsp byte, seq CallbackType, data []byte) {
	if mrsp == messagePreSleep {
		a.Logger.Warn("Pre-sleep warning (10 sec)")
		return
	}
	switch seq {
	case CallbackNone:
	case CallbackRGB:
		if len(data) >= 3 {
			a.Publish(robot.EventRGB, "rgb", 0, Color{R: int(data[0]), G: int(data[1]), B: int(data[2])})
		}
	case CallbackLocation:
		if len(data) >= 10 {
			a.updateLocation(data)
		}
	case CallbackVersion:
		if len(data) >= 5 {
			v := fmt.Sprintf("%d.%d", data[3], data[4])
			a.Logger.WithFields(logrus.Fields{"model": data[1], "hardware": data[2], "version": v}).Info("Sphero version")
			a.Publish(robot.EventFirmware, "", 0, v)
		}
	default:
		a.Logger.WithFields(logrus.Fields{
			"seq":  seq,
			"data": fmt.Sprintf("% X", data),
		}).Debug("Unknown Sphero acknowledgement")
	}
}

func (a *Api) handleAsync(id byte, data []byte) {
	switch id {
	case messagePreSleep:
		a.Logger.Warn("Pre-sleep warning (10 sec)")
	case messageCollision:
		if len(data) >= 12 {
			a.Emit(robot.EventCollision, "collision", 0, parseCollision(data))
		}
	default:
		a.Logger.WithFields(logrus.Fields{
			"id":   fmt.Sprintf("0x%02X", id),
			"data": fmt.Sprintf("% X", data),
		}).Debug("Unknown Sphero message")
	}
}

// updateLocation publishes position, velocity and speed, each only when it changed.
func (a *Api) updateLocation(d []byte) {
	a.Publish(robot.EventLocation, "location", 0, robot.Vector{
		X: frame.SignedBytesToInt(d[0:2]), Y: frame.SignedBytesToInt(d[2:4]),
	})
	a.Publish(robot.EventVelocity, "velocity", 0, robot.Vector{
		X: frame.SignedBytesToInt(d[4:6]), Y: frame.SignedBytesToInt(d[6:8]),
	})
	a.Publish(robot.EventSpeed, "speed", 0, frame.BytesToInt(d[8:10]))
}

func parseCollision(d []byte) robot.Collision {
	axis := "x"
	if d[6] == 0x01 {
		axis = "y"
	}
	return robot.Collision{
		X:    frame.SignedBytesToInt(d[0:2]),
		Y:    frame.SignedBytesToInt(d[2:4]),
		Z:    frame.SignedBytesToInt(d[4:6]),
		Axis: axis,
		Magnitude: robot.Vector{
			X: frame.SignedBytesToInt(d[7:9]),
			Y: frame.SignedBytesToInt(d[9:11]),
		},
		Speed: int(d[11]),
	}
}
