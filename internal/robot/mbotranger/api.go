// Package mbotranger drives the Makeblock mBot Ranger (Auriga board) over BLE.
package mbotranger

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/makeblock"
)

// Name is the profile name of the family.
const Name = "mbot_ranger"

// Lightness carries both light sensors; each event reports the latest value of each.
type Lightness struct {
	Sensor1 float64 `json:"sensor_1"`
	Sensor2 float64 `json:"sensor_2"`
}

type sensor struct {
	name     string
	interval time.Duration
	read     func(*Commands) []byte
}

var sensors = []sensor{
	{"light1", 1500 * time.Millisecond, (*Commands).ReadLight1},
	{"light2", 1750 * time.Millisecond, (*Commands).ReadLight2},
	{"linefollower", 250 * time.Millisecond, (*Commands).ReadLineFollower},
	{"temperature", 1500 * time.Millisecond, (*Commands).ReadTemperature},
	{"ultrasonic", 250 * time.Millisecond, (*Commands).ReadUltrasonic},
}

// Api drives one mBot Ranger.
type Api struct {
	*robot.Base

	options  robot.Options
	commands *Commands
}

func New(logger *logrus.Logger, opts ...robot.Option) *Api {
	a := &Api{
		options:  robot.NewOptions(opts...),
		commands: NewCommands(),
	}
	a.Base = robot.NewBase("mBot Ranger", a.handler(), logger)
	return a
}

// Connect binds dev, defines the sensor polls and sends the init sequence once.
func (a *Api) Connect(ctx context.Context, dev *device.Device) error {
	fresh, err := a.Attach(dev)
	if err != nil || !fresh {
		return err
	}
	dev.SetFrameHandler(a.handleFrame, makeblock.FrameOptions)
	for _, s := range sensors {
		poll := s.read(a.commands)
		a.Poller().Define(s.name, a.options.Interval(s.name, s.interval), func(ctx context.Context) {
			if err := a.Send(ctx, poll); err != nil {
				a.Logger.WithError(err).Debug("Monitor send failed")
			}
		})
	}
	return a.prepare(ctx)
}

func (a *Api) prepare(ctx context.Context) error {
	c := a.commands
	err := a.Send(ctx,
		c.PlayTone(524, 240),
		c.PlayTone(584, 240),
		c.SetRGBLED(0, 0, 0, 0),
		c.GetVersion(),
	)
	if err != nil {
		return fmt.Errorf("prepare mBot Ranger: %w", err)
	}
	a.MarkPrepared()
	return nil
}

// stopFrames switches the LEDs off and halts both motors. The motors get a short
// non-zero power first so the encoder board leaves position mode.
func (a *Api) stopFrames() [][]byte {
	c := a.commands
	return [][]byte{
		c.SetRGBLED(0, 0, 0, 0),
		c.MovePower(1, makeblock.SlotOne),
		c.MovePower(1, makeblock.SlotTwo),
		c.MovePower(0, makeblock.SlotOne),
		c.MovePower(0, makeblock.SlotTwo),
		c.Reset(),
	}
}

// Disconnect stops the robot and releases the device.
func (a *Api) Disconnect(ctx context.Context) error {
	dev := a.Device()
	if dev == nil {
		return nil
	}
	a.Logger.Info("Clean up mBot Ranger...")
	if err := a.Send(ctx, a.stopFrames()...); err != nil {
		a.Logger.WithError(err).Warn("mBot Ranger clean up failed")
	}
	a.Poller().Clear()
	a.Detach()
	return dev.Disconnect(ctx, false, nil)
}

func (a *Api) handleFrame(f []byte) {
	r, ok := makeblock.ParseResponse(f)
	if !ok {
		return
	}
	switch r.Index {
	case IndexAck:
	case makeblock.IndexVersion:
		v := r.String()
		a.Logger.WithField("firmware", v).Info("mBot Ranger Firmware")
		a.Publish(robot.EventFirmware, "", 0, v)
	case IndexUltrasonic, IndexLineFollower, IndexLight1, IndexLight2, IndexTemperature:
		if len(r.Data) < 4 || !makeblock.Changed(a.Cache(), r.Index, r.Data) {
			return
		}
		a.sensorValue(r)
	default:
		a.Logger.WithFields(logrus.Fields{
			"index": fmt.Sprintf("0x%02X", byte(r.Index)),
			"type":  r.Type.String(),
			"frame": fmt.Sprintf("% X", f),
		}).Debug("Unknown mBot Ranger reply")
	}
}

func (a *Api) sensorValue(r makeblock.Response) {
	switch r.Index {
	case IndexLight1, IndexLight2:
		a.Emit(robot.EventLightness, "light", int(r.Index), Lightness{
			Sensor1: a.cachedFloat(IndexLight1),
			Sensor2: a.cachedFloat(IndexLight2),
		})
	case IndexLineFollower:
		a.Emit(robot.EventLineFollower, "linefollower", int(PortLineFollower), makeblock.LineFollower(r.Data))
	case IndexTemperature:
		v, _ := r.Float()
		a.Emit(robot.EventTemperature, "temperature", int(PortTemperature), v)
	case IndexUltrasonic:
		v, _ := r.Float()
		a.Emit(robot.EventUltrasonic, "ultrasonic", int(PortUltrasonic), v)
	}
}

// cachedFloat returns the last reading of a sensor, or 0 before the first one.
func (a *Api) cachedFloat(index makeblock.Index) float64 {
	data, ok := makeblock.Cached(a.Cache(), index)
	if !ok {
		return 0
	}
	v, _ := makeblock.Response{Index: index, Type: makeblock.DataFloat, Data: data}.Float()
	return v
}
