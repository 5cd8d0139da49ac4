// Package mbot drives the Makeblock mBot (mCore board) over the serial port profile.
package mbot

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
const Name = "mbot"

type sensor struct {
	name     string
	interval time.Duration
	read     func(*Commands) []byte
}

var sensors = []sensor{
	{"light", 1500 * time.Millisecond, (*Commands).ReadLight},
	{"linefollower", 200 * time.Millisecond, (*Commands).ReadLineFollower},
	{"ultrasonic", 200 * time.Millisecond, (*Commands).ReadUltrasonic},
}

// Api drives one mBot.
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
	a.Base = robot.NewBase("mBot", a.handler(), logger)
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
	if err := a.Send(ctx, c.PlayTone(524, 240), c.PlayTone(584, 240), c.GetVersion()); err != nil {
		return fmt.Errorf("prepare mBot: %w", err)
	}
	a.MarkPrepared()
	return nil
}

func (a *Api) stopFrames() [][]byte {
	c := a.commands
	return [][]byte{
		c.SetMotorPower(0, PortLeftMotor),
		c.SetMotorPower(0, PortRightMotor),
		c.SetRGBLED(0, 0, 0, 0),
		c.Reset(),
	}
}

// Disconnect stops the motors and releases the device.
func (a *Api) Disconnect(ctx context.Context) error {
	dev := a.Device()
	if dev == nil {
		return nil
	}
	a.Logger.Info("Clean up mBot...")
	if err := a.Send(ctx, a.stopFrames()...); err != nil {
		a.Logger.WithError(err).Warn("mBot clean up failed")
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
	case makeblock.IndexVersion:
		v := r.String()
		a.Logger.WithField("firmware", v).Info("mBot Firmware")
		a.Publish(robot.EventFirmware, "", 0, v)
	case IndexUltrasonic, IndexLineFollower, IndexLightSensor:
		if len(r.Data) < 4 || !makeblock.Changed(a.Cache(), r.Index, r.Data) {
			return
		}
		a.sensorValue(r)
	case IndexInnerButton:
		if len(r.Data) < 1 || !makeblock.Changed(a.Cache(), r.Index, r.Data) {
			return
		}
		v, err := r.Value()
		if err != nil {
			v = int(r.Data[0])
		}
		a.Emit(robot.EventButton, "button", int(PortButton), v)
	default:
		a.Logger.WithFields(logrus.Fields{
			"index": fmt.Sprintf("0x%02X", byte(r.Index)),
			"type":  r.Type.String(),
			"frame": fmt.Sprintf("% X", f),
		}).Debug("Unknown mBot reply")
	}
}

func (a *Api) sensorValue(r makeblock.Response) {
	switch r.Index {
	case IndexLineFollower:
		a.Emit(robot.EventLineFollower, "linefollower", int(PortLineFollower), makeblock.LineFollower(r.Data))
	case IndexLightSensor:
		v, _ := r.Float()
		a.Emit(robot.EventLightness, "light", int(PortLightSensor), v)
	case IndexUltrasonic:
		v, _ := r.Float()
		a.Emit(robot.EventUltrasonic, "ultrasonic", int(PortUltrasonic), v)
	}
}
