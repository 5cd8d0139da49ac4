package mbot

import (
	"strings"

	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/makeblock"
)

// motorPort reads a motor given as "left"/"m1", "right"/"m2" or a port number.
func motorPort(r *robot.ParamReader, name string, def makeblock.Port) makeblock.Port {
	s, ok := r.Value(name).(string)
	if !ok {
		return makeblock.Port(r.Int(name, int(def)))
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "m1":
		return PortLeftMotor
	case "right", "m2":
		return PortRightMotor
	}
	return makeblock.Port(r.Int(name, int(def)))
}

func (a *Api) handler() robot.Handler {
	c := a.commands
	read := func(frame func() []byte) robot.CommandFunc {
		return func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(frame())
		}
	}
	// pair drives both motors, or only the one named by "port".
	pair := func(cmd robot.Command, leftSign int) robot.CommandFunc {
		return func(r *robot.ParamReader) ([][]byte, error) {
			if !r.Has("power") {
				return nil, &robot.ParamError{Command: cmd, Param: "power", Err: robot.ErrMissingParam}
			}
			power := r.Int("power", 0)
			if r.Has("port") {
				port := motorPort(r, "port", PortRightMotor)
				if err := r.Err(); err != nil {
					return nil, err
				}
				return robot.Frames(c.SetMotorPower(power, port))
			}
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(
				c.SetMotorPower(leftSign*power, PortLeftMotor),
				c.SetMotorPower(power, PortRightMotor),
			)
		}
	}

	return robot.Handler{
		robot.MovePower:   pair(robot.MovePower, -1),
		robot.RotatePower: pair(robot.RotatePower, 1),
		robot.SetMotorPower: func(r *robot.ParamReader) ([][]byte, error) {
			power := r.Int("power", 0)
			port := motorPort(r, "port", PortRightMotor)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.SetMotorPower(power, port))
		},
		robot.SetRGBLED: func(r *robot.ParamReader) ([][]byte, error) {
			red, green, blue := r.Int("red", 0), r.Int("green", 0), r.Int("blue", 0)
			index := r.Int("index", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.SetRGBLED(red, green, blue, index))
		},
		robot.PlayTone: func(r *robot.ParamReader) ([][]byte, error) {
			if !r.Has("frequency") {
				return nil, &robot.ParamError{Command: robot.PlayTone, Param: "frequency", Err: robot.ErrMissingParam}
			}
			freq, dur := r.Int("frequency", 0), r.Int("duration", 240)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.PlayTone(freq, dur))
		},
		robot.GetSensorData: func(r *robot.ParamReader) ([][]byte, error) {
			index, dev, port := r.Int("index", 0), r.Int("device", 0), r.Int("port", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(makeblock.GetSensorData(makeblock.Index(index), makeblock.DeviceType(dev), makeblock.Port(port)))
		},
		robot.ReadUltrasonic:   read(c.ReadUltrasonic),
		robot.ReadLight:        read(c.ReadLight),
		robot.ReadLineFollower: read(c.ReadLineFollower),
		robot.ReadButton:       read(c.ReadButton),
		robot.GetVersion:       read(c.GetVersion),
		robot.Reset:            read(c.Reset),
		robot.Start:            read(c.Start),
		robot.Stop: func(*robot.ParamReader) ([][]byte, error) {
			return a.stopFrames(), nil
		},
	}
}
