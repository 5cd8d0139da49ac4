package mbotranger

import (
	"strings"

	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/makeblock"
	"github.com/srg/botlink/internal/wire"
)

// slotParam reads a motor slot given as "left"/"1", "right"/"2" or a number.
func slotParam(r *robot.ParamReader, name string) makeblock.Slot {
	if s, ok := r.Value(name).(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "left", "one":
			return makeblock.SlotOne
		case "right", "two":
			return makeblock.SlotTwo
		}
	}
	return makeblock.Slot(r.Int(name, int(makeblock.SlotOne)))
}

func required(r *robot.ParamReader, cmd robot.Command, name string) error {
	if r.Has(name) {
		return nil
	}
	return &robot.ParamError{Command: cmd, Param: name, Err: robot.ErrMissingParam}
}

func (a *Api) handler() robot.Handler {
	c := a.commands
	read := func(frames ...func() []byte) robot.CommandFunc {
		return func(*robot.ParamReader) ([][]byte, error) {
			out := make([][]byte, len(frames))
			for i, f := range frames {
				out[i] = f()
			}
			return out, nil
		}
	}
	// power drives both motors, or only the one named by "slot". leftSign -1 drives
	// forward since the left motor is mounted mirrored.
	power := func(cmd robot.Command, leftSign int) robot.CommandFunc {
		return func(r *robot.ParamReader) ([][]byte, error) {
			if err := required(r, cmd, "power"); err != nil {
				return nil, err
			}
			p := r.Int("power", 0)
			if r.Has("slot") {
				slot := slotParam(r, "slot")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return robot.Frames(c.MovePower(p, slot))
			}
			if err := r.Err(); err != nil {
				return nil, err
			}
			p = wire.Clamp(p, -maxMotorPower, maxMotorPower)
			return robot.Frames(
				c.MovePower(leftSign*p, makeblock.SlotOne),
				c.MovePower(p, makeblock.SlotTwo),
			)
		}
	}

	return robot.Handler{
		robot.MovePower:   power(robot.MovePower, -1),
		robot.RotatePower: power(robot.RotatePower, 1),
		robot.MoveSteps: func(r *robot.ParamReader) ([][]byte, error) {
			if err := required(r, robot.MoveSteps, "steps"); err != nil {
				return nil, err
			}
			steps, p := r.Int("steps", 0), r.Int("power", defaultStepsPower)
			if r.Has("slot") {
				slot := slotParam(r, "slot")
				if err := r.Err(); err != nil {
					return nil, err
				}
				return robot.Frames(c.MoveSteps(steps, p, slot))
			}
			if err := r.Err(); err != nil {
				return nil, err
			}
			p = wire.Clamp(p, -maxMotorPower, maxMotorPower)
			return robot.Frames(
				c.MoveSteps(-steps, p, makeblock.SlotOne),
				c.MoveSteps(steps, p, makeblock.SlotTwo),
			)
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
			if err := required(r, robot.PlayTone, "frequency"); err != nil {
				return nil, err
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
		robot.ReadLineFollower: read(c.ReadLineFollower),
		robot.ReadLight:        read(c.ReadLight1, c.ReadLight2),
		robot.GetVersion:       read(c.GetVersion),
		robot.Reset:            read(c.Reset),
		robot.Start:            read(c.Start),
		robot.Stop: func(*robot.ParamReader) ([][]byte, error) {
			return a.stopFrames(), nil
		},
	}
}
