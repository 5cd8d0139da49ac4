package ev3

import (
	"github.com/srg/botlink/internal/robot"
)

// portParam reads a port given by name ("1", "B") or number.
func portParam(r *robot.ParamReader, name string, def InputPort) InputPort {
	s, ok := r.Value(name).(string)
	if !ok {
		return InputPort(r.Int(name, int(def)))
	}
	p, err := ParsePort(s)
	if err != nil {
		return InputPort(r.Int(name, int(def)))
	}
	return p
}

// outputParam reads an output mask given by letters ("BC") or number.
func outputParam(r *robot.ParamReader, name string, def byte) byte {
	s, ok := r.Value(name).(string)
	if !ok {
		return byte(r.Int(name, int(def)))
	}
	var mask byte
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'D':
			mask |= 1 << (c - 'A')
		case c >= 'a' && c <= 'd':
			mask |= 1 << (c - 'a')
		default:
			return byte(r.Int(name, int(def)))
		}
	}
	return mask
}

// drivePorts returns the two drive motors: the detected large motors, or B and C.
func (a *Api) drivePorts() (left, right byte) {
	left, right = a.ActorMask(LargeMotor), a.ActorMask(LargeMotorOpt)
	if left == 0 {
		left = OutputB
	}
	if right == 0 {
		right = OutputC
	}
	return left, right
}

func (a *Api) handler() robot.Handler {
	c := a.commands
	return robot.Handler{
		robot.GetBattery: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(c.GetBattery())
		},
		robot.GetFirmware: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(c.GetFirmware())
		},
		robot.GetDeviceType: func(r *robot.ParamReader) ([][]byte, error) {
			port := portParam(r, "port", InputOne)
			return robot.Frames(c.GetDeviceType(port))
		},
		robot.GetDeviceTypes: func(r *robot.ParamReader) ([][]byte, error) {
			ports := InputPorts
			if r.Has("ports") {
				ports = nil
				for _, n := range r.Ints("ports", nil) {
					ports = append(ports, InputPort(n))
				}
			}
			if err := r.Err(); err != nil {
				return nil, err
			}
			return c.GetDeviceTypes(ports), nil
		},
		robot.GetSensorData:    a.readHandler(c.GetSensorData),
		robot.GetSensorDataPct: a.readHandler(c.GetSensorDataPct),
		robot.GetSensorDataSi:  a.readHandler(c.GetSensorDataSi),
		robot.GetActorData:     a.readHandler(c.GetActorData),
		robot.SetLed: func(r *robot.ParamReader) ([][]byte, error) {
			color, mode := r.Int("color", LedGreen), r.Int("mode", LedNormal)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.SetLed(color, mode))
		},
		robot.MovePower: func(r *robot.ParamReader) ([][]byte, error) {
			left, right := a.drivePorts()
			ports := outputParam(r, "motorLeft", left) | outputParam(r, "motorRight", right)
			power, brake := r.Int("power", 0), r.Bool("brake", false)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.MovePower(ports, power, brake))
		},
		robot.MovePowerLeft: func(r *robot.ParamReader) ([][]byte, error) {
			left, _ := a.drivePorts()
			power := r.Int("power", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.MovePower(left, power, true))
		},
		robot.MovePowerRight: func(r *robot.ParamReader) ([][]byte, error) {
			_, right := a.drivePorts()
			power := r.Int("power", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.MovePower(right, power, true))
		},
		robot.RotatePower: func(r *robot.ParamReader) ([][]byte, error) {
			left, right := a.drivePorts()
			left, right = outputParam(r, "motorLeft", left), outputParam(r, "motorRight", right)
			powerLeft := r.Int("powerLeft", 0)
			powerRight := r.Int("powerRight", powerLeft)
			if powerRight == 0 {
				powerRight = powerLeft
			}
			brake := r.Bool("brake", false)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.RotatePower(left, right, powerLeft, powerRight, brake))
		},
		robot.Stop: func(r *robot.ParamReader) ([][]byte, error) {
			ports, brake := outputParam(r, "port", OutputAll), r.Bool("brake", false)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.Stop(ports, brake))
		},
		robot.Clear: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(c.Clear())
		},
		robot.DrawClean: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(c.DrawClean())
		},
		robot.DrawUpdate: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(c.DrawUpdate())
		},
		robot.DrawImage: func(r *robot.ParamReader) ([][]byte, error) {
			name := r.String("filename", "")
			x, y, color := r.Int("x", 0), r.Int("y", 0), r.Int("color", 1)
			if err := r.Err(); err != nil {
				return nil, err
			}
			if name == "" {
				return nil, &robot.ParamError{Command: robot.DrawImage, Param: "filename", Err: robot.ErrMissingParam}
			}
			return robot.Frames(c.DrawImage(name, x, y, color))
		},
		robot.DrawLine: func(r *robot.ParamReader) ([][]byte, error) {
			x1, y1 := r.Int("x1", 0), r.Int("y1", 0)
			x2, y2 := r.Int("x2", 0), r.Int("y2", 0)
			color := r.Int("color", 1)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.DrawLine(x1, y1, x2, y2, color))
		},
		robot.PlayTone: func(r *robot.ParamReader) ([][]byte, error) {
			freq, dur, vol := r.Int("frequency", 440), r.Int("duration", 0), r.Int("volume", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.PlayTone(freq, dur, vol))
		},
		robot.PlaySound: func(r *robot.ParamReader) ([][]byte, error) {
			name, vol := r.String("filename", ""), r.Int("volume", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			if name == "" {
				return nil, &robot.ParamError{Command: robot.PlaySound, Param: "filename", Err: robot.ErrMissingParam}
			}
			return robot.Frames(c.PlaySound(name, vol))
		},
		robot.MoveServo: func(r *robot.ParamReader) ([][]byte, error) {
			steps, speed := r.Int("steps", 0), r.Int("speed", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			servo := a.ActorMask(MediumMotor)
			if servo == 0 {
				servo = OutputA
			}
			return robot.Frames(c.MoveSteps(servo, steps, speed, 0, 0, true))
		},
		robot.MoveSteps: func(r *robot.ParamReader) ([][]byte, error) {
			left, right := a.drivePorts()
			ports := outputParam(r, "motorLeft", left) | outputParam(r, "motorRight", right)
			steps, speed := r.Int("steps", 0), r.Int("speed", 0)
			rampUp, rampDown := r.Int("rampUp", 0), r.Int("rampDown", 0)
			brake := r.Bool("brake", false)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.MoveSteps(ports, steps, speed, rampUp, rampDown, brake))
		},
		robot.CustomMoveSteps: func(r *robot.ParamReader) ([][]byte, error) {
			left, _ := a.drivePorts()
			ports := outputParam(r, "ports", left)
			steps, speed, brake := r.Int("steps", 0), r.Int("speed", 0), r.Bool("brake", true)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.MoveSteps(ports, steps, speed, 0, 0, brake))
		},
		robot.RotateSteps: func(r *robot.ParamReader) ([][]byte, error) {
			left, right := a.drivePorts()
			left, right = outputParam(r, "portLeft", left), outputParam(r, "portRight", right)
			steps := r.Int("steps", 0)
			speedLeft, speedRight := r.Int("speedLeft", 0), r.Int("speedRight", 0)
			rampUp, rampDown := r.Int("rampUp", 0), r.Int("rampDown", 0)
			brake := r.Bool("brake", false)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.RotateSteps(left, right, steps, speedLeft, speedRight, rampUp, rampDown, brake))
		},
		robot.CustomRotateSteps: func(r *robot.ParamReader) ([][]byte, error) {
			_, right := a.drivePorts()
			ports := outputParam(r, "ports", right)
			steps, speed, brake := r.Int("steps", 0), r.Int("speed", 0), r.Bool("brake", true)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.CustomRotateSteps(ports, steps, speed, 0, 0, brake))
		},
	}
}

func (a *Api) readHandler(read func(InputPort, int) []byte) robot.CommandFunc {
	return func(r *robot.ParamReader) ([][]byte, error) {
		port, mode := portParam(r, "port", InputOne), r.Int("mode", 0)
		if err := r.Err(); err != nil {
			return nil, err
		}
		return robot.Frames(read(port, mode))
	}
}
