package sphero

import "github.com/srg/botlink/internal/robot"

func (a *Api) handler() robot.Handler {
	c := a.commands
	return robot.Handler{
		robot.SetRGB: func(r *robot.ParamReader) ([][]byte, error) {
			red, green, blue := r.Int("red", 0), r.Int("green", 0), r.Int("blue", 0)
			persistent := r.Bool("persistent", true)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.SetRGB(red, green, blue, persistent))
		},
		robot.GetRGB: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(c.GetRGB())
		},
		robot.SetBackLed: func(r *robot.ParamReader) ([][]byte, error) {
			brightness := r.Int("brightness", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.SetBackLed(brightness))
		},
		robot.SetHeading: func(r *robot.ParamReader) ([][]byte, error) {
			heading := r.Int("heading", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.SetHeading(heading))
		},
		robot.Roll: func(r *robot.ParamReader) ([][]byte, error) {
			speed, heading := a.RollState()
			speed, heading = r.Int("speed", speed), r.Int("heading", heading)
			state := r.Bool("state", true)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(a.roll(speed, heading, state))
		},
		robot.RollStop: func(*robot.ParamReader) ([][]byte, error) {
			_, heading := a.RollState()
			return robot.Frames(a.roll(0, heading, false))
		},
		robot.Boost: func(r *robot.ParamReader) ([][]byte, error) {
			enabled := r.Bool("enabled", true)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.Boost(enabled))
		},
		robot.SetCollisionDetection: func(r *robot.ParamReader) ([][]byte, error) {
			method := r.Int("method", 0x01)
			tx, ty := r.Int("thresholdX", 0x60), r.Int("thresholdY", 0x60)
			sx, sy := r.Int("speedX", 0x60), r.Int("speedY", 0x60)
			interval := r.Int("interval", 0x0A)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.SetCollisionDetection(method, tx, ty, sx, sy, interval))
		},
		robot.SetMotionTimeout: func(r *robot.ParamReader) ([][]byte, error) {
			timeout := r.Int("timeout", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			return robot.Frames(c.SetMotionTimeout(timeout))
		},
		robot.Sleep: func(r *robot.ParamReader) ([][]byte, error) {
			wakeup, macro, orb := r.Int("wakeup", 0), r.Int("macro", 0), r.Int("orbBasic", 0)
			if err := r.Err(); err != nil {
				return nil, err
			}
			a.Logger.Info("Sends Sphero to sleep, good night.")
			return robot.Frames(c.Sleep(wakeup, macro, orb))
		},
		robot.GetLocation: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(c.GetLocation())
		},
		robot.GetVersion: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(c.GetVersion())
		},
		robot.Stop: func(*robot.ParamReader) ([][]byte, error) {
			return robot.Frames(
				c.SetRGB(0, 0, 0, true),
				c.SetBackLed(0),
				c.Boost(false),
				a.roll(0, 0, false),
			)
		},
		robot.Calibrate: func(r *robot.ParamReader) ([][]byte, error) {
			_, current := a.RollState()
			heading := r.Int("heading", current)
			if err := r.Err(); err != nil {
				return nil, err
			}
			var frames [][]byte
			a.mu.Lock()
			first := !a.calibrating
			a.calibrating = true
			a.mu.Unlock()
			if first {
				frames = append(frames, c.SetRGB(0, 0, 0, true), c.SetBackLed(255))
			}
			return append(frames, a.roll(0, heading, true)), nil
		},
		robot.SetCalibration: func(*robot.ParamReader) ([][]byte, error) {
			a.mu.Lock()
			a.calibrating = false
			a.mu.Unlock()
			return robot.Frames(c.SetBackLed(0), c.SetHeading(0))
		},
	}
}
