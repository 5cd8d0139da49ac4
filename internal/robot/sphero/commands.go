package sphero

import "github.com/srg/botlink/internal/wire"

// Commands builds Sphero client commands. It is stateless; the roll state lives in Api.
type Commands struct{}

func NewCommands() *Commands {
	return &Commands{}
}

func boolByte(b bool) int {
	if b {
		return 1
	}
	return 0
}

func color(v int) int {
	return wire.Clamp(v, 0, 255)
}

// SetRGB sets the main LED. A persistent color survives sleep.
func (c *Commands) SetRGB(red, green, blue int, persistent bool) []byte {
	return NewBuffer().
		WriteCommand(CommandRGBSet).
		WriteByte(color(red)).
		WriteByte(color(green)).
		WriteByte(color(blue)).
		WriteByte(boolByte(persistent)).
		ReadSigned()
}

func (c *Commands) GetRGB() []byte {
	return NewBuffer().SetCallback(CallbackRGB).WriteCommand(CommandRGBGet).ReadSigned()
}

func (c *Commands) SetBackLed(brightness int) []byte {
	return NewBuffer().WriteCommand(CommandBackLed).WriteByte(color(brightness)).ReadSigned()
}

// SetHeading sets the current orientation as heading (0-359).
func (c *Commands) SetHeading(heading int) []byte {
	return NewBuffer().WriteCommand(CommandHeading).WriteUInt(heading).ReadSigned()
}

// Roll drives at speed (0-255) towards heading. state false stops.
func (c *Commands) Roll(speed, heading int, state bool) []byte {
	return NewBuffer().
		WriteCommand(CommandRoll).
		WriteByte(color(speed)).
		WriteUInt(heading).
		WriteByte(boolByte(state)).
		ReadSigned()
}

// SetCollisionDetection enables collision notifications with the given method, x/y
// thresholds, x/y speed factors and dead time (10ms units).
func (c *Commands) SetCollisionDetection(method, thresholdX, thresholdY, speedX, speedY, interval int) []byte {
	return NewBuffer().
		WriteCommand(CommandCollisionDetection).
		WriteByte(method).
		WriteByte(thresholdX).
		WriteByte(thresholdY).
		WriteByte(speedX).
		WriteByte(speedY).
		WriteByte(interval).
		ReadSigned()
}

// DefaultCollisionDetection is the collision setup sent during prepare.
func (c *Commands) DefaultCollisionDetection() []byte {
	return c.SetCollisionDetection(0x01, 0x60, 0x60, 0x60, 0x60, 0x0A)
}

func (c *Commands) SetMotionTimeout(timeout int) []byte {
	return NewBuffer().WriteCommand(CommandMotionTimeout).WriteByte(timeout).ReadSigned()
}

func (c *Commands) Boost(enabled bool) []byte {
	return NewBuffer().WriteCommand(CommandBoost).WriteByte(boolByte(enabled)).ReadSigned()
}

// Sleep puts the robot to sleep. wakeup is in seconds; macro and orbBasic start a
// program on wake.
func (c *Commands) Sleep(wakeup, macro, orbBasic int) []byte {
	return NewBuffer().
		WriteCommand(CommandSleep).
		WriteByte(wakeup).
		WriteByte(macro).
		WriteByte(orbBasic).
		ReadSigned()
}

func (c *Commands) GetLocation() []byte {
	return NewBuffer().SetCallback(CallbackLocation).WriteCommand(CommandLocation).ReadSigned()
}

func (c *Commands) GetVersion() []byte {
	return NewBuffer().SetCallback(CallbackVersion).WriteCommand(CommandVersion).ReadSigned()
}
