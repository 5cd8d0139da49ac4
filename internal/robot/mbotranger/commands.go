package mbotranger

import "github.com/srg/botlink/internal/robot/makeblock"

// Commands builds Auriga requests. The two drive motors sit on the encoder board, slot
// one (left) and slot two (right).
type Commands struct{}

func NewCommands() *Commands {
	return &Commands{}
}

// SetRGBLED sets one LED of the ring, or all of them with index 0.
func (c *Commands) SetRGBLED(red, green, blue, index int) []byte {
	return makeblock.SetRGBLED(makeblock.PortAuto, makeblock.SlotAuto, index, red, green, blue)
}

func (c *Commands) PlayTone(frequency, duration int) []byte {
	return makeblock.PlayToneOn(PortTone, frequency, duration)
}

// MovePower runs the motor in slot at a constant power.
func (c *Commands) MovePower(power int, slot makeblock.Slot) []byte {
	return makeblock.NewBuffer().
		WriteIndex(makeblock.IndexNone).
		WriteAction(makeblock.ActionRun).
		WriteDevice(makeblock.DeviceEncoderBoard).
		WritePort(PortEncoderSpeed).
		WriteSlot(slot).
		WriteShort(power).
		ReadSigned()
}

// MoveSteps turns the motor in slot by steps encoder ticks.
func (c *Commands) MoveSteps(steps, power int, slot makeblock.Slot) []byte {
	return makeblock.NewBuffer().
		WriteIndex(makeblock.IndexNone).
		WriteAction(makeblock.ActionRun).
		WriteDevice(makeblock.DeviceEncoderBoard).
		WritePort(PortEncoderPos).
		WriteSlot(slot).
		WriteInt(steps).
		WriteShort(power).
		ReadSigned()
}

func (c *Commands) ReadUltrasonic() []byte {
	return makeblock.GetSensorData(IndexUltrasonic, makeblock.DeviceUltrasonic, PortUltrasonic)
}

func (c *Commands) ReadLineFollower() []byte {
	return makeblock.GetSensorData(IndexLineFollower, makeblock.DeviceLineFollower, PortLineFollower)
}

func (c *Commands) ReadLight1() []byte {
	return makeblock.GetSensorData(IndexLight1, makeblock.DeviceLightSensor, PortLight1)
}

func (c *Commands) ReadLight2() []byte {
	return makeblock.GetSensorData(IndexLight2, makeblock.DeviceLightSensor, PortLight2)
}

func (c *Commands) ReadTemperature() []byte {
	return makeblock.GetSensorData(IndexTemperature, makeblock.DeviceTemperature, PortTemperature)
}

func (c *Commands) GetVersion() []byte {
	return makeblock.GetVersion()
}

func (c *Commands) Reset() []byte {
	return makeblock.Reset()
}

func (c *Commands) Start() []byte {
	return makeblock.Start()
}
