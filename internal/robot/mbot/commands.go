package mbot

import (
	"github.com/srg/botlink/internal/robot/makeblock"
	"github.com/srg/botlink/internal/wire"
)

// Commands builds mCore requests.
type Commands struct{}

func NewCommands() *Commands {
	return &Commands{}
}

// SetRGBLED sets the on-board LEDs: index 0 for both, 1 and 2 for one side.
func (c *Commands) SetRGBLED(red, green, blue, index int) []byte {
	return makeblock.SetRGBLED(PortLED, SlotLED, index, red, green, blue)
}

func (c *Commands) PlayTone(frequency, duration int) []byte {
	return makeblock.PlayTone(frequency, duration)
}

// SetMotorPower drives the DC motor on port. Power is clamped to [-255, 255].
func (c *Commands) SetMotorPower(power int, port makeblock.Port) []byte {
	return makeblock.NewBuffer().
		WriteIndex(makeblock.IndexNone).
		WriteAction(makeblock.ActionRun).
		WriteDevice(makeblock.DeviceMotor).
		WritePort(port).
		WriteShort(wire.Clamp(power, -maxMotorPower, maxMotorPower)).
		ReadSigned()
}

func (c *Commands) ReadUltrasonic() []byte {
	return makeblock.GetSensorData(IndexUltrasonic, makeblock.DeviceUltrasonic, PortUltrasonic)
}

func (c *Commands) ReadLight() []byte {
	return makeblock.GetSensorData(IndexLightSensor, makeblock.DeviceLightSensor, PortLightSensor)
}

func (c *Commands) ReadLineFollower() []byte {
	return makeblock.GetSensorData(IndexLineFollower, makeblock.DeviceLineFollower, PortLineFollower)
}

func (c *Commands) ReadButton() []byte {
	return makeblock.GetSensorData(IndexInnerButton, makeblock.DeviceButtonInner, PortButton)
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
