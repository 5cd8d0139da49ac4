package mbotranger

import "github.com/srg/botlink/internal/robot/makeblock"

// Auriga connectors.
const (
	PortEncoderPos   makeblock.Port = 0x01
	PortEncoderSpeed makeblock.Port = 0x02
	PortLineFollower makeblock.Port = 0x09
	PortUltrasonic   makeblock.Port = 0x0a
	PortLight1       makeblock.Port = 0x0c
	PortLight2       makeblock.Port = 0x0d
	PortTemperature  makeblock.Port = 0x0d
	PortRightMotor   makeblock.Port = 0x11
	PortLeftMotor    makeblock.Port = 0x22
	PortRGBLED       makeblock.Port = 0x2c
	PortTone         makeblock.Port = 0x2d
)

// Reply indexes.
const (
	IndexAck          makeblock.Index = 0x0d
	IndexUltrasonic   makeblock.Index = 0x10
	IndexLineFollower makeblock.Index = 0x11
	IndexTemperature  makeblock.Index = 0x21
	IndexLight1       makeblock.Index = 0x2a
	IndexLight2       makeblock.Index = 0x2b
)

const (
	maxMotorPower     = 130
	defaultStepsPower = 130
)
