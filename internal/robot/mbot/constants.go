package mbot

import "github.com/srg/botlink/internal/robot/makeblock"

// mCore connectors.
const (
	PortLineFollower makeblock.Port = 0x02
	PortUltrasonic   makeblock.Port = 0x03
	PortLightSensor  makeblock.Port = 0x06
	PortLED          makeblock.Port = 0x07
	PortButton       makeblock.Port = 0x07
	PortLeftMotor    makeblock.Port = 0x09
	PortRightMotor   makeblock.Port = 0x0a
)

// SlotLED is the on-board LED pair behind PortLED.
const SlotLED makeblock.Slot = 0x02

// Reply indexes of the sensor reads.
const (
	IndexUltrasonic   makeblock.Index = 0x10
	IndexLineFollower makeblock.Index = 0x11
	IndexLightSensor  makeblock.Index = 0x12
	IndexInnerButton  makeblock.Index = 0x13
)

const maxMotorPower = 255
