package robot

import (
	"sort"
	"strings"
)

// Command identifies one robot operation. The set is closed: every family resolves the
// commands it supports from this enum, and names outside it fail in ParseCommand.
type Command int

const (
	CommandUnknown Command = iota

	// Shared
	Stop
	Reset
	Start
	GetVersion
	PlayTone

	// EV3
	GetBattery
	GetFirmware
	GetDeviceType
	GetDeviceTypes
	GetSensorData
	GetSensorDataPct
	GetSensorDataSi
	GetActorData
	SetLed
	MovePower
	MovePowerLeft
	MovePowerRight
	RotatePower
	Clear
	DrawClean
	DrawUpdate
	DrawImage
	DrawLine
	PlaySound
	MoveServo
	MoveSteps
	CustomMoveSteps
	RotateSteps
	CustomRotateSteps

	// Sphero
	SetRGB
	GetRGB
	SetBackLed
	SetHeading
	Roll
	RollStop
	Boost
	SetCollisionDetection
	SetMotionTimeout
	Sleep
	GetLocation
	Calibrate
	SetCalibration

	// Makeblock
	SetRGBLED
	SetMotorPower
	ReadUltrasonic
	ReadLight
	ReadLineFollower
	ReadButton

	commandCount
)

var commandNames = [commandCount]string{
	CommandUnknown: "unknown",

	Stop:       "stop",
	Reset:      "reset",
	Start:      "start",
	GetVersion: "getVersion",
	PlayTone:   "playTone",

	GetBattery:        "getBattery",
	GetFirmware:       "getFirmware",
	GetDeviceType:     "getDeviceType",
	GetDeviceTypes:    "getDeviceTypes",
	GetSensorData:     "getSensorData",
	GetSensorDataPct:  "getSensorDataPct",
	GetSensorDataSi:   "getSensorDataSi",
	GetActorData:      "getActorData",
	SetLed:            "setLed",
	MovePower:         "movePower",
	MovePowerLeft:     "movePowerLeft",
	MovePowerRight:    "movePowerRight",
	RotatePower:       "rotatePower",
	Clear:             "clear",
	DrawClean:         "drawClean",
	DrawUpdate:        "drawUpdate",
	DrawImage:         "drawImage",
	DrawLine:          "drawLine",
	PlaySound:         "playSound",
	MoveServo:         "moveServo",
	MoveSteps:         "moveSteps",
	CustomMoveSteps:   "customMoveSteps",
	RotateSteps:       "rotateSteps",
	CustomRotateSteps: "customRotateSteps",

	SetRGB:                "setRGB",
	GetRGB:                "getRGB",
	SetBackLed:            "setBackLed",
	SetHeading:            "setHeading",
	Roll:                  "roll",
	RollStop:              "rollStop",
	Boost:                 "boost",
	SetCollisionDetection: "setCollisionDetection",
	SetMotionTimeout:      "setMotionTimeout",
	Sleep:                 "sleep",
	GetLocation:           "getLocation",
	Calibrate:             "calibrate",
	SetCalibration:        "setCalibration",

	SetRGBLED:        "setRGBLED",
	SetMotorPower:    "setMotorPower",
	ReadUltrasonic:   "readUltrasonic",
	ReadLight:        "readLight",
	ReadLineFollower: "readLineFollower",
	ReadButton:       "readButton",
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, commandCount)
	for c := CommandUnknown + 1; c < commandCount; c++ {
		m[strings.ToLower(commandNames[c])] = c
	}
	return m
}()

func (c Command) String() string {
	if c <= CommandUnknown || c >= commandCount {
		return commandNames[CommandUnknown]
	}
	return commandNames[c]
}

// MarshalText encodes the command by name.
func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseCommand resolves a command name. Matching ignores case, so "moveSteps" and
// "movesteps" are the same command.
func ParseCommand(name string) (Command, error) {
	if c, ok := commandsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, nil
	}
	return CommandUnknown, &UnknownCommandError{Name: name}
}

// SortCommands orders commands by name.
func SortCommands(cmds []Command) []Command {
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].String() < cmds[j].String() })
	return cmds
}
