// Package makeblock holds the wire format shared by the Makeblock robots (mBot on the
// mCore board and mBot Ranger on the Auriga board).
//
// Requests are `ff 55 len | index action device [port] [slot] values...`; replies are
// `ff 55 | index dataType payload | 0d 0a`. The index byte of a request comes back in the
// reply so answers are routed by sensor, not by order.
package makeblock

// Header starts every request and reply.
var Header = []byte{0xff, 0x55}

// Footer ends every reply.
var Footer = []byte{0x0d, 0x0a}

// Action is the second body byte of a request.
type Action byte

const (
	ActionGet   Action = 0x01
	ActionRun   Action = 0x02
	ActionReset Action = 0x04
	ActionStart Action = 0x05
)

// DataType tags the payload of a reply.
type DataType byte

const (
	DataByte   DataType = 1
	DataFloat  DataType = 2
	DataShort  DataType = 3
	DataString DataType = 4
	DataDouble DataType = 5
	DataLong   DataType = 6
)

func (t DataType) String() string {
	switch t {
	case DataByte:
		return "byte"
	case DataFloat:
		return "float"
	case DataShort:
		return "short"
	case DataString:
		return "string"
	case DataDouble:
		return "double"
	case DataLong:
		return "long"
	}
	return "unknown"
}

// DeviceType is the firmware module a request addresses.
type DeviceType byte

const (
	DeviceVersion      DeviceType = 0
	DeviceUltrasonic   DeviceType = 1
	DeviceLightSensor  DeviceType = 3
	DeviceGyro         DeviceType = 6
	DeviceSoundSensor  DeviceType = 7
	DeviceRGBLED       DeviceType = 8
	DeviceMotor        DeviceType = 10
	DeviceEncoder      DeviceType = 12
	DeviceIR           DeviceType = 13
	DeviceIRRemote     DeviceType = 14
	DeviceLineFollower DeviceType = 17
	DeviceTemperature  DeviceType = 0x1b
	DeviceTone         DeviceType = 34
	DeviceButtonInner  DeviceType = 35
	DeviceEncoderBoard DeviceType = 62
)

// Port addresses a connector on the board. Each board defines its own ports.
type Port byte

const PortAuto Port = 0x00

// Slot addresses a sub-device behind a port, e.g. one motor of an encoder board.
type Slot byte

const (
	SlotAuto Slot = 0
	SlotOne  Slot = 1
	SlotTwo  Slot = 2
)

// Index routes a reply back to the request that asked for it.
type Index byte

const (
	IndexNone    Index = 0x00
	IndexVersion Index = 0x20
)
