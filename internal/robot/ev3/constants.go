package ev3

import "time"

// CallbackType is echoed back by the brick in the message counter so replies can be
// routed without tracking request order.
type CallbackType byte

const (
	CallbackNone       CallbackType = 0x00
	CallbackDeviceName CallbackType = 0x01
	CallbackActorValue CallbackType = 0x05
	CallbackPct        CallbackType = 0x10
	CallbackRaw        CallbackType = 0x11
	CallbackSi         CallbackType = 0x12
	CallbackFirmware   CallbackType = 0x20
	CallbackBattery    CallbackType = 0x21
	CallbackUnknown    CallbackType = 0xF0
)

const (
	directReply   = 0x00
	directNoReply = 0x80
)

// Parameter type prefixes of the direct command byte code.
const (
	paramByte   = 0x81
	paramShort  = 0x82
	paramInt    = 0x83
	paramString = 0x84
	paramIndex  = 0xE1
)

// Opcodes.
var (
	opBattery       = []byte{0x81, 0x12}
	opFirmware      = []byte{0x81, 0x0A}
	opLed           = []byte{0x82, 0x1B}
	opDrawUpdate    = []byte{0x84, 0x00}
	opDrawClean     = []byte{0x84, 0x01}
	opDrawLine      = []byte{0x84, 0x03}
	opDrawBmpFile   = []byte{0x84, 0x1C}
	opSoundTone     = []byte{0x94, 0x01}
	opSoundPlay     = []byte{0x94, 0x02}
	opGetDeviceName = []byte{0x99, 0x15}
	opReadPct       = []byte{0x99, 0x1B}
	opReadRaw       = []byte{0x99, 0x1C}
	opReadSi        = []byte{0x99, 0x1D}
	opClearAll      = []byte{0x99, 0x0A}
)

const (
	opOutputStop      = 0xA3
	opOutputPower     = 0xA4
	opOutputStart     = 0xA6
	opOutputStepSpeed = 0xAE
)

// InputPort addresses a sensor (1-4) or a motor read-back (A-D).
type InputPort byte

const (
	InputOne   InputPort = 0x00
	InputTwo   InputPort = 0x01
	InputThree InputPort = 0x02
	InputFour  InputPort = 0x03
	InputA     InputPort = 0x10
	InputB     InputPort = 0x11
	InputC     InputPort = 0x12
	InputD     InputPort = 0x13
)

// InputPorts lists every port in enumeration order.
var InputPorts = []InputPort{InputOne, InputTwo, InputThree, InputFour, InputA, InputB, InputC, InputD}

func (p InputPort) String() string {
	switch {
	case p <= InputFour:
		return string(rune('1' + p))
	case p >= InputA && p <= InputD:
		return string(rune('A' + p - InputA))
	}
	return "?"
}

// IsActor reports whether p is one of the motor ports A-D.
func (p InputPort) IsActor() bool {
	return p >= InputA && p <= InputD
}

// OutputMask returns the output bit of a motor port.
func (p InputPort) OutputMask() byte {
	if !p.IsActor() {
		return 0
	}
	return 1 << (p - InputA)
}

// Output port bits; they may be ORed together.
const (
	OutputA   byte = 0x01
	OutputB   byte = 0x02
	OutputC   byte = 0x04
	OutputD   byte = 0x08
	OutputAll byte = 0x0F
)

const (
	LedOff    = 0
	LedGreen  = 1
	LedRed    = 2
	LedOrange = 3

	LedNormal = 0
	LedFlash  = 3
	LedPulse  = 6
)

// DeviceName is the role a detected device plays in the robot. The _OPT names are
// assigned to a second device of the same kind.
type DeviceName string

const (
	ColorSensor       DeviceName = "color-sensor"
	GyroSensor        DeviceName = "gyro-sensor"
	IRSensor          DeviceName = "ir-sensor"
	TouchSensor       DeviceName = "touch-sensor"
	TouchSensorOpt    DeviceName = "touch-sensor-opt"
	UltrasonicSensor  DeviceName = "ultrasonic-sensor"
	LargeMotor        DeviceName = "large-motor"
	LargeMotorOpt     DeviceName = "large-motor-opt"
	MediumMotor       DeviceName = "medium-motor"
	MediumMotorOpt    DeviceName = "medium-motor-opt"
	deviceNameUnknown DeviceName = ""
)

// deviceKind describes a device type string reported by GETDEVICENAME.
type deviceKind struct {
	typ      string
	name     DeviceName
	group    string
	mode     int
	interval time.Duration
	read     readKind
}

type readKind int

const (
	readRaw readKind = iota
	readPct
	readSi
	readActor
)

const (
	intervalFast  = 150 * time.Millisecond
	intervalShort = 200 * time.Millisecond
	intervalTouch = 500 * time.Millisecond
	intervalMotor = 2000 * time.Millisecond
)

// deviceKinds is keyed by the normalized type name: '-' replaced by '_' and spaces removed.
var deviceKinds = map[string]deviceKind{
	"COL_REFLECT": {typ: "col-reflect", name: ColorSensor, group: "COL", mode: 0, interval: intervalShort, read: readRaw},
	"COL_AMBIENT": {typ: "col-ambient", name: ColorSensor, group: "COL", mode: 1, interval: intervalShort, read: readRaw},
	"COL_COLOR":   {typ: "col-color", name: ColorSensor, group: "COL", mode: 2, interval: intervalShort, read: readRaw},
	"GYRO_ANG":    {typ: "gyro-ang", name: GyroSensor, group: "GYRO", mode: 0, interval: intervalFast, read: readSi},
	"GYRO_RATE":   {typ: "gyro-rate", name: GyroSensor, group: "GYRO", mode: 1, interval: intervalFast, read: readSi},
	"IR_PROX":     {typ: "ir-prox", name: IRSensor, group: "IR", mode: 0, interval: intervalShort, read: readRaw},
	"IR_SEEK":     {typ: "ir-seek", name: IRSensor, group: "IR", mode: 1, interval: intervalShort, read: readRaw},
	"IR_REMOTE":   {typ: "ir-remote", name: IRSensor, group: "IR", mode: 2, interval: intervalShort, read: readRaw},
	"L_MOTOR_DEG": {typ: "l-motor-deg", name: LargeMotor, group: "L_MOTOR", mode: 0, interval: intervalMotor, read: readActor},
	"L_MOTOR_ROT": {typ: "l-motor-rot", name: LargeMotor, group: "L_MOTOR", mode: 1, interval: intervalMotor, read: readActor},
	"M_MOTOR_DEG": {typ: "m-motor-deg", name: MediumMotor, group: "M_MOTOR", mode: 0, interval: intervalMotor, read: readActor},
	"M_MOTOR_ROT": {typ: "m-motor-rot", name: MediumMotor, group: "M_MOTOR", mode: 1, interval: intervalMotor, read: readActor},
	"TOUCH":       {typ: "touch", name: TouchSensor, group: "TOUCH", mode: 0, interval: intervalTouch, read: readPct},
	"US_DIST_CM":  {typ: "us-dist-cm", name: UltrasonicSensor, group: "US", mode: 0, interval: intervalShort, read: readSi},
	"US_DIST_IN":  {typ: "us-dist-in", name: UltrasonicSensor, group: "US", mode: 1, interval: intervalShort, read: readSi},
	"US_LISTEN":   {typ: "us-listen", name: UltrasonicSensor, group: "US", mode: 2, interval: intervalShort, read: readSi},
}

// Display and image limits of the brick LCD.
const (
	screenMaxX = 177
	screenMaxY = 127
	imageRoot  = "/home/root/lms2012/prjs/"
)
