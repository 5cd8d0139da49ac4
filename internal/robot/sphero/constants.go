package sphero

// Command is a device id / command id pair.
type Command [2]byte

// Core device (DID 0x00).
var (
	CommandVersion = Command{0x00, 0x02}
	CommandSleep   = Command{0x00, 0x22}
)

// Sphero device (DID 0x02).
var (
	CommandHeading            = Command{0x02, 0x01}
	CommandCollisionDetection = Command{0x02, 0x12}
	CommandLocation           = Command{0x02, 0x15}
	CommandRGBSet             = Command{0x02, 0x20}
	CommandBackLed            = Command{0x02, 0x21}
	CommandRGBGet             = Command{0x02, 0x22}
	CommandRoll               = Command{0x02, 0x30}
	CommandBoost              = Command{0x02, 0x31}
	CommandMotionTimeout      = Command{0x02, 0x34}
)

// CallbackType travels in the SEQ byte and comes back in the acknowledgement.
type CallbackType byte

const (
	CallbackNone     CallbackType = 0x00
	CallbackRGB      CallbackType = 0x01
	CallbackLocation CallbackType = 0x02
	CallbackVersion  CallbackType = 0x03
)

// Start-of-packet bytes.
const (
	sop1        = 0xFF
	sop2Reply   = 0xFF
	sop2NoReply = 0xFE
)

// Response types in the second header byte.
const (
	responseAck   = 0xFF
	responseAsync = 0xFE
)

// Async message id codes.
const (
	messagePreSleep  = 0x05
	messageCollision = 0x07
)

// BLE characteristics of the v1 (BB-8 family) robots.
const (
	CharAntiDOS  = "22bb746f-2bbd-7554-2d6f-726568705327"
	CharTXPower  = "22bb746f-2bb2-7554-2d6f-726568705327"
	CharWake     = "22bb746f-2bbf-7554-2d6f-726568705327"
	CharResponse = "22bb746f-2ba6-7554-2d6f-726568705327"

	unlockCode = "011i3"
)

// Defaults of the roll state.
const (
	defaultSpeed = 20
)
