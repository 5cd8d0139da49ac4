package ev3

import (
	"fmt"
	"strings"

	"github.com/cornelk/hashmap"
	"github.com/srg/botlink/internal/wire"
)

// Commands builds EV3 direct commands. Sensor read commands are polled repeatedly and
// are cached per port and mode.
type Commands struct {
	cache *hashmap.Map[string, []byte]
}

// NewCommands returns an encoder with an empty cache.
func NewCommands() *Commands {
	return &Commands{cache: hashmap.New[string, []byte]()}
}

func (c *Commands) cached(name string, port, mode int, build func() []byte) []byte {
	key := fmt.Sprintf("%s:%d:%d", name, port, mode)
	if f, ok := c.cache.Get(key); ok {
		return f
	}
	f := build()
	c.cache.Set(key, f)
	return f
}

func boolByte(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c *Commands) GetBattery() []byte {
	return NewBuffer().
		WriteHeaderSize(CallbackBattery, 0, defaultLocalSize).
		WriteCommand(opBattery...).
		WriteIndex().
		ReadSigned()
}

func (c *Commands) GetFirmware() []byte {
	return NewBuffer().
		WriteHeaderSize(CallbackFirmware, 0x10, defaultLocalSize).
		WriteCommand(opFirmware...).
		WriteByte(0x10).
		WriteIndex().
		ReadSigned()
}

// GetDeviceType asks for the name of the device on port; the reply is a DEVICE_NAME callback.
func (c *Commands) GetDeviceType(port InputPort) []byte {
	return NewBuffer().
		WriteHeaderSize(CallbackDeviceName, 0x7F, defaultLocalSize).
		WriteCommand(opGetDeviceName...).
		WritePort(int(port)).
		WriteByte(0x7F).
		WriteIndex().
		ReadSigned()
}

// GetDeviceTypes returns one GetDeviceType frame per port.
func (c *Commands) GetDeviceTypes(ports []InputPort) [][]byte {
	frames := make([][]byte, 0, len(ports))
	for _, p := range ports {
		frames = append(frames, c.GetDeviceType(p))
	}
	return frames
}

func (c *Commands) read(name string, cb CallbackType, op []byte, port InputPort, mode int) []byte {
	return c.cached(name, int(port), mode, func() []byte {
		return NewBuffer().
			WriteHeader(cb).
			WriteCommand(op...).
			WritePort(int(port)).
			WriteNullByte().
			WriteByte(mode).
			WriteSingleByte().
			WriteIndex().
			ReadSigned()
	})
}

func (c *Commands) GetActorData(port InputPort, mode int) []byte {
	return c.read("getActorData", CallbackActorValue, opReadRaw, port, mode)
}

func (c *Commands) GetSensorData(port InputPort, mode int) []byte {
	return c.read("getSensorData", CallbackRaw, opReadRaw, port, mode)
}

func (c *Commands) GetSensorDataPct(port InputPort, mode int) []byte {
	return c.read("getSensorDataPct", CallbackPct, opReadPct, port, mode)
}

func (c *Commands) GetSensorDataSi(port InputPort, mode int) []byte {
	return c.read("getSensorDataSi", CallbackSi, opReadSi, port, mode)
}

func (c *Commands) SetLed(color, mode int) []byte {
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opLed...).
		WriteByte(color + mode).
		ReadSigned()
}

// MovePower stops ports, sets power and starts them again.
func (c *Commands) MovePower(ports byte, power int, brake bool) []byte {
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opOutputStop).WritePorts(int(ports)).WriteByte(boolByte(brake)).
		WriteCommand(opOutputPower).WritePorts(int(ports)).WriteByte(power).
		WriteCommand(opOutputStart).WritePorts(int(ports)).
		ReadSigned()
}

// RotatePower drives left and right in opposite directions.
func (c *Commands) RotatePower(left, right byte, powerLeft, powerRight int, brake bool) []byte {
	both := int(left | right)
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opOutputStop).WritePorts(both).WriteByte(boolByte(brake)).
		WriteCommand(opOutputPower).WritePort(int(left)).WriteByte(powerLeft).
		WriteCommand(opOutputPower).WritePort(int(right)).WriteByte(-powerRight).
		WriteCommand(opOutputStart).WritePorts(both).
		ReadSigned()
}

// MoveSteps turns ports by steps degrees. A zero speed means 50.
func (c *Commands) MoveSteps(ports byte, steps, speed, rampUp, rampDown int, brake bool) []byte {
	if speed == 0 {
		speed = 50
	}
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opOutputStop).WritePorts(int(ports)).WriteByte(boolByte(brake)).
		WriteCommand(opOutputStepSpeed).WritePorts(int(ports)).
		WriteByte(speed).
		WriteInt(rampUp).
		WriteInt(steps).
		WriteInt(rampDown).
		WriteByte(boolByte(brake)).
		ReadSigned()
}

// RotateSteps turns left forward and right backward by steps degrees.
func (c *Commands) RotateSteps(left, right byte, steps, speedLeft, speedRight, rampUp, rampDown int, brake bool) []byte {
	if speedLeft == 0 {
		speedLeft = 50
	}
	if speedRight == 0 {
		speedRight = 50
	}
	b := NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opOutputStop).WritePorts(int(left | right)).WriteByte(boolByte(brake))
	for _, s := range []struct {
		port  byte
		speed int
	}{{left, speedLeft}, {right, -speedRight}} {
		b.WriteCommand(opOutputStepSpeed).WritePort(int(s.port)).
			WriteByte(s.speed).
			WriteInt(rampUp).
			WriteInt(steps).
			WriteInt(rampDown).
			WriteByte(boolByte(brake))
	}
	return b.ReadSigned()
}

// CustomRotateSteps is MoveSteps addressed to a single port.
func (c *Commands) CustomRotateSteps(ports byte, steps, speed, rampUp, rampDown int, brake bool) []byte {
	if speed == 0 {
		speed = 50
	}
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opOutputStop).WritePorts(int(ports)).WriteByte(boolByte(brake)).
		WriteCommand(opOutputStepSpeed).WritePort(int(ports)).
		WriteByte(speed).
		WriteInt(rampUp).
		WriteInt(steps).
		WriteInt(rampDown).
		WriteByte(boolByte(brake)).
		ReadSigned()
}

func (c *Commands) Stop(ports byte, brake bool) []byte {
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opOutputStop).
		WritePorts(int(ports)).
		WriteByte(boolByte(brake)).
		ReadSigned()
}

// Clear resets all sensor values.
func (c *Commands) Clear() []byte {
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opClearAll...).
		WriteNullByte().
		ReadSigned()
}

func volume(v int) int {
	if v == 0 {
		v = 100
	}
	return wire.Clamp(v, 0, 100)
}

// PlayTone plays frequency Hz for at least 50ms. A zero volume means full volume.
func (c *Commands) PlayTone(frequency, durationMs, vol int) []byte {
	if durationMs < 50 {
		durationMs = 50
	}
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opSoundTone...).
		WriteByte(volume(vol)).
		WriteShort(frequency).
		WriteShort(durationMs).
		ReadSigned()
}

func (c *Commands) PlaySound(filename string, vol int) []byte {
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opSoundPlay...).
		WriteByte(volume(vol)).
		WriteString(filename).
		ReadSigned()
}

func (c *Commands) DrawClean() []byte {
	return NewBuffer().WriteHeader(CallbackNone).WriteCommand(opDrawClean...).ReadSigned()
}

func (c *Commands) DrawUpdate() []byte {
	return NewBuffer().WriteHeader(CallbackNone).WriteCommand(opDrawUpdate...).ReadSigned()
}

// DrawImage draws a project image. The ".rgf" suffix is optional.
func (c *Commands) DrawImage(filename string, x, y, color int) []byte {
	path := imageRoot + strings.Replace(filename, ".rgf", "", 1)
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opDrawBmpFile...).
		WriteByte(color).
		WriteInt(wire.Clamp(x, 0, screenMaxX)).
		WriteInt(wire.Clamp(y, 0, screenMaxY)).
		WriteString(path).
		ReadSigned()
}

func (c *Commands) DrawLine(x1, y1, x2, y2, color int) []byte {
	return NewBuffer().
		WriteHeader(CallbackNone).
		WriteCommand(opDrawLine...).
		WriteByte(color).
		WriteInt(wire.Clamp(x1, 0, screenMaxX)).
		WriteInt(wire.Clamp(y1, 0, screenMaxY)).
		WriteInt(wire.Clamp(x2, 0, screenMaxX)).
		WriteInt(wire.Clamp(y2, 0, screenMaxY)).
		ReadSigned()
}
