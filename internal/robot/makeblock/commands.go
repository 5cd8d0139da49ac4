package makeblock

// SetRGBLED sets one LED (index 0 for all) of the RGB ring behind port and slot.
func SetRGBLED(port Port, slot Slot, index, red, green, blue int) []byte {
	return NewBuffer().
		WriteIndex(IndexNone).
		WriteAction(ActionRun).
		WriteDevice(DeviceRGBLED).
		WritePort(port).
		WriteSlot(slot).
		WriteByte(index).
		WriteByte(red).
		WriteByte(green).
		WriteByte(blue).
		ReadSigned()
}

// PlayTone plays frequency (Hz) for duration (ms) on the on-board buzzer.
func PlayTone(frequency, duration int) []byte {
	return NewBuffer().
		WriteIndex(IndexNone).
		WriteAction(ActionRun).
		WriteDevice(DeviceTone).
		WriteShort(frequency).
		WriteShort(duration).
		ReadSigned()
}

// PlayToneOn plays a tone on a buzzer addressed by port.
func PlayToneOn(port Port, frequency, duration int) []byte {
	return NewBuffer().
		WriteIndex(IndexNone).
		WriteAction(ActionRun).
		WriteDevice(DeviceTone).
		WritePort(port).
		WriteShort(frequency).
		WriteShort(duration).
		ReadSigned()
}

func GetVersion() []byte {
	return NewBuffer().
		WriteIndex(IndexVersion).
		WriteAction(ActionGet).
		WriteDevice(DeviceVersion).
		ReadSigned()
}

// GetSensorData requests one reading; the reply carries index.
func GetSensorData(index Index, device DeviceType, port Port) []byte {
	return NewBuffer().
		WriteIndex(index).
		WriteAction(ActionGet).
		WriteDevice(device).
		WritePort(port).
		ReadSigned()
}

// Reset stops every actor on the board.
func Reset() []byte {
	return NewBuffer().WriteIndex(IndexNone).WriteAction(ActionReset).ReadSigned()
}

func Start() []byte {
	return NewBuffer().WriteIndex(IndexNone).WriteAction(ActionStart).ReadSigned()
}
