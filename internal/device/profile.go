package device

import "strings"

// Profile is the hardware signature used to recognize a robot among discovered peripherals.
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	DeviceClass uint32 `json:"deviceClass" yaml:"device_class"`
	UUID        string `json:"uuid" yaml:"uuid"`
	Indicator   string `json:"indicator" yaml:"indicator"`
	DisplayName string `json:"displayName" yaml:"display_name"`
	Icon        string `json:"icon" yaml:"icon"`
}

// Serial port profile service used by classic robots.
const SerialPortUUID = "00001101-0000-1000-8000-00805f9b34fb"

// DefaultProfiles lists the supported robots in match order.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "ev3", DeviceClass: 2052, UUID: SerialPortUUID, Indicator: "EV3", DisplayName: "Lego EV3", Icon: "adb"},
		{Name: "sphero_classic", DeviceClass: 2360324, UUID: SerialPortUUID, Indicator: "Sphero", DisplayName: "Sphero 2.0", Icon: "adjust"},
		{Name: "mbot", DeviceClass: 7936, UUID: SerialPortUUID, Indicator: "Makeblock", DisplayName: "Makeblock mBot", Icon: "adb"},
		{Name: "sphero_v1", DeviceClass: 0, UUID: "22bb746f-2ba0-7554-2d6f-726568705327", Indicator: "BB-", DisplayName: "Sphero BB-8", Icon: "adjust"},
		{Name: "mbot_ranger", DeviceClass: 0, UUID: "0000ffe1-0000-1000-8000-00805f9b34fb", Indicator: "Makeblock_LE", DisplayName: "Makeblock mBot Ranger", Icon: "adb"},
	}
}

// Matches reports whether info carries this profile's class, service UUID and name indicator.
func (p *Profile) Matches(info DeviceInfo) bool {
	if p == nil || info.DeviceClass != p.DeviceClass {
		return false
	}
	if !ContainsUUID(info.UUIDs, p.UUID) {
		return false
	}
	return p.Indicator != "" && strings.Contains(info.Name, p.Indicator)
}
