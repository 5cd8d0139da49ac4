package robot

import "time"

// EventType names a decoded robot notification.
type EventType string

const (
	EventDeviceType   EventType = "device_type"
	EventSensorValue  EventType = "sensor_value"
	EventFirmware     EventType = "firmware"
	EventBattery      EventType = "battery"
	EventCollision    EventType = "collision"
	EventLocation     EventType = "location"
	EventVelocity     EventType = "velocity"
	EventSpeed        EventType = "speed"
	EventRGB          EventType = "rgb"
	EventButton       EventType = "button_pressed"
	EventUltrasonic   EventType = "ultrasonic_sensor_value_changed"
	EventLineFollower EventType = "linefollower_sensor_value_changed"
	EventLightness    EventType = "lightness_sensor_value_changed"
	EventTemperature  EventType = "temperature_sensor_value_changed"
)

// Event is one decoded notification. Channel names the port or sensor the value belongs
// to; Port is set for families that address sensors by number.
type Event struct {
	Type    EventType `json:"type"`
	Robot   string    `json:"robot"`
	Channel string    `json:"channel,omitempty"`
	Port    int       `json:"port"`
	Value   any       `json:"value"`
	Time    time.Time `json:"time"`
}

// Vector is a two-axis reading.
type Vector struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Collision is a Sphero collision notification.
type Collision struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Z         int    `json:"z"`
	Axis      string `json:"axis"`
	Magnitude Vector `json:"magnitude"`
	Speed     int    `json:"speed"`
}

// LineFollower is a Makeblock line follower reading. Each side is true while it sees the line.
type LineFollower struct {
	Left  bool   `json:"left"`
	Right bool   `json:"right"`
	Raw   []byte `json:"raw"`
}

// DeviceType announces what is plugged into an EV3 port.
type DeviceType struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mode int    `json:"mode"`
}
