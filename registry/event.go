package registry

import "github.com/srg/botlink/internal/device"

// EventType tells what happened to a registered device.
type EventType int

const (
	DeviceAdded EventType = iota
	DeviceRemoved
	DeviceConnected
	DeviceDisconnected
)

func (t EventType) String() string {
	switch t {
	case DeviceAdded:
		return "added"
	case DeviceRemoved:
		return "removed"
	case DeviceConnected:
		return "connected"
	case DeviceDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is a registry change notification.
type Event struct {
	Type    EventType       `json:"type"`
	Address string          `json:"address"`
	Name    string          `json:"name"`
	Profile string          `json:"profile"`
	Socket  device.SocketID `json:"socket,omitempty"`
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
