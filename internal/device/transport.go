package device

import "context"

// SocketID is the opaque handle a Transport assigns to a created socket.
type SocketID int

// DeviceInfo is one peripheral as reported by the platform adapter.
//
//nolint:revive // DeviceInfo name is intentional for clarity when used as a device.DeviceInfo
type DeviceInfo struct {
	Address     string   `json:"address"`
	Name        string   `json:"name"`
	DeviceClass uint32   `json:"deviceClass"`
	UUIDs       []string `json:"uuids"`
	Connected   bool     `json:"connected"`
	Connectable bool     `json:"connectable"`
	Paired      bool     `json:"paired"`
}

// SocketInfo describes a socket known to the Transport.
type SocketInfo struct {
	ID        SocketID `json:"socketId"`
	Address   string   `json:"address"`
	UUID      string   `json:"uuid"`
	Connected bool     `json:"connected"`
	Paused    bool     `json:"paused"`
}

// Receiver gets inbound socket traffic. Implementations must be safe for concurrent use;
// a Transport delivers the events of a single socket in order.
type Receiver interface {
	OnReceive(id SocketID, data []byte)
	OnReceiveError(id SocketID, err error)
}

// Transport is the platform socket contract.
type Transport interface {
	Create(ctx context.Context) (SocketID, error)
	Connect(ctx context.Context, id SocketID, address, uuid string) error
	Send(ctx context.Context, id SocketID, data []byte) (int, error)
	Disconnect(ctx context.Context, id SocketID) error
	Close(ctx context.Context, id SocketID) error
	GetInfo(ctx context.Context, id SocketID) (SocketInfo, error)
	GetSockets(ctx context.Context) ([]SocketInfo, error)
	SetPaused(ctx context.Context, id SocketID, paused bool) error
	SetReceiver(r Receiver)
}

// CharacteristicWriter is implemented by transports that can write to an individual GATT
// characteristic of a connected socket.
type CharacteristicWriter interface {
	WriteCharacteristic(ctx context.Context, id SocketID, uuid string, data []byte) error
}

// AdapterListener receives adapter change notifications.
type AdapterListener interface {
	OnDeviceAdded(info DeviceInfo)
	OnDeviceChanged(info DeviceInfo)
	OnDeviceRemoved(info DeviceInfo)
}

// Adapter is the platform device-discovery contract.
type Adapter interface {
	GetDevices(ctx context.Context) ([]DeviceInfo, error)
	SetListener(l AdapterListener)
}

// Platform bundles the two halves a registry needs.
type Platform struct {
	Adapter   Adapter
	Transport Transport
}
