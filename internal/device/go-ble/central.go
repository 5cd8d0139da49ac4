// Package goble is the GATT half of the platform layer. It scans and connects through
// go-ble and exposes the results as device.Adapter and device.Transport.
package goble

import (
	"context"

	"github.com/go-ble/ble"
)

// Advertisement is the part of a scan report the adapter reads.
type Advertisement interface {
	LocalName() string
	Services() []ble.UUID
	Connectable() bool
	RSSI() int
	Addr() ble.Addr
}

// Client is the part of a GATT client the transport drives.
type Client interface {
	DiscoverProfile(force bool) (*ble.Profile, error)
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
	Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error
	Unsubscribe(c *ble.Characteristic, ind bool) error
	CancelConnection() error
}

// Central scans for and dials peripherals.
type Central interface {
	Scan(ctx context.Context, allowDup bool, h func(Advertisement)) error
	Dial(ctx context.Context, address string) (Client, error)
}

// DeviceFactory creates the host central (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func() (Central, error) {
	dev, err := newDevice()
	if err != nil {
		return nil, NormalizeError("open adapter", err)
	}
	return &bleCentral{dev: dev}, nil
}

// bleCentral narrows a ble.Device to Central.
type bleCentral struct {
	dev ble.Device
}

func (c *bleCentral) Scan(ctx context.Context, allowDup bool, h func(Advertisement)) error {
	return c.dev.Scan(ctx, allowDup, func(adv ble.Advertisement) {
		h(adv)
	})
}

func (c *bleCentral) Dial(ctx context.Context, address string) (Client, error) {
	return c.dev.Dial(ctx, ble.NewAddr(address))
}
