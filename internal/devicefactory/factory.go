// Package devicefactory assembles the host platform: GATT scanning and connections
// through go-ble plus RFCOMM sockets for paired serial port robots.
package devicefactory

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	goble "github.com/srg/botlink/internal/device/go-ble"
	"github.com/srg/botlink/internal/device/rfcomm"
)

// Options selects and tunes the platform backends.
type Options struct {
	// Paired lists classic peripherals reachable over RFCOMM.
	Paired         []device.DeviceInfo
	Channel        uint8
	ScanWindow     time.Duration
	ConnectTimeout time.Duration
	DisableBLE     bool
	DisableRFCOMM  bool
}

// NewPlatform builds the adapter and the routing transport from opts.
func NewPlatform(opts Options, logger *logrus.Logger) device.Platform {
	var adapters []device.Adapter
	var gatt, serial device.Transport

	if !opts.DisableRFCOMM {
		adapters = append(adapters, rfcomm.NewPairedAdapter(opts.Paired...))
		t := rfcomm.NewTransport(logger)
		if opts.Channel != 0 {
			t.Channel = opts.Channel
		}
		if opts.ConnectTimeout > 0 {
			t.ConnectTimeout = opts.ConnectTimeout
		}
		serial = t
	}
	if !opts.DisableBLE {
		a := goble.NewAdapter(logger)
		if opts.ScanWindow > 0 {
			a.ScanWindow = opts.ScanWindow
		}
		adapters = append(adapters, a)
		t := goble.NewTransport(logger)
		if opts.ConnectTimeout > 0 {
			t.ConnectTimeout = opts.ConnectTimeout
		}
		gatt = t
	}

	return device.Platform{
		Adapter:   NewAdapter(logger, adapters...),
		Transport: NewTransport(logger, gatt, serial),
	}
}
