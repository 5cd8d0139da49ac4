package goble

import (
	"context"
	"errors"
	"strings"

	"github.com/srg/botlink/internal/device"
)

// NormalizeError maps go-ble failures of op to a *device.TransportError carrying the
// matching ErrorKind. Known connection states stay reachable through errors.Is.
func NormalizeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var terr *device.TransportError
	if errors.As(err, &terr) {
		return err
	}

	kind := device.KindUnknown
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind, err = device.KindConnectFailed, errors.Join(device.ErrTimeout, err)
	case containsIgnoreCase(msg, "invalid state"),
		containsIgnoreCase(msg, "bluetooth is turned off"):
		kind = device.KindTransient
	case containsIgnoreCase(msg, "device not connected"),
		containsIgnoreCase(msg, "disconnected"):
		kind, err = device.KindDisconnected, errors.Join(device.ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		kind, err = device.KindConnectFailed, errors.Join(device.ErrAlreadyConnected, err)
	case containsIgnoreCase(msg, "connection is not initialized"):
		kind, err = device.KindConnectFailed, errors.Join(device.ErrNotInitialized, err)
	case containsIgnoreCase(msg, "can't dial"),
		containsIgnoreCase(msg, "connection failed"):
		kind = device.KindConnectFailed
	}
	return &device.TransportError{Op: op, Kind: kind, Err: err}
}

// containsIgnoreCase checks the substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
