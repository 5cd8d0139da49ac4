package rfcomm

import (
	"errors"

	"github.com/srg/botlink/internal/device"
)

// normalizeError wraps err as a *device.TransportError. Socket error numbers pick the
// kind; fallback applies when the number is unknown or absent.
func normalizeError(op string, err error, fallback device.ErrorKind) error {
	if err == nil {
		return nil
	}
	var terr *device.TransportError
	if errors.As(err, &terr) {
		return err
	}
	kind, code, ok := errnoKind(err)
	if !ok || kind == device.KindUnknown {
		kind = fallback
	}
	return &device.TransportError{Op: op, Kind: kind, Code: code, Err: err}
}
