//go:build !linux

package rfcomm

import (
	"context"
	"fmt"
	"io"

	"github.com/srg/botlink/internal/device"
)

func dial(context.Context, string, uint8) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("rfcomm: %w", device.ErrUnsupported)
}

func errnoKind(error) (device.ErrorKind, int, bool) {
	return device.KindUnknown, 0, false
}
