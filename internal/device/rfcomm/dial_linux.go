//go:build linux

package rfcomm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/srg/botlink/internal/device"
	"golang.org/x/sys/unix"
)

// parseAddress converts "00:16:53:AA:BB:CC" into the little-endian bdaddr layout.
func parseAddress(address string) ([6]uint8, error) {
	var out [6]uint8
	parts := strings.Split(address, ":")
	if len(parts) != 6 {
		return out, fmt.Errorf("invalid bluetooth address %q", address)
	}
	for i, p := range parts {
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return out, fmt.Errorf("invalid bluetooth address %q: %w", address, err)
		}
		out[5-i] = uint8(b)
	}
	return out, nil
}

func dial(ctx context.Context, address string, channel uint8) (io.ReadWriteCloser, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("rfcomm socket: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- unix.Connect(fd, &unix.SockaddrRFCOMM{Addr: addr, Channel: channel})
	}()
	select {
	case err = <-done:
	case <-ctx.Done():
		_ = unix.Shutdown(fd, unix.SHUT_RDWR)
		_ = unix.Close(fd)
		<-done
		return nil, ctx.Err()
	}
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rfcomm connect %s: %w", address, err)
	}

	// The runtime poller lets Close unblock a pending Read.
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rfcomm nonblock: %w", err)
	}
	return os.NewFile(uintptr(fd), "rfcomm:"+address), nil
}

func errnoKind(err error) (device.ErrorKind, int, bool) {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return device.KindUnknown, 0, false
	}
	switch errno {
	case unix.ECONNREFUSED, unix.EHOSTDOWN, unix.EHOSTUNREACH, unix.ETIMEDOUT, unix.ENETUNREACH:
		return device.KindConnectFailed, int(errno), true
	case unix.ENOTCONN, unix.ECONNABORTED, unix.EBUSY:
		return device.KindTransient, int(errno), true
	case unix.ECONNRESET, unix.EPIPE:
		return device.KindDisconnected, int(errno), true
	case unix.EBADF:
		return device.KindSocketNotFound, int(errno), true
	default:
		return device.KindUnknown, int(errno), true
	}
}
