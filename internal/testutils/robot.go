package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/events"
)

// ProfileByName returns the default profile with the given name.
func ProfileByName(name string) *device.Profile {
	for _, p := range device.DefaultProfiles() {
		if p.Name == name {
			p := p
			return &p
		}
	}
	panic(fmt.Sprintf("unknown profile %q", name))
}

// NewConnectedDevice creates a device matching the named profile on transport and
// connects it.
func NewConnectedDevice(t testing.TB, transport *FakeTransport, profileName string, logger *logrus.Logger) *device.Device {
	t.Helper()
	p := ProfileByName(profileName)
	dev := device.New(device.DeviceInfo{
		Address:     "00:16:53:00:00:01",
		Name:        p.Indicator + " test",
		DeviceClass: p.DeviceClass,
		UUIDs:       []string{p.UUID},
		Paired:      true,
		Connectable: true,
	}, p, transport, logger)
	if err := dev.Connect(context.Background(), nil); err != nil {
		t.Fatalf("connect %s: %v", profileName, err)
	}
	return dev
}

// Drain returns every event currently queued on rc.
func Drain[T any](rc *events.RingChannel[T]) []T {
	var out []T
	for {
		v, ok := rc.TryReceive()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
