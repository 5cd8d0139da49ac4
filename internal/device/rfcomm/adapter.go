package rfcomm

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/srg/botlink/internal/device"
)

// PairedAdapter reports the classic peripherals the host is already paired with. The
// list comes from configuration; SetDevices replaces it and notifies the listener.
type PairedAdapter struct {
	mu       sync.RWMutex
	devices  map[string]device.DeviceInfo
	listener device.AdapterListener
}

func NewPairedAdapter(devices ...device.DeviceInfo) *PairedAdapter {
	a := &PairedAdapter{devices: make(map[string]device.DeviceInfo)}
	for _, d := range devices {
		d = paired(d)
		a.devices[d.Address] = d
	}
	return a
}

func paired(d device.DeviceInfo) device.DeviceInfo {
	d.Address = strings.ToLower(d.Address)
	d.UUIDs = device.NormalizeUUIDs(d.UUIDs)
	d.Paired = true
	d.Connectable = true
	return d
}

func (a *PairedAdapter) GetDevices(_ context.Context) ([]device.DeviceInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]device.DeviceInfo, 0, len(a.devices))
	for _, d := range a.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (a *PairedAdapter) SetListener(l device.AdapterListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

// SetDevices replaces the paired list.
func (a *PairedAdapter) SetDevices(devices ...device.DeviceInfo) {
	next := make(map[string]device.DeviceInfo, len(devices))
	for _, d := range devices {
		d = paired(d)
		next[d.Address] = d
	}

	a.mu.Lock()
	prev, l := a.devices, a.listener
	a.devices = next
	a.mu.Unlock()
	if l == nil {
		return
	}

	for addr, d := range next {
		old, ok := prev[addr]
		switch {
		case !ok:
			l.OnDeviceAdded(d)
		case !reflect.DeepEqual(old, d):
			l.OnDeviceChanged(d)
		}
	}
	for addr, d := range prev {
		if _, ok := next[addr]; !ok {
			l.OnDeviceRemoved(d)
		}
	}
}
