package devicefactory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
)

// Adapter merges several adapters by address. A failing source is logged and skipped
// as long as another one answers.
type Adapter struct {
	logger  *logrus.Logger
	sources []device.Adapter
}

func NewAdapter(logger *logrus.Logger, sources ...device.Adapter) *Adapter {
	return &Adapter{logger: logger, sources: sources}
}

func (a *Adapter) SetListener(l device.AdapterListener) {
	for _, s := range a.sources {
		s.SetListener(l)
	}
}

func (a *Adapter) GetDevices(ctx context.Context) ([]device.DeviceInfo, error) {
	merged := make(map[string]device.DeviceInfo)
	var lastErr error
	answered := 0
	for _, s := range a.sources {
		devices, err := s.GetDevices(ctx)
		if err != nil {
			a.logger.WithError(err).Warn("Device source failed")
			lastErr = err
			continue
		}
		answered++
		for _, d := range devices {
			key := strings.ToLower(d.Address)
			if prev, ok := merged[key]; ok {
				d = merge(prev, d)
			}
			merged[key] = d
		}
	}
	if answered == 0 && lastErr != nil {
		return nil, lastErr
	}

	out := make([]device.DeviceInfo, 0, len(merged))
	for _, d := range merged {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func merge(a, b device.DeviceInfo) device.DeviceInfo {
	if a.Name == "" {
		a.Name = b.Name
	}
	if a.DeviceClass == 0 {
		a.DeviceClass = b.DeviceClass
	}
	a.UUIDs = slices.Clone(a.UUIDs)
	for _, u := range b.UUIDs {
		if !device.ContainsUUID(a.UUIDs, u) {
			a.UUIDs = append(a.UUIDs, u)
		}
	}
	a.Connected = a.Connected || b.Connected
	a.Connectable = a.Connectable || b.Connectable
	a.Paired = a.Paired || b.Paired
	return a
}
