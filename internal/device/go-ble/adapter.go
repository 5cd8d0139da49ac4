package goble

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
)

const (
	// DefaultScanWindow is how long GetDevices listens for advertisements.
	DefaultScanWindow = 3 * time.Second

	// DefaultExpiry drops peripherals that have not advertised for this long.
	DefaultExpiry = 30 * time.Second
)

type seenDevice struct {
	info     device.DeviceInfo
	rssi     int
	lastSeen time.Time
}

// Adapter discovers GATT peripherals by scanning. Every GetDevices call runs one scan
// window and reports the peripherals seen within the expiry.
type Adapter struct {
	ScanWindow time.Duration
	Expiry     time.Duration

	logger *logrus.Logger
	now    func() time.Time

	scanMu   sync.Mutex
	mu       sync.RWMutex
	listener device.AdapterListener
	central  Central
	seen     *hashmap.Map[string, *seenDevice]
}

// NewAdapter creates a scanning adapter. The host central is opened on the first scan.
func NewAdapter(logger *logrus.Logger) *Adapter {
	return &Adapter{
		ScanWindow: DefaultScanWindow,
		Expiry:     DefaultExpiry,
		logger:     logger,
		now:        time.Now,
		seen:       hashmap.New[string, *seenDevice](),
	}
}

func (a *Adapter) SetListener(l device.AdapterListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

func (a *Adapter) notify(fn func(device.AdapterListener)) {
	a.mu.RLock()
	l := a.listener
	a.mu.RUnlock()
	if l != nil {
		fn(l)
	}
}

func (a *Adapter) open() (Central, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.central != nil {
		return a.central, nil
	}
	c, err := DeviceFactory()
	if err != nil {
		return nil, err
	}
	a.central = c
	return c, nil
}

// GetDevices scans for one window, expires stale peripherals and returns the rest
// sorted by address.
func (a *Adapter) GetDevices(ctx context.Context) ([]device.DeviceInfo, error) {
	if err := a.Scan(ctx, a.ScanWindow); err != nil {
		return nil, err
	}
	a.expire()
	return a.Devices(), nil
}

// Scan listens for advertisements for d or until ctx is done.
func (a *Adapter) Scan(ctx context.Context, d time.Duration) error {
	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	central, err := a.open()
	if err != nil {
		return err
	}

	scanCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	a.logger.WithField("window", d).Debug("Scanning for BLE peripherals...")
	err = central.Scan(scanCtx, true, a.handleAdvertisement)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return NormalizeError("scan", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (a *Adapter) handleAdvertisement(adv Advertisement) {
	addr := strings.ToLower(adv.Addr().String())
	if addr == "" {
		return
	}
	uuids := make([]string, 0, len(adv.Services()))
	for _, u := range adv.Services() {
		uuids = append(uuids, device.NormalizeUUID(u.String()))
	}
	sort.Strings(uuids)

	entry, loaded := a.seen.GetOrInsert(addr, &seenDevice{
		info: device.DeviceInfo{
			Address:     addr,
			Name:        adv.LocalName(),
			UUIDs:       uuids,
			Connectable: adv.Connectable(),
		},
		rssi:     adv.RSSI(),
		lastSeen: a.now(),
	})
	if !loaded {
		a.logger.WithFields(logrus.Fields{
			"address": addr,
			"name":    entry.info.Name,
			"rssi":    entry.rssi,
		}).Debug("Peripheral discovered")
		info := entry.info
		a.notify(func(l device.AdapterListener) { l.OnDeviceAdded(info) })
		return
	}

	updated := entry.info
	if name := adv.LocalName(); name != "" {
		updated.Name = name
	}
	for _, u := range uuids {
		if !slices.Contains(updated.UUIDs, u) {
			updated.UUIDs = append(slices.Clone(updated.UUIDs), u)
		}
	}
	sort.Strings(updated.UUIDs)
	updated.Connectable = adv.Connectable()

	a.seen.Set(addr, &seenDevice{info: updated, rssi: adv.RSSI(), lastSeen: a.now()})
	if updated.Name != entry.info.Name || updated.Connectable != entry.info.Connectable ||
		!slices.Equal(updated.UUIDs, entry.info.UUIDs) {
		a.notify(func(l device.AdapterListener) { l.OnDeviceChanged(updated) })
	}
}

func (a *Adapter) expire() {
	if a.Expiry <= 0 {
		return
	}
	deadline := a.now().Add(-a.Expiry)
	var stale []*seenDevice
	a.seen.Range(func(addr string, e *seenDevice) bool {
		if e.lastSeen.Before(deadline) {
			stale = append(stale, e)
		}
		return true
	})
	for _, e := range stale {
		a.seen.Del(e.info.Address)
		a.logger.WithField("address", e.info.Address).Debug("Peripheral expired")
		info := e.info
		a.notify(func(l device.AdapterListener) { l.OnDeviceRemoved(info) })
	}
}

// Devices returns the peripherals seen so far, sorted by address.
func (a *Adapter) Devices() []device.DeviceInfo {
	out := make([]device.DeviceInfo, 0, a.seen.Len())
	a.seen.Range(func(_ string, e *seenDevice) bool {
		out = append(out, e.info)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// RSSI returns the last signal strength reported for address.
func (a *Adapter) RSSI(address string) (int, bool) {
	e, ok := a.seen.Get(strings.ToLower(address))
	if !ok {
		return 0, false
	}
	return e.rssi, true
}
