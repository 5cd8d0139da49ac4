// Package bridge exposes a connected robot's raw byte stream as a pseudo-terminal.
//
// Every chunk the robot sends is written to the PTY unframed, and everything a serial
// tool writes to the PTY is sent to the robot as is. Decoding handlers registered by a
// robot Api keep working while the bridge runs, so events and the raw stream can be
// observed side by side.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/ptyio"
)

// Progress phases reported by Run.
const (
	PhaseOpening = "Opening PTY"
	PhaseRunning = "Running"
	PhaseStopped = "Stopped"
)

// Options configures Run.
type Options struct {
	PTY    ptyio.Options
	Logger *logrus.Logger
}

// ProgressCallback is called when the bridge phase changes.
type ProgressCallback func(phase string)

// Callback runs with the live bridge. The bridge is torn down when it returns.
type Callback[R any] func(*Bridge) (R, error)

// Stats counts bridged traffic.
type Stats struct {
	FromRobot  uint64 // bytes written to the PTY
	ToRobot    uint64 // bytes sent to the robot
	SendErrors uint64
	PTY        ptyio.Stats
}

// Bridge is a running device <-> PTY pipe.
type Bridge struct {
	dev    *device.Device
	port   *ptyio.Port
	logger *logrus.Logger

	fromRobot  atomic.Uint64
	toRobot    atomic.Uint64
	sendErrors atomic.Uint64
}

// TTYName returns the PTY slave path serial tools should open.
func (b *Bridge) TTYName() string { return b.port.Name() }

// TTYLink returns the symlink to the slave, empty when none was requested.
func (b *Bridge) TTYLink() string { return b.port.Link() }

// Device returns the bridged device.
func (b *Bridge) Device() *device.Device { return b.dev }

// Stats returns the traffic counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		FromRobot:  b.fromRobot.Load(),
		ToRobot:    b.toRobot.Load(),
		SendErrors: b.sendErrors.Load(),
		PTY:        b.port.Stats(),
	}
}

func (b *Bridge) fromDevice(data []byte) {
	n, err := b.port.Write(data)
	b.fromRobot.Add(uint64(n))
	if err != nil {
		b.logger.WithError(err).Debug("PTY write failed")
	}
}

func (b *Bridge) toDevice(ctx context.Context) func([]byte) {
	return func(data []byte) {
		if err := b.dev.Send(ctx, data); err != nil {
			b.sendErrors.Add(1)
			b.logger.WithError(err).WithField("bytes", len(data)).Warn("Failed to forward PTY data to robot")
			return
		}
		b.toRobot.Add(uint64(len(data)))
	}
}

// Run opens a PTY for dev, pipes both directions and executes callback with the live
// bridge. dev must already be connected.
func Run[R any](ctx context.Context, dev *device.Device, opts Options, progress ProgressCallback, callback Callback[R]) (R, error) {
	var zero R

	switch {
	case dev == nil:
		return zero, errors.New("failed to start bridge: device is required")
	case callback == nil:
		return zero, errors.New("failed to start bridge: callback is required")
	case !dev.IsConnected():
		return zero, fmt.Errorf("failed to start bridge for %s: %w", dev.Address(), device.ErrNotConnected)
	}
	if progress == nil {
		progress = func(string) {}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	if opts.PTY.Logger == nil {
		opts.PTY.Logger = logger
	}

	progress(PhaseOpening)
	port, err := ptyio.Open(opts.PTY)
	if err != nil {
		return zero, fmt.Errorf("failed to start bridge for %s: %w", dev.Address(), err)
	}

	b := &Bridge{dev: dev, port: port, logger: logger}
	bridgeCtx, cancel := context.WithCancel(ctx)

	defer func() {
		cancel()
		port.OnData(nil)
		dev.SetDataHandler(nil, nil, 0)
		if err := port.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close PTY")
		}
		progress(PhaseStopped)
	}()

	dev.SetDataHandler(b.fromDevice, nil, 0)
	port.OnData(b.toDevice(bridgeCtx))

	logger.WithFields(logrus.Fields{
		"device": dev.Address(),
		"tty":    port.Name(),
		"link":   port.Link(),
	}).Info("Bridge running")
	progress(PhaseRunning)

	return callback(b)
}
