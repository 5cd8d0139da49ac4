package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/devicefactory"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/robots"
	"github.com/srg/botlink/pkg/config"
	"github.com/srg/botlink/registry"
)

// newPlatform builds the host Bluetooth platform. Tests replace it with fakes.
var newPlatform = func(cfg *config.Config, logger *logrus.Logger) (device.Platform, error) {
	opts, err := cfg.PlatformOptions()
	if err != nil {
		return device.Platform{}, err
	}
	return devicefactory.NewPlatform(opts, logger), nil
}

// session is the per-command runtime: config, logger and a prepared registry.
type session struct {
	cfg     *config.Config
	logger  *logrus.Logger
	devices *registry.Devices
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	platform, err := newPlatform(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		logger:  logger,
		devices: registry.New(platform.Adapter, platform.Transport, cfg.RegistryOptions(), logger),
	}, nil
}

func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.devices.Close(ctx)
}

// interruptible returns a context cancelled on Ctrl+C or SIGTERM.
func interruptible(parent context.Context, logger *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Debug("Shutting down")
	}()
	return ctx, cancel
}

func looksLikeAddress(s string) bool {
	return len(strings.Split(s, ":")) == 6
}

// findDevice resolves target as an address or a name indicator and connects it. The
// configured connect timeout bounds the attempt.
func (s *session) findDevice(ctx context.Context, target string, progress func(string)) (*device.Device, error) {
	progress("Discovering")
	if err := s.devices.Prepare(ctx); err != nil {
		return nil, fmt.Errorf("failed to discover robots: %w", err)
	}

	if s.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
	}

	progress("Connecting")
	if looksLikeAddress(target) {
		dev := s.byAddress(target)
		if dev == nil {
			return nil, fmt.Errorf("%w: %s", ErrRobotNotFound, target)
		}
		if !dev.IsConnected() {
			if err := dev.Connect(ctx, nil); err != nil {
				return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
			}
		}
		return dev, nil
	}

	dev, err := s.devices.AutoConnectDevice(ctx, target, nil, false)
	if dev == nil && err == nil {
		return nil, fmt.Errorf("%w: %s", ErrRobotNotFound, target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return dev, nil
}

func (s *session) byAddress(address string) *device.Device {
	for _, dev := range s.devices.List() {
		if strings.EqualFold(dev.Address(), address) {
			return dev
		}
	}
	return nil
}

// connectRobot connects the device and prepares the robot Api for its profile.
func (s *session) connectRobot(ctx context.Context, target string, progress func(string)) (robot.Api, *device.Device, error) {
	dev, err := s.findDevice(ctx, target, progress)
	if err != nil {
		return nil, nil, err
	}

	api, err := robots.New(dev.Type(), s.logger, s.cfg.RobotOptions(dev.Type())...)
	if err != nil {
		return nil, nil, err
	}

	progress("Preparing")
	if err := api.Connect(ctx, dev); err != nil {
		return nil, nil, fmt.Errorf("failed to prepare %s: %w", dev.Name(), err)
	}
	progress("Connected")
	return api, dev, nil
}

// releaseRobot disconnects api and frees its resources.
func (s *session) releaseRobot(api robot.Api) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := api.Disconnect(ctx); err != nil {
		s.logger.WithError(err).Debug("Robot disconnect failed")
	}
	if c, ok := api.(interface{ Close() }); ok {
		c.Close()
	}
}
