// Package config loads the botlink YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/devicefactory"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/registry"
	"gopkg.in/yaml.v3"
)

// PairedDevice is a classic peripheral the host is paired with.
type PairedDevice struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
	// Profile names the robot profile; its class, UUID and indicator fill the device record.
	Profile string `yaml:"profile"`
}

// PTYConfig sizes the bridge buffers.
type PTYConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size" default:"4096"`
	WriteBufferSize int `yaml:"write_buffer_size" default:"4096"`
}

// Config holds application configuration
type Config struct {
	LogLevel         string        `yaml:"log_level" default:"info"`
	LogFormat        string        `yaml:"log_format" default:"text"`
	RescanInterval   time.Duration `yaml:"rescan_interval" default:"5s"`
	ThrottleInterval time.Duration `yaml:"throttle_interval" default:"1s"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout" default:"0s"`
	ScanWindow       time.Duration `yaml:"scan_window" default:"3s"`
	RFCOMMChannel    uint8         `yaml:"rfcomm_channel" default:"1"`
	DisableBLE       bool          `yaml:"disable_ble"`
	DisableRFCOMM    bool          `yaml:"disable_rfcomm"`

	// Profiles override built-in profiles by name; unknown names are appended.
	Profiles      []device.Profile `yaml:"profiles"`
	PairedDevices []PairedDevice   `yaml:"paired_devices"`
	// Monitoring maps a profile name to polling intervals by task name.
	Monitoring map[string]map[string]time.Duration `yaml:"monitoring"`
	PTY        PTYConfig                           `yaml:"pty"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse yaml %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the log settings and paired device records.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (expected text or json)", c.LogFormat)
	}
	if _, err := c.PairedInfos(); err != nil {
		return err
	}
	return nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
		return logger
	}
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger
}

// EffectiveProfiles returns the built-in profiles with the configured overrides applied.
func (c *Config) EffectiveProfiles() []device.Profile {
	profiles := device.DefaultProfiles()
	for _, p := range c.Profiles {
		replaced := false
		for i := range profiles {
			if profiles[i].Name == p.Name {
				profiles[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			profiles = append(profiles, p)
		}
	}
	return profiles
}

// PairedInfos resolves the paired devices against the effective profiles.
func (c *Config) PairedInfos() ([]device.DeviceInfo, error) {
	profiles := c.EffectiveProfiles()
	out := make([]device.DeviceInfo, 0, len(c.PairedDevices))
	for i, pd := range c.PairedDevices {
		if len(strings.Split(pd.Address, ":")) != 6 {
			return nil, fmt.Errorf("paired_devices[%d]: invalid address %q", i, pd.Address)
		}
		var profile *device.Profile
		for j := range profiles {
			if profiles[j].Name == pd.Profile {
				profile = &profiles[j]
				break
			}
		}
		if profile == nil {
			return nil, fmt.Errorf("paired_devices[%d]: %w", i,
				&device.NotFoundError{Resource: "profile", Names: []string{pd.Profile}})
		}
		name := pd.Name
		if name == "" {
			name = profile.Indicator
		}
		out = append(out, device.DeviceInfo{
			Address:     pd.Address,
			Name:        name,
			DeviceClass: profile.DeviceClass,
			UUIDs:       []string{profile.UUID},
			Paired:      true,
		})
	}
	return out, nil
}

// RegistryOptions maps the discovery settings onto registry.Options.
func (c *Config) RegistryOptions() registry.Options {
	return registry.Options{
		RescanInterval:   c.RescanInterval,
		ThrottleInterval: c.ThrottleInterval,
		Profiles:         c.EffectiveProfiles(),
	}
}

// PlatformOptions maps the transport settings onto devicefactory.Options.
func (c *Config) PlatformOptions() (devicefactory.Options, error) {
	paired, err := c.PairedInfos()
	if err != nil {
		return devicefactory.Options{}, err
	}
	return devicefactory.Options{
		Paired:        paired,
		Channel:       c.RFCOMMChannel,
		ScanWindow:    c.ScanWindow,
		DisableBLE:    c.DisableBLE,
		DisableRFCOMM: c.DisableRFCOMM,
	}, nil
}

// RobotOptions returns the monitoring overrides for a profile.
func (c *Config) RobotOptions(profile string) []robot.Option {
	intervals, ok := c.Monitoring[profile]
	if !ok {
		return nil
	}
	return []robot.Option{robot.WithIntervals(intervals)}
}
