package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/botlink/pkg/config"
)

// loadConfig reads --config, or the defaults when the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// configureLogger builds the logger from the config and lets --log-level, then
// --verbose, override its level. Without either flag the CLI stays quiet unless the
// config file sets a level.
func configureLogger(cmd *cobra.Command, cfg *config.Config) (*logrus.Logger, error) {
	logger := cfg.NewLogger()

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		logger.SetLevel(logrus.PanicLevel)
	}

	levelStr, _ := cmd.Flags().GetString("log-level")
	if levelStr != "" {
		switch levelStr {
		case "debug", "info", "warn", "error":
			level, _ := logrus.ParseLevel(levelStr)
			logger.SetLevel(level)
		default:
			return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", levelStr)
		}
		return logger, nil
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger, nil
}
