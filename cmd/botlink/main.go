package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

var rootCmd = &cobra.Command{
	Use:   "botlink",
	Short: "Talk to Bluetooth robots",
	Long: `Command-line tool for Bluetooth robots (Lego EV3, Sphero, Makeblock mBot and mBot Ranger):

- Discover robots over Bluetooth LE and paired classic (RFCOMM) links
- Execute single robot commands by name
- Monitor decoded sensor events
- Bridge a robot's raw byte stream to a PTY for serial tools
- Drive robots from Lua scripts`,
	Version: fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(commandsCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output (same as --log-level=debug)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
