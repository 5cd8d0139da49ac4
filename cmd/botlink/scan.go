package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/registry"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover robots in range",
	Long: `Discover robots over Bluetooth LE and the paired classic devices listed in the
config, and show every device that matches a robot profile.

Examples:
  botlink scan
  botlink scan --duration 10s --format json
  botlink scan --watch`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanFormat   string
	scanWatch    bool
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 5*time.Second, "How long to keep discovering")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "Print registry events until interrupted")
}

// scanEntry is the JSON form of a discovered robot.
type scanEntry struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Profile   string `json:"profile"`
	Robot     string `json:"robot"`
	Class     uint32 `json:"deviceClass"`
	Paired    bool   `json:"paired"`
	Connected bool   `json:"connected"`
}

func newScanEntry(dev *device.Device) scanEntry {
	e := scanEntry{
		Name:      dev.Name(),
		Address:   dev.Address(),
		Profile:   dev.Type(),
		Class:     dev.DeviceClass(),
		Paired:    dev.IsPaired(),
		Connected: dev.IsConnected(),
	}
	if p := dev.Profile(); p != nil {
		e.Robot = p.DisplayName
	}
	return e
}

func runScan(cmd *cobra.Command, _ []string) error {
	if scanFormat != "table" && scanFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", scanFormat)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	defer s.Close()

	ctx, cancel := interruptible(cmd.Context(), s.logger)
	defer cancel()

	if scanWatch {
		return watchDevices(ctx, s, cmd.OutOrStdout())
	}

	progress := NewCountdownProgressPrinter(cmd.ErrOrStderr(), "Scanning for robots", "Scanning", scanDuration, "Done")
	progress.Start()
	err = discover(ctx, s, scanDuration)
	progress.Callback()("Done")
	if err != nil {
		return err
	}

	return writeDevices(cmd.OutOrStdout(), s.devices.List(), scanFormat)
}

// discover runs the first scan and keeps the registry rescanning for d.
func discover(ctx context.Context, s *session, d time.Duration) error {
	if err := s.devices.Prepare(ctx); err != nil {
		return fmt.Errorf("failed to discover robots: %w", err)
	}
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			// interrupted scans still print what was found
			return nil
		}
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func watchDevices(ctx context.Context, s *session, out io.Writer) error {
	if err := s.devices.Prepare(ctx); err != nil {
		return fmt.Errorf("failed to discover robots: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.devices.Events():
			if !ok {
				return nil
			}
			kind := ev.Type.String()
			switch ev.Type {
			case registry.DeviceAdded, registry.DeviceConnected:
				kind = green(kind)
			case registry.DeviceRemoved, registry.DeviceDisconnected:
				kind = red(kind)
			}
			fmt.Fprintf(out, "%s %-12s %s %s (%s)\n",
				time.Now().Format("15:04:05"), kind, ev.Address, ev.Name, ev.Profile)
		}
	}
}

func writeDevices(out io.Writer, devs []*device.Device, format string) error {
	entries := make([]scanEntry, 0, len(devs))
	for _, d := range devs {
		entries = append(entries, newScanEntry(d))
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No robots discovered")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tROBOT\tSTATE")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, e := range entries {
		name := e.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, e.Address, e.Robot, state(e))
	}
	return w.Flush()
}

func state(e scanEntry) string {
	switch {
	case e.Connected:
		return color.GreenString("connected")
	case e.Paired:
		return color.YellowString("paired")
	default:
		return "available"
	}
}
