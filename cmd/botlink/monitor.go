package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/botlink/internal/events"
	"github.com/srg/botlink/internal/robot"
)

// eventBacklog is how many robot events a slow printer may fall behind before the
// oldest are dropped.
const eventBacklog = 256

var monitorCmd = &cobra.Command{
	Use:   "monitor <robot>",
	Short: "Stream decoded robot events",
	Long: `Connect to a robot, enable its sensor polling and print every decoded event until
interrupted (Ctrl+C) or until --duration elapses.

Examples:
  botlink monitor EV3
  botlink monitor Makeblock --format json --duration 30s`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

var (
	monitorFormat   string
	monitorDuration time.Duration
)

func init() {
	monitorCmd.Flags().StringVarP(&monitorFormat, "format", "f", "text", "Output format (text, json)")
	monitorCmd.Flags().DurationVarP(&monitorDuration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorFormat != "text" && monitorFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [text json]", monitorFormat)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	defer s.Close()

	ctx, cancel := interruptible(cmd.Context(), s.logger)
	defer cancel()
	if monitorDuration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, monitorDuration)
		defer stop()
	}

	progress := NewProgressPrinter(cmd.ErrOrStderr(), fmt.Sprintf("Connecting to %s", args[0]), "Discovering", "Connected", "Failed")
	progress.Start()
	api, _, err := s.connectRobot(ctx, args[0], progress.Callback())
	if err != nil {
		progress.Callback()("Failed")
		return err
	}
	defer s.releaseRobot(api)

	sub := api.Events().Subscribe(eventBacklog)
	defer api.Events().Unsubscribe(sub)

	api.Monitor(ctx, true)
	defer api.Monitor(ctx, false)

	return printEvents(ctx, sub, cmd.OutOrStdout(), monitorFormat)
}

// printEvents writes events from sub until ctx is done or sub is closed.
func printEvents(ctx context.Context, sub *events.RingChannel[robot.Event], out io.Writer, format string) error {
	enc := json.NewEncoder(out)
	for {
		var ev robot.Event
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub.C():
			if !ok {
				return nil
			}
			ev = e
		}
		if format == "json" {
			if err := enc.Encode(ev); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(out, formatEvent(ev))
	}
}

func formatEvent(ev robot.Event) string {
	where := ev.Channel
	if ev.Port != 0 {
		where = fmt.Sprintf("%s@%d", ev.Channel, ev.Port)
	}
	return fmt.Sprintf("%s %s %s %s",
		ev.Time.Format("15:04:05.000"),
		color.CyanString("%-32s", ev.Type),
		where,
		color.New(color.Bold).Sprint(formatValue(ev.Value)))
}

func formatValue(v any) string {
	switch v := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", v)
	case float32:
		return fmt.Sprintf("%.2f", v)
	case []byte:
		return fmt.Sprintf("% X", v)
	case nil:
		return "-"
	default:
		return fmt.Sprintf("%v", v)
	}
}
