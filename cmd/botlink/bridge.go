package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srg/botlink/bridge"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/ptyio"
	"github.com/srg/botlink/internal/robot"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge <robot>",
	Short: "Expose a robot's raw byte stream as a serial port",
	Long: `Connect to a robot and create a pseudo-terminal (e.g. /dev/pts/3) carrying its raw
byte stream. Serial tools and vendor software can open the PTY as if the robot were on a
serial cable: bytes written to the PTY are sent to the robot and everything the robot
sends is written to the PTY.

By default the robot is only connected, not prepared, so the serial tool sees the link
exactly as the robot firmware presents it. With --prepare the robot is initialized and
its decoded events are printed alongside the bridge.

Examples:
  botlink bridge EV3
  botlink bridge Makeblock --link /tmp/mbot
  botlink bridge Sphero --prepare`,
	Args: cobra.ExactArgs(1),
	RunE: runBridge,
}

var (
	bridgeLink    string
	bridgePrepare bool
)

func init() {
	bridgeCmd.Flags().StringVar(&bridgeLink, "link", "", "Create a symlink to the PTY (e.g. /tmp/robot)")
	bridgeCmd.Flags().BoolVar(&bridgePrepare, "prepare", false, "Prepare the robot and print its events")
}

func runBridge(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	defer s.Close()

	ctx, cancel := interruptible(cmd.Context(), s.logger)
	defer cancel()

	progress := NewProgressPrinter(cmd.ErrOrStderr(), fmt.Sprintf("Starting bridge for %s", args[0]),
		"Discovering", bridge.PhaseRunning, "Failed")
	progress.Start()
	defer progress.Stop()

	var (
		dev *device.Device
		api robot.Api
	)
	if bridgePrepare {
		api, dev, err = s.connectRobot(ctx, args[0], progress.Callback())
		if err == nil {
			defer s.releaseRobot(api)
		}
	} else {
		dev, err = s.findDevice(ctx, args[0], progress.Callback())
	}
	if err != nil {
		progress.Callback()("Failed")
		return err
	}

	opts := bridge.Options{
		PTY: ptyio.Options{
			ReadBufferSize:  s.cfg.PTY.ReadBufferSize,
			WriteBufferSize: s.cfg.PTY.WriteBufferSize,
			Link:            bridgeLink,
		},
		Logger: s.logger,
	}

	out := cmd.OutOrStdout()
	_, err = bridge.Run(ctx, dev, opts, progress.Callback(), func(b *bridge.Bridge) (struct{}, error) {
		fmt.Fprintf(out, "Bridge to %s (%s) running on %s\n", dev.Name(), dev.Address(), b.TTYName())
		if b.TTYLink() != "" {
			fmt.Fprintf(out, "Linked as %s\n", b.TTYLink())
		}
		fmt.Fprintln(out, "Press Ctrl+C to stop")

		if api != nil {
			sub := api.Events().Subscribe(eventBacklog)
			defer api.Events().Unsubscribe(sub)
			_ = printEvents(ctx, sub, out, "text")
		} else {
			<-ctx.Done()
		}

		st := b.Stats()
		fmt.Fprintf(out, "\nBridge stopped: %d bytes from robot, %d bytes to robot\n", st.FromRobot, st.ToRobot)
		return struct{}{}, nil
	})
	return err
}
