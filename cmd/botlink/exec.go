package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srg/botlink/internal/robot"
)

var execCmd = &cobra.Command{
	Use:   "exec <robot> <command> [key=value...]",
	Short: "Execute one robot command",
	Long: `Connect to a robot, prepare it and execute a single command.

<robot> is a device address or a name indicator such as EV3, Sphero, BB- or Makeblock.
Parameters are passed as key=value pairs. With --dry-run, <robot> is a family name
(see 'botlink commands') and nothing is sent.

Examples:
  botlink exec EV3 movePower port=A power=50
  botlink exec Makeblock setRGBLED red=255 green=0 blue=0
  botlink exec EV3 playTone frequency=440 duration=200 --dry-run`,
	Args: cobra.MinimumNArgs(2),
	RunE: runExec,
}

var (
	execDryRun bool
	execWait   bool
)

func init() {
	execCmd.Flags().BoolVar(&execDryRun, "dry-run", false, "Print the encoded frames without connecting")
	execCmd.Flags().BoolVar(&execWait, "wait", false, "Keep printing robot events until interrupted")
}

func runExec(cmd *cobra.Command, args []string) error {
	target, name := args[0], args[1]
	command, err := robot.ParseCommand(name)
	if err != nil {
		return err
	}
	params, err := robot.ParseParams(args[2:])
	if err != nil {
		return err
	}

	if execDryRun {
		return printFrames(cmd, target, command, params)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	defer s.Close()

	ctx, cancel := interruptible(cmd.Context(), s.logger)
	defer cancel()

	progress := NewProgressPrinter(cmd.ErrOrStderr(), fmt.Sprintf("Connecting to %s", target), "Discovering", "Connected", "Failed")
	progress.Start()
	api, _, err := s.connectRobot(ctx, target, progress.Callback())
	if err != nil {
		progress.Callback()("Failed")
		return err
	}
	defer s.releaseRobot(api)

	sub := api.Events().Subscribe(eventBacklog)
	defer api.Events().Unsubscribe(sub)

	if err := api.Exec(ctx, command, params); err != nil {
		return fmt.Errorf("%s %s: %w", api.Name(), command, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s sent\n", api.Name(), command)

	if execWait {
		return printEvents(ctx, sub, cmd.OutOrStdout(), "text")
	}
	return nil
}

// printFrames encodes command for the robot family named by target without connecting.
func printFrames(cmd *cobra.Command, family string, command robot.Command, params robot.Params) error {
	api, err := newOfflineRobot(cmd, family)
	if err != nil {
		return err
	}
	frames, err := api.Build(command, params)
	if err != nil {
		return err
	}
	for _, f := range frames {
		fmt.Fprintf(cmd.OutOrStdout(), "% X\n", f)
	}
	return nil
}
