package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/botlink"
	"github.com/srg/botlink/internal/lua"
	"github.com/srg/botlink/internal/robot"
)

var runCmd = &cobra.Command{
	Use:   "run <robot> [script.lua]",
	Short: "Drive a robot from a Lua script",
	Long: `Connect to a robot and run a Lua script against it. The script gets a global
'robot' table (exec, build, monitor, on, off, sleep, commands) and the --arg values in
the global table 'arg'.

Instead of a file, --example runs one of the bundled scripts (see --list-examples).

Examples:
  botlink run EV3 square.lua
  botlink run Makeblock --example obstacle --arg distance=20 --serve 1m
  botlink run Sphero --example colors --buffered`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runRun,
}

var (
	runExample      string
	runListExamples bool
	runArgs         []string
	runServe        time.Duration
	runBuffered     bool
	runBufferSize   uint32
)

func init() {
	runCmd.Flags().StringVarP(&runExample, "example", "e", "", "Run a bundled example script")
	runCmd.Flags().BoolVar(&runListExamples, "list-examples", false, "List the bundled example scripts")
	runCmd.Flags().StringArrayVarP(&runArgs, "arg", "a", nil, "Script argument as key=value (repeatable)")
	runCmd.Flags().DurationVar(&runServe, "serve", 0, "Keep delivering events to robot.on callbacks after the script returns (-1s serves until interrupted)")
	runCmd.Flags().BoolVar(&runBuffered, "buffered", false, "Print script output once the script finished")
	runCmd.Flags().Uint32Var(&runBufferSize, "buffer-size", 1024, "Output records kept with --buffered")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runListExamples {
		for _, name := range botlink.ExampleNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("robot is required")
	}

	script, err := loadScript(args[1:])
	if err != nil {
		return err
	}
	scriptArgs, err := parseScriptArgs(runArgs)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	defer s.Close()

	ctx, cancel := interruptible(cmd.Context(), s.logger)
	defer cancel()

	progress := NewProgressPrinter(cmd.ErrOrStderr(), fmt.Sprintf("Connecting to %s", args[0]), "Discovering", "Connected", "Failed")
	progress.Start()
	api, _, err := s.connectRobot(ctx, args[0], progress.Callback())
	if err != nil {
		progress.Callback()("Failed")
		return err
	}
	defer s.releaseRobot(api)

	opts := lua.ScriptOptions{Args: scriptArgs, Serve: runServe}
	if !runBuffered {
		return lua.ExecuteRobotScript(ctx, api, s.logger, script, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	stdout, stderr, err := lua.CaptureRobotScript(ctx, api, s.logger, script, opts, runBufferSize)
	fmt.Fprint(cmd.OutOrStdout(), stdout)
	fmt.Fprint(cmd.ErrOrStderr(), stderr)
	return err
}

// loadScript returns the --example script or the contents of the file named in rest.
func loadScript(rest []string) (string, error) {
	switch {
	case runExample != "" && len(rest) > 0:
		return "", fmt.Errorf("use either a script file or --example, not both")
	case runExample != "":
		script, ok := botlink.Example(runExample)
		if !ok {
			return "", fmt.Errorf("unknown example '%s' (available: %s)", runExample, strings.Join(botlink.ExampleNames(), ", "))
		}
		return script, nil
	case len(rest) == 0:
		return "", fmt.Errorf("a script file or --example is required")
	}

	data, err := os.ReadFile(rest[0])
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

// parseScriptArgs turns key=value pairs into the script's arg table. Values stay strings.
func parseScriptArgs(pairs []string) (map[string]string, error) {
	params, err := robot.ParseParams(pairs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}
