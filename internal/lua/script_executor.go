package lua

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/robot"
)

// ScriptOptions controls a script run.
type ScriptOptions struct {
	// Args is exposed to the script as the global table `arg`.
	Args map[string]string
	// Serve keeps delivering events to robot.on callbacks after the script returns, for
	// this long. Zero returns right away; a negative value serves until ctx is done.
	Serve time.Duration
}

// ExecuteRobotScript runs script against api, streaming its output to stdout and stderr
// while it runs.
func ExecuteRobotScript(
	ctx context.Context,
	api robot.Api,
	logger *logrus.Logger,
	script string,
	opts ScriptOptions,
	stdout, stderr io.Writer,
) error {
	if logger == nil {
		logger = logrus.New()
	}
	luaAPI := NewRobotAPI(ctx, api, logger)

	drainer := NewOutputDrainer(ctx, luaAPI.OutputChannel(), logger, stdout, stderr)
	err := runScript(ctx, luaAPI, logger, script, opts)

	luaAPI.Close()
	drainer.Cancel()
	drainer.Wait()
	return err
}

// CaptureRobotScript runs script like ExecuteRobotScript but returns its stdout and stderr
// once it finished. At most bufferSize records are kept.
func CaptureRobotScript(
	ctx context.Context,
	api robot.Api,
	logger *logrus.Logger,
	script string,
	opts ScriptOptions,
	bufferSize uint32,
) (stdout, stderr string, err error) {
	if logger == nil {
		logger = logrus.New()
	}
	luaAPI := NewRobotAPI(ctx, api, logger)

	collector, err := NewLuaOutputCollector(luaAPI.OutputChannel(), bufferSize, func(err error) {
		logger.WithError(err).Warn("Lua output collector failed")
	})
	if err != nil {
		luaAPI.Close()
		return "", "", err
	}
	if err := collector.Start(); err != nil {
		luaAPI.Close()
		return "", "", err
	}

	runErr := runScript(ctx, luaAPI, logger, script, opts)
	luaAPI.Close()
	_ = collector.Stop()

	streams, err := ConsumeRecords(collector, SplitStreams())
	if err != nil {
		return "", "", err
	}
	return streams[0], streams[1], runErr
}

func runScript(ctx context.Context, luaAPI *RobotAPI, logger *logrus.Logger, script string, opts ScriptOptions) error {
	log := logger.WithFields(logrus.Fields{"robot": luaAPI.api.Name(), "script_size": len(script)})
	log.Debug("Starting Lua script")

	if err := luaAPI.SetGlobal("arg", argTable(opts.Args)); err != nil {
		return err
	}
	if err := luaAPI.LoadScript(script, "script"); err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}
	if err := luaAPI.ExecuteScript(ctx, ""); err != nil {
		return fmt.Errorf("failed to execute script: %w", err)
	}

	if opts.Serve != 0 && luaAPI.HasHandlers() {
		log.WithField("serve", opts.Serve).Debug("Serving Lua event callbacks")
		if err := luaAPI.Serve(ctx, opts.Serve); err != nil {
			return err
		}
	}
	log.Debug("Lua script completed")
	return nil
}

func argTable(args map[string]string) map[string]string {
	if args == nil {
		return map[string]string{}
	}
	return args
}
