package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/lua"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/robots"
)

// ErrRobotNotFound is returned when no registered device matches the requested name.
var ErrRobotNotFound = errors.New("robot not found")

// FormatUserError turns err into a one-line message for the terminal. Wrapping context
// is kept for errors that are not recognized.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var (
		notFound   *device.NotFoundError
		unknownCmd *robot.UnknownCommandError
		paramErr   *robot.ParamError
		noRobot    *robots.UnknownRobotError
		luaErr     *lua.LuaError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out (check that the robot is switched on and in range)"
	case errors.Is(err, ErrRobotNotFound):
		return fmt.Sprintf("%s (run 'botlink scan' to list robots in range)", err)
	case errors.As(err, &unknownCmd):
		return fmt.Sprintf("%s (run 'botlink commands' to list commands)", unknownCmd)
	case errors.As(err, &paramErr):
		return fmt.Sprintf("invalid parameter: %s", paramErr)
	case errors.Is(err, robot.ErrUnknownCommand):
		return fmt.Sprintf("%s (run 'botlink commands' to list commands)", err)
	case errors.As(err, &noRobot):
		return noRobot.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &luaErr):
		if luaErr.Line > 0 {
			return fmt.Sprintf("lua %s error at line %d: %s", luaErr.Type, luaErr.Line, luaErr.Message)
		}
		return fmt.Sprintf("lua %s error: %s", luaErr.Type, luaErr.Message)
	case errors.Is(err, device.ErrNotConnected):
		return "robot is not connected"
	case errors.Is(err, device.ErrUnsupported):
		return fmt.Sprintf("%s (not supported on this platform)", err)
	}

	switch device.Classify(err) {
	case device.KindConnectFailed:
		return fmt.Sprintf("connection failed: %s", err)
	case device.KindDisconnected:
		return fmt.Sprintf("connection lost: %s", err)
	}
	return err.Error()
}
