package robot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is matched by every *UnknownCommandError.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNotPrepared is returned when a command is executed before Connect prepared the robot.
	ErrNotPrepared = errors.New("robot not prepared")
	// ErrMissingParam wraps a required parameter that was not given.
	ErrMissingParam = errors.New("missing required parameter")
)

// UnknownCommandError reports a command name outside the Command enum, or a command the
// robot family does not implement.
type UnknownCommandError struct {
	Name  string
	Robot string
}

func (e *UnknownCommandError) Error() string {
	if e.Robot == "" {
		return fmt.Sprintf("unknown command %q", e.Name)
	}
	return fmt.Sprintf("%s does not support command %q", e.Robot, e.Name)
}

func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// ParamError reports a malformed command parameter.
type ParamError struct {
	Command Command
	Param   string
	Value   any
	Err     error
}

func (e *ParamError) Error() string {
	msg := fmt.Sprintf("invalid parameter %q = %v", e.Param, e.Value)
	if e.Command != CommandUnknown {
		msg = fmt.Sprintf("%s: %s", e.Command, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParamError) Unwrap() error {
	return e.Err
}
