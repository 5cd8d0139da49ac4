// Package robots maps device profile names to robot families.
package robots

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/ev3"
	"github.com/srg/botlink/internal/robot/mbot"
	"github.com/srg/botlink/internal/robot/mbotranger"
	"github.com/srg/botlink/internal/robot/sphero"
)

// Factory creates an unbound Api.
type Factory func(logger *logrus.Logger, opts ...robot.Option) robot.Api

var factories = map[string]Factory{
	ev3.Name:        func(l *logrus.Logger, o ...robot.Option) robot.Api { return ev3.New(l, o...) },
	sphero.Name:     func(l *logrus.Logger, o ...robot.Option) robot.Api { return sphero.New(l, o...) },
	sphero.NameV1:   func(l *logrus.Logger, o ...robot.Option) robot.Api { return sphero.NewV1(l, o...) },
	mbot.Name:       func(l *logrus.Logger, o ...robot.Option) robot.Api { return mbot.New(l, o...) },
	mbotranger.Name: func(l *logrus.Logger, o ...robot.Option) robot.Api { return mbotranger.New(l, o...) },
}

// UnknownRobotError is returned for a profile without a robot family.
type UnknownRobotError struct {
	Profile string
}

func (e *UnknownRobotError) Error() string {
	return fmt.Sprintf("no robot api for profile %q (known: %v)", e.Profile, Names())
}

// New creates the Api for a device profile.
func New(profileName string, logger *logrus.Logger, opts ...robot.Option) (robot.Api, error) {
	f, ok := factories[profileName]
	if !ok {
		return nil, &UnknownRobotError{Profile: profileName}
	}
	return f(logger, opts...), nil
}

// Names lists the supported profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
