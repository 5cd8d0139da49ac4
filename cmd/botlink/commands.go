package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/robots"
)

var commandsCmd = &cobra.Command{
	Use:   "commands [robot]",
	Short: "List robot families and their commands",
	Long: `Without arguments, list every robot family with its commands. With a family name
(ev3, sphero_classic, sphero_v1, mbot, mbot_ranger) list that family's commands only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommands,
}

func runCommands(cmd *cobra.Command, args []string) error {
	families := robots.Names()
	if len(args) == 1 {
		families = []string{args[0]}
	}

	out := cmd.OutOrStdout()
	for _, family := range families {
		api, err := newOfflineRobot(cmd, family)
		if err != nil {
			return err
		}
		writeCommands(out, family, api.Commands(), len(args) == 0)
	}
	return nil
}

func writeCommands(out io.Writer, family string, cmds []robot.Command, withHeader bool) {
	if withHeader {
		fmt.Fprintf(out, "%s:\n", family)
	}
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.String()
	}
	indent := ""
	if withHeader {
		indent = "  "
	}
	fmt.Fprintf(out, "%s%s\n", indent, strings.Join(names, "\n"+indent))
}

// newOfflineRobot creates an unbound Api for family; it can build frames and list
// commands without a device.
func newOfflineRobot(cmd *cobra.Command, family string) (robot.Api, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return robots.New(strings.ToLower(family), logger, cfg.RobotOptions(family)...)
}
