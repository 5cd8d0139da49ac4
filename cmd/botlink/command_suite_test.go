package main

import (
	"bytes"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/testutils"
	"github.com/srg/botlink/pkg/config"
	"github.com/stretchr/testify/suite"
)

// Test device addresses for consistent fake robot identification
const (
	TestEV3Address  = "00:16:53:00:00:0A"
	TestMBotAddress = "00:1B:10:00:00:0B"
)

// CommandTestSuite runs botlink commands against a fake Bluetooth platform.
// All cmd/botlink suites that need a robot embed it.
type CommandTestSuite struct {
	suite.Suite

	Logger    *logrus.Logger
	Adapter   *testutils.FakeAdapter
	Transport *testutils.FakeTransport

	origPlatform func(*config.Config, *logrus.Logger) (device.Platform, error)
}

func (s *CommandTestSuite) SetupSuite() {
	s.origPlatform = newPlatform
}

func (s *CommandTestSuite) TearDownSuite() {
	newPlatform = s.origPlatform
}

// SetupTest installs a fresh fake platform holding one paired EV3.
func (s *CommandTestSuite) SetupTest() {
	s.Logger = testutils.NewTestHelper(s.T()).Logger
	s.Adapter = testutils.NewFakeAdapter(testutils.DeviceInfoFromJSON(`{
		"address": %q, "name": "EV3", "deviceClass": 2052,
		"uuids": ["1101"], "paired": true
	}`, TestEV3Address))
	s.Transport = testutils.NewFakeTransport()

	newPlatform = func(*config.Config, *logrus.Logger) (device.Platform, error) {
		return device.Platform{Adapter: s.Adapter, Transport: s.Transport}, nil
	}
}

// CaptureStdout executes fn while capturing stdout, returns captured output.
// Stdout is restored even if fn panics.
func (s *CommandTestSuite) CaptureStdout(fn func()) string {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	s.Require().NoError(err, "pipe creation MUST succeed")
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	fn()

	w.Close()
	out, _ := io.ReadAll(r)
	return string(out)
}

// ExecuteCommand runs the root command with args, returns stdout and error. Progress
// output on stderr is discarded.
func (s *CommandTestSuite) ExecuteCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
