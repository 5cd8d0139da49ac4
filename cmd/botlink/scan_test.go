package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type ScanTestSuite struct {
	CommandTestSuite
}

func (suite *ScanTestSuite) SetupTest() {
	suite.CommandTestSuite.SetupTest()
	scanDuration = 5 * time.Second
	scanFormat = "table"
	scanWatch = false
}

func (suite *ScanTestSuite) TestScanJSON() {
	// GOAL: Verify scan lists matching robots as JSON and skips other devices
	//
	// TEST SCENARIO: EV3 and a headset in range → scan --format json → only the EV3 is listed

	suite.Adapter.SetDevices(
		testutils.DeviceInfoFromJSON(`{"address": %q, "name": "EV3", "deviceClass": 2052, "uuids": ["1101"], "paired": true}`, TestEV3Address),
		testutils.DeviceInfoFromJSON(`{"address": "AA:AA:AA:AA:AA:AA", "name": "Headset", "deviceClass": 2360324, "uuids": ["110b"], "paired": true}`),
	)

	out, err := suite.ExecuteCommand(rootCmd, "scan", "--duration", "10ms", "--format", "json")
	suite.Require().NoError(err)

	testutils.NewJSONAsserter(suite.T()).Assert(out, `[{
		"name": "EV3",
		"address": "`+TestEV3Address+`",
		"profile": "ev3",
		"robot": "Lego EV3",
		"deviceClass": 2052,
		"paired": true,
		"connected": false
	}]`)
}

func (suite *ScanTestSuite) TestInvalidFormat() {
	_, err := suite.ExecuteCommand(rootCmd, "scan", "--format", "xml")
	suite.ErrorContains(err, "invalid format")
}

func (suite *ScanTestSuite) TestWriteDevicesTable() {
	// GOAL: Verify the table shows one aligned row per robot with its state
	//
	// TEST SCENARIO: paired EV3 and an advertising mBot Ranger → table → header, separator, two rows

	ev3 := device.New(device.DeviceInfo{
		Address: TestEV3Address, Name: "EV3", DeviceClass: 2052, Paired: true,
	}, testutils.ProfileByName("ev3"), suite.Transport, suite.Logger)
	ranger := device.New(device.DeviceInfo{
		Address: TestMBotAddress, Name: "Makeblock_LE with a very long advertised name", Connectable: true,
	}, testutils.ProfileByName("mbot_ranger"), suite.Transport, suite.Logger)

	var buf bytes.Buffer
	suite.Require().NoError(writeDevices(&buf, []*device.Device{ev3, ranger}, "table"))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	suite.Require().Len(lines, 4, "table MUST have header, separator and one row per robot")
	suite.Equal([]string{"NAME", "ADDRESS", "ROBOT", "STATE"}, strings.Fields(lines[0]))
	suite.Contains(lines[2], TestEV3Address)
	suite.True(strings.HasSuffix(lines[2], "paired"), "paired robot MUST show its state")
	suite.Contains(lines[3], "Makeblock_LE with a v...", "long names MUST be truncated")
	suite.True(strings.HasSuffix(lines[3], "available"))
	suite.Equal(strings.Index(lines[0], "ADDRESS"), strings.Index(lines[2], TestEV3Address), "columns MUST be aligned")
}

func (suite *ScanTestSuite) TestWriteDevicesEmpty() {
	var buf bytes.Buffer
	suite.Require().NoError(writeDevices(&buf, nil, "table"))
	suite.Equal("No robots discovered\n", buf.String())

	buf.Reset()
	suite.Require().NoError(writeDevices(&buf, nil, "json"))
	suite.JSONEq("[]", buf.String(), "empty JSON MUST be an array")
}

func TestScanTestSuite(t *testing.T) {
	suite.Run(t, new(ScanTestSuite))
}
