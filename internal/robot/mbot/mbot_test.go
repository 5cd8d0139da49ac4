//go:generate go run github.com/srgg/testify/depend/cmd/dependgen

package mbot_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/events"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/makeblock"
	"github.com/srg/botlink/internal/robot/mbot"
	"github.com/srg/botlink/internal/testutils"
	"github.com/srgg/testify/depend"
	"github.com/stretchr/testify/suite"
)

// reply builds an mCore reply: header | index | data type | payload | footer.
func reply(index makeblock.Index, typ makeblock.DataType, payload ...byte) []byte {
	f := []byte{0xFF, 0x55, byte(index), byte(typ)}
	f = append(f, payload...)
	return append(f, 0x0D, 0x0A)
}

func hex(frames ...[]byte) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = fmt.Sprintf("% X", f)
	}
	return out
}

type MBotTestSuite struct {
	suite.Suite

	helper    *testutils.TestHelper
	transport *testutils.FakeTransport
	device    *device.Device
	api       *mbot.Api
	events    *events.RingChannel[robot.Event]
}

func (s *MBotTestSuite) SetupTest() {
	s.helper = testutils.NewTestHelper(s.T())
	s.transport = testutils.NewFakeTransport()
	s.device = testutils.NewConnectedDevice(s.T(), s.transport, mbot.Name, s.helper.Logger)
	s.api = mbot.New(s.helper.Logger, robot.WithInterval("ultrasonic", 20*time.Millisecond))
	s.events = s.api.Events().Subscribe(64)
	s.Require().NoError(s.api.Connect(context.Background(), s.device), "Connect MUST succeed")
	s.transport.ResetSent()
}

func (s *MBotTestSuite) TearDownTest() {
	s.api.Close()
	s.device.Close(context.Background())
}

func (s *MBotTestSuite) TestCommandEncoding() {
	// GOAL: Verify the mCore request encoder byte for byte
	//
	// TEST SCENARIO: encode motor, LED, tone and sensor reads → compare with the expected frames

	c := mbot.NewCommands()
	cases := []struct {
		name string
		got  []byte
		want string
	}{
		{"left motor", c.SetMotorPower(100, mbot.PortLeftMotor), "FF 55 06 00 02 0A 09 64 00"},
		{"right motor reverse", c.SetMotorPower(-100, mbot.PortRightMotor), "FF 55 06 00 02 0A 0A 9C FF"},
		{"power clamps", c.SetMotorPower(300, mbot.PortRightMotor), "FF 55 06 00 02 0A 0A FF 00"},
		{"led", c.SetRGBLED(0, 0, 255, 1), "FF 55 09 00 02 08 07 02 01 00 00 FF"},
		{"tone", c.PlayTone(584, 240), "FF 55 07 00 02 22 48 02 F0 00"},
		{"ultrasonic", c.ReadUltrasonic(), "FF 55 04 10 01 01 03"},
		{"light", c.ReadLight(), "FF 55 04 12 01 03 06"},
		{"line follower", c.ReadLineFollower(), "FF 55 04 11 01 11 02"},
		{"button", c.ReadButton(), "FF 55 04 13 01 23 07"},
	}
	for _, tc := range cases {
		s.Equal(tc.want, hex(tc.got)[0], "%s frame MUST match", tc.name)
	}
}

func (s *MBotTestSuite) TestPrepare() {
	// GOAL: Verify the init sequence runs once per device
	//
	// TEST SCENARIO: fresh api connects → two tones and a version request → reconnect sends nothing

	api := mbot.New(s.helper.Logger)
	defer api.Close()
	s.Require().NoError(api.Connect(context.Background(), s.device))

	s.Equal([]string{
		"FF 55 07 00 02 22 0C 02 F0 00",
		"FF 55 07 00 02 22 48 02 F0 00",
		"FF 55 03 20 01 00",
	}, hex(s.transport.SentFrames()...), "prepare MUST play two tones and ask for the version")
	s.True(api.IsPrepared(), "api MUST be prepared")

	s.transport.ResetSent()
	s.Require().NoError(api.Connect(context.Background(), s.device))
	s.Empty(s.transport.SentFrames(), "second Connect MUST NOT repeat the init sequence")

	s.Equal([]string{"light", "linefollower", "ultrasonic"}, api.Poller().Tasks(), "connect MUST define the sensor polls")
	s.False(api.Poller().Started(), "polls MUST NOT run before Monitor(true)")
}

func (s *MBotTestSuite) TestConnectRequiresConnectedDevice() {
	// GOAL: Verify Connect refuses a device that is not connected
	//
	// TEST SCENARIO: disconnected device → ErrNotConnected

	dev := device.New(device.DeviceInfo{Address: "x"}, testutils.ProfileByName(mbot.Name), s.transport, s.helper.Logger)
	api := mbot.New(s.helper.Logger)
	defer api.Close()
	s.ErrorIs(api.Connect(context.Background(), dev), device.ErrNotConnected, "Connect MUST fail without a connection")
}

func (s *MBotTestSuite) TestDriveCommands() {
	// GOAL: Verify motor commands address one or both motors
	//
	// TEST SCENARIO: movePower/rotatePower without port → both motors; with port → one motor; setMotorPower defaults right

	build := func(cmd robot.Command, p robot.Params) []string {
		frames, err := s.api.Build(cmd, p)
		s.Require().NoError(err, "%s MUST encode", cmd)
		return hex(frames...)
	}

	s.Equal([]string{"FF 55 06 00 02 0A 09 9C FF", "FF 55 06 00 02 0A 0A 64 00"},
		build(robot.MovePower, robot.Params{"power": 100}), "movePower MUST reverse the left motor")
	s.Equal([]string{"FF 55 06 00 02 0A 09 64 00", "FF 55 06 00 02 0A 0A 64 00"},
		build(robot.RotatePower, robot.Params{"power": "100"}), "rotatePower MUST drive both motors the same way")
	s.Equal([]string{"FF 55 06 00 02 0A 09 32 00"},
		build(robot.MovePower, robot.Params{"power": 50, "port": "left"}), "port MUST select one motor")
	s.Equal([]string{"FF 55 06 00 02 0A 0A 32 00"},
		build(robot.SetMotorPower, robot.Params{"power": 50}), "setMotorPower MUST default to the right motor")
	s.Equal([]string{"FF 55 06 00 02 0A 09 32 00"},
		build(robot.SetMotorPower, robot.Params{"power": 50, "port": 9}), "numeric port MUST be accepted")

	s.ErrorIs(s.api.Exec(context.Background(), robot.MovePower, nil), robot.ErrMissingParam,
		"movePower MUST require power")
	s.ErrorIs(s.api.Exec(context.Background(), robot.PlayTone, robot.Params{"duration": 100}), robot.ErrMissingParam,
		"playTone MUST require a frequency")
	s.ErrorIs(s.api.Exec(context.Background(), robot.Roll, nil), robot.ErrUnknownCommand,
		"Sphero commands MUST be unknown")
}

func (s *MBotTestSuite) TestSensorEvents() {
	// GOAL: Verify replies are decoded into typed events, deduped per sensor
	//
	// TEST SCENARIO: ack, ultrasonic twice, line follower, light, button and version replies → one event each

	s.device.HandleData([]byte{0xFF, 0x55, 0x0D, 0x0A})
	s.device.HandleData(reply(mbot.IndexUltrasonic, makeblock.DataFloat, 0x00, 0x00, 0x48, 0x41))
	s.device.HandleData(reply(mbot.IndexUltrasonic, makeblock.DataFloat, 0x00, 0x00, 0x48, 0x41))
	s.device.HandleData(reply(mbot.IndexLineFollower, makeblock.DataFloat, 0x00, 0x00, 0x80, 0x40))
	s.device.HandleData(reply(mbot.IndexLightSensor, makeblock.DataFloat, 0x00, 0x00, 0x7A, 0x43))
	s.device.HandleData(reply(mbot.IndexInnerButton, makeblock.DataByte, 0x01))
	s.device.HandleData(reply(makeblock.IndexVersion, makeblock.DataString, append([]byte{0x07}, "06.01.1"...)...))
	s.device.HandleData(reply(mbot.IndexUltrasonic, makeblock.DataFloat, 0x00, 0x00))

	got := testutils.Drain(s.events)
	s.Require().Len(got, 5, "each distinct reading MUST raise exactly one event")

	s.Equal(robot.EventUltrasonic, got[0].Type)
	s.Equal(12.5, got[0].Value, "ultrasonic MUST decode the float")

	s.Equal(robot.EventLineFollower, got[1].Type)
	s.Equal(robot.LineFollower{Left: true, Right: true, Raw: []byte{0x00, 0x00, 0x80, 0x40}}, got[1].Value,
		"line follower MUST decode both sides")

	s.Equal(robot.EventLightness, got[2].Type)
	s.Equal(250.0, got[2].Value, "light MUST decode the float")

	s.Equal(robot.EventButton, got[3].Type)
	s.Equal(1, got[3].Value, "button MUST decode the byte")

	s.Equal(robot.EventFirmware, got[4].Type)
	s.Equal("06.01.1", got[4].Value, "version MUST drop the length prefix")
}

func (s *MBotTestSuite) TestMonitor() {
	// GOAL: Verify monitoring polls the sensors only while enabled
	//
	// TEST SCENARIO: Monitor(true) → each sensor read once, ultrasonic repeatedly → Monitor(false) → no more reads

	c := mbot.NewCommands()
	s.api.Monitor(context.Background(), true)
	s.Eventually(func() bool {
		n := 0
		for _, f := range s.transport.SentFrames() {
			if hex(f)[0] == hex(c.ReadUltrasonic())[0] {
				n++
			}
		}
		return n >= 3
	}, time.Second, 5*time.Millisecond, "ultrasonic MUST be polled repeatedly")
	s.api.Monitor(context.Background(), false)

	sent := hex(s.transport.SentFrames()...)
	s.Contains(sent, hex(c.ReadLight())[0], "light MUST be read when monitoring starts")
	s.Contains(sent, hex(c.ReadLineFollower())[0], "line follower MUST be read when monitoring starts")

	n := len(s.transport.SentFrames())
	time.Sleep(60 * time.Millisecond)
	s.Equal(n, len(s.transport.SentFrames()), "stopped monitor MUST NOT poll")
}

func (s *MBotTestSuite) TestStopAndDisconnect() {
	// GOAL: Verify stop halts the robot and disconnect cleans up
	//
	// TEST SCENARIO: stop → motors 0, LED off, reset; Disconnect → same frames, device released

	stop := []string{
		"FF 55 06 00 02 0A 09 00 00",
		"FF 55 06 00 02 0A 0A 00 00",
		"FF 55 09 00 02 08 07 02 00 00 00 00",
		"FF 55 02 00 04",
	}
	s.Require().NoError(s.api.Exec(context.Background(), robot.Stop, nil))
	s.Equal(stop, hex(s.transport.SentFrames()...), "stop MUST halt motors, switch off the LEDs and reset")

	s.transport.ResetSent()
	s.Require().NoError(s.api.Disconnect(context.Background()))
	s.Equal(stop, hex(s.transport.SentFrames()...), "disconnect MUST stop the robot first")
	s.False(s.device.IsConnected(), "device MUST be disconnected")
	s.False(s.api.IsPrepared(), "api MUST be unbound")
	s.Empty(s.api.Poller().Tasks(), "disconnect MUST forget the polls")
}

func TestMBotTestSuite(t *testing.T) {
	depend.RunSuite(t, new(MBotTestSuite))
}
