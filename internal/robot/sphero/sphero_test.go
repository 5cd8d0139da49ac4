//go:generate go run github.com/srgg/testify/depend/cmd/dependgen

package sphero_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/events"
	"github.com/srg/botlink/internal/frame"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/sphero"
	"github.com/srg/botlink/internal/testutils"
	"github.com/srgg/testify/depend"
	"github.com/stretchr/testify/suite"
)

func hex(b []byte) string {
	return fmt.Sprintf("% X", b)
}

// ack builds an acknowledgement: FF FF MRSP SEQ DLEN data CHK.
func ack(mrsp byte, seq sphero.CallbackType, data ...byte) []byte {
	f := append([]byte{0xFF, 0xFF, mrsp, byte(seq), byte(len(data) + 1)}, data...)
	return append(f, frame.SumComplement(f[2:]))
}

// async builds an async message: FF FE ID DLEN-MSB DLEN-LSB data CHK.
func async(id byte, data ...byte) []byte {
	f := append([]byte{0xFF, 0xFE, id, 0x00, byte(len(data) + 1)}, data...)
	return append(f, frame.SumComplement(f[2:]))
}

type SpheroTestSuite struct {
	suite.Suite

	helper    *testutils.TestHelper
	transport *testutils.FakeTransport
	device    *device.Device
	api       *sphero.Api
	events    *events.RingChannel[robot.Event]
}

func (s *SpheroTestSuite) SetupTest() {
	s.helper = testutils.NewTestHelper(s.T())
	s.transport = testutils.NewFakeTransport()
	s.device = testutils.NewConnectedDevice(s.T(), s.transport, sphero.Name, s.helper.Logger)
	s.api = sphero.New(s.helper.Logger)
	s.events = s.api.Events().Subscribe(64)
	s.Require().NoError(s.api.Connect(context.Background(), s.device), "Connect MUST succeed")
	s.transport.ResetSent()
}

func (s *SpheroTestSuite) TearDownTest() {
	s.api.Close()
	s.device.Close(context.Background())
}

func (s *SpheroTestSuite) exec(cmd robot.Command, params robot.Params) [][]byte {
	s.transport.ResetSent()
	s.Require().NoError(s.api.Exec(context.Background(), cmd, params))
	return s.transport.SentFrames()
}

func (s *SpheroTestSuite) TestEncoding() {
	// GOAL: Verify the client command packet layout and checksum
	//
	// TEST SCENARIO: encode sample commands → compare with hand computed packets

	c := sphero.NewCommands()
	cases := []struct {
		name string
		got  []byte
		want string
	}{
		{"setRGB", c.SetRGB(255, 0, 0, true), "FF FE 02 20 00 05 FF 00 00 01 D8"},
		{"getRGB asks for a reply", c.GetRGB(), "FF FF 02 22 01 01 D9"},
		{"roll", c.Roll(0, 180, true), "FF FE 02 30 00 05 00 00 B4 01 13"},
		{"collision detection", c.DefaultCollisionDetection(), "FF FE 02 12 00 07 01 60 60 60 60 0A 59"},
		{"setRGB clamps", c.SetRGB(300, -5, 0, true), "FF FE 02 20 00 05 FF 00 00 01 D8"},
	}
	for _, tc := range cases {
		s.Equal(tc.want, hex(tc.got), "%s packet MUST match", tc.name)
		s.True(frame.SpheroChecksum(tc.got), "%s checksum MUST validate", tc.name)
	}

	v := c.GetVersion()
	s.Equal([]byte{0xFF, 0xFF, 0x00, 0x02, byte(sphero.CallbackVersion), 0x01}, v[:6], "version MUST address the core device")
}

func (s *SpheroTestSuite) TestPrepare() {
	// GOAL: Verify the init sequence and self test run once
	//
	// TEST SCENARIO: fresh classic api connects → colors, collision setup and self test → no characteristic writes

	api := sphero.New(s.helper.Logger)
	defer api.Close()
	s.Require().NoError(api.Connect(context.Background(), s.device))

	sent := s.transport.SentFrames()
	s.Require().Len(sent, 18, "prepare and self test MUST send 18 packets")
	c := sphero.NewCommands()
	s.Equal(c.SetRGB(255, 0, 0, true), sent[0])
	s.Equal(c.GetRGB(), sent[1])
	s.Equal(c.DefaultCollisionDetection(), sent[6], "prepare MUST enable collision detection")
	s.Equal(c.SetBackLed(100), sent[11])
	s.Equal(c.Roll(0, 180, true), sent[17], "self test MUST end with a roll to 180")
	s.Empty(s.transport.CharWrites, "classic Sphero MUST NOT write characteristics")

	speed, heading := api.RollState()
	s.Equal(0, speed)
	s.Equal(180, heading, "self test roll MUST update the heading")

	s.transport.ResetSent()
	s.Require().NoError(api.Connect(context.Background(), s.device))
	s.Empty(s.transport.SentFrames(), "second Connect MUST NOT resend")
}

func (s *SpheroTestSuite) TestV1Unlock() {
	// GOAL: Verify v1 robots are unlocked before the init sequence
	//
	// TEST SCENARIO: NewV1 connects → anti-DoS, TX power and wake writes → init sequence sent

	transport := testutils.NewFakeTransport()
	dev := testutils.NewConnectedDevice(s.T(), transport, sphero.NameV1, s.helper.Logger)
	defer dev.Close(context.Background())
	api := sphero.NewV1(s.helper.Logger)
	defer api.Close()

	s.Require().NoError(api.Connect(context.Background(), dev))
	s.Equal([][]byte{[]byte("011i3")}, transport.CharWrites[sphero.CharAntiDOS], "anti-DoS code MUST be written")
	s.Equal([][]byte{{0x07}}, transport.CharWrites[sphero.CharTXPower], "TX power MUST be written")
	s.Equal([][]byte{{0x01}}, transport.CharWrites[sphero.CharWake], "wake MUST be written")
	s.Len(transport.SentFrames(), 18, "init sequence MUST follow the unlock")
	s.True(api.IsPrepared())
}

func (s *SpheroTestSuite) TestRollKeepsState() {
	// GOAL: Verify roll reuses the last speed and heading
	//
	// TEST SCENARIO: roll 80/90 → roll without params → rollStop keeps the heading

	c := sphero.NewCommands()
	s.Equal([][]byte{c.Roll(80, 90, true)}, s.exec(robot.Roll, robot.Params{"speed": 80, "heading": 90}))
	s.Equal([][]byte{c.Roll(80, 90, true)}, s.exec(robot.Roll, nil), "missing params MUST reuse the last values")
	s.Equal([][]byte{c.Roll(0, 90, false)}, s.exec(robot.RollStop, nil), "rollStop MUST keep the heading")
	s.Equal([][]byte{c.Roll(0, 45, true)}, s.exec(robot.Roll, robot.Params{"heading": "45"}))
}

func (s *SpheroTestSuite) TestCalibration() {
	// GOAL: Verify the calibration flow
	//
	// TEST SCENARIO: calibrate twice → lights change only once → setCalibration resets the heading

	c := sphero.NewCommands()
	s.Equal([][]byte{c.SetRGB(0, 0, 0, true), c.SetBackLed(255), c.Roll(0, 30, true)},
		s.exec(robot.Calibrate, robot.Params{"heading": 30}), "first calibrate MUST switch to the back LED")
	s.Equal([][]byte{c.Roll(0, 60, true)},
		s.exec(robot.Calibrate, robot.Params{"heading": 60}), "later calibrate MUST only roll")
	s.Equal([][]byte{c.SetBackLed(0), c.SetHeading(0)}, s.exec(robot.SetCalibration, nil))
	s.Len(s.exec(robot.Calibrate, robot.Params{"heading": 0}), 3, "calibration MUST restart after setCalibration")
}

func (s *SpheroTestSuite) TestStop() {
	c := sphero.NewCommands()
	s.exec(robot.Roll, robot.Params{"speed": 100, "heading": 270})
	s.Equal([][]byte{c.SetRGB(0, 0, 0, true), c.SetBackLed(0), c.Boost(false), c.Roll(0, 0, false)},
		s.exec(robot.Stop, nil), "stop MUST darken and halt the robot")
	speed, heading := s.api.RollState()
	s.Zero(speed)
	s.Zero(heading, "stop MUST reset the heading")

	s.Run("build touches nothing on the device", func() {
		s.transport.ResetSent()
		frames, err := s.api.Build(robot.Stop, nil)
		s.Require().NoError(err)
		s.Len(frames, 4, "stop MUST encode four frames")
		s.Empty(s.transport.SentFrames(), "Build MUST NOT send")
		s.True(s.device.IsConnected(), "Build MUST NOT change the device state")
	})
}

func (s *SpheroTestSuite) TestLocation() {
	// GOAL: Verify location acknowledgements decode with per-value dedup
	//
	// TEST SCENARIO: same location twice → one set of events → only speed changes → one speed event

	data := []byte{0x00, 0x10, 0xFF, 0xF6, 0x00, 0x05, 0xFF, 0xFF, 0x01, 0x00}
	s.device.HandleData(ack(0x00, sphero.CallbackLocation, data...))
	s.device.HandleData(ack(0x00, sphero.CallbackLocation, data...))

	evs := testutils.Drain(s.events)
	s.Require().Len(evs, 3, "repeated location MUST be deduped")
	s.Equal(robot.EventLocation, evs[0].Type)
	s.Equal(robot.Vector{X: 16, Y: -10}, evs[0].Value, "position MUST decode signed big-endian")
	s.Equal(robot.Vector{X: 5, Y: -1}, evs[1].Value)
	s.Equal(256, evs[2].Value, "speed MUST decode unsigned big-endian")

	data[9] = 0x01
	s.device.HandleData(ack(0x00, sphero.CallbackLocation, data...))
	evs = testutils.Drain(s.events)
	s.Require().Len(evs, 1)
	s.Equal(robot.EventSpeed, evs[0].Type)
	s.Equal(257, evs[0].Value)
}

func (s *SpheroTestSuite) TestCollision() {
	// GOAL: Verify collision messages decode and are never deduped
	//
	// TEST SCENARIO: the same collision twice, split across chunks → two collision events

	data := []byte{
		0x00, 0x64, 0xFF, 0x9C, 0x00, 0x00, // x, y, z
		0x01,                   // axis
		0x01, 0x02, 0x00, 0x03, // magnitude
		0x40,                   // speed
		0x00, 0x00, 0x00, 0x01, // timestamp
	}
	msg := async(0x07, data...)
	s.device.HandleData(msg[:4])
	s.device.HandleData(append(msg[4:], msg...))

	evs := testutils.Drain(s.events)
	s.Require().Len(evs, 2, "every collision MUST be reported")
	s.Equal(robot.EventCollision, evs[0].Type)
	s.Equal(robot.Collision{
		X: 100, Y: -100, Z: 0, Axis: "y",
		Magnitude: robot.Vector{X: 258, Y: 3},
		Speed:     0x40,
	}, evs[0].Value)
}

func (s *SpheroTestSuite) TestAcknowledgements() {
	// GOAL: Verify RGB, version, pre-sleep and corrupted packets
	//
	// TEST SCENARIO: RGB ack → color event; version ack → firmware; pre-sleep and bad checksum → nothing

	s.device.HandleData(ack(0x00, sphero.CallbackRGB, 0x10, 0x20, 0x30))
	s.device.HandleData(ack(0x00, sphero.CallbackVersion, 0x02, 0x03, 0x01, 0x03, 0x0F, 0x22, 0x33, 0x44))
	s.device.HandleData(ack(0x05, sphero.CallbackNone))

	bad := ack(0x00, sphero.CallbackRGB, 0x01, 0x02, 0x03)
	bad[len(bad)-1] ^= 0xFF
	s.device.HandleData(bad)
	s.device.HandleData(ack(0x00, 0x7E, 0x01))

	evs := testutils.Drain(s.events)
	s.Require().Len(evs, 2, "only valid RGB and version acks MUST raise events")
	s.Equal(sphero.Color{R: 0x10, G: 0x20, B: 0x30}, evs[0].Value)
	s.Equal(robot.EventFirmware, evs[1].Type)
	s.Equal("3.15", evs[1].Value)
}

// @dependsOn TestPrepare
func (s *SpheroTestSuite) TestDisconnect() {
	s.Require().NoError(s.api.Disconnect(context.Background()))
	s.False(s.device.IsConnected(), "device MUST be disconnected")
	s.False(s.api.IsPrepared(), "api MUST be unbound")
	s.Empty(s.api.Poller().Tasks(), "monitor tasks MUST be dropped")
	s.ErrorIs(s.api.Exec(context.Background(), robot.Roll, nil), robot.ErrNotPrepared)
}

func (s *SpheroTestSuite) TestUnsupportedCommand() {
	s.ErrorIs(s.api.Exec(context.Background(), robot.MoveSteps, nil), robot.ErrUnknownCommand,
		"EV3 commands MUST be unknown to Sphero")
}

func TestSpheroTestSuite(t *testing.T) {
	depend.RunSuite(t, new(SpheroTestSuite))
}
