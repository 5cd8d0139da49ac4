//go:generate go run github.com/srgg/testify/depend/cmd/dependgen

package ev3_test

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/srg/botlink/internal/device"
	"github.com/srg/botlink/internal/events"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/ev3"
	"github.com/srg/botlink/internal/testutils"
	"github.com/srgg/testify/depend"
	"github.com/stretchr/testify/suite"
)

// reply builds a brick reply: len16 | callback type | target | reply type | payload.
func reply(cb ev3.CallbackType, port ev3.InputPort, payload ...byte) []byte {
	f := binary.LittleEndian.AppendUint16(nil, uint16(3+len(payload)))
	f = append(f, byte(cb), byte(port), 0x02)
	return append(f, payload...)
}

func hex(b []byte) string {
	return fmt.Sprintf("% X", b)
}

type EV3TestSuite struct {
	suite.Suite

	helper    *testutils.TestHelper
	transport *testutils.FakeTransport
	device    *device.Device
	api       *ev3.Api
	events    *events.RingChannel[robot.Event]
}

func (s *EV3TestSuite) SetupTest() {
	s.helper = testutils.NewTestHelper(s.T())
	s.transport = testutils.NewFakeTransport()
	s.device = testutils.NewConnectedDevice(s.T(), s.transport, "ev3", s.helper.Logger)
	s.api = ev3.New(s.helper.Logger, robot.WithInterval("touch", 20*time.Millisecond))
	s.events = s.api.Events().Subscribe(64)
	s.Require().NoError(s.api.Connect(context.Background(), s.device), "Connect MUST succeed")
	s.transport.ResetSent()
}

func (s *EV3TestSuite) TearDownTest() {
	s.api.Close()
	s.device.Close(context.Background())
}

func (s *EV3TestSuite) TestMoveStepsEncoding() {
	// GOAL: Verify the direct command encoder byte for byte
	//
	// TEST SCENARIO: moveSteps on port A, 360 steps, speed 50, no brake → exact frame

	const want = "24 00 00 00 80 04 00 A3 81 00 81 01 81 00 AE 81 00 81 01 81 32 " +
		"83 00 00 00 00 83 68 01 00 00 83 00 00 00 00 81 00"

	s.Run("commands", func() {
		got := ev3.NewCommands().MoveSteps(ev3.OutputA, 360, 50, 0, 0, false)
		s.Equal(want, hex(got), "moveSteps frame MUST match the direct command layout")
	})

	s.Run("exec", func() {
		frames, err := s.api.Build(robot.MoveSteps, robot.Params{
			"motorLeft": "A", "motorRight": "A", "steps": 360, "speed": 50,
		})
		s.Require().NoError(err)
		s.Require().Len(frames, 1, "moveSteps MUST encode to one frame")
		s.Equal(want, hex(frames[0]), "handler MUST produce the same frame")
	})

	s.Run("zero speed defaults to 50", func() {
		a := ev3.NewCommands().MoveSteps(ev3.OutputA, 360, 0, 0, 0, false)
		s.Equal(want, hex(a), "zero speed MUST encode as 50")
	})
}

func (s *EV3TestSuite) TestCommandEncoding() {
	// GOAL: Verify headers, reply routing bytes and clamping of the remaining commands
	//
	// TEST SCENARIO: encode a sample of commands → compare with the expected byte code

	c := ev3.NewCommands()
	cases := []struct {
		name string
		got  []byte
		want string
	}{
		{"getBattery", c.GetBattery(), "09 00 21 00 00 00 00 81 12 E1 00"},
		{"getFirmware", c.GetFirmware(), "0B 00 20 00 00 10 00 81 0A 81 10 E1 00"},
		{"getDeviceType", c.GetDeviceType(ev3.InputB), "0F 00 01 11 00 7F 00 99 15 81 00 81 11 81 7F E1 00"},
		{"stop", c.Stop(ev3.OutputAll, false), "0C 00 00 00 80 04 00 A3 81 00 81 0F 81 00"},
		{"clear", c.Clear(), "09 00 00 00 80 04 00 99 0A 81 00"},
		{"playTone", c.PlayTone(2000, 10, 150), "0F 00 00 00 80 04 00 94 01 81 64 82 D0 07 82 32 00"},
		{"drawLine clamps", c.DrawLine(0, 0, 999, 999, 1),
			"1D 00 00 00 80 04 00 84 03 81 01 83 00 00 00 00 83 00 00 00 00 83 B1 00 00 00 83 7F 00 00 00"},
		{"setLed", c.SetLed(ev3.LedRed, ev3.LedFlash), "09 00 00 00 80 04 00 82 1B 81 05"},
	}
	for _, tc := range cases {
		s.Equal(tc.want, hex(tc.got), "%s frame MUST match", tc.name)
	}

	s.Run("sensor reads route to the port and are cached", func() {
		a := c.GetSensorDataSi(ev3.InputTwo, 1)
		s.Equal(byte(ev3.CallbackSi), a[2], "callback type MUST be SI")
		s.Equal(byte(ev3.InputTwo), a[3], "callback target MUST be the port")
		s.Equal(byte(0x00), a[4], "read MUST ask for a reply")
		s.Equal(&a[0], &c.GetSensorDataSi(ev3.InputTwo, 1)[0], "repeated read MUST reuse the cached frame")
	})

	s.Run("drawImage path", func() {
		f := c.DrawImage("Test/Smile.rgf", 0, 0, 1)
		s.Contains(string(f), "/home/root/lms2012/prjs/Test/Smile\x00", "image path MUST drop the suffix")
	})
}

func (s *EV3TestSuite) TestPrepare() {
	// GOAL: Verify the init sequence runs once per device
	//
	// TEST SCENARIO: fresh api connects → tone, firmware, battery, 8 device queries, screen → reconnect sends nothing

	api := ev3.New(s.helper.Logger)
	defer api.Close()
	s.Require().NoError(api.Connect(context.Background(), s.device))

	sent := s.transport.SentFrames()
	s.Require().Len(sent, 16, "prepare MUST send 16 frames")
	c := ev3.NewCommands()
	s.Equal(c.PlayTone(2000, 200, 25), sent[0], "prepare MUST start with a tone")
	s.Equal(c.GetFirmware(), sent[1], "prepare MUST query the firmware")
	s.Equal(c.GetBattery(), sent[2], "prepare MUST query the battery")
	for i, p := range ev3.InputPorts {
		s.Equal(c.GetDeviceType(p), sent[3+i], "prepare MUST query port %s", p)
	}
	s.Equal(c.DrawUpdate(), sent[15], "prepare MUST end with a screen update")
	s.True(api.IsPrepared(), "api MUST be prepared")

	s.transport.ResetSent()
	s.Require().NoError(api.Connect(context.Background(), s.device))
	s.Empty(s.transport.SentFrames(), "second Connect MUST NOT resend the init sequence")
}

func (s *EV3TestSuite) TestConnectRequiresConnectedDevice() {
	// GOAL: Verify Connect refuses a device that is not connected
	//
	// TEST SCENARIO: disconnected device → ErrNotConnected

	dev := device.New(device.DeviceInfo{Address: "x"}, testutils.ProfileByName("ev3"), s.transport, s.helper.Logger)
	api := ev3.New(s.helper.Logger)
	defer api.Close()
	err := api.Connect(context.Background(), dev)
	s.ErrorIs(err, device.ErrNotConnected, "Connect MUST fail without a connection")
}

func (s *EV3TestSuite) TestDeviceTypeAnnouncement() {
	// GOAL: Verify DEVICE_NAME replies build the port table
	//
	// TEST SCENARIO: two large motors and a touch sensor announced → roles, masks, events and poll tasks

	s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputB, []byte("L-MOTOR-DEG\x00")...))
	s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputC, []byte("L-MOTOR-DEG\x00")...))
	s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputOne, []byte("TOUCH\x00")...))

	s.Equal(ev3.OutputB, s.api.ActorMask(ev3.LargeMotor), "first large motor MUST take the primary role")
	s.Equal(ev3.OutputC, s.api.ActorMask(ev3.LargeMotorOpt), "second large motor MUST take the optional role")

	ports := s.api.Ports()
	s.Equal("touch", ports[ev3.InputOne].Type, "touch sensor MUST be recorded on port 1")

	evs := testutils.Drain(s.events)
	s.Require().Len(evs, 3, "each announcement MUST raise one event")
	s.Equal(robot.EventDeviceType, evs[0].Type)
	s.Equal("B", evs[0].Channel)
	s.Equal(robot.DeviceType{Name: "large-motor", Type: "l-motor-deg", Mode: 0}, evs[0].Value)

	s.Equal([]string{"1", "B", "C"}, s.api.Poller().Tasks(), "every detected device MUST get a poll task")
	d, _ := s.api.Poller().Interval("B")
	s.Equal(2*time.Second, d, "motors MUST poll every 2s")

	sent := s.transport.SentFrames()
	s.Require().Len(sent, 3, "each new device MUST be read once right away")
	c := ev3.NewCommands()
	s.Equal(c.GetActorData(ev3.InputB, 0), sent[0], "motors MUST be read as actor data")
	s.Equal(c.GetSensorDataPct(ev3.InputOne, 0), sent[2], "touch MUST be read as percent")

	s.Run("repeated announcement is deduped", func() {
		s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputOne, []byte("TOUCH\x00")...))
		s.Empty(testutils.Drain(s.events), "unchanged device type MUST NOT raise an event")
	})

	s.Run("unplugged device drops its task", func() {
		s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputOne, []byte("NONE\x00")...))
		s.Equal([]string{"B", "C"}, s.api.Poller().Tasks(), "unplugged port MUST stop polling")
	})
}

func (s *EV3TestSuite) TestAnnouncementOnDroppedLink() {
	// GOAL: Verify a device announcement arriving after the link dropped does not stall reception
	//
	// TEST SCENARIO: socket vanishes → sends fail → color sensor announced → initial read fails → HandleData returns → device released

	id, _ := s.device.SocketID()
	s.Require().NoError(s.transport.Close(context.Background(), id))
	s.transport.SendErr = errors.New("io: broken pipe")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputOne, []byte("COL-REFLECT\x00")...))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.FailNow("HandleData MUST return after the initial read fails")
	}

	s.False(s.device.HasSocket(), "vanished socket MUST be released")
	s.Contains(s.api.Poller().Tasks(), "1", "announced sensor MUST still be recorded")
}

func (s *EV3TestSuite) TestHardwareWarnings() {
	// GOAL: Verify invalid device names never enter the port table
	//
	// TEST SCENARIO: PORT ERROR, TERMINAL and an unknown name → no ports, no events

	for _, name := range []string{"PORT ERROR", "TERMINAL", "WEIRD-THING"} {
		s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputTwo, append([]byte(name), 0)...))
	}
	s.Empty(s.api.Ports(), "invalid names MUST NOT be recorded")
	s.Empty(testutils.Drain(s.events), "invalid names MUST NOT raise events")
}

// @dependsOn TestDeviceTypeAnnouncement
func (s *EV3TestSuite) TestSensorValues() {
	// GOAL: Verify value decoding per callback type and per-port dedup
	//
	// TEST SCENARIO: touch/gyro/motor detected → PCT, SI and ACTOR replies → deduped events

	s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputOne, []byte("TOUCH\x00")...))
	s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputTwo, []byte("GYRO-ANG\x00")...))
	s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputA, []byte("M-MOTOR-DEG\x00")...))
	testutils.Drain(s.events)

	gyro := binary.LittleEndian.AppendUint32(nil, math.Float32bits(12.34))
	motor := binary.LittleEndian.AppendUint32(nil, uint32(0xFFFFFF9C)) // -100

	s.device.HandleData(reply(ev3.CallbackPct, ev3.InputOne, 1))
	s.device.HandleData(reply(ev3.CallbackPct, ev3.InputOne, 1))
	s.device.HandleData(reply(ev3.CallbackSi, ev3.InputTwo, gyro...))
	s.device.HandleData(reply(ev3.CallbackActorValue, ev3.InputA, motor...))
	s.device.HandleData(reply(ev3.CallbackPct, ev3.InputOne, 0))

	evs := testutils.Drain(s.events)
	s.Require().Len(evs, 4, "repeated value MUST be dropped")
	s.Equal(1, evs[0].Value, "PCT MUST decode the first byte")
	s.Equal(12.3, evs[1].Value, "SI MUST decode a float rounded to one decimal")
	s.Equal(-100, evs[2].Value, "ACTOR MUST decode a signed int32")
	s.Equal(0, evs[3].Value, "changed value MUST be published")

	s.Run("unknown port is ignored", func() {
		s.device.HandleData(reply(ev3.CallbackPct, ev3.InputFour, 5))
		s.Empty(testutils.Drain(s.events), "values for undetected ports MUST be ignored")
	})
}

func (s *EV3TestSuite) TestChunkedReply() {
	// GOAL: Verify replies split across chunks are reassembled
	//
	// TEST SCENARIO: firmware reply delivered byte by byte together with a second reply → both decoded

	data := append(reply(ev3.CallbackFirmware, ev3.InputOne, []byte("V1.09H\x00")...),
		reply(ev3.CallbackBattery, ev3.InputOne, 0x07)...)
	for i := range data {
		s.device.HandleData(data[i : i+1])
	}

	s.Equal("V1.09H", s.api.Firmware(), "firmware MUST be decoded from a chunked reply")
	evs := testutils.Drain(s.events)
	s.Require().Len(evs, 2)
	s.Equal(robot.EventFirmware, evs[0].Type)
	s.Equal(robot.EventBattery, evs[1].Type)
}

// @dependsOn TestDeviceTypeAnnouncement
func (s *EV3TestSuite) TestMonitor() {
	// GOAL: Verify monitoring polls detected sensors only while enabled
	//
	// TEST SCENARIO: touch detected → Monitor(true) → repeated reads → Monitor(false) → no more reads

	s.device.HandleData(reply(ev3.CallbackDeviceName, ev3.InputOne, []byte("TOUCH\x00")...))
	poll := ev3.NewCommands().GetSensorDataPct(ev3.InputOne, 0)
	s.transport.ResetSent()

	s.api.Monitor(context.Background(), true)
	s.Eventually(func() bool { return len(s.transport.SentFrames()) >= 3 }, time.Second, 5*time.Millisecond,
		"enabled monitor MUST poll repeatedly")
	s.api.Monitor(context.Background(), false)

	for _, f := range s.transport.SentFrames() {
		s.Equal(poll, f, "monitor MUST only send the touch read")
	}
	n := len(s.transport.SentFrames())
	time.Sleep(60 * time.Millisecond)
	s.Equal(n, len(s.transport.SentFrames()), "stopped monitor MUST NOT poll")
}

func (s *EV3TestSuite) TestExecErrors() {
	// GOAL: Verify Exec error paths
	//
	// TEST SCENARIO: command of another family → ErrUnknownCommand; malformed parameter → ParamError; unbound api → ErrNotPrepared

	s.ErrorIs(s.api.Exec(context.Background(), robot.Roll, nil), robot.ErrUnknownCommand,
		"foreign command MUST be unknown")

	var pe *robot.ParamError
	s.ErrorAs(s.api.Exec(context.Background(), robot.PlayTone, robot.Params{"frequency": "loud"}), &pe,
		"malformed parameter MUST be a ParamError")
	s.Equal("frequency", pe.Param)

	s.ErrorIs(ev3.New(s.helper.Logger).Exec(context.Background(), robot.Stop, nil), robot.ErrNotPrepared,
		"unbound api MUST refuse commands")

	s.Require().NoError(s.api.Exec(context.Background(), robot.Stop, nil))
	s.Equal([][]byte{ev3.NewCommands().Stop(ev3.OutputAll, false)}, s.transport.SentFrames(),
		"stop MUST default to all ports")
}

func (s *EV3TestSuite) TestDisconnectCleansUp() {
	// GOAL: Verify disconnect stops motors and clears sensors before releasing the device
	//
	// TEST SCENARIO: Disconnect → stop + clear sent → device disconnected → api unbound

	s.Require().NoError(s.api.Disconnect(context.Background()))

	c := ev3.NewCommands()
	s.Equal([][]byte{c.Stop(ev3.OutputAll, false), c.Clear()}, s.transport.SentFrames(),
		"disconnect MUST send stop and clear")
	s.False(s.device.IsConnected(), "device MUST be disconnected")
	s.False(s.api.IsPrepared(), "api MUST be unbound")
}

func TestEV3TestSuite(t *testing.T) {
	depend.RunSuite(t, new(EV3TestSuite))
}
