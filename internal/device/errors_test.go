package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"transport kind wins", &TransportError{Op: "send", Kind: KindDisconnected, Err: errors.New("socket not connected")}, KindDisconnected},
		{"vendor code", &TransportError{Op: "connect", Code: 0x2743}, KindConnectFailed},
		{"not connected sentinel", fmt.Errorf("write: %w", ErrNotConnected), KindTransient},
		{"connection failed text", errors.New("Connection failed: host down"), KindConnectFailed},
		{"code in text", errors.New("connect error 0x2743"), KindConnectFailed},
		{"socket not connected", errors.New("send: socket not connected"), KindTransient},
		{"connection aborted", errors.New("connection aborted"), KindTransient},
		{"socket not found", errors.New("socket not found"), KindSocketNotFound},
		{"disconnected", errors.New("peer disconnected"), KindDisconnected},
		{"system error", errors.New("system_error"), KindDisconnected},
		{"unknown", errors.New("buffer overflow"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err), "Classify(%v) MUST return %s", tt.err, tt.want)
		})
	}
}

func TestConnectionErrorIs(t *testing.T) {
	err := fmt.Errorf("exec: %w", &ConnectionError{State: NotConnected, Msg: "robot offline"})

	assert.ErrorIs(t, err, ErrNotConnected, "ConnectionError MUST match by state")
	assert.NotErrorIs(t, err, ErrAlreadyConnected, "different states MUST NOT match")
	assert.True(t, IsConnectionState(err, NotConnected))
	assert.Equal(t, "not_connected: robot offline", errors.Unwrap(err).Error())
}

func TestProfileMatches(t *testing.T) {
	profiles := DefaultProfiles()

	records := []struct {
		name string
		info DeviceInfo
		want string
	}{
		{"ev3", DeviceInfo{Name: "EV3", DeviceClass: 2052, UUIDs: []string{"1101"}}, "ev3"},
		{"sphero classic", DeviceInfo{Name: "Sphero-RBR", DeviceClass: 2360324, UUIDs: []string{SerialPortUUID}}, "sphero_classic"},
		{"mbot", DeviceInfo{Name: "Makeblock", DeviceClass: 7936, UUIDs: []string{SerialPortUUID}}, "mbot"},
		{"bb-8", DeviceInfo{Name: "BB-1234", UUIDs: []string{"22bb746f-2ba0-7554-2d6f-726568705327"}}, "sphero_v1"},
		{"ranger", DeviceInfo{Name: "Makeblock_LE", UUIDs: []string{"ffe1"}}, "mbot_ranger"},
		{"headphones", DeviceInfo{Name: "EV3 headset", DeviceClass: 0x240404, UUIDs: []string{"110b"}}, ""},
	}

	for _, r := range records {
		t.Run(r.name, func(t *testing.T) {
			var matched []string
			for i := range profiles {
				if profiles[i].Matches(r.info) {
					matched = append(matched, profiles[i].Name)
				}
			}
			if r.want == "" {
				assert.Empty(t, matched, "record MUST NOT match any profile")
				return
			}
			assert.Equal(t, []string{r.want}, matched, "record MUST match exactly one profile")
		})
	}
}
