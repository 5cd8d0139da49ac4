package device

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a missing device, profile or characteristic.
type NotFoundError struct {
	Resource string   // "device", "profile", "socket", "characteristic"
	Names    []string // address, profile name, UUID ...
}

func (e *NotFoundError) Error() string {
	if len(e.Names) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, strings.Join(e.Names, "/"))
}

// ConnectionState represents the specific kind of connection state failure
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	NotInitialized   ConnectionState = "not_initialized"
)

// ConnectionError represents any connection-related problem
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrNotInitialized   = &ConnectionError{State: NotInitialized}
)

var (
	ErrTimeout     = errors.New("timeout")
	ErrUnsupported = errors.New("unsupported")
	ErrNoSocket    = errors.New("no socket")
)

// ErrorKind is the closed classification of transport failures.
type ErrorKind int

const (
	// KindUnknown errors are logged and otherwise ignored.
	KindUnknown ErrorKind = iota
	// KindTransient errors mean the link is down for now; the device silently becomes disconnected.
	KindTransient
	// KindConnectFailed errors end the current connection attempt.
	KindConnectFailed
	// KindDisconnected errors report that an established link dropped.
	KindDisconnected
	// KindSocketNotFound errors report that the platform no longer knows the socket.
	KindSocketNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindConnectFailed:
		return "connect_failed"
	case KindDisconnected:
		return "disconnected"
	case KindSocketNotFound:
		return "socket_not_found"
	default:
		return "unknown"
	}
}

// TransportError is returned by Transport implementations that can classify their own
// failures. Code carries the platform error number when there is one.
type TransportError struct {
	Op   string
	Kind ErrorKind
	Code int
	Err  error
}

func (e *TransportError) Error() string {
	msg := e.Op
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code 0x%x)", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// connectFailureCodes are vendor error codes that end a connection attempt.
// 0x2743 is WSAENETUNREACH, reported when the peer is out of range.
var connectFailureCodes = map[int]struct{}{
	0x2743: {},
}

// Classify maps err to an ErrorKind. A kind attached by the transport wins; message
// matching is the fallback for platforms that only report text.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var terr *TransportError
	if errors.As(err, &terr) {
		if terr.Kind != KindUnknown {
			return terr.Kind
		}
		if _, ok := connectFailureCodes[terr.Code]; ok {
			return KindConnectFailed
		}
	}
	if errors.Is(err, ErrNotConnected) {
		return KindTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection") && strings.Contains(msg, "failed"),
		strings.Contains(msg, "0x2743"):
		return KindConnectFailed
	case strings.Contains(msg, "socket not connected"),
		strings.Contains(msg, "connection aborted"):
		return KindTransient
	case strings.Contains(msg, "socket not found"):
		return KindSocketNotFound
	case strings.Contains(msg, "disconnected"),
		strings.Contains(msg, "system_error"):
		return KindDisconnected
	default:
		return KindUnknown
	}
}

// IsConnectionState reports whether err is a ConnectionError with the given state
func IsConnectionState(err error, state ConnectionState) bool {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr.State == state
	}
	return false
}
