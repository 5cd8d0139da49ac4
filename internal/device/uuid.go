package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// bluetoothBaseSuffix completes 16- and 32-bit SIG assigned numbers into full UUIDs.
const bluetoothBaseSuffix = "-0000-1000-8000-00805f9b34fb"

// NormalizeUUID returns the canonical lowercase 36-character form of a UUID.
// Short forms ("1101", "0x1101", "0000ffe1") are expanded against the Bluetooth base UUID.
// Unparseable input is returned lowercased and trimmed.
func NormalizeUUID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")

	switch len(s) {
	case 4:
		s = "0000" + s + bluetoothBaseSuffix
	case 8:
		s = s + bluetoothBaseSuffix
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return s
	}
	return u.String()
}

// NormalizeUUIDs normalizes every entry of uuids.
func NormalizeUUIDs(uuids []string) []string {
	out := make([]string, len(uuids))
	for i, u := range uuids {
		out[i] = NormalizeUUID(u)
	}
	return out
}

// ContainsUUID reports whether uuids contains target, comparing normalized forms.
func ContainsUUID(uuids []string, target string) bool {
	t := NormalizeUUID(target)
	for _, u := range uuids {
		if NormalizeUUID(u) == t {
			return true
		}
	}
	return false
}

// ShortenUUID returns the first eight characters of long UUIDs for display.
func ShortenUUID(u string) string {
	if len(u) > 8 {
		return u[:8]
	}
	return u
}

// ValidateUUID normalizes uuids and rejects empty or malformed entries.
func ValidateUUID(uuids ...string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("at least one UUID is required")
	}

	result := make([]string, 0, len(uuids))
	for i, u := range uuids {
		if u == "" {
			return nil, fmt.Errorf("UUID at index %d cannot be empty", i)
		}
		n := NormalizeUUID(u)
		if _, err := uuid.Parse(n); err != nil {
			return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, u)
		}
		result = append(result, n)
	}
	return result, nil
}
