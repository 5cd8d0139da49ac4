package testutils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/device"
)

type TestHelper struct {
	T      testing.TB
	Logger *logrus.Logger
}

// NewTestHelper creates a test helper with a debug-level logger.
func NewTestHelper(t testing.TB) *TestHelper {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return &TestHelper{T: t, Logger: logger}
}

// DeviceInfoFromJSON builds a DeviceInfo from a printf-style JSON template.
func DeviceInfoFromJSON(jsonFmt string, args ...any) device.DeviceInfo {
	var info device.DeviceInfo
	if err := json.Unmarshal([]byte(fmt.Sprintf(jsonFmt, args...)), &info); err != nil {
		panic(fmt.Sprintf("invalid device JSON: %v", err))
	}
	return info
}

// ProjectRoot walks up from the working directory to the directory holding go.mod.
func ProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (go.mod not found)")
		}
		dir = parent
	}
}

// LoadScript reads a file relative to the project root.
func LoadScript(relPath string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", relPath, err)
	}
	return string(data), nil
}
