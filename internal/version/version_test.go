package version

import (
	"strings"
	"testing"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	if info.Version == "" {
		t.Error("version should not be empty")
	}
	if info.InstanceID == "" {
		t.Error("instance id should not be empty")
	}
	if info.Hostname == "" {
		t.Error("hostname should not be empty")
	}

	// Instance ID is computed once and cached.
	again := GetInfo()
	if info.InstanceID != again.InstanceID {
		t.Error("instance id must be stable across calls")
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.2.3", GitCommit: "abc123", BuildDate: "2026-01-01"}
	s := info.String()

	if !strings.Contains(s, "v1.2.3") || !strings.Contains(s, "abc123") {
		t.Errorf("unexpected format: %s", s)
	}
}
