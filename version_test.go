package decpomdp

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	t.Parallel()

	if Version == "" {
		t.Error("Version should not be empty")
	}

	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version = %s, want major.minor.patch", Version)
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if v := GetVersion(); v != Version {
		t.Errorf("GetVersion() = %s, want %s", v, Version)
	}
}
