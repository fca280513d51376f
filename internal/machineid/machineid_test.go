package machineid

import (
	"regexp"
	"testing"
)

func TestID(t *testing.T) {
	id := ID()
	if id == "unknown" {
		t.Skip("host exposes neither a hostname nor a hardware address")
	}
	if !regexp.MustCompile(`^[0-9a-f]{16}$`).MatchString(id) {
		t.Errorf("machine id should be 16 hex characters, got %v", id)
	}
	if again := ID(); again != id {
		t.Errorf("machine id should be stable within a process, got %v then %v", id, again)
	}
}
