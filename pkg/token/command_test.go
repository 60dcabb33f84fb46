package token

import (
	"errors"
	"testing"
)

func TestUnlockCommand(t *testing.T) {
	if got := UnlockCommand("02324550", 1700000000); got != "02324550|1700000000|OPEN" {
		t.Errorf("UnlockCommand() = %q", got)
	}
}

func TestParseUnlockCommand(t *testing.T) {
	code, clock, err := ParseUnlockCommand("324550|1700000000|OPEN")
	if err != nil {
		t.Fatalf("ParseUnlockCommand: %v", err)
	}
	if code != "324550" || clock != 1700000000 {
		t.Errorf("got (%q, %d)", code, clock)
	}

	bad := []string{
		"",
		"123456|1|CLOSE",
		"123456|x|OPEN",
		"|1|OPEN",
		"12a456|1|OPEN",
		"123456|1|OPEN|",
	}
	for _, cmd := range bad {
		if _, _, err := ParseUnlockCommand(cmd); !errors.Is(err, ErrMalformedCommand) {
			t.Errorf("ParseUnlockCommand(%q) err = %v, want ErrMalformedCommand", cmd, err)
		}
	}
}
