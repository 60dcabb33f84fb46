package token

import (
	"errors"
	"strconv"
	"strings"
)

// CommandOpen is the fixed verb of an unlock command.
const CommandOpen = "OPEN"

const commandSep = "|"

// ErrMalformedCommand is returned when a command does not have the
// "<code>|<clock>|OPEN" shape.
var ErrMalformedCommand = errors.New("token: malformed unlock command")

// UnlockCommand formats the command written to the lock.
func UnlockCommand(code string, clock int64) string {
	return code + commandSep + strconv.FormatInt(clock, 10) + commandSep + CommandOpen
}

// ParseUnlockCommand splits a command into its code and clock value.
func ParseUnlockCommand(cmd string) (code string, clock int64, err error) {
	parts := strings.Split(cmd, commandSep)
	if len(parts) != 3 || parts[2] != CommandOpen || parts[0] == "" {
		return "", 0, ErrMalformedCommand
	}
	for _, c := range parts[0] {
		if c < '0' || c > '9' {
			return "", 0, ErrMalformedCommand
		}
	}
	clock, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, ErrMalformedCommand
	}
	return parts[0], clock, nil
}
