package engine

import "fmt"

// State is a protocol engine state.
type State uint8

const (
	Idle State = iota
	Scanning
	Connecting
	DiscoveringServices
	ReadingKey
	ComputingAuth
	SendingCommand
	Completed
)

var stateNames = [...]string{
	Idle:                "IDLE",
	Scanning:            "SCANNING",
	Connecting:          "CONNECTING",
	DiscoveringServices: "DISCOVERING_SERVICES",
	ReadingKey:          "READING_KEY",
	ComputingAuth:       "COMPUTING_AUTH",
	SendingCommand:      "SENDING_COMMAND",
	Completed:           "COMPLETED",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("UNKNOWN(%d)", s)
}

// failure returns the error kind reported when a session fails in s.
func (s State) failure() ErrorKind {
	switch s {
	case Scanning:
		return ScanTimeout
	case Connecting:
		return ConnectFailed
	case DiscoveringServices:
		return ServiceMismatch
	case ReadingKey:
		return KeyReadFailed
	case ComputingAuth:
		return AuthWriteFailed
	case SendingCommand:
		return CommandWriteFailed
	default:
		return None
	}
}

// connected reports whether a transport connection may be open in s.
func (s State) connected() bool {
	return s >= Connecting && s <= Completed
}
