package engine

import (
	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/gatt"
)

// event is anything the engine goroutine processes.
type event interface{}

// Commands from the public API.
type (
	configureEvent struct {
		desc        gatt.ServiceDescriptor
		debugFilter string
	}

	startEvent struct {
		id     string
		clock  int64
		source KeySource

		// preflight is set when the caller already knows the session
		// cannot run (store not configured).
		preflight error
	}

	cancelEvent struct{}

	closeEvent struct{}
)

// Transport and timer events. gen is the session generation they were
// issued for.
type (
	scanMatchEvent struct {
		gen uint64
		adv gatt.Advertisement
	}

	scanErrorEvent struct {
		gen uint64
		err error
	}

	scanTimeoutEvent struct {
		gen uint64
	}

	stepTimeoutEvent struct {
		gen   uint64
		state State
	}

	connStateEvent struct {
		gen   uint64
		state gatt.ConnState
	}

	servicesEvent struct {
		gen      uint64
		services gatt.ServiceMap
		err      error
	}

	charReadEvent struct {
		gen   uint64
		id    uuid.UUID
		value []byte
		err   error
	}

	charWriteEvent struct {
		gen uint64
		id  uuid.UUID
		err error
	}
)

// generation returns the session generation of a transport event, ok is
// false for commands.
func generation(ev event) (gen uint64, ok bool) {
	switch ev := ev.(type) {
	case scanMatchEvent:
		return ev.gen, true
	case scanErrorEvent:
		return ev.gen, true
	case scanTimeoutEvent:
		return ev.gen, true
	case stepTimeoutEvent:
		return ev.gen, true
	case connStateEvent:
		return ev.gen, true
	case servicesEvent:
		return ev.gen, true
	case charReadEvent:
		return ev.gen, true
	case charWriteEvent:
		return ev.gen, true
	default:
		return 0, false
	}
}
