package engine

import "sync"

// mailbox is an unbounded FIFO of events. Posting never blocks, so
// transport callbacks can run inline inside adapter calls made by the
// engine goroutine itself.
type mailbox struct {
	mu     sync.Mutex
	items  []event
	closed bool
	ready  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

// post queues ev. It returns false once the mailbox is closed.
func (m *mailbox) post(ev event) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, ev)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return true
}

// drain takes every queued event.
func (m *mailbox) drain() []event {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}

// closeWith queues ev as the last event and closes the mailbox in one
// step, so nothing can be posted behind it.
func (m *mailbox) closeWith(ev event) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, ev)
	m.closed = true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return true
}
