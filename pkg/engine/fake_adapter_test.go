package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/gatt"
)

// call records one adapter method invocation.
type call struct {
	op     string
	id     uuid.UUID
	data   []byte
	filter *uuid.UUID
	peer   gatt.PeripheralHandle
}

// fakeLock makes a fakeAdapter answer like a healthy lock.
type fakeLock struct {
	adv      gatt.Advertisement
	services gatt.ServiceMap
	key      []byte
	writeErr map[uuid.UUID]error

	// silentDisconnect drops the Disconnected callback.
	silentDisconnect bool
}

// fakeAdapter records calls and either answers them through a fakeLock or
// leaves the test to drive callbacks by hand.
type fakeAdapter struct {
	mu        sync.Mutex
	calls     []call
	events    chan call
	readyErr  error
	scanCB    gatt.ScanCallbacks
	connCB    gatt.ConnCallbacks
	connected bool
	lock      *fakeLock
}

func newFakeAdapter(lock *fakeLock) *fakeAdapter {
	return &fakeAdapter{events: make(chan call, 256), lock: lock}
}

func (f *fakeAdapter) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	f.events <- c
}

func (f *fakeAdapter) Ready() error {
	f.record(call{op: "Ready"})
	return f.readyErr
}

func (f *fakeAdapter) Scan(filter *uuid.UUID, cb gatt.ScanCallbacks) error {
	f.mu.Lock()
	f.scanCB = cb
	f.mu.Unlock()
	f.record(call{op: "Scan", filter: filter})
	if f.lock != nil {
		go cb.OnMatch(f.lock.adv)
	}
	return nil
}

func (f *fakeAdapter) StopScan() error {
	f.record(call{op: "StopScan"})
	return nil
}

func (f *fakeAdapter) Connect(p gatt.PeripheralHandle, cb gatt.ConnCallbacks) error {
	f.mu.Lock()
	f.connCB = cb
	f.connected = true
	f.mu.Unlock()
	f.record(call{op: "Connect", peer: p})
	if f.lock != nil {
		go cb.OnStateChange(gatt.Connected)
	}
	return nil
}

func (f *fakeAdapter) Disconnect() error {
	f.mu.Lock()
	was := f.connected
	f.connected = false
	cb := f.connCB
	f.mu.Unlock()
	f.record(call{op: "Disconnect"})
	if f.lock != nil && was && !f.lock.silentDisconnect {
		go cb.OnStateChange(gatt.Disconnected)
	}
	return nil
}

func (f *fakeAdapter) DiscoverServices() error {
	f.record(call{op: "DiscoverServices"})
	if f.lock != nil {
		cb := f.conn()
		go cb.OnServicesReady(f.lock.services, nil)
	}
	return nil
}

func (f *fakeAdapter) ReadCharacteristic(id uuid.UUID) error {
	f.record(call{op: "Read", id: id})
	if f.lock != nil {
		cb := f.conn()
		go cb.OnCharRead(id, append([]byte(nil), f.lock.key...), nil)
	}
	return nil
}

func (f *fakeAdapter) WriteCharacteristic(id uuid.UUID, data []byte) error {
	f.record(call{op: "Write", id: id, data: append([]byte(nil), data...)})
	if f.lock != nil {
		cb := f.conn()
		err := f.lock.writeErr[id]
		go cb.OnCharWrite(id, err)
	}
	return nil
}

func (f *fakeAdapter) conn() gatt.ConnCallbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connCB
}

func (f *fakeAdapter) scan() gatt.ScanCallbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scanCB
}

// waitFor consumes recorded calls until one with op arrives.
func (f *fakeAdapter) waitFor(t *testing.T, op string) call {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case c := <-f.events:
			if c.op == op {
				return c
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s; calls so far: %v", op, f.ops())
		}
	}
}

func (f *fakeAdapter) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeAdapter) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

func (f *fakeAdapter) writes() map[uuid.UUID]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]string)
	for _, c := range f.calls {
		if c.op == "Write" {
			out[c.id] = string(c.data)
		}
	}
	return out
}

var _ gatt.Adapter = (*fakeAdapter)(nil)

// memStore is an in-memory SecretStore.
type memStore struct {
	clock    int64
	hasClock bool
	secret   []byte
}

func (m *memStore) ClockValue() (int64, bool, error) {
	return m.clock, m.hasClock, nil
}

func (m *memStore) PersistedSecret() ([]byte, error) {
	if m.secret == nil {
		return nil, nil
	}
	return append([]byte(nil), m.secret...), nil
}
