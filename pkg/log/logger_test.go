package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(e Event) { r.events = append(r.events, e) }

func TestMultiLogger(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{SessionID: "x"})
	m.Log(Event{SessionID: "y"})

	if len(a.events) != 2 || len(b.events) != 2 {
		t.Fatalf("got %d and %d events, want 2 each", len(a.events), len(b.events))
	}
	if b.events[1].SessionID != "y" {
		t.Errorf("order not preserved: %+v", b.events)
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	r := &recordingLogger{}
	if OrNoop(r) != Logger(r) {
		t.Error("OrNoop should return the given logger")
	}
}

func TestSlogAdapterOperation(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Timestamp:  time.Now(),
		SessionID:  "sess-1",
		Direction:  DirectionOut,
		Layer:      LayerGATT,
		Category:   CategoryOperation,
		Generation: 7,
		Operation:  &OperationEvent{Op: OpRead, Characteristic: "key", Failed: true},
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}

	want := map[string]any{
		"msg":       "trace",
		"session":   "sess-1",
		"direction": "OUT",
		"layer":     "GATT",
		"op":        "READ",
		"char":      "key",
		"failed":    true,
		"gen":       float64(7),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}
	if _, ok := entry["size"]; ok {
		t.Error("zero size should be omitted")
	}
}

func TestSlogAdapterStateAndOutcome(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{Category: CategoryState, StateChange: &StateChangeEvent{OldState: "IDLE", NewState: "SCANNING"}})
	adapter.Log(Event{Category: CategoryOutcome, Outcome: &OutcomeEvent{Result: "SCAN_TIMEOUT"}})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var state, outcome map[string]any
	json.Unmarshal(lines[0], &state)
	json.Unmarshal(lines[1], &outcome)
	if state["new_state"] != "SCANNING" || state["old_state"] != "IDLE" {
		t.Errorf("state entry = %v", state)
	}
	if outcome["result"] != "SCAN_TIMEOUT" {
		t.Errorf("outcome entry = %v", outcome)
	}
}

func TestEnumStrings(t *testing.T) {
	if OpAdvertisement.String() != "ADVERTISEMENT" || Op(99).String() != "UNKNOWN" {
		t.Error("Op.String")
	}
	if LayerEngine.String() != "ENGINE" || CategoryOutcome.String() != "OUTCOME" || RoleLock.String() != "LOCK" {
		t.Error("enum names")
	}
}
