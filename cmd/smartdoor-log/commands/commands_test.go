package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oiascix/ble-app/pkg/log"
)

const sessionA = "01HZX8K3M4N5P6Q7R8S9T0VWXA"

// createTestLogFile writes events to a trace file in a temp dir.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.sdlog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

// sessionTrace is a short successful session followed by a failed one.
func sessionTrace() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	return []log.Event{
		{
			Timestamp: ts, SessionID: sessionA, Layer: log.LayerEngine, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "IDLE", NewState: "SCANNING"},
		},
		{
			Timestamp: ts.Add(100 * time.Millisecond), SessionID: sessionA, Direction: log.DirectionOut,
			Layer: log.LayerGATT, Category: log.CategoryOperation, Peripheral: "AA:BB:CC:DD:EE:FF",
			Operation: &log.OperationEvent{Op: log.OpWrite, Characteristic: "12345678-1234-5678-1234-56789abcdef2", Size: 143, Detail: "token"},
		},
		{
			Timestamp: ts.Add(150 * time.Millisecond), SessionID: sessionA, Direction: log.DirectionOut,
			Layer: log.LayerTransport, Category: log.CategoryFrame, Peripheral: "AA:BB:CC:DD:EE:FF",
			Frame: &log.FrameEvent{Size: 180, MsgType: "WRITE"},
		},
		{
			Timestamp: ts.Add(400 * time.Millisecond), SessionID: sessionA, Layer: log.LayerEngine,
			Category: log.CategoryOutcome, Peripheral: "AA:BB:CC:DD:EE:FF",
			Outcome: &log.OutcomeEvent{Result: "SUCCESS", Duration: 400 * time.Millisecond},
		},
		{
			Timestamp: ts.Add(time.Minute), SessionID: "01HZX8K3M4N5P6Q7R8S9T0VWXB", Layer: log.LayerEngine,
			Category: log.CategoryError, Error: &log.ErrorEventData{Layer: log.LayerGATT, Message: "no matching peripheral found"},
		},
		{
			Timestamp: ts.Add(time.Minute + 10*time.Second), SessionID: "01HZX8K3M4N5P6Q7R8S9T0VWXB", Layer: log.LayerEngine,
			Category: log.CategoryOutcome, Outcome: &log.OutcomeEvent{Result: "SCAN_TIMEOUT", Duration: 10 * time.Second},
		},
	}
}

func TestFormatOperationEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sessionTrace()[1])
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:00:00.100000Z",
		"[sess:S9T0VWXA]",
		"OUT",
		"GATT WRITE",
		"Peripheral: AA:BB:CC:DD:EE:FF",
		"Characteristic: 12345678-1234-5678-1234-56789abcdef2",
		"Size: 143 bytes",
		"Detail: token",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatFrameEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sessionTrace()[2])
	output := buf.String()

	if !strings.Contains(output, "TRANSPORT Frame WRITE") {
		t.Errorf("expected frame label, got: %s", output)
	}
	if !strings.Contains(output, "Size: 180 bytes") {
		t.Errorf("expected frame size, got: %s", output)
	}
}

func TestFormatStateAndOutcome(t *testing.T) {
	events := sessionTrace()

	var buf bytes.Buffer
	formatEvent(&buf, events[0])
	if !strings.Contains(buf.String(), "IDLE -> SCANNING") {
		t.Errorf("expected transition, got: %s", buf.String())
	}

	buf.Reset()
	formatEvent(&buf, events[3])
	if !strings.Contains(buf.String(), "Result: SUCCESS") || !strings.Contains(buf.String(), "Duration: 400.000ms") {
		t.Errorf("expected outcome details, got: %s", buf.String())
	}
}

func TestShortenID(t *testing.T) {
	if got := shortenID(sessionA); got != "S9T0VWXA" {
		t.Errorf("shortenID = %q, want last 8 characters", got)
	}
	if got := shortenID("abc"); got != "abc" {
		t.Errorf("shortenID(abc) = %q", got)
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sessionTrace())

	layer := log.LayerEngine
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &layer, SessionID: sessionA}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "GATT") || strings.Contains(output, "SCAN_TIMEOUT") {
		t.Errorf("filter let through other events:\n%s", output)
	}
	if got := strings.Count(output, "[sess:"); got != 2 {
		t.Errorf("expected 2 events, got %d", got)
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("GATT"); err != nil || l != log.LayerGATT {
		t.Errorf("ParseLayerFlag(GATT) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("wire"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("out"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(out) = %v, %v", d, err)
	}
	if c, err := ParseCategoryFlag("Outcome"); err != nil || c != log.CategoryOutcome {
		t.Errorf("ParseCategoryFlag(Outcome) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("message"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestRunStats(t *testing.T) {
	path := createTestLogFile(t, sessionTrace())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 6",
		"ENGINE:",
		"OUTCOME:",
		"SUCCESS:",
		"SCAN_TIMEOUT:",
		"Sessions: 2",
		"Peripheral: AA:BB:CC:DD:EE:FF",
		"Result: SUCCESS in 400.000ms",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCollectStats(t *testing.T) {
	stats, err := collectStats(createTestLogFile(t, sessionTrace()))
	if err != nil {
		t.Fatalf("collectStats failed: %v", err)
	}
	if stats.Outcomes["SUCCESS"] != 1 || stats.Outcomes["SCAN_TIMEOUT"] != 1 {
		t.Errorf("outcomes = %v", stats.Outcomes)
	}
	sess := stats.Sessions[sessionA]
	if sess == nil || sess.Events != 4 || sess.Result != "SUCCESS" {
		t.Errorf("session stats = %+v", sess)
	}
}

func TestRunStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestLogFile(t, sessionTrace())
	out := filepath.Join(t.TempDir(), "filtered.sdlog")

	n, err := RunFilter(path, FilterOptions{
		Output:    out,
		SessionID: sessionA,
		Category:  "operation",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("filtered %d events, want 1", n)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()
	event, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if event.Operation == nil || event.Operation.Op != log.OpWrite {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestRunFilterTimeWindow(t *testing.T) {
	path := createTestLogFile(t, sessionTrace())
	out := filepath.Join(t.TempDir(), "filtered.sdlog")

	n, err := RunFilter(path, FilterOptions{
		Output:    out,
		TimeStart: "2026-01-28T10:00:30Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("filtered %d events, want 2", n)
	}
}

func TestRunFilterRejectsBadOptions(t *testing.T) {
	path := createTestLogFile(t, sessionTrace())

	for _, opts := range []FilterOptions{
		{Output: filepath.Join(t.TempDir(), "x"), TimeStart: "yesterday"},
		{Output: filepath.Join(t.TempDir(), "y"), Layer: "wire"},
		{Output: filepath.Join(t.TempDir(), "z"), Direction: "sideways"},
	} {
		if _, err := RunFilter(path, opts); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}

func TestExportJSONL(t *testing.T) {
	reader, err := log.NewReader(createTestLogFile(t, sessionTrace()))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if err := export(reader, "jsonl", &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	var first log.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first.SessionID != sessionA {
		t.Errorf("SessionID = %q", first.SessionID)
	}
}

func TestExportCSV(t *testing.T) {
	reader, err := log.NewReader(createTestLogFile(t, sessionTrace()))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if err := export(reader, "csv", &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected header + 6 rows, got %d", len(rows))
	}
	if rows[0][1] != "session_id" {
		t.Errorf("header = %v", rows[0])
	}
	// Operation row: type and size columns.
	if rows[2][8] != "WRITE" || rows[2][9] != "143" {
		t.Errorf("operation row = %v", rows[2])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	reader, err := log.NewReader(createTestLogFile(t, nil))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if err := export(reader, "xml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
