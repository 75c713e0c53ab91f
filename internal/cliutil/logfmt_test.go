package cliutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tad-network/tadsim/internal/launcher"
	"github.com/tad-network/tadsim/internal/runtime"
)

func TestNewLogRecordInfersLevel(t *testing.T) {
	record := NewLogRecord(launcher.Event{
		Process: "node-1",
		Type:    launcher.EventTypeLog,
		Message: "ERROR peer handshake failed",
	})
	if record.Level != "error" {
		t.Fatalf("level: %q", record.Level)
	}
}

func TestNewLogRecordDefaults(t *testing.T) {
	record := NewLogRecord(launcher.Event{
		Process: "farmer",
		Type:    launcher.EventTypeStarted,
		Message: "started",
	})
	if record.Level != "info" {
		t.Fatalf("level: %q", record.Level)
	}
	if record.Source != runtime.LogSourceSystem {
		t.Fatalf("source: %q", record.Source)
	}
}

func TestNewLogRecordCarriesError(t *testing.T) {
	record := NewLogRecord(launcher.Event{
		Process: "harvester",
		Type:    launcher.EventTypeCrashed,
		Message: "spawn failed",
		Level:   "error",
		Err:     errors.New("binary missing"),
	})
	if record.Error != "binary missing" {
		t.Fatalf("error field: %q", record.Error)
	}
}

func TestEncodeLogEventProducesJSONLines(t *testing.T) {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)

	EncodeLogEvent(enc, &bytes.Buffer{}, launcher.Event{
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Process:   "node-1",
		PID:       4242,
		Type:      launcher.EventTypeLog,
		Message:   "synced to peak",
		Level:     "info",
		Source:    runtime.LogSourceStdout,
	})

	var record LogRecord
	if err := json.Unmarshal(out.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.Process != "node-1" || record.PID != 4242 || record.Message != "synced to peak" {
		t.Fatalf("record round trip: %+v", record)
	}
}

func TestFormatLogEvent(t *testing.T) {
	line := FormatLogEvent(launcher.Event{
		Timestamp: time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC),
		Process:   "introducer",
		Type:      launcher.EventTypeStarted,
		Message:   "started",
		Level:     "info",
	})
	if !strings.Contains(line, "[introducer]") || !strings.Contains(line, "started") {
		t.Fatalf("line: %q", line)
	}
}

func TestFormatLogEventWithoutProcessUsesLauncher(t *testing.T) {
	line := FormatLogEvent(launcher.Event{
		Type:    launcher.EventTypeStopped,
		Message: "all managed processes exited",
		Level:   "info",
	})
	if !strings.Contains(line, "[launcher]") {
		t.Fatalf("line: %q", line)
	}
}
