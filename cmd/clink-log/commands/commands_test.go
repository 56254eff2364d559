package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clink-protocol/clink-go/pkg/log"
	"github.com/clink-protocol/clink-go/pkg/wire"
)

// createTestLogFile writes events to a capture file in a temp dir.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.clog")
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

func sampleEvents() []log.Event {
	ts := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	status := wire.StatusSuccess
	elapsed := 3 * time.Millisecond
	return []log.Event{
		{
			Timestamp: ts,
			SessionID: "11111111-aaaa-bbbb-cccc-000000000001",
			Direction: log.DirectionOut,
			Layer:     log.LayerTransport,
			Category:  log.CategoryMessage,
			Frame:     &log.FrameEvent{Size: 64, Data: []byte{0x03, 0x88}},
		},
		{
			Timestamp:  ts.Add(3 * time.Millisecond),
			SessionID:  "11111111-aaaa-bbbb-cccc-000000000001",
			Direction:  log.DirectionIn,
			Layer:      log.LayerWire,
			Category:   log.CategoryMessage,
			DeviceName: "HX850i",
			Command: &log.CommandEvent{
				Op:      wire.OpReadRegister,
				Reg:     wire.RegInputVoltage,
				Status:  &status,
				Elapsed: &elapsed,
			},
		},
		{
			Timestamp: ts.Add(time.Second),
			SessionID: "11111111-aaaa-bbbb-cccc-000000000001",
			Layer:     log.LayerSession,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				OldState: "ATTACHED",
				NewState: "DETACHED",
			},
		},
		{
			Timestamp: ts.Add(2 * time.Second),
			SessionID: "22222222-aaaa-bbbb-cccc-000000000002",
			Direction: log.DirectionIn,
			Layer:     log.LayerTransport,
			Category:  log.CategoryStale,
			Frame:     &log.FrameEvent{Size: 64},
		},
	}
}

func TestRunView(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"[sess:11111111]",
		"Frame",
		"Op: 0x03  Reg: 0x88",
		"Status: SUCCESS",
		"ATTACHED -> DETACHED",
		"Stale",
		"Device: HX850i",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("view output missing %q\n%s", want, output)
		}
	}
}

func TestRunView_LayerFilter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	layer := log.LayerWire
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &layer}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Command") {
		t.Error("wire-layer event missing from filtered view")
	}
	if strings.Contains(output, "Frame") {
		t.Error("transport-layer event leaked into wire-filtered view")
	}
}

func TestRunExport_JSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data := readFile(t, out)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) != len(sampleEvents()) {
		t.Fatalf("exported %d lines, want %d", len(lines), len(sampleEvents()))
	}
	if !strings.Contains(lines[1], "HX850i") {
		t.Error("device name missing from JSONL export")
	}
}

func TestRunExport_CSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data := readFile(t, out)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) != len(sampleEvents())+1 { // header + rows
		t.Fatalf("exported %d lines, want %d", len(lines), len(sampleEvents())+1)
	}
	if !strings.HasPrefix(lines[0], "timestamp,session_id") {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}
}

func TestRunExport_UnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	if err := RunExport(path, "xml", ""); err == nil {
		t.Fatal("RunExport accepted an unknown format")
	}
}

func TestRunFilter_BySession(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.clog")

	opts := FilterOptions{
		Output:    out,
		SessionID: "22222222-aaaa-bbbb-cccc-000000000002",
	}
	if err := RunFilter(path, opts); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("filtered file has %d events, want 1", len(events))
	}
	if events[0].Category != log.CategoryStale {
		t.Errorf("wrong event survived the filter: %v", events[0].Category)
	}
}

func TestRunStats(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Total Events: 4",
		"TRANSPORT:",
		"WIRE:",
		"SESSION:",
		"Sessions: 2",
		"Device: HX850i",
		"Roundtrips: 1",
		"Stale frames discarded: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("stats output missing %q\n%s", want, output)
		}
	}
}

func TestParseFlags(t *testing.T) {
	if _, err := ParseLayerFlag("WIRE"); err != nil {
		t.Errorf("ParseLayerFlag(WIRE) error: %v", err)
	}
	if _, err := ParseLayerFlag("service"); err == nil {
		t.Error("ParseLayerFlag(service) accepted an unknown layer")
	}
	if d, err := ParseDirectionFlag("out"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(out) = %v, %v", d, err)
	}
	if _, err := ParseCategoryFlag("stale"); err != nil {
		t.Errorf("ParseCategoryFlag(stale) error: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
