package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogAdapter_CommandEvent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	event := testEvent("slog-session", CategoryState)
	adapter.Log(event)

	out := buf.String()
	if !strings.Contains(out, "slog-session") {
		t.Errorf("output missing session ID: %s", out)
	}
	if !strings.Contains(out, "SESSION") {
		t.Errorf("output missing layer: %s", out)
	}
	if !strings.Contains(out, "ATTACHED") {
		t.Errorf("output missing state change: %s", out)
	}
}

func TestSlogAdapter_ErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		SessionID: "s1",
		Direction: DirectionOut,
		Layer:     LayerTransport,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerTransport,
			Message: "send failed",
			Context: "fan speed read",
		},
	})

	out := buf.String()
	if !strings.Contains(out, "send failed") {
		t.Errorf("output missing error message: %s", out)
	}
	if !strings.Contains(out, "fan speed read") {
		t.Errorf("output missing error context: %s", out)
	}
}
