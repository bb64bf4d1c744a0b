package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Writer: &buf})

	log.Info(context.Background(), "scenario starting",
		String("scenario", "constellation"),
		Int("spacecraft", 5),
		Float64("interval", 2.5),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "scenario starting" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry["scenario"] != "constellation" {
		t.Fatalf("scenario = %v", entry["scenario"])
	}
	if entry["spacecraft"] != float64(5) {
		t.Fatalf("spacecraft = %v", entry["spacecraft"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Writer: &buf})

	log.Debug(context.Background(), "dropped debug")
	log.Info(context.Background(), "dropped info")
	log.Warn(context.Background(), "kept warn")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("below-threshold entries leaked: %q", out)
	}
	if !strings.Contains(out, "kept warn") {
		t.Fatalf("warn entry missing: %q", out)
	}
}

func TestWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Writer: &buf}).With(String("scenario", "drag-sweep"))

	log.Info(context.Background(), "case done", Err(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["scenario"] != "drag-sweep" {
		t.Fatalf("With field missing: %v", entry)
	}
	if entry["error"] != "boom" {
		t.Fatalf("error field = %v", entry["error"])
	}
}

func TestNoopLoggerIsSilent(t *testing.T) {
	log := Noop()
	log.Info(context.Background(), "nothing")
	log.Error(nil, "nothing either") //nolint:staticcheck // nil ctx must not panic
	_ = log.With(String("k", "v"))
}

func TestEnsureCallID(t *testing.T) {
	ctx, id := EnsureCallID(context.Background())
	if id == "" {
		t.Fatalf("expected a generated call ID")
	}
	if got := CallIDFromContext(ctx); got != id {
		t.Fatalf("CallIDFromContext = %q, want %q", got, id)
	}

	// A second call reuses the existing ID.
	ctx2, id2 := EnsureCallID(ctx)
	if id2 != id {
		t.Fatalf("EnsureCallID minted a fresh ID %q over %q", id2, id)
	}
	if ctx2 != ctx {
		t.Fatalf("context should be unchanged when an ID exists")
	}

	if got := CallIDFromContext(context.Background()); got != "" {
		t.Fatalf("empty context should have no call ID, got %q", got)
	}
	if got := CallIDFromContext(nil); got != "" { //nolint:staticcheck // nil ctx must not panic
		t.Fatalf("nil context should have no call ID, got %q", got)
	}
}
