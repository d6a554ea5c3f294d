package agui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSSEEncoderFramesEvents(t *testing.T) {
	var buf bytes.Buffer
	enc := NewSSEEncoder(&buf)

	if err := enc.Write(NewRunStarted("thread-1", "run-1")); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "data: ") || !strings.HasSuffix(out, "\n\n") {
		t.Errorf("bad SSE framing: %q", out)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(out, "data: "))), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["type"] != string(RunStarted) {
		t.Errorf("type = %v, want %s", payload["type"], RunStarted)
	}
	if payload["threadId"] != "thread-1" || payload["runId"] != "run-1" {
		t.Errorf("unexpected identifiers: %v", payload)
	}
}

func TestStateDeltaEventShape(t *testing.T) {
	ev := NewStateDelta(PatchOp{Op: "add", Path: "/tool_logs/-", Value: "x"})

	var payload struct {
		Type  string `json:"type"`
		Delta []struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		} `json:"delta"`
	}
	if err := json.Unmarshal(Encode(ev), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Type != string(StateDelta) {
		t.Errorf("type = %s", payload.Type)
	}
	if len(payload.Delta) != 1 || payload.Delta[0].Op != "add" || payload.Delta[0].Path != "/tool_logs/-" {
		t.Errorf("unexpected delta: %+v", payload.Delta)
	}
}
