// Package agui carries the typed event protocol between the analysis
// pipeline and the transport layer. Events follow the AG-UI shape the
// frontend consumes: run lifecycle, state snapshots, JSON-Patch state
// deltas, streamed text messages, and tool calls.
package agui

import "encoding/json"

type EventType string

const (
	RunStarted         EventType = "RUN_STARTED"
	RunFinished        EventType = "RUN_FINISHED"
	StateSnapshot      EventType = "STATE_SNAPSHOT"
	StateDelta         EventType = "STATE_DELTA"
	TextMessageStart   EventType = "TEXT_MESSAGE_START"
	TextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	TextMessageEnd     EventType = "TEXT_MESSAGE_END"
	ToolCallStart      EventType = "TOOL_CALL_START"
	ToolCallArgs       EventType = "TOOL_CALL_ARGS"
	ToolCallEnd        EventType = "TOOL_CALL_END"
)

// Event is any record the pipeline can emit toward the client.
type Event interface {
	EventType() EventType
}

// PatchOp is a single JSON-Patch operation applied to the client state.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

type RunStartedEvent struct {
	Type     EventType `json:"type"`
	ThreadID string    `json:"threadId"`
	RunID    string    `json:"runId"`
}

func (e RunStartedEvent) EventType() EventType { return e.Type }

func NewRunStarted(threadID, runID string) RunStartedEvent {
	return RunStartedEvent{Type: RunStarted, ThreadID: threadID, RunID: runID}
}

type RunFinishedEvent struct {
	Type     EventType `json:"type"`
	ThreadID string    `json:"threadId"`
	RunID    string    `json:"runId"`
}

func (e RunFinishedEvent) EventType() EventType { return e.Type }

func NewRunFinished(threadID, runID string) RunFinishedEvent {
	return RunFinishedEvent{Type: RunFinished, ThreadID: threadID, RunID: runID}
}

type StateSnapshotEvent struct {
	Type     EventType `json:"type"`
	Snapshot any       `json:"snapshot"`
}

func (e StateSnapshotEvent) EventType() EventType { return e.Type }

func NewStateSnapshot(snapshot any) StateSnapshotEvent {
	return StateSnapshotEvent{Type: StateSnapshot, Snapshot: snapshot}
}

type StateDeltaEvent struct {
	Type  EventType `json:"type"`
	Delta []PatchOp `json:"delta"`
}

func (e StateDeltaEvent) EventType() EventType { return e.Type }

func NewStateDelta(ops ...PatchOp) StateDeltaEvent {
	return StateDeltaEvent{Type: StateDelta, Delta: ops}
}

type TextMessageStartEvent struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"messageId"`
	Role      string    `json:"role"`
}

func (e TextMessageStartEvent) EventType() EventType { return e.Type }

func NewTextMessageStart(messageID string) TextMessageStartEvent {
	return TextMessageStartEvent{Type: TextMessageStart, MessageID: messageID, Role: "assistant"}
}

type TextMessageContentEvent struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"messageId"`
	Delta     string    `json:"delta"`
}

func (e TextMessageContentEvent) EventType() EventType { return e.Type }

func NewTextMessageContent(messageID, delta string) TextMessageContentEvent {
	return TextMessageContentEvent{Type: TextMessageContent, MessageID: messageID, Delta: delta}
}

type TextMessageEndEvent struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"messageId"`
}

func (e TextMessageEndEvent) EventType() EventType { return e.Type }

func NewTextMessageEnd(messageID string) TextMessageEndEvent {
	return TextMessageEndEvent{Type: TextMessageEnd, MessageID: messageID}
}

type ToolCallStartEvent struct {
	Type         EventType `json:"type"`
	ToolCallID   string    `json:"toolCallId"`
	ToolCallName string    `json:"toolCallName"`
}

func (e ToolCallStartEvent) EventType() EventType { return e.Type }

func NewToolCallStart(toolCallID, name string) ToolCallStartEvent {
	return ToolCallStartEvent{Type: ToolCallStart, ToolCallID: toolCallID, ToolCallName: name}
}

type ToolCallArgsEvent struct {
	Type       EventType `json:"type"`
	ToolCallID string    `json:"toolCallId"`
	Delta      string    `json:"delta"`
}

func (e ToolCallArgsEvent) EventType() EventType { return e.Type }

func NewToolCallArgs(toolCallID, args string) ToolCallArgsEvent {
	return ToolCallArgsEvent{Type: ToolCallArgs, ToolCallID: toolCallID, Delta: args}
}

type ToolCallEndEvent struct {
	Type       EventType `json:"type"`
	ToolCallID string    `json:"toolCallId"`
}

func (e ToolCallEndEvent) EventType() EventType { return e.Type }

func NewToolCallEnd(toolCallID string) ToolCallEndEvent {
	return ToolCallEndEvent{Type: ToolCallEnd, ToolCallID: toolCallID}
}

// Encode marshals an event for the wire. Marshalling these fixed
// structs cannot fail in practice; a failure returns "{}" so the
// stream stays well formed.
func Encode(e Event) []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte("{}")
	}
	return data
}
