package a2a

import (
	"github.com/swiftagentkit/agentkit-go/pkg/a2atypes"
)

// EventKind discriminates the A2A streaming event union (spec.md §4.6).
type EventKind string

const (
	EventStatusUpdate   EventKind = "status-update"
	EventArtifactUpdate EventKind = "artifact-update"
	EventMessage        EventKind = "message"
)

// Event is one item of a message/stream or tasks/resubscribe SSE
// sequence. Only the field matching Kind is populated.
type Event struct {
	Kind EventKind `json:"kind"`

	TaskID    string             `json:"taskId,omitempty"`
	ContextID string             `json:"contextId,omitempty"`
	Status    a2atypes.TaskStatus `json:"status,omitempty"`
	Artifact  a2atypes.Artifact   `json:"artifact,omitempty"`
	Message   a2atypes.Message    `json:"message,omitempty"`

	// Final marks the terminal event of the sequence; its Status.State
	// must be a terminal TaskState (spec.md §8 testable property).
	Final bool `json:"final"`
}

func StatusUpdateEvent(taskID, contextID string, status a2atypes.TaskStatus, final bool) Event {
	return Event{Kind: EventStatusUpdate, TaskID: taskID, ContextID: contextID, Status: status, Final: final}
}

func ArtifactUpdateEvent(taskID, contextID string, artifact a2atypes.Artifact) Event {
	return Event{Kind: EventArtifactUpdate, TaskID: taskID, ContextID: contextID, Artifact: artifact}
}

func MessageEvent(msg a2atypes.Message) Event {
	return Event{Kind: EventMessage, Message: msg}
}
