// Package a2atypes holds the A2A (Agent-to-Agent) protocol's shared data
// model (spec.md §3): tasks, messages, parts, and artifacts. It has no
// dependency on pkg/a2a or pkg/taskstore so both can depend on it without
// a cycle.
package a2atypes

import (
	"errors"

	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
)

// TaskState is one state in the A2A task lifecycle (spec.md §3).
type TaskState string

const (
	TaskSubmitted     TaskState = "submitted"
	TaskWorking       TaskState = "working"
	TaskInputRequired TaskState = "input-required"
	TaskCompleted     TaskState = "completed"
	TaskCanceled      TaskState = "canceled"
	TaskFailed        TaskState = "failed"
	TaskRejected      TaskState = "rejected"
	TaskAuthRequired  TaskState = "auth-required"
)

// IsTerminal reports whether no further status transitions are allowed
// from this state (spec.md §3: "Terminal states: completed | canceled |
// failed | rejected").
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskCanceled, TaskFailed, TaskRejected:
		return true
	default:
		return false
	}
}

// TaskStatus is a task's current state plus an optional human-readable
// message and the time of the transition.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// PartKind discriminates the A2A Part union.
type PartKind string

const (
	PartText PartKind = "text"
	PartData PartKind = "data"
	PartFile PartKind = "file"
)

// Part is one piece of an A2A message or artifact: text, raw data, or a
// file reference. Exactly one of Bytes/URL is populated for file parts
// (spec.md §3).
type Part struct {
	Kind PartKind `json:"kind"`

	Text string `json:"text,omitempty"`
	Data []byte `json:"data,omitempty"`

	FileBytes []byte `json:"fileBytes,omitempty"`
	FileURL   string `json:"fileUrl,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
}

func TextPart(text string) Part { return Part{Kind: PartText, Text: text} }
func DataPart(data []byte) Part { return Part{Kind: PartData, Data: data} }

func FileBytesPart(data []byte, mimeType string) Part {
	return Part{Kind: PartFile, FileBytes: data, MimeType: mimeType}
}

func FileURLPart(url, mimeType string) Part {
	return Part{Kind: PartFile, FileURL: url, MimeType: mimeType}
}

// Role is the sender of an A2AMessage.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is an A2A protocol message (distinct from the conversation
// Message in pkg/llmadapter that the orchestrator uses).
type Message struct {
	Role      Role   `json:"role"`
	Parts     []Part `json:"parts"`
	MessageID string `json:"messageId"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
}

// Artifact is a produced output attached to a task.
type Artifact struct {
	ArtifactID string          `json:"artifactId"`
	Parts      []Part          `json:"parts"`
	Metadata   jsonvalue.Value `json:"metadata,omitempty"`
}

// Task is the full A2A task record (spec.md §3).
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

var (
	ErrTaskNotFound = errors.New("a2a: task not found")
	ErrTerminalTask = errors.New("a2a: task already in a terminal state")
)
