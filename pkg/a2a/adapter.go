package a2a

import (
	"context"

	"github.com/swiftagentkit/agentkit-go/pkg/a2atypes"
)

// ResponseShape is the adapter's declared reply shape (message vs task).
// It is fixed per adapter instance: Adapter.ResponseShape takes no request
// argument, so one shape applies to every call the adapter handles. For
// task shape the server registers the task in the Task Store before
// dispatching.
type ResponseShape int

const (
	ShapeMessage ResponseShape = iota
	ShapeTask
)

// Adapter is implemented by the agent logic behind an A2A server. Handle
// is invoked once per message/send or message/stream call; it emits
// Events through emit as work progresses and returns once the exchange
// is complete. The server drives Task Store updates from the emitted
// events when ResponseShape is ShapeTask.
type Adapter interface {
	ResponseShape() ResponseShape
	// SupportsImageGeneration reports whether this adapter can produce
	// file artifacts. The server does not call it and does not choose a
	// modality from configuration.acceptedOutputModes; the configuration
	// is passed through to Handle, and the artifacts stored are exactly
	// those the adapter emits.
	SupportsImageGeneration() bool
	Handle(ctx context.Context, in a2atypes.Message, config map[string]any, emit func(Event)) error
}
