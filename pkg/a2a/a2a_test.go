package a2a

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/a2atypes"
	"github.com/swiftagentkit/agentkit-go/pkg/taskstore"
)

// echoAdapter answers every message by echoing its text back, emitting
// a working status, then an artifact, then a completed status — the
// exact event ordering spec.md's S4 scenario checks.
type echoAdapter struct{}

func (echoAdapter) ResponseShape() ResponseShape    { return ShapeTask }
func (echoAdapter) SupportsImageGeneration() bool   { return false }
func (echoAdapter) Handle(ctx context.Context, in a2atypes.Message, config map[string]any, emit func(Event)) error {
	text := ""
	for _, p := range in.Parts {
		if p.Kind == a2atypes.PartText {
			text = p.Text
		}
	}
	emit(StatusUpdateEvent(in.TaskID, in.ContextID, a2atypes.TaskStatus{State: a2atypes.TaskWorking}, false))
	emit(ArtifactUpdateEvent(in.TaskID, in.ContextID, a2atypes.Artifact{
		ArtifactID: uuid.NewString(),
		Parts:      []a2atypes.Part{a2atypes.TextPart(text + " back")},
	}))
	emit(StatusUpdateEvent(in.TaskID, in.ContextID, a2atypes.TaskStatus{State: a2atypes.TaskCompleted}, true))
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	store := taskstore.New()
	srv := NewServer(nil, AgentCard{Name: "echo-agent", Capabilities: AgentCapabilities{Streaming: true}}, echoAdapter{}, store)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, srv
}

// TestA2AStreamingTaskEventOrder is spec.md's S4 scenario: one
// status-update(working), one artifact-update, one
// status-update(completed, final=true), in that order.
func TestA2AStreamingTaskEventOrder(t *testing.T) {
	ts, _ := newTestServer(t)

	client := NewClient(nil, ts.URL)
	taskID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := client.StreamMessage(ctx, a2atypes.Message{
		Role:      a2atypes.RoleUser,
		Parts:     []a2atypes.Part{a2atypes.TextPart("Hi")},
		MessageID: uuid.NewString(),
		TaskID:    taskID,
	}, nil)
	require.NoError(t, err)

	var got []Event
	for e := range events {
		got = append(got, e)
	}

	require.Len(t, got, 3)
	assert.Equal(t, EventStatusUpdate, got[0].Kind)
	assert.Equal(t, a2atypes.TaskWorking, got[0].Status.State)
	assert.False(t, got[0].Final)

	assert.Equal(t, EventArtifactUpdate, got[1].Kind)
	assert.Equal(t, "Hi back", got[1].Artifact.Parts[0].Text)

	assert.Equal(t, EventStatusUpdate, got[2].Kind)
	assert.Equal(t, a2atypes.TaskCompleted, got[2].Status.State)
	assert.True(t, got[2].Final)
}

func TestAgentCardServedAtWellKnownPath(t *testing.T) {
	ts, _ := newTestServer(t)
	client := NewClient(nil, ts.URL)

	card, err := client.FetchAgentCard(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "echo-agent", card.Name)
	assert.True(t, card.Capabilities.Streaming)
}

func TestTasksGetReturnsStoredTaskAfterStreaming(t *testing.T) {
	ts, _ := newTestServer(t)
	client := NewClient(nil, ts.URL)

	taskID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events, err := client.StreamMessage(ctx, a2atypes.Message{
		Role:      a2atypes.RoleUser,
		Parts:     []a2atypes.Part{a2atypes.TextPart("Hi")},
		MessageID: uuid.NewString(),
		TaskID:    taskID,
	}, nil)
	require.NoError(t, err)
	for range events {
	}

	task, err := client.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, a2atypes.TaskCompleted, task.Status.State)
	assert.Len(t, task.Artifacts, 1)
}

func TestTasksCancelRejectsAfterTerminal(t *testing.T) {
	ts, _ := newTestServer(t)
	client := NewClient(nil, ts.URL)

	taskID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events, err := client.StreamMessage(ctx, a2atypes.Message{
		Role:      a2atypes.RoleUser,
		Parts:     []a2atypes.Part{a2atypes.TextPart("Hi")},
		MessageID: uuid.NewString(),
		TaskID:    taskID,
	}, nil)
	require.NoError(t, err)
	for range events {
	}

	task, err := client.CancelTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, a2atypes.TaskCompleted, task.Status.State, "already-terminal task must be left unchanged")
}
