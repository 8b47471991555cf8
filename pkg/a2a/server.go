package a2a

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swiftagentkit/agentkit-go/pkg/a2atypes"
	"github.com/swiftagentkit/agentkit-go/pkg/jsonrpc"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
	"github.com/swiftagentkit/agentkit-go/pkg/taskstore"
)

// Server is an http.Handler implementing the A2A server surface (C7,
// spec.md §4.7): JSON-RPC over a single POST endpoint, SSE for streaming
// methods, and the agent-card well-known route.
type Server struct {
	log     *logger.Logger
	card    AgentCard
	adapter Adapter
	store   *taskstore.Store

	mu    sync.Mutex
	hubs  map[string]*hub
}

func NewServer(log *logger.Logger, card AgentCard, adapter Adapter, store *taskstore.Store) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		log:     log.With("a2a-server", map[string]any{"agent": card.Name}),
		card:    card,
		adapter: adapter,
		store:   store,
		hubs:    make(map[string]*hub),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Path == "/.well-known/agent.json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.card)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := jsonrpc.Decode(body)
	if err != nil {
		writeJSONRPCError(w, nil, jsonrpc.CodeParseError, err.Error())
		return
	}

	switch msg.Method {
	case "message/send":
		s.handleMessageSend(w, r, msg)
	case "message/stream":
		s.handleMessageStream(w, r, msg)
	case "tasks/get":
		s.handleTasksGet(w, msg)
	case "tasks/cancel":
		s.handleTasksCancel(w, msg)
	case "tasks/resubscribe":
		s.handleTasksResubscribe(w, r, msg)
	default:
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeMethodNotFound, fmt.Sprintf("unknown method %q", msg.Method))
	}
}

type sendParams struct {
	Message       a2atypes.Message `json:"message"`
	Configuration map[string]any   `json:"configuration"`
}

func (s *Server) handleMessageSend(w http.ResponseWriter, r *http.Request, msg *jsonrpc.Message) {
	var params sendParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInvalidParams, err.Error())
		return
	}

	task, h := s.prepareTask(params.Message)

	var finalMsg a2atypes.Message
	var haveMsg bool
	emit := func(e Event) {
		s.applyEvent(task, e)
		if h != nil {
			h.publish(e)
		}
		if e.Kind == EventMessage {
			finalMsg = e.Message
			haveMsg = true
		}
	}

	if err := s.adapter.Handle(r.Context(), params.Message, params.Configuration, emit); err != nil {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInternalError, err.Error())
		return
	}

	if task != nil {
		current, _ := s.store.Get(task.ID)
		writeJSONRPCResult(w, msg.ID, current)
		return
	}
	if !haveMsg {
		finalMsg = a2atypes.Message{Role: a2atypes.RoleAgent, MessageID: uuid.NewString()}
	}
	writeJSONRPCResult(w, msg.ID, finalMsg)
}

func (s *Server) handleMessageStream(w http.ResponseWriter, r *http.Request, msg *jsonrpc.Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInternalError, "streaming unsupported")
		return
	}
	var params sendParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInvalidParams, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	task, h := s.prepareTask(params.Message)

	emit := func(e Event) {
		s.applyEvent(task, e)
		if h != nil {
			h.publish(e)
		}
		writeSSEEvent(w, msg.ID, e)
		flusher.Flush()
	}

	if err := s.adapter.Handle(r.Context(), params.Message, params.Configuration, emit); err != nil {
		s.log.Warn("adapter handle failed mid-stream", map[string]any{"error": err.Error()})
	}
}

// prepareTask registers a Task in the store (per spec.md §4.6: "for task
// shape the server registers the task in the Task Store before
// dispatching to the adapter") when the adapter declares ShapeTask, and
// returns the task's event hub. For ShapeMessage it returns (nil, nil).
func (s *Server) prepareTask(in a2atypes.Message) (*a2atypes.Task, *hub) {
	if s.adapter.ResponseShape() != ShapeTask {
		return nil, nil
	}
	contextID := in.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}
	taskID := in.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	task := &a2atypes.Task{
		ID:        taskID,
		ContextID: contextID,
		Status:    a2atypes.TaskStatus{State: a2atypes.TaskSubmitted, Timestamp: time.Now().Unix()},
	}
	s.store.Add(task)

	s.mu.Lock()
	h := newHub()
	s.hubs[taskID] = h
	s.mu.Unlock()

	return task, h
}

func (s *Server) applyEvent(task *a2atypes.Task, e Event) {
	if task == nil {
		return
	}
	switch e.Kind {
	case EventStatusUpdate:
		_, _ = s.store.UpdateStatus(task.ID, e.Status)
	case EventArtifactUpdate:
		_, _ = s.store.AppendArtifact(task.ID, e.Artifact)
	}
}

func (s *Server) handleTasksGet(w http.ResponseWriter, msg *jsonrpc.Message) {
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInvalidParams, err.Error())
		return
	}
	task, ok := s.store.Get(params.ID)
	if !ok {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInvalidParams, "task not found")
		return
	}
	writeJSONRPCResult(w, msg.ID, task)
}

func (s *Server) handleTasksCancel(w http.ResponseWriter, msg *jsonrpc.Message) {
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInvalidParams, err.Error())
		return
	}
	task, err := s.store.UpdateStatus(params.ID, a2atypes.TaskStatus{State: a2atypes.TaskCanceled, Timestamp: time.Now().Unix()})
	if err != nil && err != a2atypes.ErrTerminalTask {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInvalidParams, err.Error())
		return
	}
	s.mu.Lock()
	if h, ok := s.hubs[params.ID]; ok {
		h.publish(StatusUpdateEvent(params.ID, task.ContextID, task.Status, true))
		h.closeAll()
		delete(s.hubs, params.ID)
	}
	s.mu.Unlock()
	writeJSONRPCResult(w, msg.ID, task)
}

// handleTasksResubscribe streams only events published from the moment
// of subscription onward (live-only; see DESIGN.md Open Question
// decision), terminating once the task reaches a terminal state or the
// hub closes.
func (s *Server) handleTasksResubscribe(w http.ResponseWriter, r *http.Request, msg *jsonrpc.Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInternalError, "streaming unsupported")
		return
	}
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInvalidParams, err.Error())
		return
	}

	s.mu.Lock()
	h, ok := s.hubs[params.ID]
	s.mu.Unlock()
	if !ok {
		writeJSONRPCError(w, msg.ID, jsonrpc.CodeInvalidParams, "task not found or already finished")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	ch, cancel := h.subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, msg.ID, e)
			flusher.Flush()
			if e.Final {
				return
			}
		}
	}
}

func writeJSONRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	resp, err := jsonrpc.NewResultResponse(id, result)
	if err != nil {
		writeJSONRPCError(w, id, jsonrpc.CodeInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeJSONRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(id, code, message, nil))
}

func writeSSEEvent(w http.ResponseWriter, id json.RawMessage, e Event) {
	resp, err := jsonrpc.NewResultResponse(id, e)
	if err != nil {
		return
	}
	data, err := jsonrpc.Encode(resp)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

