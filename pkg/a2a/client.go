package a2a

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/swiftagentkit/agentkit-go/pkg/a2atypes"
	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/authprovider"
	"github.com/swiftagentkit/agentkit-go/pkg/jsonrpc"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
)

// Client speaks the A2A protocol to a single peer endpoint (C6, spec.md
// §4.6): JSON-RPC over HTTP POST, with SSE for the streaming methods.
type Client struct {
	log      *logger.Logger
	endpoint string
	http     *http.Client
	auth     authprovider.Provider
	ids      jsonrpc.IDAllocator
}

// ClientOption configures a Client at construction.
type ClientOption func(*Client)

func WithAuth(p authprovider.Provider) ClientOption { return func(c *Client) { c.auth = p } }
func WithHTTPClient(h *http.Client) ClientOption    { return func(c *Client) { c.http = h } }

func NewClient(log *logger.Logger, endpoint string, opts ...ClientOption) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		log:      log.With("a2a-client", map[string]any{"endpoint": endpoint}),
		endpoint: endpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendResult carries the union result of message/send: exactly one of
// Message/Task is populated, discriminated by IsTask (spec.md §4.6:
// "clients must accept both").
type SendResult struct {
	IsTask  bool
	Message a2atypes.Message
	Task    a2atypes.Task
}

func (c *Client) doRequest(ctx context.Context, method string, params any) (*http.Response, json.RawMessage, error) {
	req, err := jsonrpc.NewRequest(c.ids.Next(), method, params)
	if err != nil {
		return nil, nil, agenterrors.New(agenterrors.KindProtocol, method, err)
	}
	body, err := jsonrpc.Encode(req)
	if err != nil {
		return nil, nil, agenterrors.New(agenterrors.KindProtocol, method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, agenterrors.New(agenterrors.KindTransport, method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if c.auth != nil {
		headers, err := c.auth.Headers(ctx)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, nil, agenterrors.PipeError(err)
	}
	return resp, req.ID, nil
}

// call performs a non-streaming JSON-RPC round trip and returns the
// decoded result field.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	resp, _, err := c.doRequest(ctx, method, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && c.auth != nil {
		if refreshErr := c.auth.Refresh(ctx); refreshErr != nil {
			return nil, agenterrors.AuthExpired(refreshErr)
		}
		resp2, _, err := c.doRequest(ctx, method, params)
		if err != nil {
			return nil, err
		}
		resp = resp2
		defer resp.Body.Close()
	}

	var msg jsonrpc.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, agenterrors.New(agenterrors.KindTransport, method, err)
	}
	if msg.Error != nil {
		return nil, agenterrors.New(agenterrors.KindProtocol, method, msg.Error)
	}
	return msg.Result, nil
}

// SendMessage issues message/send.
func (c *Client) SendMessage(ctx context.Context, in a2atypes.Message, config map[string]any) (*SendResult, error) {
	result, err := c.call(ctx, "message/send", sendParams{Message: in, Configuration: config})
	if err != nil {
		return nil, err
	}
	return parseSendResult(result)
}

func parseSendResult(result json.RawMessage) (*SendResult, error) {
	var probe struct {
		ID     string `json:"id"`
		Status any    `json:"status"`
	}
	if err := json.Unmarshal(result, &probe); err != nil {
		return nil, agenterrors.MalformedEnvelope(err)
	}
	if probe.ID != "" && probe.Status != nil {
		var task a2atypes.Task
		if err := json.Unmarshal(result, &task); err != nil {
			return nil, agenterrors.MalformedEnvelope(err)
		}
		return &SendResult{IsTask: true, Task: task}, nil
	}
	var msg a2atypes.Message
	if err := json.Unmarshal(result, &msg); err != nil {
		return nil, agenterrors.MalformedEnvelope(err)
	}
	return &SendResult{Message: msg}, nil
}

// StreamMessage issues message/stream and delivers each SSE event to the
// returned channel, closed once the final event (Final==true) is
// delivered or the connection ends.
func (c *Client) StreamMessage(ctx context.Context, in a2atypes.Message, config map[string]any) (<-chan Event, error) {
	return c.openEventStream(ctx, "message/stream", sendParams{Message: in, Configuration: config})
}

// Resubscribe issues tasks/resubscribe for an existing task id.
func (c *Client) Resubscribe(ctx context.Context, taskID string) (<-chan Event, error) {
	return c.openEventStream(ctx, "tasks/resubscribe", map[string]string{"id": taskID})
}

func (c *Client) openEventStream(ctx context.Context, method string, params any) (<-chan Event, error) {
	resp, _, err := c.doRequest(ctx, method, params)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		var dataLines []string
		done := false
		flush := func() {
			if len(dataLines) == 0 {
				return
			}
			payload := strings.Join(dataLines, "\n")
			dataLines = nil
			var msg jsonrpc.Message
			if err := json.Unmarshal([]byte(payload), &msg); err != nil {
				return
			}
			var e Event
			if err := json.Unmarshal(msg.Result, &e); err != nil {
				return
			}
			select {
			case out <- e:
			case <-ctx.Done():
			}
			if e.Final {
				done = true
			}
		}
		for !done && scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				flush()
			case strings.HasPrefix(line, "data:"):
				dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}
		flush()
	}()
	return out, nil
}

// GetTask issues tasks/get.
func (c *Client) GetTask(ctx context.Context, id string) (a2atypes.Task, error) {
	result, err := c.call(ctx, "tasks/get", map[string]string{"id": id})
	if err != nil {
		return a2atypes.Task{}, err
	}
	var task a2atypes.Task
	if err := json.Unmarshal(result, &task); err != nil {
		return a2atypes.Task{}, agenterrors.MalformedEnvelope(err)
	}
	return task, nil
}

// CancelTask issues tasks/cancel.
func (c *Client) CancelTask(ctx context.Context, id string) (a2atypes.Task, error) {
	result, err := c.call(ctx, "tasks/cancel", map[string]string{"id": id})
	if err != nil {
		return a2atypes.Task{}, err
	}
	var task a2atypes.Task
	if err := json.Unmarshal(result, &task); err != nil {
		return a2atypes.Task{}, agenterrors.MalformedEnvelope(err)
	}
	return task, nil
}

// FetchAgentCard fetches GET {baseURL}/.well-known/agent.json.
func (c *Client) FetchAgentCard(ctx context.Context, baseURL string) (AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/.well-known/agent.json", nil)
	if err != nil {
		return AgentCard{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return AgentCard{}, agenterrors.PipeError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return AgentCard{}, agenterrors.New(agenterrors.KindTransport, "agent-card", fmt.Errorf("status %d", resp.StatusCode))
	}
	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return AgentCard{}, agenterrors.MalformedEnvelope(err)
	}
	return card, nil
}
