package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/jsonrpc"
	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
	"github.com/swiftagentkit/agentkit-go/pkg/transport"
)

// DefaultConnectionTimeout is how long Connect waits for the initialize
// response before failing (spec.md §4.3).
const DefaultConnectionTimeout = 15 * time.Second

// DefaultRequestTimeout bounds an individual RPC once the client is
// operational.
const DefaultRequestTimeout = 30 * time.Second

type pendingCall struct {
	resp chan *jsonrpc.Message
}

// Client speaks MCP over any pkg/transport.Transport: initialize
// handshake, tool/resource listing and invocation, and notification
// callbacks. One Client owns exactly one transport for its lifetime.
type Client struct {
	log  *logger.Logger
	info ClientInfo

	connectionTimeout time.Duration
	requestTimeout    time.Duration

	tr transport.Transport

	mu    sync.Mutex
	state State

	ids     jsonrpc.IDAllocator
	pending map[string]*pendingCall

	toolsCached   []ToolDescriptor
	toolsValid    bool
	serverCaps    Capabilities
	notifyHandler NotificationHandler

	readDone chan struct{}
	readErr  error
}

// Option configures a Client at construction.
type Option func(*Client)

func WithConnectionTimeout(d time.Duration) Option { return func(c *Client) { c.connectionTimeout = d } }
func WithRequestTimeout(d time.Duration) Option    { return func(c *Client) { c.requestTimeout = d } }
func WithNotificationHandler(h NotificationHandler) Option {
	return func(c *Client) { c.notifyHandler = h }
}

// NewClient constructs a disconnected Client bound to tr.
func NewClient(log *logger.Logger, info ClientInfo, tr transport.Transport, opts ...Option) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		log:               log.With("mcp-client", map[string]any{"client": info.Name}),
		info:              info,
		tr:                tr,
		connectionTimeout: DefaultConnectionTimeout,
		requestTimeout:    DefaultRequestTimeout,
		state:             StateDisconnected,
		pending:           make(map[string]*pendingCall),
		readDone:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Connect performs the initialize handshake and transitions the client
// to operational. It fails with ConnectionTimeout if the server does not
// respond within connectionTimeout, and transitions to failed in that case
// (spec.md §4.3: "If the remote never responds to initialize, the client
// transitions to failed").
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)
	go c.readLoop()

	params := map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": c.info.Name, "version": c.info.Version},
	}

	connectCtx, cancel := context.WithTimeout(ctx, c.connectionTimeout)
	defer cancel()

	result, err := c.call(connectCtx, "initialize", params)
	if err != nil {
		c.setState(StateFailed)
		if connectCtx.Err() != nil {
			return agenterrors.ConnectionTimeout(err)
		}
		return err
	}

	var init InitializeResult
	if err := json.Unmarshal(result, &init); err != nil {
		c.setState(StateFailed)
		return agenterrors.MalformedEnvelope(err)
	}
	c.mu.Lock()
	c.serverCaps = init.Capabilities
	c.mu.Unlock()
	c.setState(StateInitialized)

	if err := c.notify(ctx, "notifications/initialized", nil); err != nil {
		c.log.Warn("failed to send initialized notification", map[string]any{"error": err.Error()})
	}
	c.setState(StateOperational)
	return nil
}

// call issues a request and blocks for its matching response.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.ids.Next()
	req, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		return nil, agenterrors.New(agenterrors.KindProtocol, method, err)
	}
	data, err := jsonrpc.Encode(req)
	if err != nil {
		return nil, agenterrors.New(agenterrors.KindProtocol, method, err)
	}

	pc := &pendingCall{resp: make(chan *jsonrpc.Message, 1)}
	key := string(id)
	c.mu.Lock()
	c.pending[key] = pc
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()

	if err := c.tr.Send(ctx, data); err != nil {
		return nil, translateTransportErr(err)
	}

	select {
	case <-ctx.Done():
		if ctx.Err() != nil {
			return nil, agenterrors.New(agenterrors.KindCancelled, method, ctx.Err())
		}
		return nil, agenterrors.ErrCancelled
	case resp := <-pc.resp:
		if resp == nil {
			return nil, agenterrors.ProcessTerminated(fmt.Errorf("connection closed awaiting %s", method))
		}
		if resp.Error != nil {
			return nil, agenterrors.New(agenterrors.KindProtocol, method, resp.Error)
		}
		return resp.Result, nil
	case <-c.readDone:
		if c.readErr != nil {
			return nil, c.readErr
		}
		return nil, agenterrors.ProcessTerminated(fmt.Errorf("connection closed awaiting %s", method))
	}
}

func (c *Client) notify(ctx context.Context, method string, params any) error {
	msg, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return agenterrors.New(agenterrors.KindProtocol, method, err)
	}
	data, err := jsonrpc.Encode(msg)
	if err != nil {
		return agenterrors.New(agenterrors.KindProtocol, method, err)
	}
	if err := c.tr.Send(ctx, data); err != nil {
		return translateTransportErr(err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	ctx := context.Background()
	for {
		data, err := c.tr.Receive(ctx)
		if err != nil {
			if err == io.EOF {
				c.readErr = nil
			} else {
				c.readErr = translateTransportErr(err)
			}
			c.failAllPending()
			return
		}
		msg, err := jsonrpc.Decode(data)
		if err != nil {
			c.log.Warn("dropping malformed message", map[string]any{"error": err.Error()})
			continue
		}
		c.dispatchInbound(msg)
	}
}

func (c *Client) dispatchInbound(msg *jsonrpc.Message) {
	if msg.IsNotification() {
		c.handleNotification(msg)
		return
	}
	key := string(msg.ID)
	c.mu.Lock()
	pc, ok := c.pending[key]
	c.mu.Unlock()
	if !ok {
		return
	}
	pc.resp <- msg
}

func (c *Client) handleNotification(msg *jsonrpc.Message) {
	switch msg.Method {
	case "notifications/tools/list_changed":
		c.mu.Lock()
		c.toolsValid = false
		c.mu.Unlock()
	case "notifications/resources/updated":
	}
	if c.notifyHandler != nil {
		c.notifyHandler(msg.Method, msg.Params)
	}
}

func (c *Client) failAllPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, pc := range c.pending {
		close(pc.resp)
		delete(c.pending, key)
	}
}

// Tools returns the cached tool list, issuing tools/list on first call or
// after an intervening tools/list_changed notification invalidated the
// cache (spec.md §4.3, testable property: "two tools/list calls without
// an intervening list_changed notification return equal lists").
func (c *Client) Tools(ctx context.Context) ([]ToolDescriptor, error) {
	c.mu.Lock()
	if c.toolsValid {
		cached := c.toolsCached
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	result, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var out ToolsListResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, agenterrors.MalformedEnvelope(err)
	}
	c.mu.Lock()
	c.toolsCached = out.Tools
	c.toolsValid = true
	c.mu.Unlock()
	return out.Tools, nil
}

// CallTool issues tools/call and resolves any file:// resource content
// items by reading the referenced file and attaching it as metadata.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) ([]Content, error) {
	params := ToolCallParams{Name: name, Arguments: jsonvalue.FromMap(arguments)}
	result, err := c.call(ctx, "tools/call", params)
	if err != nil {
		return nil, err
	}
	var out ToolCallResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, agenterrors.MalformedEnvelope(err)
	}
	if out.IsError {
		return nil, agenterrors.New(agenterrors.KindTool, name, fmt.Errorf("tool reported an error"))
	}
	for i := range out.Content {
		item := &out.Content[i]
		if item.Kind == ContentResource && strings.HasPrefix(item.URI, "file://") {
			path := strings.TrimPrefix(item.URI, "file://")
			data, readErr := os.ReadFile(path)
			if readErr == nil {
				item.ResourceText = string(data)
			}
		}
	}
	return out.Content, nil
}

// Resources issues resources/list.
func (c *Client) Resources(ctx context.Context) ([]ResourceDescriptor, error) {
	result, err := c.call(ctx, "resources/list", nil)
	if err != nil {
		return nil, err
	}
	var out ResourcesListResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, agenterrors.MalformedEnvelope(err)
	}
	return out.Resources, nil
}

// ReadResource issues resources/read for uri.
func (c *Client) ReadResource(ctx context.Context, uri string) ([]ResourceContents, error) {
	result, err := c.call(ctx, "resources/read", ReadResourceParams{URI: uri})
	if err != nil {
		return nil, err
	}
	var out ReadResourceResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, agenterrors.MalformedEnvelope(err)
	}
	return out.Contents, nil
}

// Subscribe issues resources/subscribe for uri.
func (c *Client) Subscribe(ctx context.Context, uri string) error {
	_, err := c.call(ctx, "resources/subscribe", SubscribeParams{URI: uri})
	return err
}

// Unsubscribe issues resources/unsubscribe for uri.
func (c *Client) Unsubscribe(ctx context.Context, uri string) error {
	_, err := c.call(ctx, "resources/unsubscribe", SubscribeParams{URI: uri})
	return err
}

// Close transitions to shuttingDown and closes the transport.
func (c *Client) Close() error {
	c.setState(StateShuttingDown)
	err := c.tr.Close()
	<-c.readDone
	c.setState(StateDisconnected)
	return err
}

func translateTransportErr(err error) error {
	if agErr, ok := err.(*agenterrors.Error); ok {
		return agErr
	}
	return agenterrors.PipeError(err)
}

// ClientSet resolves a tool name against multiple connected clients,
// searching in registration order and returning the first whose cached
// tool list contains the name (spec.md §4.3 tie-break policy).
type ClientSet struct {
	clients []*Client
}

func NewClientSet(clients ...*Client) *ClientSet {
	return &ClientSet{clients: clients}
}

// Resolve finds the first registered client exposing a tool named name.
func (s *ClientSet) Resolve(ctx context.Context, name string) (*Client, bool, error) {
	for _, cl := range s.clients {
		tools, err := cl.Tools(ctx)
		if err != nil {
			continue
		}
		for _, t := range tools {
			if t.Name == name {
				return cl, true, nil
			}
		}
	}
	return nil, false, nil
}
