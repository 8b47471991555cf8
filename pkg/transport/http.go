package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/authprovider"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
)

// DefaultSSEIdleTimeout is how long a Streamable HTTP client waits for the
// next SSE event before treating the stream as stalled (spec.md §4.2).
const DefaultSSEIdleTimeout = 600 * time.Second

// HTTPTransport implements the MCP/A2A "Streamable HTTP" transport: each
// outbound message is POSTed to a single endpoint; the response is either
// a plain JSON body (one reply) or a `text/event-stream` body (zero or
// more JSON-bearing SSE events, including server-initiated notifications).
type HTTPTransport struct {
	log    *logger.Logger
	client *http.Client
	url    string
	header http.Header
	auth   authprovider.Provider

	idleTimeout time.Duration

	inbound chan []byte
	errCh   chan error
	closed  chan struct{}
	once    sync.Once
}

// NewHTTPTransport constructs a client-side Streamable HTTP transport
// against url, sending header plus auth's credentials on every request.
// auth may be nil for servers that require no authentication. Unlike a
// one-shot snapshot of auth.Headers at construction time, auth is
// consulted again on every request so a refreshed credential (spec.md
// §4.3: a 401 triggers one refresh-and-retry) is actually picked up.
func NewHTTPTransport(log *logger.Logger, url string, header http.Header, auth authprovider.Provider, idleTimeout time.Duration) *HTTPTransport {
	if log == nil {
		log = logger.Nop()
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultSSEIdleTimeout
	}
	if header == nil {
		header = make(http.Header)
	}
	return &HTTPTransport{
		log:         log.With("http-transport", map[string]any{"url": url}),
		client:      &http.Client{},
		url:         url,
		header:      header,
		auth:        auth,
		idleTimeout: idleTimeout,
		inbound:     make(chan []byte, 16),
		errCh:       make(chan error, 1),
		closed:      make(chan struct{}),
	}
}

func (t *HTTPTransport) newRequest(ctx context.Context, data []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return nil, agenterrors.New(agenterrors.KindTransport, "http-request", err)
	}
	req.Header = t.header.Clone()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if t.auth != nil {
		authHeaders, err := t.auth.Headers(ctx)
		if err != nil {
			return nil, err
		}
		for k, v := range authHeaders {
			req.Header.Set(k, v)
		}
	}
	return req, nil
}

func (t *HTTPTransport) doOnce(ctx context.Context, data []byte) (*http.Response, error) {
	req, err := t.newRequest(ctx, data)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, agenterrors.New(agenterrors.KindTransport, "http-do", err)
	}
	return resp, nil
}

// Send POSTs data to the configured endpoint. A 401 response triggers one
// auth.Refresh and one retried request (spec.md §4.3); continued failure
// past that fails with AuthExpired. If the response is JSON, it is
// delivered as a single inbound message; if it is an SSE stream, Send
// returns as soon as the stream is open and a background reader delivers
// each `data:` event as it arrives. The idleTimeout applies to Receive,
// which fails once no message arrives within it.
func (t *HTTPTransport) Send(ctx context.Context, data []byte) error {
	resp, err := t.doOnce(ctx, data)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && t.auth != nil {
		resp.Body.Close()
		if refreshErr := t.auth.Refresh(ctx); refreshErr != nil {
			return agenterrors.AuthExpired(refreshErr)
		}
		resp, err = t.doOnce(ctx, data)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			return agenterrors.AuthExpired(fmt.Errorf("still unauthorized after refresh"))
		}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch mediaType {
	case "text/event-stream":
		go t.consumeSSE(resp.Body)
		return nil
	default:
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return agenterrors.New(agenterrors.KindTransport, "http-read-body", err)
		}
		if resp.StatusCode >= 400 {
			return agenterrors.New(agenterrors.KindTransport, "http-status", fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
		}
		select {
		case t.inbound <- body:
		case <-t.closed:
		}
		return nil
	}
}

func (t *HTTPTransport) consumeSSE(body io.ReadCloser) {
	defer body.Close()
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var dataLines []string
	flush := func() {
		if len(dataLines) == 0 {
			return
		}
		payload := strings.Join(dataLines, "\n")
		dataLines = nil
		select {
		case t.inbound <- []byte(payload):
		case <-t.closed:
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// ignore event:/id:/retry: fields; this transport only cares
			// about the JSON-RPC payload carried in `data:`.
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		select {
		case t.errCh <- agenterrors.New(agenterrors.KindTransport, "sse-read", err):
		default:
		}
	}
}

// Receive returns the next inbound message, whether it arrived as a plain
// JSON response body or an SSE event.
func (t *HTTPTransport) Receive(ctx context.Context) ([]byte, error) {
	timer := time.NewTimer(t.idleTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-t.inbound:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case err := <-t.errCh:
		return nil, err
	case <-timer.C:
		return nil, agenterrors.New(agenterrors.KindTimeout, "sse-idle", fmt.Errorf("no event within %s", t.idleTimeout))
	case <-t.closed:
		return nil, io.EOF
	}
}

// Close stops delivering further inbound messages.
func (t *HTTPTransport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}
