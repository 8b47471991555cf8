// Package agenterrors defines the error taxonomy shared by every
// SwiftAgentKit component: transports, MCP/A2A clients and servers, auth
// providers, the tool-aware proxy, and the orchestrator all wrap failures
// in *Error so callers can branch on Kind with errors.Is/As instead of
// string-matching messages.
package agenterrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure per the taxonomy in the error-handling design.
type Kind string

const (
	KindConfig    Kind = "config"
	KindTransport Kind = "transport"
	KindProtocol  Kind = "protocol"
	KindAuth      Kind = "auth"
	KindTool      Kind = "tool"
	KindTimeout   Kind = "timeout"
	KindCancelled Kind = "cancelled"
)

// Error is the common wrapper: a Kind, the operation that failed, and the
// underlying cause (possibly nil for sentinel-only errors).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, &Error{Kind: KindTransport}) to match any Error
// of that Kind regardless of Op/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return true
}

// New wraps err (which may be nil) as an Error of the given kind and op.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Well-known sentinel kinds for errors.Is comparisons, e.g.
// errors.Is(err, ErrCancelled).
var (
	ErrCancelled = &Error{Kind: KindCancelled}
	ErrTimeout   = &Error{Kind: KindTimeout}
)

// Specific named failure constructors referenced by spec.md §4 and §7.

func PipeError(err error) *Error            { return New(KindTransport, "pipe", err) }
func ProcessTerminated(err error) *Error    { return New(KindTransport, "process-terminated", err) }
func ConnectionTimeout(err error) *Error    { return New(KindTimeout, "connect", err) }
func AuthExpired(err error) *Error          { return New(KindAuth, "expired", err) }
func MalformedEnvelope(err error) *Error    { return New(KindProtocol, "malformed-envelope", err) }
func DiscoveryFailed(err error) *Error      { return New(KindAuth, "discovery", err) }
func RegistrationFailed(code int, body string) *Error {
	return New(KindAuth, "registration", fmt.Errorf("http %d: %s", code, body))
}
func AuthorizationPending() *Error { return New(KindAuth, "authorization-pending", nil) }
func InvalidScope(err error) *Error        { return New(KindAuth, "invalid-scope", err) }
func TokenExchangeFailed(err error) *Error { return New(KindAuth, "token-exchange", err) }

// ErrToolLoopLimit is returned when the tool-aware proxy exceeds its configured
// round limit (spec.md §4.9).
var ErrToolLoopLimit = errors.New("tool call loop limit exceeded")

// ErrProviderNotFound is returned when a tool call names a tool no
// registered ToolProvider owns.
var ErrProviderNotFound = errors.New("no tool provider registered for tool")
