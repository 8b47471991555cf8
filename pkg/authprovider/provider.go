// Package authprovider implements the authentication schemes MCP remote
// servers authenticate with (spec.md §4.5): static Bearer/Basic/APIKey
// headers, direct OAuth token use with refresh, and the full OAuth 2.1
// discovery flow (RFC 8414 metadata discovery, RFC 7591 dynamic client
// registration, PKCE).
package authprovider

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// Provider is the common contract every auth scheme implements.
type Provider interface {
	// Headers returns the headers to attach to an outbound request,
	// refreshing credentials first if needed.
	Headers(ctx context.Context) (map[string]string, error)
	// IsValid reports whether the provider currently holds usable
	// credentials without making any network call.
	IsValid() bool
	// Refresh renews credentials; a no-op for static schemes.
	Refresh(ctx context.Context) error
}

// BearerProvider attaches a static bearer token.
type BearerProvider struct {
	Token string
}

func (p *BearerProvider) Headers(ctx context.Context) (map[string]string, error) {
	return map[string]string{"Authorization": "Bearer " + p.Token}, nil
}
func (p *BearerProvider) IsValid() bool            { return p.Token != "" }
func (p *BearerProvider) Refresh(ctx context.Context) error { return nil }

// BasicProvider attaches HTTP Basic credentials.
type BasicProvider struct {
	Username string
	Password string
}

func (p *BasicProvider) Headers(ctx context.Context) (map[string]string, error) {
	raw := p.Username + ":" + p.Password
	return map[string]string{"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))}, nil
}
func (p *BasicProvider) IsValid() bool            { return p.Username != "" }
func (p *BasicProvider) Refresh(ctx context.Context) error { return nil }

// APIKeyProvider attaches a configurable header, optionally with a value
// prefix (e.g. "Bearer ", "ApiKey ").
type APIKeyProvider struct {
	HeaderName string
	Prefix     string
	Key        string
}

func (p *APIKeyProvider) Headers(ctx context.Context) (map[string]string, error) {
	name := p.HeaderName
	if name == "" {
		name = "X-API-Key"
	}
	return map[string]string{name: p.Prefix + p.Key}, nil
}
func (p *APIKeyProvider) IsValid() bool            { return p.Key != "" }
func (p *APIKeyProvider) Refresh(ctx context.Context) error { return nil }

// oauthState is the shared mutable token state (spec.md §3 "OAuth
// state"), guarded by a mutex since Headers/Refresh may race across
// concurrent requests on the same provider.
type oauthState struct {
	mu sync.Mutex

	clientID               string
	clientSecret           string
	registeredClientID      string
	registeredClientSecret  string
	accessToken            string
	refreshToken           string
	expiresAt              time.Time
	scope                  string
	codeVerifier           string
}

// effectiveClientID implements spec.md §4.5's rule: "registeredClientId ??
// providedClientId" — never silently substitute a hard-coded fallback.
func (s *oauthState) effectiveClientID() string {
	if s.registeredClientID != "" {
		return s.registeredClientID
	}
	return s.clientID
}

func (s *oauthState) effectiveClientSecret() string {
	if s.registeredClientSecret != "" {
		return s.registeredClientSecret
	}
	return s.clientSecret
}

func (s *oauthState) needsRefresh() bool {
	if s.expiresAt.IsZero() {
		return false
	}
	return time.Now().Add(30 * time.Second).After(s.expiresAt)
}

func (s *oauthState) String() string {
	return fmt.Sprintf("oauthState{clientID=%s, scope=%s, expiresAt=%s}", s.effectiveClientID(), s.scope, s.expiresAt)
}
