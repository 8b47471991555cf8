package authprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOAuthDiscoveryDynamicRegistrationScenario mirrors spec.md's S3
// end-to-end scenario: server metadata advertises registration_endpoint
// and scopes_supported=["profile","email"]; configured scope "mcp" isn't
// supported, so "profile email" is selected and reused unchanged at
// registration, authorization, and token exchange.
func TestOAuthDiscoveryDynamicRegistrationScenario(t *testing.T) {
	var registrationBody map[string]any
	var tokenForm url.Values
	var srv *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"issuer":                            "http://example.test",
			"authorization_endpoint":            "http://example.test/authorize",
			"token_endpoint":                    srv.URL + "/token",
			"registration_endpoint":             srv.URL + "/register",
			"scopes_supported":                  []string{"profile", "email"},
			"code_challenge_methods_supported":  []string{"S256"},
		})
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&registrationBody))
		json.NewEncoder(w).Encode(map[string]any{
			"client_id":     "generated-client-id",
			"client_secret": "generated-client-secret",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		tokenForm = r.Form
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-xyz",
			"refresh_token": "refresh-xyz",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	p := NewOAuthDiscoveryProvider(OAuthDiscoveryConfig{
		ResourceBaseURL:              srv.URL,
		RedirectURI:                  "http://localhost/callback",
		Scope:                        "mcp",
		UseDynamicClientRegistration: true,
		ClientName:                   "swiftagentkit-test",
	})

	authURL, err := p.StartAuthorization(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "profile email", registrationBody["scope"])
	assert.Equal(t, "none", registrationBody["token_endpoint_auth_method"])

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "profile email", parsed.Query().Get("scope"))
	assert.Equal(t, "generated-client-id", parsed.Query().Get("client_id"))
	assert.Equal(t, "S256", parsed.Query().Get("code_challenge_method"))

	require.NoError(t, p.CompleteAuthorization(context.Background(), "auth-code-123"))
	assert.Equal(t, "profile email", tokenForm.Get("scope"))
	assert.Equal(t, "generated-client-id", tokenForm.Get("client_id"))

	assert.True(t, p.IsValid())
	headers, err := p.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-xyz", headers["Authorization"])
}

func TestOAuthDiscoveryRetriesWithoutScopeOnInvalidScope(t *testing.T) {
	attempts := 0
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"authorization_endpoint": "http://example.test/authorize",
			"token_endpoint":         srv.URL + "/token",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		require.NoError(t, r.ParseForm())
		if r.Form.Get("scope") != "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": "invalid_scope"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "ok-token", "expires_in": 60})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	p := NewOAuthDiscoveryProvider(OAuthDiscoveryConfig{
		ResourceBaseURL: srv.URL,
		RedirectURI:     "http://localhost/callback",
		ClientID:        "preset-client",
	})
	_, err := p.StartAuthorization(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.CompleteAuthorization(context.Background(), "code"))
	assert.Equal(t, 2, attempts)
	assert.True(t, p.IsValid())
}

func TestOAuthDiscoveryFallsBackToOpenIDConfiguration(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"authorization_endpoint": "http://example.test/authorize",
			"token_endpoint":         "http://example.test/token",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	meta, err := DiscoverMetadata(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(meta.AuthorizationEndpoint, "/authorize"))
}

func TestEffectiveClientIDNeverSubstitutesWhenUserProvidedAndNoRegistration(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"authorization_endpoint": "http://example.test/authorize",
			"token_endpoint":         "http://example.test/token",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewOAuthDiscoveryProvider(OAuthDiscoveryConfig{
		ResourceBaseURL:              srv.URL,
		RedirectURI:                  "http://localhost/callback",
		ClientID:                     "user-supplied-id",
		UseDynamicClientRegistration: false,
	})
	authURL, err := p.StartAuthorization(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "user-supplied-id", parsed.Query().Get("client_id"))
}
