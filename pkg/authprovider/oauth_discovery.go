package authprovider

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

// OAuthDiscoveryConfig configures the full OAuth 2.1 discovery flow
// (spec.md §4.5 "OAuth Discovery").
type OAuthDiscoveryConfig struct {
	ResourceBaseURL string
	// ClientID is the user-provided client id, used only if dynamic
	// registration is disabled or does not return one (the
	// effectiveClientID rule, spec.md §4.5).
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RedirectURIs []string
	// Scope is the user-configured scope, if any; "" means let
	// SelectScope choose.
	Scope                        string
	UseDynamicClientRegistration bool
	ClientName                   string
}

// OAuthDiscoveryProvider implements the hard path of spec.md §4.5: RFC
// 8414 metadata discovery, optional RFC 7591 dynamic registration, PKCE,
// and the authorization-code/token-exchange dance. The core never hosts a
// browser; StartAuthorization returns a URL for the caller to open
// out-of-band, and CompleteAuthorization consumes the redirect's code.
type OAuthDiscoveryProvider struct {
	cfg  OAuthDiscoveryConfig
	http *http.Client

	state *oauthState
	meta  *ServerMetadata

	authorizationURL string
}

func NewOAuthDiscoveryProvider(cfg OAuthDiscoveryConfig) *OAuthDiscoveryProvider {
	return &OAuthDiscoveryProvider{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		state: &oauthState{
			clientID:     cfg.ClientID,
			clientSecret: cfg.ClientSecret,
			scope:        cfg.Scope,
		},
	}
}

// StartAuthorization runs discovery, optional dynamic registration, and
// PKCE generation, then returns the authorization URL to present to the
// user out-of-band.
func (p *OAuthDiscoveryProvider) StartAuthorization(ctx context.Context) (string, error) {
	meta, err := DiscoverMetadata(ctx, p.http, p.cfg.ResourceBaseURL)
	if err != nil {
		return "", err
	}
	p.meta = meta

	scope := SelectScope(p.cfg.Scope, meta.ScopesSupported)

	if p.cfg.UseDynamicClientRegistration && meta.RegistrationEndpoint != "" {
		redirectURIs := p.cfg.RedirectURIs
		if len(redirectURIs) == 0 && p.cfg.RedirectURI != "" {
			redirectURIs = []string{p.cfg.RedirectURI}
		}
		result, err := RegisterClient(ctx, p.http, meta.RegistrationEndpoint, RegistrationRequest{
			RedirectURIs: redirectURIs,
			Scope:        scope,
			ClientName:   p.cfg.ClientName,
		})
		if err != nil {
			return "", err
		}
		p.state.mu.Lock()
		p.state.registeredClientID = result.ClientID
		p.state.registeredClientSecret = result.ClientSecret
		p.state.mu.Unlock()
	}

	verifier, challenge, err := GeneratePKCE()
	if err != nil {
		return "", agenterrors.New(agenterrors.KindAuth, "pkce", err)
	}

	p.state.mu.Lock()
	p.state.scope = scope
	p.state.codeVerifier = verifier
	clientID := p.state.effectiveClientID()
	p.state.mu.Unlock()

	q := url.Values{
		"client_id":             {clientID},
		"redirect_uri":          {p.cfg.RedirectURI},
		"response_type":         {"code"},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
		"scope":                 {scope},
		"resource":              {p.cfg.ResourceBaseURL},
	}
	authURL := meta.AuthorizationEndpoint + "?" + q.Encode()
	p.authorizationURL = authURL
	return authURL, nil
}

// AuthorizationURL returns the URL from the most recent StartAuthorization
// call, or "" if none has run yet.
func (p *OAuthDiscoveryProvider) AuthorizationURL() string { return p.authorizationURL }

// CompleteAuthorization exchanges an authorization code (obtained by the
// caller from the redirect after the user visited AuthorizationURL) for
// tokens (spec.md §4.5 step 5). If the server rejects the configured
// scope with invalid_scope, it retries once with scope omitted.
func (p *OAuthDiscoveryProvider) CompleteAuthorization(ctx context.Context, code string) error {
	if p.meta == nil {
		return agenterrors.New(agenterrors.KindAuth, "complete-authorization", errNoAuthorizationInFlight)
	}

	p.state.mu.Lock()
	clientID := p.state.effectiveClientID()
	verifier := p.state.codeVerifier
	scope := p.state.scope
	p.state.mu.Unlock()

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {p.cfg.RedirectURI},
		"client_id":     {clientID},
		"code_verifier": {verifier},
		"scope":         {scope},
		"resource":      {p.cfg.ResourceBaseURL},
	}

	tok, err := postTokenRequest(ctx, p.http, p.meta.TokenEndpoint, form)
	if err != nil {
		if tee, ok := err.(*tokenEndpointError); ok && tee.code == "invalid_scope" {
			form.Del("scope")
			tok, err = postTokenRequest(ctx, p.http, p.meta.TokenEndpoint, form)
			if err != nil {
				return agenterrors.InvalidScope(err)
			}
		} else {
			return agenterrors.TokenExchangeFailed(err)
		}
	}

	p.state.mu.Lock()
	p.state.accessToken = tok.AccessToken
	p.state.refreshToken = tok.RefreshToken
	if tok.ExpiresIn > 0 {
		p.state.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	p.state.mu.Unlock()
	return nil
}

func (p *OAuthDiscoveryProvider) Headers(ctx context.Context) (map[string]string, error) {
	p.state.mu.Lock()
	token := p.state.accessToken
	needsRefresh := p.state.needsRefresh()
	p.state.mu.Unlock()

	if token == "" {
		return nil, agenterrors.AuthorizationPending()
	}
	if needsRefresh {
		if err := p.Refresh(ctx); err != nil {
			return nil, err
		}
		p.state.mu.Lock()
		token = p.state.accessToken
		p.state.mu.Unlock()
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

func (p *OAuthDiscoveryProvider) IsValid() bool {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	return p.state.accessToken != "" && !p.state.needsRefresh()
}

// Refresh exchanges the stored refresh token at the discovered token
// endpoint (spec.md §4.5 step 6: "Refresh on 401 or expiry minus 30s
// skew").
func (p *OAuthDiscoveryProvider) Refresh(ctx context.Context) error {
	if p.meta == nil {
		return agenterrors.AuthExpired(errNoAuthorizationInFlight)
	}
	p.state.mu.Lock()
	refreshToken := p.state.refreshToken
	clientID := p.state.effectiveClientID()
	scope := p.state.scope
	p.state.mu.Unlock()

	if refreshToken == "" {
		return agenterrors.AuthExpired(nil)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
		"scope":         {scope},
	}
	tok, err := postTokenRequest(ctx, p.http, p.meta.TokenEndpoint, form)
	if err != nil {
		return agenterrors.TokenExchangeFailed(err)
	}
	p.state.mu.Lock()
	p.state.accessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		p.state.refreshToken = tok.RefreshToken
	}
	if tok.ExpiresIn > 0 {
		p.state.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	p.state.mu.Unlock()
	return nil
}

var errNoAuthorizationInFlight = agenterrors.New(agenterrors.KindAuth, "no-authorization-in-flight", nil)
