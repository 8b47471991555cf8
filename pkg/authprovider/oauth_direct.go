package authprovider

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

// OAuthDirectConfig configures OAuthDirectProvider at construction.
type OAuthDirectConfig struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	TokenEndpoint string
	ExpiresAt    time.Time
}

// OAuthDirectProvider uses a pre-provisioned access token and, on
// refresh, exchanges the refresh token at tokenEndpoint (spec.md §4.5
// "OAuth (direct)").
type OAuthDirectProvider struct {
	state *oauthState
	ep    string
	http  *http.Client
}

func NewOAuthDirectProvider(cfg OAuthDirectConfig) *OAuthDirectProvider {
	return &OAuthDirectProvider{
		state: &oauthState{
			clientID:     cfg.ClientID,
			clientSecret: cfg.ClientSecret,
			accessToken:  cfg.AccessToken,
			refreshToken: cfg.RefreshToken,
			expiresAt:    cfg.ExpiresAt,
		},
		ep:   cfg.TokenEndpoint,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *OAuthDirectProvider) Headers(ctx context.Context) (map[string]string, error) {
	p.state.mu.Lock()
	needsRefresh := p.state.needsRefresh()
	p.state.mu.Unlock()
	if needsRefresh {
		if err := p.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	p.state.mu.Lock()
	token := p.state.accessToken
	p.state.mu.Unlock()
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

func (p *OAuthDirectProvider) IsValid() bool {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	return p.state.accessToken != "" && !p.state.needsRefresh()
}

func (p *OAuthDirectProvider) Refresh(ctx context.Context) error {
	p.state.mu.Lock()
	refreshToken := p.state.refreshToken
	clientID := p.state.effectiveClientID()
	clientSecret := p.state.effectiveClientSecret()
	p.state.mu.Unlock()

	if refreshToken == "" {
		return agenterrors.AuthExpired(nil)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}
	if clientSecret != "" {
		form.Set("client_secret", clientSecret)
	}

	tok, err := postTokenRequest(ctx, p.http, p.ep, form)
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

// tokenResponse is the RFC 6749 token endpoint response shape, shared by
// both the direct and discovery providers.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// postTokenRequest posts form-encoded body to the token endpoint and
// decodes the JSON response. A single retry with jittered backoff is
// attempted on a 5xx, per the recommended policy in spec.md §9 Open
// Questions; any other failure is returned immediately.
func postTokenRequest(ctx context.Context, client *http.Client, endpoint string, form url.Values) (*tokenResponse, error) {
	tok, status, err := doTokenRequest(ctx, client, endpoint, form)
	if err == nil {
		return tok, nil
	}
	if status < 500 {
		return nil, err
	}
	time.Sleep(jitteredBackoff())
	tok, _, err = doTokenRequest(ctx, client, endpoint, form)
	return tok, err
}

func jitteredBackoff() time.Duration {
	return 250*time.Millisecond + time.Duration(rand.Int63n(int64(250*time.Millisecond)))
}

func doTokenRequest(ctx context.Context, client *http.Client, endpoint string, form url.Values) (*tokenResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := decodeJSONBody(resp.Body, &tok); err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode >= 400 || tok.Error != "" {
		msg := tok.ErrorDescription
		if msg == "" {
			msg = tok.Error
		}
		if msg == "" {
			msg = "status " + strconv.Itoa(resp.StatusCode)
		}
		return nil, resp.StatusCode, &tokenEndpointError{status: resp.StatusCode, code: tok.Error, message: msg}
	}
	return &tok, resp.StatusCode, nil
}

type tokenEndpointError struct {
	status  int
	code    string
	message string
}

func (e *tokenEndpointError) Error() string {
	return e.message
}
