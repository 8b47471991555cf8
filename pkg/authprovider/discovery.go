package authprovider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

// ServerMetadata is the RFC 8414 subset SwiftAgentKit needs (spec.md §3).
type ServerMetadata struct {
	Issuer                        string
	AuthorizationEndpoint         string
	TokenEndpoint                 string
	RegistrationEndpoint          string
	ScopesSupported               []string
	CodeChallengeMethodsSupported []string
}

// DiscoverMetadata fetches authorization server metadata for
// resourceBaseURL: first RFC 8414 oauth-authorization-server, falling
// back to OIDC's openid-configuration (spec.md §4.5 step 1).
func DiscoverMetadata(ctx context.Context, client *http.Client, resourceBaseURL string) (*ServerMetadata, error) {
	base := strings.TrimRight(resourceBaseURL, "/")
	meta, err := fetchMetadata(ctx, client, base+"/.well-known/oauth-authorization-server")
	if err == nil {
		return meta, nil
	}
	meta, err2 := fetchMetadata(ctx, client, base+"/.well-known/openid-configuration")
	if err2 == nil {
		return meta, nil
	}
	return nil, agenterrors.DiscoveryFailed(err)
}

func fetchMetadata(ctx context.Context, client *http.Client, url string) (*ServerMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, agenterrors.New(agenterrors.KindAuth, "discovery-status", fmt.Errorf("status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	doc := gjson.ParseBytes(body)
	meta := &ServerMetadata{
		Issuer:                strFromSnake(doc, "issuer"),
		AuthorizationEndpoint: strFromSnake(doc, "authorization_endpoint"),
		TokenEndpoint:         strFromSnake(doc, "token_endpoint"),
		RegistrationEndpoint:  strFromSnake(doc, "registration_endpoint"),
	}
	for _, s := range doc.Get("scopes_supported").Array() {
		meta.ScopesSupported = append(meta.ScopesSupported, s.String())
	}
	for _, m := range doc.Get("code_challenge_methods_supported").Array() {
		meta.CodeChallengeMethodsSupported = append(meta.CodeChallengeMethodsSupported, m.String())
	}
	if meta.AuthorizationEndpoint == "" || meta.TokenEndpoint == "" {
		return nil, agenterrors.New(agenterrors.KindAuth, "discovery-incomplete", errIncompleteMetadata)
	}
	return meta, nil
}

func strFromSnake(doc gjson.Result, key string) string {
	return doc.Get(key).String()
}

var errIncompleteMetadata = errors.New("authorization server metadata missing required endpoints")
