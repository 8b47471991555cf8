package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/authprovider"
)

func TestBuildAuthProviderBearer(t *testing.T) {
	p, err := BuildAuthProvider("svc", RemoteServerConfig{
		AuthType:      AuthBearer,
		AuthConfigRaw: AuthConfig{Token: "tok"},
	})
	require.NoError(t, err)
	headers, err := p.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", headers["Authorization"])
}

func TestBuildAuthProviderUnknownAuthTypeIsConfigError(t *testing.T) {
	_, err := BuildAuthProvider("svc", RemoteServerConfig{AuthType: "nonsense"})
	require.Error(t, err)
}

func TestBuildAuthProviderFallsBackToEnvironmentWhenAuthTypeOmitted(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", "key123")
	p, err := BuildAuthProvider("weather", RemoteServerConfig{})
	require.NoError(t, err)
	require.NotNil(t, p)
	headers, err := p.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "key123", headers["X-API-Key"])
}

func TestBuildAuthProviderReturnsNilWhenNoAuthTypeAndNoEnvFallback(t *testing.T) {
	p, err := BuildAuthProvider("totally-unconfigured-xyz", RemoteServerConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestBuildOAuthProviderDirectRequiresClientIDAndTokenEndpoint(t *testing.T) {
	_, err := buildOAuthProvider("https://example.com", OAuthConfig{})
	require.Error(t, err)
}

func TestBuildOAuthProviderDiscoveryDoesNotRequireTokenEndpoint(t *testing.T) {
	p, err := buildOAuthProvider("https://example.com", OAuthConfig{UseOAuthDiscovery: true, ClientID: "cid"})
	require.NoError(t, err)
	_, ok := p.(*authprovider.OAuthDiscoveryProvider)
	assert.True(t, ok)
}
