package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.ServerBootCalls)
	assert.Empty(t, cfg.RemoteServers)
}

func TestLoadParsesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"serverBootCalls": [{"name": "fs", "command": "mcp-fs", "arguments": ["--root", "/tmp"]}],
		"remoteServers": {"weather": {"url": "https://weather.example/mcp", "authType": "bearer", "authConfig": {"token": "abc"}}},
		"globalEnvironment": {"LOG_LEVEL": "debug"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.ServerBootCalls, 1)
	assert.Equal(t, "fs", cfg.ServerBootCalls[0].Name)
	assert.Equal(t, []string{"--root", "/tmp"}, cfg.ServerBootCalls[0].Arguments)
	require.Contains(t, cfg.RemoteServers, "weather")
	assert.Equal(t, AuthBearer, cfg.RemoteServers["weather"].AuthType)
	assert.Equal(t, "abc", cfg.RemoteServers["weather"].AuthConfigRaw.Token)
	assert.Equal(t, "debug", cfg.GlobalEnvironment["LOG_LEVEL"])
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestNormalizeServerNameUppercasesAndReplacesNonAlphanumerics(t *testing.T) {
	assert.Equal(t, "MY_SERVER_1", normalizeServerName("my-server.1"))
	assert.Equal(t, "WEATHER", normalizeServerName("weather"))
}

func TestLookupEnvFallbackPrefersTokenThenAPIKeyThenBasic(t *testing.T) {
	t.Setenv("SVC_TOKEN", "tok")
	t.Setenv("SVC_API_KEY", "key")
	t.Setenv("SVC_USERNAME", "u")
	t.Setenv("SVC_PASSWORD", "p")
	fb, ok := lookupEnvFallback("svc")
	require.True(t, ok)
	assert.Equal(t, AuthBearer, fb.kind)
	assert.Equal(t, "tok", fb.token)
}

func TestLookupEnvFallbackBasicRequiresBothUsernameAndPassword(t *testing.T) {
	t.Setenv("SVC2_USERNAME", "u")
	_, ok := lookupEnvFallback("svc2")
	assert.False(t, ok, "username alone must not satisfy basic fallback")

	t.Setenv("SVC2_PASSWORD", "p")
	fb, ok := lookupEnvFallback("svc2")
	require.True(t, ok)
	assert.Equal(t, AuthBasic, fb.kind)
	assert.Equal(t, "u", fb.username)
	assert.Equal(t, "p", fb.password)
}

func TestLookupEnvFallbackReturnsFalseWhenNothingSet(t *testing.T) {
	_, ok := lookupEnvFallback("totally-unset-server-xyz")
	assert.False(t, ok)
}
