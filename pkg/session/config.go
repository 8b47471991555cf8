// Package session builds the runtime (MCP clients, auth providers,
// transports) described by a JSON configuration file (C11/C13, spec.md
// §6), with environment-variable auth fallback and optional config-file
// watching.
package session

import (
	"encoding/json"
	"os"

	"github.com/caarlos0/env/v11"
)

// AuthType selects which authprovider.Provider a remote server's config
// constructs.
type AuthType string

const (
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "apikey"
	AuthOAuth  AuthType = "oauth"
)

// ServerBootConfig describes one stdio-transport MCP server to launch
// (spec.md §6: serverBootCalls).
type ServerBootConfig struct {
	Name        string            `json:"name"`
	Command     string            `json:"command"`
	Arguments   []string          `json:"arguments,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	IdleTimeout int               `json:"idleTimeout,omitempty"` // seconds; 0 uses DefaultIdleTimeout
}

// OAuthConfig is the authConfig shape recognized when authType is
// "oauth" (spec.md §6).
type OAuthConfig struct {
	ClientID                     string `json:"clientId"`
	ClientSecret                 string `json:"clientSecret,omitempty"`
	AccessToken                  string `json:"accessToken,omitempty"`
	RefreshToken                 string `json:"refreshToken,omitempty"`
	TokenEndpoint                string `json:"tokenEndpoint,omitempty"`
	RedirectURI                  string `json:"redirectURI"`
	Scope                        string `json:"scope,omitempty"`
	UseOAuthDiscovery            bool   `json:"useOAuthDiscovery,omitempty"`
	UseDynamicClientRegistration bool   `json:"useDynamicClientRegistration,omitempty"`
	RedirectURIs                 []string `json:"redirectUris,omitempty"`
	ClientName                   string   `json:"clientName,omitempty"`
}

// AuthConfig carries the scheme-specific fields for every authType; only
// the fields relevant to the selected AuthType are populated.
type AuthConfig struct {
	Token    string      `json:"token,omitempty"`
	Username string      `json:"username,omitempty"`
	Password string      `json:"password,omitempty"`
	Header   string      `json:"header,omitempty"`
	Key      string      `json:"key,omitempty"`
	OAuth    OAuthConfig `json:"oauth,omitempty"`
}

// RemoteServerConfig describes one HTTP-transport remote MCP server
// (spec.md §6: remoteServers).
type RemoteServerConfig struct {
	URL               string     `json:"url"`
	AuthType          AuthType   `json:"authType,omitempty"`
	AuthConfigRaw     AuthConfig `json:"authConfig,omitempty"`
	ConnectionTimeout int        `json:"connectionTimeout,omitempty"` // seconds
	RequestTimeout    int        `json:"requestTimeout,omitempty"`    // seconds
	MaxRetries        int        `json:"maxRetries,omitempty"`
	IdleTimeout       int        `json:"idleTimeout,omitempty"` // seconds; 0 uses DefaultIdleTimeout
}

// Config is the top-level JSON configuration file shape (spec.md §6).
type Config struct {
	ServerBootCalls   []ServerBootConfig            `json:"serverBootCalls,omitempty" env:"-"`
	RemoteServers     map[string]RemoteServerConfig  `json:"remoteServers,omitempty" env:"-"`
	GlobalEnvironment map[string]string              `json:"globalEnvironment,omitempty" env:"-"`
}

// Load reads a JSON config file at path, then runs caarlos0/env's Parse
// over the result (grounded on the teacher's pkg/config LoadConfig:
// defaults, then file, then environment, in that order). Every Config
// field is tagged env:"-", so that pass overrides nothing. A missing file
// is not an error; Load returns an empty Config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, ConfigError("read", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, ConfigError("parse", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, ConfigError("env-overlay", err)
	}
	return cfg, nil
}
