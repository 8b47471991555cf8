package session

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/swiftagentkit/agentkit-go/pkg/authprovider"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
	"github.com/swiftagentkit/agentkit-go/pkg/mcp"
	"github.com/swiftagentkit/agentkit-go/pkg/transport"
)

// defaultRetryInterval paces reconnect attempts against a flaky remote
// server; one token every 2s caps retry pressure regardless of maxRetries.
const defaultRetryInterval = 2 * time.Second

// withConnectRetry retries connect up to maxRetries times (0 means no
// retry: a single attempt), pacing attempts with a token-bucket limiter so
// a misconfigured high maxRetries cannot hammer a down server.
func withConnectRetry(ctx context.Context, maxRetries int, connect func() error) error {
	limiter := rate.NewLimiter(rate.Every(defaultRetryInterval), 1)
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if waitErr := limiter.Wait(ctx); waitErr != nil {
				return waitErr
			}
		}
		if err = connect(); err == nil {
			return nil
		}
	}
	return err
}

// BuildAuthProvider constructs the authprovider.Provider a remote
// server's config describes, falling back to X_TOKEN/X_API_KEY/
// X_USERNAME+X_PASSWORD environment variables when the config omits
// authType entirely (spec.md §6).
func BuildAuthProvider(serverName string, cfg RemoteServerConfig) (authprovider.Provider, error) {
	authType := cfg.AuthType
	auth := cfg.AuthConfigRaw

	if authType == "" {
		fallback, ok := lookupEnvFallback(serverName)
		if !ok {
			return nil, nil
		}
		switch fallback.kind {
		case AuthBearer:
			return &authprovider.BearerProvider{Token: fallback.token}, nil
		case AuthAPIKey:
			return &authprovider.APIKeyProvider{Key: fallback.apiKey}, nil
		case AuthBasic:
			return &authprovider.BasicProvider{Username: fallback.username, Password: fallback.password}, nil
		}
		return nil, nil
	}

	switch authType {
	case AuthBearer:
		return &authprovider.BearerProvider{Token: auth.Token}, nil
	case AuthBasic:
		return &authprovider.BasicProvider{Username: auth.Username, Password: auth.Password}, nil
	case AuthAPIKey:
		return &authprovider.APIKeyProvider{HeaderName: auth.Header, Key: auth.Key}, nil
	case AuthOAuth:
		return buildOAuthProvider(cfg.URL, auth.OAuth)
	default:
		return nil, ConfigError("auth-type", fmt.Errorf("unknown authType %q", authType))
	}
}

func buildOAuthProvider(serverURL string, oc OAuthConfig) (authprovider.Provider, error) {
	if oc.UseOAuthDiscovery {
		return authprovider.NewOAuthDiscoveryProvider(authprovider.OAuthDiscoveryConfig{
			ResourceBaseURL:              serverURL,
			ClientID:                     oc.ClientID,
			ClientSecret:                 oc.ClientSecret,
			RedirectURI:                  oc.RedirectURI,
			RedirectURIs:                 oc.RedirectURIs,
			Scope:                        oc.Scope,
			UseDynamicClientRegistration: oc.UseDynamicClientRegistration,
			ClientName:                   oc.ClientName,
		}), nil
	}
	if oc.ClientID == "" || oc.TokenEndpoint == "" {
		return nil, ConfigError("oauth", fmt.Errorf("direct oauth requires clientId and tokenEndpoint"))
	}
	return authprovider.NewOAuthDirectProvider(authprovider.OAuthDirectConfig{
		ClientID:      oc.ClientID,
		ClientSecret:  oc.ClientSecret,
		AccessToken:   oc.AccessToken,
		RefreshToken:  oc.RefreshToken,
		TokenEndpoint: oc.TokenEndpoint,
	}), nil
}

// BuildStdioClient launches one serverBootCalls entry as a child process
// and wraps it in an initialized mcp.Client.
func BuildStdioClient(ctx context.Context, log *logger.Logger, boot ServerBootConfig, globalEnv map[string]string) (*mcp.Client, error) {
	env := make([]string, 0, len(globalEnv)+len(boot.Environment))
	for k, v := range globalEnv {
		env = append(env, k+"="+v)
	}
	for k, v := range boot.Environment {
		env = append(env, k+"="+v)
	}

	tr, err := transport.NewStdioTransport(ctx, log, boot.Command, boot.Arguments, env)
	if err != nil {
		return nil, ConfigError("stdio-boot", err)
	}
	client := mcp.NewClient(log, mcp.ClientInfo{Name: boot.Name}, tr)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// BuildHTTPClient builds an initialized mcp.Client over a Streamable HTTP
// remote server, wiring the configured (or environment-fallback) auth
// provider into the transport's outbound request headers.
func BuildHTTPClient(ctx context.Context, log *logger.Logger, serverName string, cfg RemoteServerConfig) (*mcp.Client, error) {
	auth, err := BuildAuthProvider(serverName, cfg)
	if err != nil {
		return nil, err
	}

	idle := transport.DefaultSSEIdleTimeout
	tr := transport.NewHTTPTransport(log, cfg.URL, nil, auth, idle)

	opts := []mcp.Option{}
	if cfg.ConnectionTimeout > 0 {
		opts = append(opts, mcp.WithConnectionTimeout(time.Duration(cfg.ConnectionTimeout)*time.Second))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, mcp.WithRequestTimeout(time.Duration(cfg.RequestTimeout)*time.Second))
	}

	client := mcp.NewClient(log, mcp.ClientInfo{Name: serverName}, tr, opts...)
	if err := withConnectRetry(ctx, cfg.MaxRetries, func() error { return client.Connect(ctx) }); err != nil {
		return nil, err
	}
	return client, nil
}
