package session

import (
	"os"
	"strings"
)

// normalizeServerName uppercases name and replaces every character other
// than A-Z and 0-9 with '_', the prefix used to look up environment-based auth
// fallback variables (spec.md §6).
func normalizeServerName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// envFallbackAuth is the auth scheme discovered from X_TOKEN / X_API_KEY
// / X_USERNAME+X_PASSWORD environment variables for a server named X
// (spec.md §6). ok is false when none of the recognized variables are
// set.
type envFallbackAuth struct {
	kind     AuthType
	token    string
	apiKey   string
	username string
	password string
}

func lookupEnvFallback(serverName string) (envFallbackAuth, bool) {
	prefix := normalizeServerName(serverName)

	if token := os.Getenv(prefix + "_TOKEN"); token != "" {
		return envFallbackAuth{kind: AuthBearer, token: token}, true
	}
	if key := os.Getenv(prefix + "_API_KEY"); key != "" {
		return envFallbackAuth{kind: AuthAPIKey, apiKey: key}, true
	}
	user, hasUser := os.LookupEnv(prefix + "_USERNAME")
	pass, hasPass := os.LookupEnv(prefix + "_PASSWORD")
	if hasUser && hasPass {
		return envFallbackAuth{kind: AuthBasic, username: user, password: pass}, true
	}
	return envFallbackAuth{}, false
}
