package authprovider

import "strings"

// preferredCombinedScopes is tried, in order, before falling back to
// built combinations (spec.md §4.5 step 3).
var preferredCombinedScopes = []string{"mcp", "profile email", "openid profile email"}

// SelectScope implements the scope-selection priority algorithm: if the
// user-configured scope is itself supported, use it unchanged; otherwise
// try the preferred combined scopes, then built combinations of
// {openid, profile, email} the server supports, then the first supported
// scope, then fall back to "mcp".
func SelectScope(configured string, supported []string) string {
	set := make(map[string]bool, len(supported))
	for _, s := range supported {
		set[s] = true
	}

	if configured != "" && set[configured] {
		return configured
	}

	for _, candidate := range preferredCombinedScopes {
		if scopeSetSatisfies(set, candidate) {
			return candidate
		}
	}

	if built := buildOpenIDCombination(set); built != "" {
		return built
	}

	if len(supported) > 0 {
		return supported[0]
	}

	return "mcp"
}

// scopeSetSatisfies reports whether every space-separated token of
// candidate is present in set.
func scopeSetSatisfies(set map[string]bool, candidate string) bool {
	for _, tok := range strings.Fields(candidate) {
		if !set[tok] {
			return false
		}
	}
	return true
}

// buildOpenIDCombination assembles the widest supported combination of
// openid/profile/email, in that order, or "" if none are supported.
func buildOpenIDCombination(set map[string]bool) string {
	var parts []string
	for _, want := range []string{"openid", "profile", "email"} {
		if set[want] {
			parts = append(parts, want)
		}
	}
	return strings.Join(parts, " ")
}
