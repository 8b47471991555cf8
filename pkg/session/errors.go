package session

import "github.com/swiftagentkit/agentkit-go/pkg/agenterrors"

// ConfigError wraps err as a ConfigError for op (spec.md §7: "malformed
// config, missing fields, unknown authType").
func ConfigError(op string, err error) *agenterrors.Error {
	return agenterrors.New(agenterrors.KindConfig, op, err)
}
