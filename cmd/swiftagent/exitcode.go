package main

import (
	"errors"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

// exitCodeFor maps the error taxonomy (spec.md §7) to the CLI exit codes
// spec.md §6 documents: 0 success, 1 configuration error, 2 auth failure,
// 3 transport failure. Any other failure kind exits 1, the same code as a
// configuration error.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var kindErr *agenterrors.Error
	if errors.As(err, &kindErr) {
		switch kindErr.Kind {
		case agenterrors.KindConfig:
			return 1
		case agenterrors.KindAuth:
			return 2
		case agenterrors.KindTransport:
			return 3
		}
	}
	return 1
}
