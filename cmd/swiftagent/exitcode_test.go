package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

func TestExitCodeForMapsKindsToDocumentedCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"config", agenterrors.New(agenterrors.KindConfig, "parse", errors.New("x")), 1},
		{"auth", agenterrors.New(agenterrors.KindAuth, "expired", errors.New("x")), 2},
		{"transport", agenterrors.New(agenterrors.KindTransport, "pipe", errors.New("x")), 3},
		{"protocol falls back to 1", agenterrors.New(agenterrors.KindProtocol, "decode", errors.New("x")), 1},
		{"plain error falls back to 1", errors.New("unwrapped"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}
