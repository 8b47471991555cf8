package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/logger"
	"github.com/swiftagentkit/agentkit-go/pkg/mcp"
	"github.com/swiftagentkit/agentkit-go/pkg/transport"
)

func TestBuildOnEmptyConfigReturnsEmptyRuntime(t *testing.T) {
	rt, err := Build(context.Background(), nil, &Config{})
	require.NoError(t, err)
	assert.Empty(t, rt.Clients())
	require.NoError(t, rt.Close())
}

func TestRuntimeClientLookupMissReturnsError(t *testing.T) {
	rt, err := Build(context.Background(), nil, &Config{})
	require.NoError(t, err)
	defer rt.Close()
	_, err = rt.Client(context.Background(), "missing")
	assert.Error(t, err)
}

// newConnectedStub builds a real, connected *mcp.Client over an in-memory
// pipe, wired to an mcp.Server with no tools — enough to exercise the
// runtime's connection lifecycle without a child process.
func newConnectedStub(t *testing.T) *mcp.Client {
	t.Helper()
	clientSide, serverSide := transport.NewPipePair()
	srv := mcp.NewServer(nil, mcp.ServerInfo{Name: "stub"}, serverSide)
	go func() { _ = srv.Serve(context.Background()) }()

	cl := mcp.NewClient(nil, mcp.ClientInfo{Name: "stub"}, clientSide)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, cl.Connect(ctx))
	return cl
}

// TestRuntimeIdleReaperClosesUnusedClientThenReconnectsOnAccess covers
// SPEC_FULL.md's §4.11 idle-timeout reaping and lazy restart: an entry
// whose idleTimeout has already elapsed is closed by reapIdle, and the
// next Client call reconnects it rather than returning a stale handle.
func TestRuntimeIdleReaperClosesUnusedClientThenReconnectsOnAccess(t *testing.T) {
	attempts := 0
	e := &entry{
		client:      newConnectedStub(t),
		lastUsed:    time.Now().Add(-time.Hour),
		idleTimeout: time.Millisecond,
		connect: func(ctx context.Context) (*mcp.Client, error) {
			attempts++
			return newConnectedStub(t), nil
		},
	}
	rt := &Runtime{log: logger.Nop(), entries: map[string]*entry{"stub": e}, stopCh: make(chan struct{})}
	rt.reapIdle()

	e.mu.Lock()
	closedAfterReap := e.client == nil
	e.mu.Unlock()
	assert.True(t, closedAfterReap, "idle entry must be closed by the reaper")

	client, err := rt.Client(context.Background(), "stub")
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.Equal(t, 1, attempts, "Client must reconnect a reaped entry exactly once")
}

// TestRuntimeCrashRateLimitStopsRestartingAfterThreeFailures covers
// SPEC_FULL.md's §4.11 crash-rate limiter: a server whose connect keeps
// failing is restarted at most 3 times within the crash window before
// Client reports a restart-limit error instead of retrying again.
func TestRuntimeCrashRateLimitStopsRestartingAfterThreeFailures(t *testing.T) {
	attempts := 0
	e := &entry{
		idleTimeout: DefaultIdleTimeout,
		connect: func(ctx context.Context) (*mcp.Client, error) {
			attempts++
			return nil, errors.New("boom")
		},
	}
	rt := &Runtime{entries: map[string]*entry{"flaky": e}}

	for i := 0; i < maxCrashesPerWindow; i++ {
		_, err := rt.Client(context.Background(), "flaky")
		require.Error(t, err)
	}
	assert.Equal(t, maxCrashesPerWindow, attempts)

	_, err := rt.Client(context.Background(), "flaky")
	require.Error(t, err)
	assert.Equal(t, maxCrashesPerWindow, attempts, "restart-limit error must not call connect again")
}
