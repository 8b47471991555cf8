package transport

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
)

// cat echoes stdin to stdout unchanged, which is enough to exercise the
// stdio transport's framing and reassembly without a purpose-built test
// binary.
func TestStdioTransportRoundTripsThroughCat(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := NewStdioTransport(ctx, nil, "cat", nil, nil)
	require.NoError(t, err)
	defer tr.Close()

	require.NoError(t, tr.Send(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))

	msg, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, string(msg))
}

func TestStdioTransportCloseIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := NewStdioTransport(ctx, nil, "cat", nil, nil)
	require.NoError(t, err)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}

// TestStdioTransportRoundTripsLargeMessageAboveChunkThreshold covers S2: a
// message well above ChunkThreshold must survive chunked framing across a
// real child process, not just the in-memory reassembler.
func TestStdioTransportRoundTripsLargeMessageAboveChunkThreshold(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := NewStdioTransport(ctx, nil, "cat", nil, nil)
	require.NoError(t, err)
	defer tr.Close()

	payload := []byte(`{"jsonrpc":"2.0","id":1,"result":"` + strings.Repeat("z", ChunkThreshold*2) + `"}`)
	require.NoError(t, tr.Send(ctx, payload))

	msg, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(payload), string(msg))
}

// TestStdioTransportReceiveReturnsErrorWhenChildExits covers S6: once the
// child process exits, Receive must return an error rather than hanging or
// panicking — io.EOF when stdout simply closes, or a KindTransport error
// when reading the pipe itself fails.
func TestStdioTransportReceiveReturnsErrorWhenChildExits(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := NewStdioTransport(ctx, nil, "true", nil, nil)
	require.NoError(t, err)
	defer tr.Close()

	_, err = tr.Receive(ctx)
	require.Error(t, err)
	var kindErr *agenterrors.Error
	if errors.As(err, &kindErr) {
		assert.Equal(t, agenterrors.KindTransport, kindErr.Kind)
	}
}
