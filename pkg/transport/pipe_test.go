package transport

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeTransportRoundTrips(t *testing.T) {
	a, b := NewPipePair()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, a.Send(ctx, []byte(`{"hello":"world"}`)))

	msg, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(msg))
}

func TestPipeTransportCloseUnblocksReceive(t *testing.T) {
	a, b := NewPipePair()
	defer a.Close()

	done := make(chan error, 1)
	go func() {
		_, err := b.Receive(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, a.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("Receive did not unblock after Close")
	}
}

func TestPipeTransportReceiveRespectsContextCancellation(t *testing.T) {
	a, b := NewPipePair()
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := b.Receive(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Receive did not respect cancellation")
	}
}
