package transport

import (
	"context"
	"io"
	"sync"
)

// PipeTransport is an in-process, in-memory transport connecting two
// endpoints within the same binary — used to run an MCP/A2A server and
// client in the same process (e.g. tests, or an embedded tool provider)
// without a real socket or child process.
type PipeTransport struct {
	out chan []byte
	in  chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPipePair returns two connected PipeTransports: writes on one side
// arrive as reads on the other.
func NewPipePair() (*PipeTransport, *PipeTransport) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	closed := make(chan struct{})
	a := &PipeTransport{out: ab, in: ba, closed: closed}
	b := &PipeTransport{out: ba, in: ab, closed: closed}
	return a, b
}

func (p *PipeTransport) Send(ctx context.Context, data []byte) error {
	buf := append([]byte(nil), data...)
	select {
	case p.out <- buf:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		return io.ErrClosedPipe
	}
}

func (p *PipeTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *PipeTransport) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}
