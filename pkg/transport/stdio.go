package transport

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
)

// StdioTransport speaks newline-delimited JSON over a child process's
// stdin/stdout, switching to the chunked frame format for messages larger
// than ChunkThreshold (spec.md §4.2). Lines that don't start with '{' or
// '[' (and aren't a recognized chunk frame) are dropped by the message
// filter — most commonly the child's own log noise on stdout.
type StdioTransport struct {
	log *logger.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	stderr io.ReadCloser

	writeMu sync.Mutex

	reasm    *reassembler
	inbound  chan []byte
	readErr  error
	closed   chan struct{}
	closeMu  sync.Mutex
	didClose bool
}

// NewStdioTransport starts name with args and wires its stdio pipes.
func NewStdioTransport(ctx context.Context, log *logger.Logger, name string, args []string, env []string) (*StdioTransport, error) {
	if log == nil {
		log = logger.Nop()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = env
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, agenterrors.PipeError(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, agenterrors.PipeError(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, agenterrors.PipeError(err)
	}
	if err := cmd.Start(); err != nil {
		return nil, agenterrors.ProcessTerminated(err)
	}

	t := &StdioTransport{
		log:     log.With("stdio-transport", map[string]any{"command": name}),
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewScanner(stdout),
		stderr:  stderr,
		reasm:   newReassembler(),
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
	t.stdout.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	go t.readLoop()
	go t.drainStderr()
	return t, nil
}

func (t *StdioTransport) readLoop() {
	defer close(t.inbound)
	for t.stdout.Scan() {
		line := t.stdout.Text()
		if msg, ok := t.reasm.feed(line); ok {
			select {
			case t.inbound <- []byte(msg):
			case <-t.closed:
				return
			}
		}
	}
	if err := t.stdout.Err(); err != nil {
		t.readErr = agenterrors.PipeError(err)
	}
}

func (t *StdioTransport) drainStderr() {
	scanner := bufio.NewScanner(t.stderr)
	for scanner.Scan() {
		t.log.Warn("child stderr", map[string]any{"line": scanner.Text()})
	}
}

// Send writes data to the child's stdin, chunking if it is large.
func (t *StdioTransport) Send(ctx context.Context, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	for _, line := range encodeLines(data) {
		if _, err := t.stdin.Write([]byte(line + "\n")); err != nil {
			return agenterrors.PipeError(err)
		}
	}
	return nil
}

// Receive returns the next reassembled message from the child's stdout.
func (t *StdioTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-t.inbound:
		if !ok {
			if t.readErr != nil {
				return nil, t.readErr
			}
			return nil, io.EOF
		}
		return msg, nil
	}
}

// Close terminates the child process and releases its pipes.
func (t *StdioTransport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.didClose {
		return nil
	}
	t.didClose = true
	close(t.closed)
	_ = t.stdin.Close()
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	_ = t.cmd.Wait()
	return nil
}

