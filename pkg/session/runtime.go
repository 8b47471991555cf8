package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swiftagentkit/agentkit-go/pkg/agenterrors"
	"github.com/swiftagentkit/agentkit-go/pkg/logger"
	"github.com/swiftagentkit/agentkit-go/pkg/mcp"
)

// maxParallelConnects bounds how many servers are dialed at once so one
// misconfigured config with dozens of entries cannot open unbounded
// concurrent stdio processes or HTTP connections.
const maxParallelConnects = 8

// DefaultIdleTimeout is how long a connected client may sit unused before
// the idle reaper closes it, grounded on the teacher's mcp.Manager default.
const DefaultIdleTimeout = 300 * time.Second

// idleReapInterval is how often the reaper sweeps for idle clients.
const idleReapInterval = 30 * time.Second

// maxCrashesPerWindow and crashWindow bound reconnect attempts: once 3
// reconnects have failed within the last 60 seconds, Client refuses to try
// again until the oldest of those failures falls out of the window,
// grounded on the teacher's mcp.Manager crash-rate limit.
const (
	maxCrashesPerWindow = 3
	crashWindow         = 60 * time.Second
)

// entry tracks one configured server's connection lifecycle: the live
// client (nil if never connected, reaped for idleness, or its last
// reconnect failed), when it was last used, and its recent failed
// reconnects for rate limiting.
type entry struct {
	mu          sync.Mutex
	client      *mcp.Client
	lastUsed    time.Time
	crashes     []time.Time
	idleTimeout time.Duration
	connect     func(ctx context.Context) (*mcp.Client, error)
}

// Runtime is the set of MCP servers described by one Config: one entry
// per serverBootCalls entry (stdio) and one per remoteServers entry
// (HTTP). Every server is connected eagerly by Build so configuration,
// auth, and transport failures surface immediately and map to the exit
// codes spec.md §7 documents; afterward, Runtime supervises each
// connection the way the teacher's mcp.Manager does: an idle reaper
// closes clients that go unused past their idle timeout, and accessing an
// entry with no client lazily reconnects it, subject to the crash-rate
// limit. A client whose connection drops while it is held is not
// detected; it stays in place until the reaper or Close removes it.
type Runtime struct {
	log *logger.Logger

	mu      sync.RWMutex
	entries map[string]*entry

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Build connects every server named in cfg and returns the resulting
// Runtime. On any single server failing to connect, already-connected
// clients are closed before the error is returned (spec.md §7:
// configuration/auth/transport errors map to exit codes 1/2/3 — this
// layer stops at the first failure rather than returning a partial
// runtime a caller could mistake for complete).
func Build(ctx context.Context, log *logger.Logger, cfg *Config) (*Runtime, error) {
	if log == nil {
		log = logger.Nop()
	}
	rt := &Runtime{
		log:     log.With("session", nil),
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
	}

	for _, boot := range cfg.ServerBootCalls {
		boot := boot
		idle := DefaultIdleTimeout
		if boot.IdleTimeout > 0 {
			idle = time.Duration(boot.IdleTimeout) * time.Second
		}
		rt.entries[boot.Name] = &entry{
			idleTimeout: idle,
			connect: func(ctx context.Context) (*mcp.Client, error) {
				return BuildStdioClient(ctx, log, boot, cfg.GlobalEnvironment)
			},
		}
	}
	for name, remote := range cfg.RemoteServers {
		name, remote := name, remote
		idle := DefaultIdleTimeout
		if remote.IdleTimeout > 0 {
			idle = time.Duration(remote.IdleTimeout) * time.Second
		}
		rt.entries[name] = &entry{
			idleTimeout: idle,
			connect: func(ctx context.Context) (*mcp.Client, error) {
				return BuildHTTPClient(ctx, log, name, remote)
			},
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelConnects)
	now := time.Now()

	for name, e := range rt.entries {
		name, e := name, e
		g.Go(func() error {
			client, err := e.connect(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			mu.Lock()
			e.client = client
			e.lastUsed = now
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		rt.Close()
		return nil, err
	}

	rt.wg.Add(1)
	go rt.idleReaper()

	return rt, nil
}

// Client returns the named server's MCP client, reconnecting it first if
// the idle reaper closed it or an earlier reconnect failed (subject to the
// crash-rate limit). A client that is still held is returned as is, even
// if its connection has dropped. Every call marks the client as
// just-used, which is what the idle reaper measures against.
func (r *Runtime) Client(ctx context.Context, name string) (*mcp.Client, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown server %q", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		e.lastUsed = time.Now()
		return e.client, nil
	}

	now := time.Now()
	var recent []time.Time
	for _, t := range e.crashes {
		if now.Sub(t) < crashWindow {
			recent = append(recent, t)
		}
	}
	e.crashes = recent
	if len(e.crashes) >= maxCrashesPerWindow {
		return nil, agenterrors.New(agenterrors.KindTransport, "restart-limit",
			fmt.Errorf("server %q crashed %d times in %s, not restarting", name, len(e.crashes), crashWindow))
	}

	client, err := e.connect(ctx)
	if err != nil {
		e.crashes = append(e.crashes, now)
		return nil, err
	}
	e.client = client
	e.lastUsed = now
	return client, nil
}

// Clients returns every currently-connected client, keyed by server name.
// Unlike Client, it never reconnects an idle-reaped or crashed entry and
// never updates lastUsed — it is a point-in-time snapshot for listing, the
// way the teacher's ListServers reports status without starting anything.
func (r *Runtime) Clients() map[string]*mcp.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*mcp.Client, len(r.entries))
	for name, e := range r.entries {
		e.mu.Lock()
		if e.client != nil {
			out[name] = e.client
		}
		e.mu.Unlock()
	}
	return out
}

func (r *Runtime) idleReaper() {
	defer r.wg.Done()
	ticker := time.NewTicker(idleReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.reapIdle()
		}
	}
}

func (r *Runtime) reapIdle() {
	r.mu.RLock()
	entries := make(map[string]*entry, len(r.entries))
	for name, e := range r.entries {
		entries[name] = e
	}
	r.mu.RUnlock()

	for name, e := range entries {
		e.mu.Lock()
		if e.client != nil && time.Since(e.lastUsed) > e.idleTimeout {
			r.log.Info("closing idle server", map[string]any{"server": name, "idle": time.Since(e.lastUsed).Round(time.Second).String()})
			_ = e.client.Close()
			e.client = nil
		}
		e.mu.Unlock()
	}
}

// Close stops the idle reaper and closes every connected client,
// collecting the first error encountered but always attempting every
// client.
func (r *Runtime) Close() error {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for _, e := range r.entries {
		e.mu.Lock()
		if e.client != nil {
			if err := e.client.Close(); err != nil && first == nil {
				first = err
			}
			e.client = nil
		}
		e.mu.Unlock()
	}
	return first
}
