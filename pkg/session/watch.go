package session

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/swiftagentkit/agentkit-go/pkg/logger"
)

// defaultDebounce coalesces bursts of filesystem events (an editor's
// save-as-rename-then-write sequence, for instance) into one reload.
const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a Config from disk whenever its file changes, and
// publishes each successfully parsed Config to subscribers. Grounded on
// the debounced fsnotify reload loop pattern used elsewhere in the
// example pack for hot-reloading on-disk definitions.
type Watcher struct {
	log  *logger.Logger
	path string

	watcher *fsnotify.Watcher

	mu   sync.Mutex
	subs map[int]chan *Config
	next int
}

// NewWatcher starts watching path's directory (fsnotify watches
// directories, not bare files, to survive editors that replace the file
// via rename-on-save) and begins publishing reloaded configs.
func NewWatcher(ctx context.Context, log *logger.Logger, path string) (*Watcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ConfigError("watch", err)
	}
	dir := parentDir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, ConfigError("watch", err)
	}

	w := &Watcher{
		log:     log.With("session-watch", map[string]any{"path": path}),
		path:    path,
		watcher: fsw,
		subs:    make(map[int]chan *Config),
	}
	go w.loop(ctx)
	return w, nil
}

// Subscribe opens a channel of successfully reloaded configs. The
// returned cancel func stops delivery to this subscription only.
func (w *Watcher) Subscribe() (<-chan *Config, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	ch := make(chan *Config, 1)
	w.subs[id] = ch
	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[id]; ok {
			close(sub)
			delete(w.subs, id)
		}
	}
}

func (w *Watcher) publish(cfg *Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- cfg:
		default:
		}
	}
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, ch := range w.subs {
		close(ch)
	}
	w.subs = nil
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var mu sync.Mutex
	var timer *time.Timer
	scheduleReload := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(defaultDebounce, func() {
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Warn("config reload failed", map[string]any{"error": err.Error()})
				return
			}
			w.publish(cfg)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if matchesPath(event.Name, w.path) && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error", map[string]any{"error": err.Error()})
		}
	}
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func matchesPath(eventName, path string) bool {
	return eventName == path || eventName == "./"+path
}
