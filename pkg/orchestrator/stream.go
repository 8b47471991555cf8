package orchestrator

import (
	"sync"

	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

// messageHub fans out published conversation messages to any number of
// independent, single-consumer subscriptions (spec.md §4.10: "lazy,
// infinite, single-consumer per subscription; cancelling the subscription
// stops delivery but not ingestion"). Grounded on the same live-fan-out
// shape as pkg/a2a's hub, generalized from Event to llmadapter.Message.
type messageHub struct {
	mu   sync.Mutex
	subs map[int]chan llmadapter.Message
	next int
}

func newMessageHub() *messageHub {
	return &messageHub{subs: make(map[int]chan llmadapter.Message)}
}

// subscribe opens a new live feed of messages published from this point
// forward. The returned cancel func stops delivery to this subscription
// only; it never affects conversation ingestion or other subscribers.
func (h *messageHub) subscribe() (<-chan llmadapter.Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan llmadapter.Message, 32)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			close(sub)
			delete(h.subs, id)
		}
	}
	return ch, cancel
}

// publish delivers msg to every live subscription. A subscriber whose
// buffer is full is skipped rather than blocking ingestion for the rest
// of the conversation.
func (h *messageHub) publish(msg llmadapter.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *messageHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
