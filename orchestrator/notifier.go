package orchestrator

import (
	"log/slog"
	"sync"

	"github.com/c360studio/orchestra/model"
)

// subscriberBuffer bounds how far a slow subscriber may lag before events are
// dropped for it.
const subscriberBuffer = 16

// Notifier fans workflow events out to per-workflow subscribers. Publishing
// never blocks: a subscriber that stops draining loses events, not the
// publisher.
type Notifier struct {
	logger *slog.Logger

	mu   sync.Mutex
	next int
	subs map[string]map[int]chan model.Event
}

// NewNotifier creates an empty notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger: logger,
		subs:   make(map[string]map[int]chan model.Event),
	}
}

// Subscribe registers for one workflow's events. The returned cancel func
// unregisters and closes the channel; call it exactly once.
func (n *Notifier) Subscribe(workflowID string) (<-chan model.Event, func()) {
	ch := make(chan model.Event, subscriberBuffer)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	id := n.next
	if n.subs[workflowID] == nil {
		n.subs[workflowID] = make(map[int]chan model.Event)
	}
	n.subs[workflowID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[workflowID][id]; ok {
			delete(n.subs[workflowID], id)
			if len(n.subs[workflowID]) == 0 {
				delete(n.subs, workflowID)
			}
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its workflow.
func (n *Notifier) Publish(ev model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, ch := range n.subs[ev.WorkflowID] {
		select {
		case ch <- ev:
		default:
			n.logger.Warn("Dropping event for slow subscriber",
				"workflow", ev.WorkflowID,
				"subscriber", id,
				"event", ev.Type)
		}
	}
}
