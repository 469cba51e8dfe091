package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Node execution errors.
var (
	// ErrThreadNotFound is returned when a thread id has no persisted state.
	ErrThreadNotFound = errors.New("workflow thread not found")

	// ErrNotSuspended is returned when Resume is called on a thread that is
	// not waiting on an interrupt.
	ErrNotSuspended = errors.New("workflow thread is not suspended")
)

// NodeFunc is one node of the graph: it receives the merged state and returns
// an update record, a suspension, or an error. An error terminates the run.
type NodeFunc[S, U any] func(ctx context.Context, run *Run, state S) (NodeResult[U], error)

// NodeResult is the tagged outcome of one node execution. Suspension is a
// result, not an error: a suspended node's Update is merged and persisted
// together with the interrupt payload, so partial progress (for example,
// reviews that finished before a sibling timed out) survives the pause.
type NodeResult[U any] struct {
	Update    U
	Suspended bool
	Interrupt any
}

// Continue wraps an update record in a normal result.
func Continue[U any](update U) NodeResult[U] {
	return NodeResult[U]{Update: update}
}

// Suspend wraps an update record and an interrupt payload in a suspended
// result. The engine persists both and returns control to the caller.
func Suspend[U any](update U, payload any) NodeResult[U] {
	return NodeResult[U]{Update: update, Suspended: true, Interrupt: payload}
}

// Command carries the user input that answers a pending interrupt.
type Command struct {
	Resume any
}

// Run is the per-invocation execution context handed to nodes. Its one-shot
// resume payload realizes the interrupt contract: when a node suspends and the
// thread is later resumed, the engine re-enters the same node from the top and
// the node's first call to Resumed yields the user input.
type Run struct {
	threadID  string
	resume    any
	hasResume bool
}

// ThreadID returns the id keying this thread's state history.
func (r *Run) ThreadID() string { return r.threadID }

// Resumed consumes the pending resume payload, if any. It returns ok exactly
// once per Resume call; everything a node does before checking Resumed must be
// idempotent or cheap to redo.
func (r *Run) Resumed() (any, bool) {
	if !r.hasResume {
		return nil, false
	}
	r.hasResume = false
	return r.resume, true
}

// Result reports where one Invoke or Resume call ended: either the run reached
// END (Suspended false, final State), or a node suspended (Node names it and
// Interrupt carries the serialized payload).
type Result[S any] struct {
	State     S
	Suspended bool
	Node      string
	Interrupt json.RawMessage
}

// Invoke starts a fresh thread at the entry node and runs until END or the
// first suspension. State is persisted after every node.
func (g *Graph[S, U]) Invoke(ctx context.Context, threadID string, initial S) (Result[S], error) {
	if err := g.Validate(); err != nil {
		return Result[S]{}, err
	}
	run := &Run{threadID: threadID}
	return g.loop(ctx, run, g.entry, initial, 1)
}

// Resume continues a suspended thread. The persisted state is reloaded, the
// suspended node is re-entered from the top, and cmd.Resume is delivered
// through Run.Resumed.
func (g *Graph[S, U]) Resume(ctx context.Context, threadID string, cmd Command) (Result[S], error) {
	if err := g.Validate(); err != nil {
		return Result[S]{}, err
	}
	snap, err := g.store.Latest(ctx, threadID)
	if err != nil {
		return Result[S]{}, err
	}
	if len(snap.Next) == 0 || len(snap.Interrupts) == 0 {
		return Result[S]{}, fmt.Errorf("%w: thread %s", ErrNotSuspended, threadID)
	}
	var state S
	if err := json.Unmarshal(snap.Values, &state); err != nil {
		return Result[S]{}, fmt.Errorf("decode state for thread %s: %w", threadID, err)
	}
	run := &Run{threadID: threadID, resume: cmd.Resume, hasResume: true}
	return g.loop(ctx, run, snap.Next[0], state, snap.Seq+1)
}

// State returns the latest persisted snapshot of a thread.
func (g *Graph[S, U]) State(ctx context.Context, threadID string) (Snapshot, error) {
	return g.store.Latest(ctx, threadID)
}

// History returns all persisted snapshots of a thread, newest first.
func (g *Graph[S, U]) History(ctx context.Context, threadID string) ([]Snapshot, error) {
	return g.store.History(ctx, threadID)
}

func (g *Graph[S, U]) loop(ctx context.Context, run *Run, node string, state S, seq int64) (Result[S], error) {
	for step := 0; ; step++ {
		if step >= g.maxSteps {
			return Result[S]{}, fmt.Errorf("thread %s exceeded %d steps at node %q", run.threadID, g.maxSteps, node)
		}
		if err := ctx.Err(); err != nil {
			return Result[S]{}, err
		}

		fn, ok := g.nodes[node]
		if !ok {
			return Result[S]{}, fmt.Errorf("unknown node %q", node)
		}

		g.logger.Debug("Executing node", "thread", run.threadID, "node", node, "seq", seq)
		res, err := fn(ctx, run, state)
		if err != nil {
			return Result[S]{}, fmt.Errorf("node %q: %w", node, err)
		}
		state = g.reducer(state, res.Update)

		if res.Suspended {
			payload, err := json.Marshal(res.Interrupt)
			if err != nil {
				return Result[S]{}, fmt.Errorf("encode interrupt from node %q: %w", node, err)
			}
			if err := g.save(ctx, run.threadID, seq, state, []string{node}, []json.RawMessage{payload}); err != nil {
				return Result[S]{}, err
			}
			g.logger.Info("Workflow suspended", "thread", run.threadID, "node", node, "seq", seq)
			return Result[S]{State: state, Suspended: true, Node: node, Interrupt: payload}, nil
		}

		next, err := g.next(node, state)
		if err != nil {
			return Result[S]{}, err
		}

		var nextNodes []string
		if next != END {
			nextNodes = []string{next}
		}
		if err := g.save(ctx, run.threadID, seq, state, nextNodes, nil); err != nil {
			return Result[S]{}, err
		}
		seq++

		if next == END {
			g.logger.Info("Workflow finished", "thread", run.threadID, "last_node", node)
			return Result[S]{State: state}, nil
		}
		node = next
	}
}

func (g *Graph[S, U]) save(ctx context.Context, threadID string, seq int64, state S, next []string, interrupts []json.RawMessage) error {
	values, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state for thread %s: %w", threadID, err)
	}
	snap := Snapshot{
		ID:         uuid.New().String(),
		ThreadID:   threadID,
		Seq:        seq,
		Values:     values,
		Next:       next,
		Interrupts: interrupts,
		CreatedAt:  time.Now().UTC(),
	}
	if err := g.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot for thread %s: %w", threadID, err)
	}
	return nil
}
