// Package workflow implements a checkpointed graph engine for human-in-the-loop
// workflows. A Graph is a set of named nodes connected by unconditional or
// conditional edges over a typed shared state. Nodes return update records that
// a reducer merges into the state, or suspend execution with an interrupt
// payload; a suspended graph persists its state and can be resumed later, in
// the same process or after a restart, with a Command carrying the user's
// answer.
package workflow

import (
	"fmt"
	"log/slog"
)

// END is the sentinel target that terminates graph execution.
const END = "__end__"

// defaultMaxSteps bounds one Invoke or Resume call. Revision loops are legal;
// a graph that never reaches END or a suspension is not.
const defaultMaxSteps = 100

// Reducer merges one node's update record into the previous state. It must be
// pure: the engine replays reduced states from snapshots and expects identical
// results.
type Reducer[S, U any] func(prev S, update U) S

// Router picks the label of the outbound conditional edge for a state.
type Router[S any] func(state S) string

// edge is the outbound routing of one node: either a fixed target or a router
// over labeled targets.
type edge[S any] struct {
	target  string
	router  Router[S]
	targets map[string]string
}

// Graph is a directed graph of named nodes over a shared state S with update
// records U. Build it once with AddNode/AddEdge/AddConditionalEdges, then run
// any number of threads through Invoke/Resume; per-thread state lives in the
// SnapshotStore, keyed by thread id.
type Graph[S, U any] struct {
	reducer  Reducer[S, U]
	store    SnapshotStore
	logger   *slog.Logger
	nodes    map[string]NodeFunc[S, U]
	edges    map[string]edge[S]
	entry    string
	maxSteps int
}

// GraphOption configures a Graph.
type GraphOption[S, U any] func(*Graph[S, U])

// WithGraphLogger sets the logger.
func WithGraphLogger[S, U any](logger *slog.Logger) GraphOption[S, U] {
	return func(g *Graph[S, U]) { g.logger = logger }
}

// WithMaxSteps overrides the per-run step bound.
func WithMaxSteps[S, U any](n int) GraphOption[S, U] {
	return func(g *Graph[S, U]) { g.maxSteps = n }
}

// NewGraph creates an empty graph with the given reducer and snapshot store.
func NewGraph[S, U any](reducer Reducer[S, U], store SnapshotStore, opts ...GraphOption[S, U]) *Graph[S, U] {
	g := &Graph[S, U]{
		reducer:  reducer,
		store:    store,
		logger:   slog.Default(),
		nodes:    make(map[string]NodeFunc[S, U]),
		edges:    make(map[string]edge[S]),
		maxSteps: defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode registers a named node.
func (g *Graph[S, U]) AddNode(name string, fn NodeFunc[S, U]) {
	g.nodes[name] = fn
}

// AddEdge connects from to a fixed target (a node name or END).
func (g *Graph[S, U]) AddEdge(from, to string) {
	g.edges[from] = edge[S]{target: to}
}

// AddConditionalEdges routes from through router: the returned label selects
// the target out of targets.
func (g *Graph[S, U]) AddConditionalEdges(from string, router Router[S], targets map[string]string) {
	g.edges[from] = edge[S]{router: router, targets: targets}
}

// SetEntryPoint names the node where fresh invocations start.
func (g *Graph[S, U]) SetEntryPoint(name string) {
	g.entry = name
}

// Validate checks the graph is runnable: an entry point exists, every edge
// source and target is a known node, and every node has an outbound edge.
func (g *Graph[S, U]) Validate() error {
	if g.entry == "" {
		return fmt.Errorf("graph has no entry point")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("entry point %q is not a node", g.entry)
	}
	for name := range g.nodes {
		e, ok := g.edges[name]
		if !ok {
			return fmt.Errorf("node %q has no outbound edge", name)
		}
		if e.router == nil {
			if err := g.checkTarget(name, e.target); err != nil {
				return err
			}
			continue
		}
		for label, target := range e.targets {
			if err := g.checkTarget(name, target); err != nil {
				return fmt.Errorf("label %q: %w", label, err)
			}
		}
	}
	return nil
}

func (g *Graph[S, U]) checkTarget(from, target string) error {
	if target == END {
		return nil
	}
	if _, ok := g.nodes[target]; !ok {
		return fmt.Errorf("edge from %q points to unknown node %q", from, target)
	}
	return nil
}

// next resolves the node following from for the given state.
func (g *Graph[S, U]) next(from string, state S) (string, error) {
	e, ok := g.edges[from]
	if !ok {
		return "", fmt.Errorf("node %q has no outbound edge", from)
	}
	if e.router == nil {
		return e.target, nil
	}
	label := e.router(state)
	target, ok := e.targets[label]
	if !ok {
		return "", fmt.Errorf("node %q routed to unknown label %q", from, label)
	}
	return target, nil
}
