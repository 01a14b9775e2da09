// Package graph is a small finite-state executor for the extraction
// pipeline: a fixed set of named nodes, a transition table, and a scheduler
// that runs ready nodes sequentially or fanned out on goroutines, merging
// branch outputs back into one state by key ownership.
package graph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/shipmentbot/server/internal/extract/model"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// Pseudo-nodes delimiting every configuration.
const (
	Start = "START"
	End   = "END"
)

// Key identifies a conversation-state field a node may own. Ownership is
// exclusive: the merge after a parallel fan-out copies only owned keys from
// each branch, so execution order across branches is never observable.
type Key string

const (
	KeyMessages      Key = "messages"
	KeyExtractedData Key = "extracted_data"
	KeyNotes         Key = "notes"
	KeyAddresses     Key = "addresses"
	KeyStatusMessage Key = "status_message"
)

// Func is the executable part of a node. It is an alias so node
// constructors in other packages satisfy it without conversion.
type Func = func(ctx context.Context, s model.ConversationState) (model.ConversationState, error)

type node struct {
	name string
	run  Func // nil for pure router nodes
	owns []Key
}

// Graph is a directed graph under construction. Compile validates it into
// a Runnable.
type Graph struct {
	nodes map[string]*node
	edges map[string][]string
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
		edges: make(map[string][]string),
	}
}

// AddNode registers a named node with the state keys it owns.
func (g *Graph) AddNode(name string, run Func, owns ...Key) *Graph {
	g.nodes[name] = &node{name: name, run: run, owns: owns}
	return g
}

// AddRouter registers a node without a body: it only fans out to its
// successors.
func (g *Graph) AddRouter(name string) *Graph {
	g.nodes[name] = &node{name: name}
	return g
}

// AddEdge appends a transition. A source with multiple outgoing edges fans
// out to all targets in parallel.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = append(g.edges[from], to)
	return g
}

// Compile validates the transition table and returns an executable graph.
func (g *Graph) Compile(store Store) (*Runnable, error) {
	if len(g.edges[Start]) != 1 {
		return nil, fmt.Errorf("graph needs exactly one entry edge from START, got %d", len(g.edges[Start]))
	}
	for from, tos := range g.edges {
		if from != Start {
			if _, ok := g.nodes[from]; !ok {
				return nil, fmt.Errorf("edge from unknown node %q", from)
			}
		}
		for _, to := range tos {
			if to == End {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("edge from %q to unknown node %q", from, to)
			}
		}
	}
	for name := range g.nodes {
		if len(g.edges[name]) == 0 {
			return nil, fmt.Errorf("node %q has no outgoing edge", name)
		}
	}
	return &Runnable{graph: g, store: store}, nil
}

// Runnable executes a compiled graph.
type Runnable struct {
	graph *Graph
	store Store
}

// InvokeOption adjusts one invocation.
type InvokeOption func(*invokeConfig)

type invokeConfig struct {
	threadID string
}

// WithThreadID keys this invocation to a checkpoint thread: prior state is
// resumed and the final state saved. Ignored when the graph was compiled
// without a store.
func WithThreadID(id string) InvokeOption {
	return func(c *invokeConfig) { c.threadID = id }
}

// Invoke runs the graph over the given state and returns the merged final
// state. Node-level extraction failures are carried inside the state; an
// error return here means a configuration or programming defect.
func (r *Runnable) Invoke(ctx context.Context, state model.ConversationState, opts ...InvokeOption) (model.ConversationState, error) {
	var cfg invokeConfig
	for _, o := range opts {
		o(&cfg)
	}

	resuming := r.store != nil && cfg.threadID != ""
	if resuming {
		restored, ok, err := restore(ctx, r.store, cfg.threadID)
		if err != nil {
			return state, err
		}
		if ok {
			restored.Messages = append(restored.Messages, state.Messages...)
			state = restored
		}
	}

	out, err := r.execute(ctx, state)
	if err != nil {
		return state, err
	}

	if resuming {
		if err := persist(ctx, r.store, cfg.threadID, out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (r *Runnable) execute(ctx context.Context, state model.ConversationState) (model.ConversationState, error) {
	frontier := r.graph.edges[Start]

	for {
		if len(frontier) == 1 && frontier[0] == End {
			return state, nil
		}

		if len(frontier) == 1 {
			n := r.graph.nodes[frontier[0]]
			next, err := r.runNode(ctx, n, state)
			if err != nil {
				return state, err
			}
			state = next
			frontier = r.graph.edges[n.name]
			continue
		}

		// fan-out: run every branch chain to END on its own state copy,
		// then union-merge the owned keys
		merged, err := r.runParallel(ctx, frontier, state)
		if err != nil {
			return state, err
		}
		state = merged
		frontier = []string{End}
	}
}

func (r *Runnable) runNode(ctx context.Context, n *node, state model.ConversationState) (model.ConversationState, error) {
	if n.run == nil {
		return state, nil
	}
	logx.Debug().Str("node", n.name).Msg("running node")
	out, err := n.run(ctx, state)
	if err != nil {
		return state, fmt.Errorf("node %s: %w", n.name, err)
	}
	return out, nil
}

type branchResult struct {
	state model.ConversationState
	owns  []Key
}

// runParallel executes each branch concurrently. Every branch reads the
// same immutable input state and only its owned keys survive the merge, so
// the merged result is independent of scheduling order.
func (r *Runnable) runParallel(ctx context.Context, frontier []string, state model.ConversationState) (model.ConversationState, error) {
	results := make([]branchResult, len(frontier))

	eg, gctx := errgroup.WithContext(ctx)
	for i, name := range frontier {
		i, name := i, name
		eg.Go(func() error {
			res, err := r.runBranch(gctx, name, state.Clone())
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return state, err
	}

	merged := state.Clone()
	for _, res := range results {
		merged = mergeOwned(merged, res.state, res.owns)
	}
	return merged, nil
}

// runBranch walks a linear chain from name to END, accumulating the owned
// keys of every node on the chain.
func (r *Runnable) runBranch(ctx context.Context, name string, state model.ConversationState) (branchResult, error) {
	var owns []Key
	for name != End {
		n, ok := r.graph.nodes[name]
		if !ok {
			return branchResult{}, fmt.Errorf("branch reached unknown node %q", name)
		}
		out, err := r.runNode(ctx, n, state)
		if err != nil {
			return branchResult{}, err
		}
		state = out
		owns = append(owns, n.owns...)

		succ := r.graph.edges[name]
		if len(succ) != 1 {
			return branchResult{}, fmt.Errorf("node %q: nested fan-out is not supported", name)
		}
		name = succ[0]
	}
	return branchResult{state: state, owns: owns}, nil
}

// mergeOwned copies only the owned keys of a branch output into dst.
func mergeOwned(dst, src model.ConversationState, owns []Key) model.ConversationState {
	for _, k := range owns {
		switch k {
		case KeyMessages:
			dst.Messages = src.Messages
		case KeyExtractedData:
			dst.ExtractedData = src.ExtractedData
		case KeyNotes:
			dst.Notes = src.Notes
		case KeyAddresses:
			dst.Addresses = src.Addresses
		case KeyStatusMessage:
			dst.StatusMessage = src.StatusMessage
		}
	}
	return dst
}
