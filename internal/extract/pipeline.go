// Package extract assembles the shipment extraction pipeline: prompt
// resolution, the model invoker, the three extraction nodes and the
// orchestration graph, fronted by a per-session message history.
package extract

import (
	"context"
	"fmt"

	"github.com/shipmentbot/server/internal/extract/graph"
	"github.com/shipmentbot/server/internal/extract/llm"
	"github.com/shipmentbot/server/internal/extract/model"
	"github.com/shipmentbot/server/internal/extract/nodes"
	"github.com/shipmentbot/server/internal/extract/prompts"
	"github.com/shipmentbot/server/internal/extract/trace"
	"github.com/shipmentbot/server/internal/session"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// Config collects everything needed to assemble the pipeline.
type Config struct {
	LLM    model.LLMConfig
	Prompt model.PromptConfig
	Trace  model.TraceConfig
	Graph  model.GraphConfig

	// Sessions stores message history per session. Optional: when nil the
	// pipeline runs stateless and each request carries its own transcript.
	Sessions session.Repository
}

// Request is one extraction turn.
type Request struct {
	// SessionID groups turns into a conversation. Empty means one-shot.
	SessionID string
	// Input is the user message to extract from.
	Input string
}

// Pipeline executes extraction turns against a compiled graph.
type Pipeline struct {
	runner   *graph.Runnable
	sessions session.Repository
	threaded bool
}

// Build wires the models, resolver and nodes into a compiled graph. With
// cfg.Graph.Parallel the validate node fans out to all three extractors,
// otherwise only the shipment extraction runs.
func Build(ctx context.Context, cfg Config) (*Pipeline, error) {
	models, err := llm.NewModels(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build chat models: %w", err)
	}

	var sink trace.Sink
	if cfg.Trace.Enabled {
		sink = trace.LogSink{}
	}
	invoker, err := llm.NewInvoker(models, cfg.LLM, cfg.Trace, sink)
	if err != nil {
		return nil, fmt.Errorf("build invoker: %w", err)
	}

	var promptStore prompts.Store
	if cfg.Prompt.StoreEndpoint != "" {
		promptStore = prompts.NewHTTPStore(cfg.Prompt.StoreEndpoint, cfg.Prompt.StoreAPIKey)
	}
	resolver := prompts.NewResolver(cfg.Prompt, promptStore)

	var store graph.Store
	if cfg.Graph.Checkpointing {
		store = graph.NewMemoryStore()
	}

	shipmentNode := nodes.NewShipmentExtractor(resolver, invoker, cfg.Prompt.DefaultPrompt)
	if !cfg.LLM.Structured {
		shipmentNode = nodes.NewShipmentTextExtractor(resolver, invoker, cfg.Prompt.DefaultPrompt)
	}

	runner, err := buildGraph(resolver, invoker, shipmentNode, cfg.Graph.Parallel, store)
	if err != nil {
		return nil, err
	}

	logx.Info().
		Bool("parallel", cfg.Graph.Parallel).
		Bool("checkpointing", cfg.Graph.Checkpointing).
		Str("model", cfg.LLM.Model).
		Msg("extraction pipeline ready")

	return &Pipeline{
		runner:   runner,
		sessions: cfg.Sessions,
		threaded: cfg.Graph.Checkpointing,
	}, nil
}

// buildGraph lays out the transition table.
//
// Sequential:  START -> validate -> shipment_extractor -> END
// Parallel:    START -> validate -> parallel_processing
//              -> {shipment_extractor, notes_extractor, addresses_extractor}
//              -> END
func buildGraph(resolver nodes.PromptResolver, inv *llm.Invoker, shipmentNode nodes.Func, parallel bool, store graph.Store) (*graph.Runnable, error) {
	g := graph.New().
		AddNode(nodes.NodeValidate, nodes.NewValidate(), graph.KeyMessages).
		AddNode(nodes.NodeShipmentExtractor, shipmentNode,
			graph.KeyExtractedData, graph.KeyStatusMessage).
		AddEdge(graph.Start, nodes.NodeValidate)

	if !parallel {
		g.AddEdge(nodes.NodeValidate, nodes.NodeShipmentExtractor).
			AddEdge(nodes.NodeShipmentExtractor, graph.End)
		return g.Compile(store)
	}

	g.AddRouter(nodes.NodeParallelProcessing).
		AddNode(nodes.NodeNotesExtractor, nodes.NewNotesExtractor(resolver, inv), graph.KeyNotes).
		AddNode(nodes.NodeAddressesExtractor, nodes.NewAddressesExtractor(resolver, inv), graph.KeyAddresses).
		AddEdge(nodes.NodeValidate, nodes.NodeParallelProcessing).
		AddEdge(nodes.NodeParallelProcessing, nodes.NodeShipmentExtractor).
		AddEdge(nodes.NodeParallelProcessing, nodes.NodeNotesExtractor).
		AddEdge(nodes.NodeParallelProcessing, nodes.NodeAddressesExtractor).
		AddEdge(nodes.NodeShipmentExtractor, graph.End).
		AddEdge(nodes.NodeNotesExtractor, graph.End).
		AddEdge(nodes.NodeAddressesExtractor, graph.End)

	return g.Compile(store)
}

// Extract runs one turn. With a session repository the new input is
// appended to the stored history first, so the graph always sees the full
// ordered transcript.
func (p *Pipeline) Extract(ctx context.Context, req Request) (model.ConversationState, error) {
	messages := []string{req.Input}

	if p.sessions != nil && req.SessionID != "" {
		if err := p.sessions.Append(ctx, req.SessionID, req.Input); err != nil {
			return model.ConversationState{}, fmt.Errorf("append session message: %w", err)
		}
		history, err := p.sessions.History(ctx, req.SessionID)
		if err != nil {
			return model.ConversationState{}, fmt.Errorf("load session history: %w", err)
		}
		messages = history
	}

	state := model.ConversationState{Messages: messages}

	var opts []graph.InvokeOption
	if p.threaded && req.SessionID != "" {
		opts = append(opts, graph.WithThreadID(req.SessionID))
		// a checkpointed thread already holds the prior messages, only the
		// new input is handed in
		state.Messages = []string{req.Input}
	}

	return p.runner.Invoke(ctx, state, opts...)
}
