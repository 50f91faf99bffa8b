package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/graph/conversations"
	"github.com/grocer-core-poc/server/internal/agent/graph/nodes"
	"github.com/grocer-core-poc/server/internal/agent/graph/observers"
	"github.com/grocer-core-poc/server/internal/agent/graph/prompts"
	"github.com/grocer-core-poc/server/internal/agent/graph/tools"
	"github.com/grocer-core-poc/server/internal/agent/model"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	Registry        *tools.Registry
	Prompt          model.PromptConfig
	ToolMaxCalls    int
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, []*schema.Message]
}

// Runner executes one turn of the dispatch loop.
type Runner struct {
	runnable compose.Runnable[model.TurnInput, []*schema.Message]
}

// Invoke runs the turn to completion and returns every message of the
// thread state, checkpoint history included.
func (r *Runner) Invoke(ctx context.Context, in model.TurnInput) (model.BatchedEvent, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return model.BatchedEvent{}, err
	}
	return model.BatchedEvent{Messages: out}, nil
}

// Stream runs the turn in the background and yields one IncrementalEvent per
// completed agent or tools step. A turn failure is delivered as the final
// stream error.
func (r *Runner) Stream(ctx context.Context, in model.TurnInput) *schema.StreamReader[model.Event] {
	sr, sw := schema.Pipe[model.Event](4)

	go func() {
		defer sw.Close()
		defer func() {
			if p := recover(); p != nil {
				logx.Error().Interface("panic", p).Msg("Turn panicked")
				sw.Send(nil, fmt.Errorf("turn panicked: %v", p))
			}
		}()

		emitCtx := nodes.WithEmitter(ctx, func(u model.NodeUpdate) {
			sw.Send(model.IncrementalEvent{Updates: []model.NodeUpdate{u}}, nil)
		})
		if _, err := r.runnable.Invoke(emitCtx, in, compose.WithCallbacks(observers.NewAllCallbacks())); err != nil {
			sw.Send(nil, err)
		}
	}()

	return sr
}

// BuildGraph constructs and compiles the agent graph.
func BuildGraph(ctx context.Context, config *GraphConfig) (*Runner, error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Agent == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, []*schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.addNodes(ctx); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Agent graph built successfully")
	return &Runner{runnable: runnable}, nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes(ctx context.Context) error {
	reg := b.config.Registry

	toolInfos, err := reg.ToolInfos(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}
	agentModel, err := b.config.ChatModels.BindTools(toolInfos)
	if err != nil {
		return err
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:                reg.Tools(),
		ExecuteSequentially:  true,
		UnknownToolsHandler:  reg.HandleUnknown,
		ToolArgumentsHandler: reg.NormalizeArguments,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	promptCfg := b.config.Prompt
	names := reg.PromptNames()
	systemPrompt := func(ctx context.Context) (string, error) {
		return prompts.RenderAgentSystem(ctx, promptCfg.StoreName, promptCfg.AgentPrompt, names)
	}

	mm := b.config.MessagesManager
	steps := []struct {
		name string
		add  func() error
	}{
		{nodes.NodeInputConverter, func() error {
			return b.graph.AddLambdaNode(nodes.NodeInputConverter,
				nodes.NewInputConverterNode(mm, systemPrompt),
				compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
			)
		}},
		{nodes.NodeAgent, func() error {
			return b.graph.AddChatModelNode(nodes.NodeAgent, agentModel,
				compose.WithStatePreHandler(nodes.NewAgentPreHandler(b.config.ToolMaxCalls)),
				compose.WithStatePostHandler(nodes.NewAgentPostHandler(mm, b.config.ChatModels.AgentModelName)),
			)
		}},
		{nodes.NodeToolExecutor, func() error {
			return b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
				compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
				compose.WithStatePostHandler(nodes.NewToolExecutorPostHandler(mm)),
			)
		}},
		{nodes.NodeFinalize, func() error {
			return b.graph.AddLambdaNode(nodes.NodeFinalize, nodes.NewFinalizeNode())
		}},
	}
	for _, s := range steps {
		if err := s.add(); err != nil {
			logx.Error().Err(err).Str("node", s.name).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", s.name, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeAgent},
		{nodes.NodeToolExecutor, nodes.NodeAgent},
		{nodes.NodeFinalize, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewAgentCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			nodes.NodeFinalize:     true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeAgent, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, []*schema.Message], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxCalls := b.config.ToolMaxCalls
	if maxCalls <= 0 {
		maxCalls = nodes.DefaultMaxToolCalls
	}
	maxSteps := max(20, 10+maxCalls*2)

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
