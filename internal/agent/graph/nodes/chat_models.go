package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/gg/gptr"
	einoGemini "github.com/cloudwego/eino-ext/components/model/gemini"
	einoOllama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoOpenAI "github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/grocer-core-poc/server/internal/agent/model"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Supported LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ChatModels holds the reasoning model and the model used inside adapters.
type ChatModels struct {
	Agent          einomodel.ToolCallingChatModel
	Tool           einomodel.ToolCallingChatModel
	AgentModelName string
	ToolModelName  string
}

// NewChatModels creates both chat models from the provider configuration.
func NewChatModels(ctx context.Context, llm model.LLMConfig, agent model.AgentModelConfig, tool model.ToolModelConfig) (*ChatModels, error) {
	agentModel, err := newChatModel(ctx, llm, agent.Model, agent.Temperature, agent.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating agent model")
		return nil, fmt.Errorf("error creating agent model: %w", err)
	}
	toolModel, err := newChatModel(ctx, llm, tool.Model, tool.Temperature, tool.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating tool model")
		return nil, fmt.Errorf("error creating tool model: %w", err)
	}

	return &ChatModels{
		Agent:          agentModel,
		Tool:           toolModel,
		AgentModelName: agent.Model,
		ToolModelName:  tool.Model,
	}, nil
}

func newChatModel(ctx context.Context, llm model.LLMConfig, name string, temperature float32, maxTokens int) (einomodel.ToolCallingChatModel, error) {
	switch strings.ToLower(llm.Provider) {
	case ProviderGemini, "":
		clientCfg := &genai.ClientConfig{
			APIKey:  llm.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if llm.BaseURL != "" {
			clientCfg.HTTPOptions.BaseURL = llm.BaseURL
		}
		client, err := genai.NewClient(ctx, clientCfg)
		if err != nil {
			return nil, fmt.Errorf("error creating Gemini client: %w", err)
		}
		return einoGemini.NewChatModel(ctx, &einoGemini.Config{
			Client:      client,
			Model:       name,
			Temperature: gptr.Of(temperature),
			MaxTokens:   gptr.Of(maxTokens),
		})

	case ProviderOpenAI:
		cfg := &einoOpenAI.ChatModelConfig{
			Model:       name,
			APIKey:      llm.APIKey,
			MaxTokens:   gptr.Of(maxTokens),
			Temperature: gptr.Of(temperature),
		}
		if llm.BaseURL != "" {
			cfg.BaseURL = llm.BaseURL
		}
		return einoOpenAI.NewChatModel(ctx, cfg)

	case ProviderOllama:
		cfg := &einoOllama.ChatModelConfig{
			BaseURL: "http://127.0.0.1:11434",
			Model:   name,
			Options: &einoOllama.Options{Temperature: temperature},
		}
		if llm.BaseURL != "" {
			cfg.BaseURL = llm.BaseURL
		}
		return einoOllama.NewChatModel(ctx, cfg)

	default:
		return nil, fmt.Errorf("unsupported llm provider %q", llm.Provider)
	}
}

// BindTools returns the agent model with tools attached.
func (cm *ChatModels) BindTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	bound, err := cm.Agent.WithTools(tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}
	logx.Debug().Int("tool_count", len(tools)).Msg("Successfully bound tools to agent model")
	return bound, nil
}
