package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Completer sends one prompt to a language model and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatCompleter adapts an Eino chat model to Completer.
type ChatCompleter struct {
	model     model.BaseChatModel
	modelName string
}

func New(m model.BaseChatModel, modelName string) *ChatCompleter {
	return &ChatCompleter{model: m, modelName: modelName}
}

func (c *ChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.model == nil {
		return "", errors.New("completion model is nil")
	}
	out, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}
	if out == nil {
		return "", errors.New("generate completion: empty response")
	}

	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		logx.Debug().
			Str("model", c.modelName).
			Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
			Msg("Completion usage")
	}
	return strings.TrimSpace(out.Content), nil
}

var _ Completer = (*ChatCompleter)(nil)
