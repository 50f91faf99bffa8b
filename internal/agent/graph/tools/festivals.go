package tools

import (
	"context"
	"time"

	"github.com/grocer-core-poc/server/internal/agent/graph/prompts"
	"github.com/grocer-core-poc/server/internal/services/completion"
)

// FestivalAdapter suggests upcoming festivals and dishes from model knowledge.
type FestivalAdapter struct {
	completer completion.Completer
	now       func() time.Time
}

func NewFestivalAdapter(c completion.Completer, now func() time.Time) *FestivalAdapter {
	if now == nil {
		now = time.Now
	}
	return &FestivalAdapter{completer: c, now: now}
}

func (a *FestivalAdapter) ID() ToolID { return Festivals }

func (a *FestivalAdapter) Invoke(ctx context.Context, input string) (string, error) {
	p, err := prompts.RenderFestivals(ctx, input, a.now().Format(prompts.DateLayout))
	if err != nil {
		return "", err
	}
	return a.completer.Complete(ctx, p)
}

var _ Adapter = (*FestivalAdapter)(nil)
