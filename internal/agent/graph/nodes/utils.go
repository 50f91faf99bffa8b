package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/model"
)

// Graph node keys.
const (
	NodeInputConverter = "input_converter"
	NodeAgent          = "agent"
	NodeToolExecutor   = "tools"
	NodeFinalize       = "finalize"
)

const DefaultMaxToolCalls = 10

// normalizeMaxToolCalls returns a sane default when the provided value is invalid.
func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit marks the state once the executed tool calls reach
// the limit. Returns true whenever the limit has been reached.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	if !state.ToolCallLimitReached && state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
	}
	return state.ToolCallLimitReached
}

// incrementToolCallsAndCheck adds n executed calls and marks the state if the
// count now exceeds the limit. Returns true when exceeded.
func incrementToolCallsAndCheck(state *model.AppState, n, max int) bool {
	max = normalizeMaxToolCalls(max)
	state.ToolCallCount += n
	if state.ToolCallCount > max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

func wrapUpNotice(max int) *schema.Message {
	return schema.SystemMessage(fmt.Sprintf(
		"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
			"Please synthesize a helpful response using the information you've already gathered. "+
			"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
		normalizeMaxToolCalls(max),
	))
}

// Emitter receives node outputs as they complete.
type Emitter func(update model.NodeUpdate)

type emitterKey struct{}

// WithEmitter attaches e to ctx; node handlers report their outputs to it.
func WithEmitter(ctx context.Context, e Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, e)
}

func emit(ctx context.Context, node string, msgs []*schema.Message) {
	e, ok := ctx.Value(emitterKey{}).(Emitter)
	if !ok || e == nil {
		return
	}
	e(model.NodeUpdate{
		Node:     node,
		Channels: []model.Channel{{Key: model.MessagesChannel, Messages: msgs}},
	})
}

// lastAssistant returns the most recent assistant message in history.
func lastAssistant(history []*schema.Message) *schema.Message {
	for i := len(history) - 1; i >= 0; i-- {
		if m := history[i]; m != nil && m.Role == schema.Assistant {
			return m
		}
	}
	return nil
}

// fillToolNames sets ToolName on results from the calls of call.
func fillToolNames(call *schema.Message, results []*schema.Message) {
	names := make(map[string]string, len(call.ToolCalls))
	for _, tc := range call.ToolCalls {
		names[tc.ID] = tc.Function.Name
	}
	for _, r := range results {
		if r != nil && r.ToolName == "" {
			r.ToolName = names[r.ToolCallID]
		}
	}
}
