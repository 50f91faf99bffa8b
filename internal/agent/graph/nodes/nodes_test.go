package nodes

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocer-core-poc/server/internal/agent/graph/conversations"
	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/agent/repo"
)

func TestToolLimitHelpers(t *testing.T) {
	assert.Equal(t, DefaultMaxToolCalls, normalizeMaxToolCalls(0))
	assert.Equal(t, 3, normalizeMaxToolCalls(3))

	s := &model.AppState{}
	assert.False(t, incrementToolCallsAndCheck(s, 2, 3))
	assert.False(t, checkAndMarkToolLimit(s, 3))
	assert.False(t, incrementToolCallsAndCheck(s, 1, 3))
	assert.True(t, checkAndMarkToolLimit(s, 3))
	assert.True(t, s.ToolCallLimitReached)
	assert.True(t, incrementToolCallsAndCheck(s, 1, 3))
}

func TestWrapUpNotice(t *testing.T) {
	n := wrapUpNotice(0)
	assert.Equal(t, schema.System, n.Role)
	assert.Contains(t, n.Content, "maximum tool call limit (10)")
}

func TestAgentPostHandlerSynthesizesIDsAndSetsPhase(t *testing.T) {
	var updates []model.NodeUpdate
	ctx := WithEmitter(context.Background(), func(u model.NodeUpdate) { updates = append(updates, u) })

	h := NewAgentPostHandler(conversations.NewMessagesManager(nil), "gemini-2.5-flash")
	state := &model.AppState{ToolCallIDSeq: 4}
	out := &schema.Message{ToolCalls: []schema.ToolCall{
		{Function: schema.FunctionCall{Name: "get_user_details"}},
		{ID: "keep", Function: schema.FunctionCall{Name: "get_offers_details"}},
	}}

	got, err := h(ctx, out, state)
	require.NoError(t, err)
	assert.Equal(t, schema.Assistant, got.Role)
	assert.Equal(t, "call_5", got.ToolCalls[0].ID)
	assert.Equal(t, "keep", got.ToolCalls[1].ID)
	assert.Equal(t, model.ExecutingTool, state.Phase)
	assert.Equal(t, 2, state.PendingToolCalls)
	require.Len(t, state.Messages, 1)

	require.Len(t, updates, 1)
	assert.Equal(t, NodeAgent, updates[0].Node)
	assert.Same(t, got, updates[0].Channels[0].Messages[0])
}

func TestAgentPostHandlerDropsCallsPastLimit(t *testing.T) {
	h := NewAgentPostHandler(conversations.NewMessagesManager(nil), "m")
	state := &model.AppState{ToolCallLimitReached: true}
	out := schema.AssistantMessage("summary", []schema.ToolCall{{ID: "a"}})

	got, err := h(context.Background(), out, state)
	require.NoError(t, err)
	assert.Empty(t, got.ToolCalls)
	assert.Equal(t, model.Done, state.Phase)
	assert.Zero(t, state.PendingToolCalls)
}

func TestAgentPostHandlerAccumulatesCost(t *testing.T) {
	h := NewAgentPostHandler(conversations.NewMessagesManager(nil), "gemini-2.5-flash")
	state := &model.AppState{}
	out := schema.AssistantMessage("ok", nil)
	out.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500}}

	got, err := h(context.Background(), out, state)
	require.NoError(t, err)
	assert.Greater(t, state.TotalCostUSD, 0.0)
	assert.Equal(t, state.TotalCostUSD, got.Extra["usage_cost_total_usd"])
}

func TestAgentPreHandlerAddsNoticeAtLimit(t *testing.T) {
	h := NewAgentPreHandler(2)
	state := &model.AppState{SystemPrompt: "sys", Messages: []*schema.Message{schema.UserMessage("hi")}}

	in, err := h(context.Background(), nil, state)
	require.NoError(t, err)
	require.Len(t, in, 2)
	assert.Equal(t, "sys", in[0].Content)

	state.ToolCallCount = 2
	in, err = h(context.Background(), nil, state)
	require.NoError(t, err)
	require.Len(t, in, 3)
	assert.Contains(t, in[2].Content, "SYSTEM NOTICE")
	assert.Len(t, state.Messages, 1, "notice is not recorded in state")
}

func TestAgentCondition(t *testing.T) {
	cond := NewAgentCondition()
	next, err := cond(context.Background(), schema.AssistantMessage("", []schema.ToolCall{{ID: "a"}}))
	require.NoError(t, err)
	assert.Equal(t, NodeToolExecutor, next)

	next, err = cond(context.Background(), schema.AssistantMessage("done", nil))
	require.NoError(t, err)
	assert.Equal(t, NodeFinalize, next)
}

func TestToolExecutorPostHandler(t *testing.T) {
	call := schema.AssistantMessage("", []schema.ToolCall{
		{ID: "a", Function: schema.FunctionCall{Name: "get_weather_forecast"}},
	})
	state := &model.AppState{Messages: []*schema.Message{call}, PendingToolCalls: 1, Phase: model.ExecutingTool}
	h := NewToolExecutorPostHandler(conversations.NewMessagesManager(nil))

	out, err := h(context.Background(), []*schema.Message{schema.ToolMessage("Warm", "a")}, state)
	require.NoError(t, err)
	assert.Equal(t, "get_weather_forecast", out[0].ToolName)
	assert.Equal(t, model.AwaitingModelDecision, state.Phase)
	assert.Len(t, state.Messages, 2)

	state.PendingToolCalls = 2
	_, err = h(context.Background(), []*schema.Message{schema.ToolMessage("x", "a")}, state)
	assert.Error(t, err)
}

func TestToolCallsCheckpointedWithResults(t *testing.T) {
	ctx := context.Background()
	mm := conversations.NewMessagesManager(repo.NewMemoryConversationRepository(0))
	state := &model.AppState{ThreadID: "t1"}

	call := schema.AssistantMessage("", []schema.ToolCall{
		{ID: "a", Function: schema.FunctionCall{Name: "get_user_details"}},
	})
	_, err := NewAgentPostHandler(mm, "m")(ctx, call, state)
	require.NoError(t, err)

	msgs, err := mm.LoadThread(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, msgs, "tool calls must not be stored before their results")

	_, err = NewToolExecutorPostHandler(mm)(ctx, []*schema.Message{schema.ToolMessage("Alice", "a")}, state)
	require.NoError(t, err)

	msgs, err = mm.LoadThread(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.Assistant, msgs[0].Role)
	require.Len(t, msgs[0].ToolCalls, 1)
	assert.Equal(t, schema.Tool, msgs[1].Role)
	assert.Equal(t, "a", msgs[1].ToolCallID)

	_, err = NewAgentPostHandler(mm, "m")(ctx, schema.AssistantMessage("Hi Alice", nil), state)
	require.NoError(t, err)
	msgs, err = mm.LoadThread(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hi Alice", msgs[2].Content)
}

func TestToolExecutorPostHandlerWithoutCallMessage(t *testing.T) {
	state := &model.AppState{PendingToolCalls: 1}
	_, err := NewToolExecutorPostHandler(conversations.NewMessagesManager(nil))(
		context.Background(), []*schema.Message{schema.ToolMessage("x", "a")}, state)
	assert.Error(t, err)
}

func TestEmitWithoutEmitterIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		emit(context.Background(), NodeAgent, []*schema.Message{schema.AssistantMessage("x", nil)})
	})
}
