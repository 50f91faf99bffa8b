package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/graph/conversations"
	"github.com/grocer-core-poc/server/internal/agent/model"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// SystemPromptFunc renders the agent system instruction.
type SystemPromptFunc func(ctx context.Context) (string, error)

// NewInputConverterPreHandler resets the per-turn counters.
func NewInputConverterPreHandler() func(context.Context, model.TurnInput, *model.AppState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.AppState) (model.TurnInput, error) {
		s.ThreadID = in.ThreadID
		s.Phase = model.AwaitingModelDecision
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.PendingToolCalls = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode loads the thread checkpoint, validates and persists
// the new messages, and seeds the running message list.
func NewInputConverterNode(mm *conversations.MessagesManager, systemPrompt SystemPromptFunc) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) ([]*schema.Message, error) {
		history, err := mm.LoadThread(ctx, in.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("load thread: %w", err)
		}
		if err := conversations.ValidateTurn(history, in.Messages); err != nil {
			return nil, err
		}
		if err := mm.Save(ctx, in.ThreadID, in.Messages...); err != nil {
			return nil, fmt.Errorf("save turn input: %w", err)
		}

		sys, err := systemPrompt(ctx)
		if err != nil {
			return nil, fmt.Errorf("render agent system prompt: %w", err)
		}

		msgs := make([]*schema.Message, 0, len(history)+len(in.Messages))
		msgs = append(msgs, history...)
		msgs = append(msgs, in.Messages...)

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.SystemPrompt = sys
			s.Messages = msgs
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().
			Str("thread_id", in.ThreadID).
			Int("history", len(history)).
			Int("incoming", len(in.Messages)).
			Msg("Turn started")
		return msgs, nil
	})
}

// NewAgentPreHandler builds the model input from state: the system prompt,
// the running messages and, once the tool budget is spent, a wrap-up notice.
func NewAgentPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, _ []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		in := make([]*schema.Message, 0, len(state.Messages)+2)
		if state.SystemPrompt != "" {
			in = append(in, schema.SystemMessage(state.SystemPrompt))
		}
		in = append(in, state.Messages...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			in = append(in, wrapUpNotice(maxToolCalls))
		}
		state.Phase = model.AwaitingModelDecision

		logx.Debug().Str("thread_id", state.ThreadID).Int("messages", len(in)).Msg("AI thinking...")
		return in, nil
	}
}

// NewAgentPostHandler accounts usage cost, fills missing tool call ids,
// records the response and decides the next phase.
func NewAgentPostHandler(mm *conversations.MessagesManager, modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("agent model returned no message")
		}

		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
			logx.Debug().
				Str("thread_id", state.ThreadID).
				Str("node", NodeAgent).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")

			// Accumulate only total cost into state
			state.TotalCostUSD += totalC
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
		}

		if state.ToolCallLimitReached && len(out.ToolCalls) > 0 {
			// past the budget the calls are never executed, so they are not recorded
			logx.Warn().
				Str("thread_id", state.ThreadID).
				Int("dropped_tool_calls", len(out.ToolCalls)).
				Msg("Tool call limit reached - dropping requested tool calls")
			out.ToolCalls = nil
		}

		// Normalize tool calls: some providers may omit tool_call IDs.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}
		if out.Role == "" {
			out.Role = schema.Assistant
		}

		state.Messages = append(state.Messages, out)
		state.PendingToolCalls = len(out.ToolCalls)
		if len(out.ToolCalls) > 0 {
			state.Phase = model.ExecutingTool
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			state.Phase = model.Done
			logx.Debug().Float64("turn_cost_usd", state.TotalCostUSD).Msg("AI response ready")
		}

		// tool calls are checkpointed with their results by the tools node
		if len(out.ToolCalls) == 0 {
			if err := mm.Save(ctx, state.ThreadID, out); err != nil {
				logx.Error().Str("thread_id", state.ThreadID).Err(err).Msg("Error saving assistant message")
				return nil, err
			}
		}

		emit(ctx, NodeAgent, []*schema.Message{out})
		return out, nil
	}
}

// NewAgentCondition routes to the tools node while tool calls are pending.
func NewAgentCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, out *schema.Message) (string, error) {
		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}
		logx.Debug().Msg("No tool calls - finishing turn")
		return NodeFinalize, nil
	}
}

// NewToolExecutorPreHandler counts the calls about to run.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		exceeded := incrementToolCallsAndCheck(state, len(in.ToolCalls), maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("thread_id", state.ThreadID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("thread_id", state.ThreadID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}

// NewToolExecutorPostHandler records one result message per requested call
// and checkpoints the calling assistant message together with its results.
func NewToolExecutorPostHandler(mm *conversations.MessagesManager) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		if len(out) != state.PendingToolCalls {
			return nil, fmt.Errorf("tools node returned %d results for %d calls", len(out), state.PendingToolCalls)
		}
		call := lastAssistant(state.Messages)
		if call == nil {
			return nil, fmt.Errorf("tools node returned results without a tool call message")
		}
		fillToolNames(call, out)
		state.Messages = append(state.Messages, out...)
		state.PendingToolCalls = 0
		state.Phase = model.AwaitingModelDecision

		saved := make([]*schema.Message, 0, len(out)+1)
		saved = append(saved, call)
		saved = append(saved, out...)
		if err := mm.Save(ctx, state.ThreadID, saved...); err != nil {
			logx.Error().Str("thread_id", state.ThreadID).Err(err).Msg("Error saving tool results")
			return nil, err
		}

		emit(ctx, NodeToolExecutor, out)
		return out, nil
	}
}

// NewFinalizeNode returns every message of the turn state.
func NewFinalizeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ *schema.Message) ([]*schema.Message, error) {
		var msgs []*schema.Message
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.AppState) error {
			s.Phase = model.Done
			msgs = append([]*schema.Message(nil), s.Messages...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return msgs, nil
	})
}
