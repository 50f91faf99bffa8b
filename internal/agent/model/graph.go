package model

import (
	"github.com/cloudwego/eino/schema"
)

// Phase is the dispatch loop position within a turn.
type Phase int

const (
	AwaitingModelDecision Phase = iota
	ExecutingTool
	Done
)

func (p Phase) String() string {
	switch p {
	case AwaitingModelDecision:
		return "awaiting_model_decision"
	case ExecutingTool:
		return "executing_tool"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type AppState struct {
	ThreadID     string
	SystemPrompt string
	Messages     []*schema.Message // running message list of the turn, checkpoint included
	Phase        Phase

	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // local sequence to synthesize tool_call_id when provider omits
	PendingToolCalls     int // tool calls requested by the last model response

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// TurnInput is the graph input: the new messages of a turn and an optional thread.
type TurnInput struct {
	ThreadID string
	Messages []*schema.Message
}
