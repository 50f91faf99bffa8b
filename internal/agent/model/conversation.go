package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessage appends a message to the checkpoint of the given thread
	AddMessage(ctx context.Context, threadID string, message *schema.Message) error

	// LoadHistory retrieves every checkpointed message of a thread
	LoadHistory(ctx context.Context, threadID string) (*ConversationHistory, error)

	// ClearHistory removes the checkpoint of a thread
	ClearHistory(ctx context.Context, threadID string) error

	// GetMessageCount returns the number of checkpointed messages
	GetMessageCount(ctx context.Context, threadID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ThreadID string
	Messages []*schema.Message
}

// ChatMessage is one {role, content} entry of an incoming request.
type ChatMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Configurable carries per-request options.
type Configurable struct {
	ThreadID string `json:"thread_id,omitempty"`
}

// ChatRequest is the conversation entry point payload.
type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	Configurable Configurable  `json:"configurable"`
	Stream       bool          `json:"stream,omitempty"`
}
