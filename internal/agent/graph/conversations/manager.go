package conversations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/model"
	errx "github.com/grocer-core-poc/server/internal/core/error"
)

// MessagesManager loads and appends thread checkpoints. A nil repository or
// an empty thread id disables persistence.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
}

func NewMessagesManager(conversationRepo model.ConversationRepository) *MessagesManager {
	return &MessagesManager{conversationRepo: conversationRepo}
}

// Enabled reports whether threadID is checkpointed.
func (cm *MessagesManager) Enabled(threadID string) bool {
	return cm != nil && cm.conversationRepo != nil && strings.TrimSpace(threadID) != ""
}

// LoadThread returns the checkpointed messages of threadID.
func (cm *MessagesManager) LoadThread(ctx context.Context, threadID string) ([]*schema.Message, error) {
	if !cm.Enabled(threadID) {
		return nil, nil
	}
	history, err := cm.conversationRepo.LoadHistory(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return history.Messages, nil
}

// Save appends msgs to the checkpoint of threadID in order.
func (cm *MessagesManager) Save(ctx context.Context, threadID string, msgs ...*schema.Message) error {
	if !cm.Enabled(threadID) {
		return nil
	}
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if err := cm.conversationRepo.AddMessage(ctx, threadID, m); err != nil {
			return err
		}
	}
	return nil
}

// FromChatMessages converts request messages to schema messages.
func FromChatMessages(in []model.ChatMessage) ([]*schema.Message, error) {
	if len(in) == 0 {
		return nil, errx.WrapBadRequest(errors.New("messages must not be empty"))
	}
	out := make([]*schema.Message, 0, len(in))
	for i, m := range in {
		switch schema.RoleType(strings.ToLower(strings.TrimSpace(m.Role))) {
		case schema.User:
			out = append(out, schema.UserMessage(m.Content))
		case schema.Assistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		case schema.System:
			out = append(out, schema.SystemMessage(m.Content))
		case schema.Tool:
			out = append(out, schema.ToolMessage(m.Content, m.ToolCallID, schema.WithToolName(m.Name)))
		default:
			return nil, errx.WrapBadRequest(fmt.Errorf("message %d: unsupported role %q", i, m.Role))
		}
	}
	return out, nil
}

// ValidateTurn checks that every tool message of incoming answers a call id
// issued by an earlier assistant message of history or incoming.
func ValidateTurn(history, incoming []*schema.Message) error {
	issued := map[string]bool{}
	collect := func(m *schema.Message) {
		if m.Role != schema.Assistant {
			return
		}
		for _, tc := range m.ToolCalls {
			if tc.ID != "" {
				issued[tc.ID] = true
			}
		}
	}
	for _, m := range history {
		if m != nil {
			collect(m)
		}
	}
	for i, m := range incoming {
		if m == nil {
			return errx.WrapBadRequest(fmt.Errorf("message %d is empty", i))
		}
		switch m.Role {
		case schema.User, schema.Assistant, schema.System:
		case schema.Tool:
			if !issued[m.ToolCallID] {
				return errx.WrapBadRequest(fmt.Errorf("message %d: tool result references unknown call id %q", i, m.ToolCallID))
			}
		default:
			return errx.WrapBadRequest(fmt.Errorf("message %d: unsupported role %q", i, m.Role))
		}
		collect(m)
	}
	return nil
}
