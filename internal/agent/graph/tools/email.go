package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grocer-core-poc/server/internal/agent/graph/parsers"
	"github.com/grocer-core-poc/server/internal/agent/graph/prompts"
	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/services/completion"
	"github.com/grocer-core-poc/server/internal/services/mailer"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

const emailNotFoundReply = "Message sending failed as there was no email ID found for user"

// EmailAdapter renders a grocery list email and sends it. Unlike the other
// adapters it does not convert failures to text: extraction and delivery
// errors reach the dispatch loop.
type EmailAdapter struct {
	completer completion.Completer
	sender    mailer.Sender
	cfg       model.EmailConfig
}

func NewEmailAdapter(c completion.Completer, s mailer.Sender, cfg model.EmailConfig) *EmailAdapter {
	return &EmailAdapter{completer: c, sender: s, cfg: cfg}
}

func (a *EmailAdapter) ID() ToolID { return SendEmail }

func (a *EmailAdapter) Invoke(ctx context.Context, input string) (string, error) {
	bodyPrompt, err := prompts.RenderEmailBody(ctx, input)
	if err != nil {
		return "", err
	}
	body, err := a.completer.Complete(ctx, bodyPrompt)
	if err != nil {
		return "", err
	}

	addrPrompt, err := prompts.RenderEmailAddress(ctx, input)
	if err != nil {
		return "", err
	}
	raw, err := a.completer.Complete(ctx, addrPrompt)
	if err != nil {
		return "", err
	}
	fields, err := parsers.ParseStringDict(raw)
	if err != nil {
		return "", fmt.Errorf("extract recipient: %w", err)
	}
	receiver, ok := fields["email"]
	if !ok {
		return "", errors.New("extract recipient: missing email key")
	}

	if strings.Contains(receiver, "no email") {
		logx.Info().Str("tool", SendEmail.Name()).Msg("No recipient found, email not sent")
		return emailNotFoundReply, nil
	}
	if a.cfg.OverrideRecipient {
		receiver = a.cfg.Sender
	}

	if err := a.sender.Send(ctx, mailer.Message{
		From:    a.cfg.Sender,
		To:      receiver,
		Subject: a.cfg.Subject,
		HTML:    body,
	}); err != nil {
		return "", err
	}
	return "Message sent to: " + receiver, nil
}

var _ Adapter = (*EmailAdapter)(nil)
