package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocer-core-poc/server/internal/agent/model"
)

func TestNewSMTPRequiresHost(t *testing.T) {
	_, err := NewSMTP(model.EmailConfig{})
	assert.Error(t, err)

	s, err := NewSMTP(model.EmailConfig{Host: "smtp.example.com", Port: 465})
	require.NoError(t, err)
	assert.Equal(t, 465, s.port)
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage(Message{
		From:    "grocer@example.com",
		To:      "shopper@example.com",
		Subject: "Grocery List",
		HTML:    "<html><body>Milk</body></html>",
	})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"shopper@example.com"}, rcpts)
}

func TestBuildMessageRejectsBadAddress(t *testing.T) {
	_, err := buildMessage(Message{From: "grocer@example.com", To: "no email found"})
	assert.ErrorContains(t, err, "recipient address")
}
