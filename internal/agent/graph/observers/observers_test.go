package observers

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestLastUserContent(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage(" first "),
		schema.AssistantMessage("reply", nil),
		nil,
		schema.UserMessage("  second  "),
		schema.AssistantMessage("again", nil),
	}
	assert.Equal(t, "second", lastUserContent(msgs))
	assert.Empty(t, lastUserContent([]*schema.Message{schema.SystemMessage("sys")}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abc", 2))
}

func TestNewAllCallbacksBuildsHandler(t *testing.T) {
	assert.NotNil(t, NewAllCallbacks())
}
