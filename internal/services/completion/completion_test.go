package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	reply *schema.Message
	err   error
	seen  []*schema.Message
}

func (s *stubModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	s.seen = in
	return s.reply, s.err
}

func (s *stubModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestCompleteSendsSingleUserMessage(t *testing.T) {
	m := &stubModel{reply: schema.AssistantMessage("  ['milk']\n", nil)}
	c := New(m, "gemini-2.5-flash-lite")

	out, err := c.Complete(context.Background(), "list products")
	require.NoError(t, err)
	assert.Equal(t, "['milk']", out)
	require.Len(t, m.seen, 1)
	assert.Equal(t, schema.User, m.seen[0].Role)
	assert.Equal(t, "list products", m.seen[0].Content)
}

func TestCompletePropagatesErrors(t *testing.T) {
	c := New(&stubModel{err: errors.New("quota")}, "m")
	_, err := c.Complete(context.Background(), "x")
	assert.ErrorContains(t, err, "quota")

	_, err = New(&stubModel{}, "m").Complete(context.Background(), "x")
	assert.ErrorContains(t, err, "empty response")
}
