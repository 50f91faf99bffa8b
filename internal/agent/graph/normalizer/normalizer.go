// Package normalizer flattens dispatch loop events into display chunks.
package normalizer

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/model"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Placeholder stands in for tool chatter when tool activity is hidden.
const Placeholder = " "

const chunkSuffix = "\n\n"

// Options controls how tool activity is rendered.
type Options struct {
	// ShowToolActivity renders tool calls and results instead of Placeholder.
	ShowToolActivity bool
	// IsCatalog reports whether a tool name is a catalog function.
	IsCatalog func(name string) bool
}

func (o Options) isCatalog(name string) bool {
	return o.IsCatalog != nil && o.IsCatalog(name)
}

// Render yields the chunks of one event in emission order.
func Render(ev model.Event, opts Options) iter.Seq[string] {
	return func(yield func(string) bool) {
		switch e := ev.(type) {
		case model.BatchedEvent:
			for _, msg := range e.Messages {
				if !yield(RenderMessage(msg, opts) + chunkSuffix) {
					return
				}
			}
		case model.IncrementalEvent:
			for _, u := range e.Updates {
				for _, ch := range u.Channels {
					if ch.Messages == nil && ch.Value != nil {
						logx.Warn().
							Str("node", u.Node).
							Str("key", ch.Key).
							Str("type", fmt.Sprintf("%T", ch.Value)).
							Msg("Unexpected channel value; expected a message list")
						if !yield(fmt.Sprint(ch.Value)) {
							return
						}
						continue
					}
					for _, msg := range ch.Messages {
						if !yield(RenderMessage(msg, opts) + chunkSuffix) {
							return
						}
					}
				}
			}
		default:
			logx.Warn().Str("type", fmt.Sprintf("%T", ev)).Msg("Unexpected event type")
			if ev != nil {
				yield(fmt.Sprint(ev))
			}
		}
	}
}

// RenderMessage returns the display text of one message.
func RenderMessage(msg *schema.Message, opts Options) string {
	if msg == nil {
		logx.Warn().Msg("Unexpected nil message")
		return ""
	}
	switch {
	case msg.Role == schema.Tool:
		if !opts.ShowToolActivity {
			return Placeholder
		}
		return toolResult(msg, opts)
	case msg.Role == schema.Assistant && len(msg.ToolCalls) > 0:
		if !opts.ShowToolActivity {
			return Placeholder
		}
		var sb strings.Builder
		for _, tc := range msg.ToolCalls {
			sb.WriteString(toolCall(tc, opts))
		}
		return sb.String()
	case msg.Role == schema.Assistant || msg.Role == schema.User:
		return msg.Content
	default:
		logx.Warn().Str("role", string(msg.Role)).Msg("Unexpected message type")
		return msg.String()
	}
}

type callView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type resultView struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func toolCall(tc schema.ToolCall, opts Options) string {
	if !opts.isCatalog(tc.Function.Name) {
		return fmt.Sprintf("%s(%s)", tc.Function.Name, tc.Function.Arguments)
	}
	b, err := sonic.ConfigStd.MarshalIndent(callView{
		ID:        tc.ID,
		Name:      tc.Function.Name,
		Arguments: tc.Function.Arguments,
	}, "", "  ")
	if err != nil {
		return tc.Function.Name
	}
	return "<catalog_function_call>" + string(b) + "</catalog_function_call>"
}

func toolResult(msg *schema.Message, opts Options) string {
	if !opts.isCatalog(msg.ToolName) {
		return msg.String()
	}
	b, err := sonic.ConfigStd.MarshalIndent(resultView{ID: msg.ToolCallID, Content: msg.Content}, "", "  ")
	if err != nil {
		return msg.Content
	}
	return "<catalog_function_result>" + string(b) + "</catalog_function_result>"
}

// Stream renders events lazily as they arrive. A receive error on events is
// forwarded after the chunks rendered so far.
func Stream(events *schema.StreamReader[model.Event], opts Options) *schema.StreamReader[string] {
	sr, sw := schema.Pipe[string](8)
	go func() {
		defer sw.Close()
		defer events.Close()
		for {
			ev, err := events.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				sw.Send("", err)
				return
			}
			for chunk := range Render(ev, opts) {
				if closed := sw.Send(chunk, nil); closed {
					return
				}
			}
		}
	}()
	return sr
}

// Collect drains a chunk stream.
func Collect(chunks *schema.StreamReader[string]) ([]string, error) {
	defer chunks.Close()
	var out []string
	for {
		c, err := chunks.Recv()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}
