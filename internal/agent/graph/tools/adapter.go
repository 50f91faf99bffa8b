package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	logx "github.com/grocer-core-poc/server/pkg/logger"
)

var errNotObject = errors.New("arguments are not a JSON object")

// adapterTool exposes an Adapter to the eino tools node as a single-string
// parameter tool.
type adapterTool struct {
	spec    toolSpec
	adapter Adapter
}

func (t *adapterTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.spec.name,
		Desc: t.spec.description,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			t.spec.param: {
				Type:     schema.String,
				Desc:     t.spec.paramDesc,
				Required: true,
			},
		}),
	}, nil
}

func (t *adapterTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	input := t.input(argumentsInJSON)
	start := time.Now()
	logx.Debug().Str("tool", t.spec.name).Str("input", input).Msg("Tool invoked")

	out, err := t.adapter.Invoke(ctx, input)
	if err != nil {
		logx.Error().Str("tool", t.spec.name).Err(err).Dur("elapsed", time.Since(start)).Msg("Tool failed")
		return "", fmt.Errorf("%s: %w", t.spec.name, err)
	}
	logx.Debug().Str("tool", t.spec.name).Dur("elapsed", time.Since(start)).Int("output_len", len(out)).Msg("Tool finished")
	return out, nil
}

// input picks the declared parameter, or the only argument when the model
// used another key. Raw text is accepted as the argument itself.
func (t *adapterTool) input(arguments string) string {
	args, err := decodeArgs(arguments)
	if err != nil {
		return strings.TrimSpace(arguments)
	}
	if v, ok := args[t.spec.param]; ok {
		return v
	}
	if len(args) == 1 {
		for _, v := range args {
			return v
		}
	}
	// several unexpected keys: hand all of them over in a stable order
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+args[k])
	}
	return strings.Join(parts, "\n")
}

// decodeArgs reads a JSON object and renders every value as trimmed text.
func decodeArgs(arguments string) (map[string]string, error) {
	arguments = strings.TrimSpace(arguments)
	if arguments == "" {
		return map[string]string{}, nil
	}
	var raw map[string]any
	if err := sonic.UnmarshalString(arguments, &raw); err != nil {
		return nil, errNotObject
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = argString(v)
	}
	return out, nil
}

func argString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case map[string]any, []any:
		b, err := sonic.MarshalString(t)
		if err != nil {
			return strings.TrimSpace(fmt.Sprint(t))
		}
		return b
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func encodeArgs(args map[string]string) (string, error) {
	return sonic.MarshalString(args)
}

var _ tool.InvokableTool = (*adapterTool)(nil)
