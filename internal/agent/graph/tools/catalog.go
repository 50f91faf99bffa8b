package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/grocer-core-poc/server/internal/agent/model"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// catalogSeparator replaces dots in catalog names, which tool names may not carry.
const catalogSeparator = "__"

// CatalogSource lists and executes stored catalog functions.
type CatalogSource interface {
	List(ctx context.Context) ([]model.CatalogFunction, error)
	Call(ctx context.Context, name string, args map[string]string) (string, error)
}

// catalogPattern is one allow-list entry, either an exact function name or a
// prefix ending in a wildcard.
type catalogPattern struct {
	raw      string
	prefix   string
	wildcard bool
}

// NormalizeCatalogName maps dotted names like genai.data.fn to genai__data__fn.
func NormalizeCatalogName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), ".", catalogSeparator)
}

func parsePatterns(patterns []string) []catalogPattern {
	out := make([]catalogPattern, 0, len(patterns))
	for _, p := range patterns {
		n := NormalizeCatalogName(p)
		if n == "" {
			continue
		}
		cp := catalogPattern{raw: p, prefix: n}
		if strings.HasSuffix(n, "*") {
			cp.prefix = strings.TrimSuffix(n, "*")
			cp.wildcard = true
		}
		out = append(out, cp)
	}
	return out
}

// matchLen returns the length of the matched prefix, or -1.
func (p catalogPattern) matchLen(name string) int {
	if p.wildcard {
		if strings.HasPrefix(name, p.prefix) {
			return len(p.prefix)
		}
		return -1
	}
	if name == p.prefix {
		return len(p.prefix)
	}
	return -1
}

type catalogMatch struct {
	function string
	pattern  string
}

type catalogSet struct {
	source    CatalogSource
	patterns  []catalogPattern
	functions []model.CatalogFunction
}

func loadCatalog(ctx context.Context, source CatalogSource, patterns []string) (*catalogSet, error) {
	cs := &catalogSet{source: source, patterns: parsePatterns(patterns)}
	if len(cs.patterns) == 0 {
		return cs, nil
	}
	if source == nil {
		return nil, fmt.Errorf("catalog patterns %v configured without a catalog source", patterns)
	}

	fns, err := source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog functions: %w", err)
	}
	for _, fn := range fns {
		if _, ok := cs.resolve(fn.Name); ok {
			cs.functions = append(cs.functions, fn)
		}
	}
	return cs, nil
}

// resolve normalizes name and picks the longest allow-listed pattern matching it.
func (cs *catalogSet) resolve(name string) (catalogMatch, bool) {
	if cs == nil {
		return catalogMatch{}, false
	}
	n := NormalizeCatalogName(name)
	best := -1
	var m catalogMatch
	for _, p := range cs.patterns {
		if l := p.matchLen(n); l > best {
			best = l
			m = catalogMatch{function: n, pattern: p.raw}
		}
	}
	return m, best >= 0
}

func runCatalog(ctx context.Context, source CatalogSource, name string, args map[string]string) string {
	out, err := source.Call(ctx, name, args)
	if err != nil {
		// the model may correct its arguments and retry
		logx.Warn().Str("function", name).Err(err).Msg("Catalog function failed")
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return out
}

// catalogTool exposes one stored function with string parameters.
type catalogTool struct {
	fn     model.CatalogFunction
	source CatalogSource
}

func (t *catalogTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	params := make(map[string]*schema.ParameterInfo, len(t.fn.Parameters))
	for _, p := range t.fn.Parameters {
		params[p.Name] = &schema.ParameterInfo{Type: schema.String, Desc: p.Description, Required: true}
	}
	return &schema.ToolInfo{
		Name:        t.fn.Name,
		Desc:        t.fn.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

func (t *catalogTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args, err := decodeArgs(argumentsInJSON)
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.fn.Name, err)
	}
	logx.Debug().Str("tool", t.fn.Name).Interface("args", args).Msg("Catalog function invoked")
	return runCatalog(ctx, t.source, t.fn.Name, args), nil
}

var _ tool.InvokableTool = (*catalogTool)(nil)
