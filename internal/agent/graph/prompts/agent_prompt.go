package prompts

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// AgentToolNames names the tools the system prompt refers to.
type AgentToolNames struct {
	UserTool      string
	OffersTool    string
	InventoryTool string
	ExpiryTool    string
	RecipeTool    string
	WeatherTool   string
	FestivalTool  string
	EmailTool     string
}

// RenderAgentSystem renders the reasoning engine's system instruction. A
// non-empty override is rendered with the same variables in place of the
// embedded template.
func RenderAgentSystem(ctx context.Context, storeName, override string, names AgentToolNames) (string, error) {
	tpl := agentSystemPrompt
	if override != "" {
		tpl = override
	}
	return render(ctx, "agent system", tpl, schema.System, map[string]any{
		"StoreName":     storeName,
		"UserTool":      names.UserTool,
		"OffersTool":    names.OffersTool,
		"InventoryTool": names.InventoryTool,
		"ExpiryTool":    names.ExpiryTool,
		"RecipeTool":    names.RecipeTool,
		"WeatherTool":   names.WeatherTool,
		"FestivalTool":  names.FestivalTool,
		"EmailTool":     names.EmailTool,
	})
}
