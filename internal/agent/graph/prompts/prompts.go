package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

var (
	//go:embed template/agent_prompt.txt
	agentSystemPrompt string
	//go:embed template/product_list.txt
	productListPrompt string
	//go:embed template/store_list.txt
	storeListPrompt string
	//go:embed template/inventory_analysis.txt
	inventoryAnalysisPrompt string
	//go:embed template/weather_fallback.txt
	weatherFallbackPrompt string
	//go:embed template/festivals.txt
	festivalsPrompt string
	//go:embed template/email_body.txt
	emailBodyPrompt string
	//go:embed template/email_address.txt
	emailAddressPrompt string
	//go:embed template/sql_query.txt
	sqlQueryPrompt string
	//go:embed template/sql_answer.txt
	sqlAnswerPrompt string
)

// render formats a single-message Go template via the Eino prompt component so
// that prompt callbacks fire for every rendered prompt.
func render(ctx context.Context, name, tpl string, role schema.RoleType, vars map[string]any) (string, error) {
	msg := &schema.Message{Role: role, Content: tpl}
	msgs, err := prompt.FromMessages(schema.GoTemplate, msg).Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}
