package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAgentSystem(t *testing.T) {
	out, err := RenderAgentSystem(context.Background(), "Grocer", "", AgentToolNames{
		UserTool:      "get_user_details",
		InventoryTool: "get_product_availability_and_price",
		EmailTool:     "send_email_function",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "You are the Grocer grocery assistant")
	assert.Contains(t, out, "call get_user_details")
	assert.Contains(t, out, "Only call send_email_function")
}

func TestRenderAgentSystemOverride(t *testing.T) {
	out, err := RenderAgentSystem(context.Background(), "Grocer", "Be brief. Use {{.WeatherTool}}.", AgentToolNames{WeatherTool: "get_weather_forecast"})
	require.NoError(t, err)
	assert.Equal(t, "Be brief. Use get_weather_forecast.", out)
}

func TestRenderEmailPromptsKeepLiteralBraces(t *testing.T) {
	ctx := context.Background()

	body, err := RenderEmailBody(ctx, "Milk, Bread")
	require.NoError(t, err)
	assert.Contains(t, body, "h1{font-size:56px}")
	assert.Contains(t, body, "Your Grocery List")
	assert.Contains(t, body, "Here is the input details: Milk, Bread.")

	addr, err := RenderEmailAddress(ctx, "user L001")
	require.NoError(t, err)
	assert.Contains(t, addr, `{"email":"user@example.com"}`)
	assert.Contains(t, addr, "'no email found'")
}

func TestRenderSQLQueryObservations(t *testing.T) {
	ctx := context.Background()

	out, err := RenderSQLQuery(ctx, "CREATE TABLE users (LoyaltyID TEXT);", "who is L001?", 50, nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "Previous attempts failed")
	assert.Contains(t, out, "at most 50 rows")

	out, err = RenderSQLQuery(ctx, "CREATE TABLE users (LoyaltyID TEXT);", "who is L001?", 50, []string{"no such column: Name"})
	require.NoError(t, err)
	assert.Contains(t, out, "Previous attempts failed:\n- no such column: Name")
}

func TestRenderListPrompts(t *testing.T) {
	ctx := context.Background()
	out, err := RenderProductList(ctx, "milk in store 5")
	require.NoError(t, err)
	assert.Contains(t, out, "Here is the message: milk in store 5.")
	assert.Contains(t, out, "['grapes','juice']")

	out, err = RenderStoreList(ctx, "milk in store 5")
	require.NoError(t, err)
	assert.Contains(t, out, "['1','2']")
}
