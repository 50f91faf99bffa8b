package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocer-core-poc/server/internal/agent/model"
)

func testCatalog() *fakeCatalog {
	return &fakeCatalog{functions: []model.CatalogFunction{
		{Name: "genai__data__get_loyalty_points", Description: "points", Parameters: []model.CatalogParam{{Name: "loyalty_id"}}},
		{Name: "genai__data__get_store_products", Description: "products", Parameters: []model.CatalogParam{{Name: "store_id"}}},
		{Name: "other__schema__fn", Description: "hidden"},
	}}
}

func TestSpecsAreComplete(t *testing.T) {
	seen := map[string]bool{}
	for id := ToolID(0); id < toolCount; id++ {
		s := specs[id]
		assert.NotEmpty(t, s.name, "tool %d", id)
		assert.NotEmpty(t, s.description, "tool %d", id)
		assert.NotEmpty(t, s.param, "tool %d", id)
		assert.False(t, seen[s.name], "duplicate name %s", s.name)
		seen[s.name] = true
	}
	assert.Equal(t, "get_product_availability_and_price", Inventory.Name())
	assert.Equal(t, "send_email_function", SendEmail.String())
}

func TestNewRegistryRejectsMissingOrMisplacedAdapters(t *testing.T) {
	a := echoAdapters()
	a.Recipe = nil
	_, err := NewRegistry(context.Background(), a, nil, nil)
	assert.ErrorContains(t, err, "get_stored_recipie")

	a = echoAdapters()
	a.Weather = echoAdapter{id: Festivals}
	_, err = NewRegistry(context.Background(), a, nil, nil)
	assert.ErrorContains(t, err, "reports id")
}

func TestNewRegistryRequiresSourceForPatterns(t *testing.T) {
	_, err := NewRegistry(context.Background(), echoAdapters(), nil, []string{"genai.data.*"})
	assert.Error(t, err)
}

func TestRegistryToolsAndLookup(t *testing.T) {
	r, err := NewRegistry(context.Background(), echoAdapters(), testCatalog(), []string{"genai.data.*"})
	require.NoError(t, err)

	ts := r.Tools()
	require.Len(t, ts, int(toolCount)+2)

	infos, err := r.ToolInfos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "get_user_details", infos[0].Name)
	assert.Equal(t, "genai__data__get_loyalty_points", infos[toolCount].Name)

	id, ok := r.Lookup("get_weather_forecast")
	require.True(t, ok)
	assert.Equal(t, Weather, id)
	_, ok = r.Lookup("genai__data__get_loyalty_points")
	assert.False(t, ok)

	assert.True(t, r.IsCatalogFunction("genai.data.get_store_products"))
	assert.False(t, r.IsCatalogFunction("other__schema__fn"))
	assert.False(t, r.IsCatalogFunction("get_user_details"))

	names := r.PromptNames()
	assert.Equal(t, "get_expired_products_details", names.ExpiryTool)
	assert.Len(t, r.CatalogFunctions(), 2)
}

func TestAdapterToolInputSelection(t *testing.T) {
	r, err := NewRegistry(context.Background(), echoAdapters(), nil, nil)
	require.NoError(t, err)
	weather := r.Tools()[Weather].(tool.InvokableTool)

	tests := []struct {
		name string
		args string
		want string
	}{
		{"declared parameter", `{"address": " Delhi, India "}`, "get_weather_forecast:Delhi, India"},
		{"single other key", `{"location": "Dubai"}`, "get_weather_forecast:Dubai"},
		{"raw text", `Toronto, Canada`, "get_weather_forecast:Toronto, Canada"},
		{"several keys", `{"city": "Delhi", "country": "India"}`, "get_weather_forecast:city: Delhi\ncountry: India"},
		{"number value", `{"address": 42}`, "get_weather_forecast:42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := weather.InvokableRun(context.Background(), tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestAdapterToolWrapsErrors(t *testing.T) {
	a := echoAdapters()
	boom := errors.New("boom")
	a.SendEmail = echoAdapter{id: SendEmail, err: boom}
	r, err := NewRegistry(context.Background(), a, nil, nil)
	require.NoError(t, err)

	_, err = r.Tools()[SendEmail].(tool.InvokableTool).InvokableRun(context.Background(), `{}`)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "send_email_function")
}

func TestNormalizeArguments(t *testing.T) {
	r, err := NewRegistry(context.Background(), echoAdapters(), nil, nil)
	require.NoError(t, err)

	out, err := r.NormalizeArguments(context.Background(), "get_user_details", `{"user_question_with_loyalty_id": "  L001 points? ", "n": 3}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_question_with_loyalty_id": "L001 points?", "n": "3"}`, out)

	out, err = r.NormalizeArguments(context.Background(), "get_user_details", `not json`)
	require.NoError(t, err)
	assert.Equal(t, "not json", out)
}
