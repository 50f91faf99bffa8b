package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestResolvePricing(t *testing.T) {
	assert.Equal(t, Pricing{InputPerM: 0.30, OutputPerM: 2.50}, ResolvePricing("gemini-2.5-flash"))
	assert.Equal(t, Pricing{InputPerM: 0.15, OutputPerM: 0.60}, ResolvePricing("openai/gpt-4o-mini"))
	assert.Equal(t, Pricing{}, ResolvePricing("llama3.1"))
}

func TestComputeCost(t *testing.T) {
	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}, Pricing{InputPerM: 1, OutputPerM: 4})
	assert.InDelta(t, 1.0, in, 1e-9)
	assert.InDelta(t, 2.0, out, 1e-9)
	assert.InDelta(t, 3.0, total, 1e-9)

	in, out, total = ComputeCost(nil, Pricing{InputPerM: 1})
	assert.Zero(t, in)
	assert.Zero(t, out)
	assert.Zero(t, total)
}

func TestNotFoundLookup(t *testing.T) {
	r := NotFoundLookup("11", "grapes")
	assert.False(t, r.Found)
	assert.Equal(t, NoMatchProductName, r.MatchedProductName)
	assert.Equal(t, "No product found for 11", r.MatchedProductID)
	assert.Zero(t, r.SimilarityScore)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "awaiting_model_decision", AwaitingModelDecision.String())
	assert.Equal(t, "executing_tool", ExecutingTool.String())
	assert.Equal(t, "done", Done.String())
}
