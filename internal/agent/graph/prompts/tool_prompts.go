package prompts

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// DateLayout renders dates as in 2024-Mar-07.
const DateLayout = "2006-Jan-02"

const (
	// WeatherUnknown is the fallback answer when a location cannot be determined.
	WeatherUnknown = "Not able to determine the weather"
	// EmailNotFound is the value the extractor returns when no address is present.
	EmailNotFound = "no email found"
)

func RenderProductList(ctx context.Context, message string) (string, error) {
	return render(ctx, "product list", productListPrompt, schema.User, map[string]any{"Message": message})
}

func RenderStoreList(ctx context.Context, message string) (string, error) {
	return render(ctx, "store list", storeListPrompt, schema.User, map[string]any{"Message": message})
}

// RenderInventoryAnalysis embeds the serialized lookup records.
func RenderInventoryAnalysis(ctx context.Context, records string) (string, error) {
	return render(ctx, "inventory analysis", inventoryAnalysisPrompt, schema.User, map[string]any{"Records": records})
}

func RenderWeatherFallback(ctx context.Context, address, date string) (string, error) {
	return render(ctx, "weather fallback", weatherFallbackPrompt, schema.User, map[string]any{
		"Address": address,
		"Date":    date,
		"Unknown": WeatherUnknown,
	})
}

func RenderFestivals(ctx context.Context, details, date string) (string, error) {
	return render(ctx, "festivals", festivalsPrompt, schema.User, map[string]any{
		"Details": details,
		"Date":    date,
	})
}

func RenderEmailBody(ctx context.Context, summary string) (string, error) {
	return render(ctx, "email body", emailBodyPrompt, schema.User, map[string]any{"Summary": summary})
}

func RenderEmailAddress(ctx context.Context, summary string) (string, error) {
	return render(ctx, "email address", emailAddressPrompt, schema.User, map[string]any{
		"Summary":  summary,
		"NotFound": EmailNotFound,
	})
}

// RenderSQLQuery asks for one SELECT statement; observations carry the errors
// of previous attempts.
func RenderSQLQuery(ctx context.Context, schemaDump, question string, maxRows int, observations []string) (string, error) {
	return render(ctx, "sql query", sqlQueryPrompt, schema.User, map[string]any{
		"Schema":       schemaDump,
		"Question":     question,
		"MaxRows":      maxRows,
		"Observations": observations,
	})
}

func RenderSQLAnswer(ctx context.Context, question, query, result string) (string, error) {
	return render(ctx, "sql answer", sqlAnswerPrompt, schema.User, map[string]any{
		"Question": question,
		"Query":    query,
		"Result":   result,
	})
}
