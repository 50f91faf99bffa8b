package tools

import (
	"context"
	"fmt"

	"github.com/grocer-core-poc/server/internal/services/vectorsearch"
)

const (
	colRecipeID      = "recipeID"
	colRecipeContent = "content"
)

// RecipeAdapter returns the content of the closest stored recipe.
type RecipeAdapter struct {
	search vectorsearch.Searcher
	index  string
}

func NewRecipeAdapter(s vectorsearch.Searcher, index string) *RecipeAdapter {
	return &RecipeAdapter{search: s, index: index}
}

func (a *RecipeAdapter) ID() ToolID { return Recipe }

// Invoke has no fallback: an empty index result is an error.
func (a *RecipeAdapter) Invoke(ctx context.Context, input string) (string, error) {
	rows, err := a.search.Search(ctx, vectorsearch.Query{
		Index:   a.index,
		Text:    input,
		Columns: []string{colRecipeID, colRecipeContent},
		Limit:   1,
	})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("recipe for %q: %w", input, vectorsearch.ErrNoResults)
	}
	return rows[0].String(colRecipeContent), nil
}

var _ Adapter = (*RecipeAdapter)(nil)
