package vectorsearch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrNoResults is returned by callers that require at least one row.
var ErrNoResults = errors.New("similarity search returned no results")

// Query is one nearest-neighbor request against an index.
type Query struct {
	Index   string
	Text    string
	Columns []string
	Limit   int
	// Filters are equality constraints, ANDed together.
	Filters map[string]string
}

// Row is a ranked search hit.
type Row struct {
	Values map[string]any
	Score  float64
}

// String returns the textual form of a column value, or "" when absent.
func (r Row) String(column string) string {
	v, ok := r.Values[column]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Float returns a numeric column value, parsing strings when needed.
func (r Row) Float(column string) float64 {
	switch t := r.Values[column].(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}

// Searcher is the similarity-search service.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Row, error)
}

// Indexer writes objects into an index, replacing objects with the same key.
type Indexer interface {
	Upsert(ctx context.Context, index, key string, properties map[string]any) error
}
