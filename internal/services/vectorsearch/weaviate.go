package vectorsearch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"

	errx "github.com/grocer-core-poc/server/internal/core/error"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Weaviate implements Searcher and Indexer with nearText queries. Index names
// are Weaviate class names; columns are class properties.
type Weaviate struct {
	client *weaviate.Client
}

func NewWeaviate(client *weaviate.Client) *Weaviate {
	return &Weaviate{client: client}
}

func (w *Weaviate) Search(ctx context.Context, q Query) ([]Row, error) {
	if q.Index == "" {
		return nil, errors.New("similarity search: index is empty")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 1
	}

	fields := make([]graphql.Field, 0, len(q.Columns)+1)
	for _, c := range q.Columns {
		fields = append(fields, graphql.Field{Name: c})
	}
	fields = append(fields, graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}})

	nearText := w.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{q.Text})
	get := w.client.GraphQL().Get().
		WithClassName(q.Index).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit)
	if where := buildWhere(q.Filters); where != nil {
		get = get.WithWhere(where)
	}

	resp, err := get.Do(ctx)
	if err != nil {
		logx.Error().Err(err).Str("index", q.Index).Msg("similarity search failed")
		return nil, errx.WrapUpstream(fmt.Errorf("similarity search on %s: %w", q.Index, err))
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			if e != nil {
				msgs = append(msgs, e.Message)
			}
		}
		return nil, errx.WrapUpstream(fmt.Errorf("similarity search on %s: %s", q.Index, strings.Join(msgs, "; ")))
	}

	return decodeRows(resp.Data["Get"], q.Index), nil
}

func (w *Weaviate) Upsert(ctx context.Context, index, key string, properties map[string]any) error {
	id := ObjectID(index, key)
	exists, err := w.client.Data().Checker().WithClassName(index).WithID(id).Do(ctx)
	if err != nil {
		return errx.WrapUpstream(fmt.Errorf("check object %s/%s: %w", index, key, err))
	}
	if exists {
		err = w.client.Data().Updater().WithClassName(index).WithID(id).WithProperties(properties).Do(ctx)
	} else {
		_, err = w.client.Data().Creator().WithClassName(index).WithID(id).WithProperties(properties).Do(ctx)
	}
	if err != nil {
		return errx.WrapUpstream(fmt.Errorf("upsert object %s/%s: %w", index, key, err))
	}
	return nil
}

// ObjectID derives a stable object id from the index and business key.
func ObjectID(index, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(index+"/"+key)).String()
}

func buildWhere(eq map[string]string) *filters.WhereBuilder {
	if len(eq) == 0 {
		return nil
	}
	keys := make([]string, 0, len(eq))
	for k := range eq {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	operands := make([]*filters.WhereBuilder, 0, len(keys))
	for _, k := range keys {
		operands = append(operands, filters.Where().
			WithPath([]string{k}).
			WithOperator(filters.Equal).
			WithValueText(eq[k]))
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

// decodeRows reads Get.<class>[] from a GraphQL response payload.
func decodeRows(get any, class string) []Row {
	byClass, ok := get.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := byClass[class].([]any)
	if !ok {
		return nil
	}

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := Row{Values: make(map[string]any, len(obj))}
		for k, v := range obj {
			if k == "_additional" {
				if add, ok := v.(map[string]any); ok {
					if c, ok := add["certainty"].(float64); ok {
						row.Score = c
					}
				}
				continue
			}
			row.Values[k] = v
		}
		rows = append(rows, row)
	}
	return rows
}

var (
	_ Searcher = (*Weaviate)(nil)
	_ Indexer  = (*Weaviate)(nil)
)
