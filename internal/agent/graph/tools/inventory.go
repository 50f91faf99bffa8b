package tools

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/grocer-core-poc/server/internal/agent/graph/parsers"
	"github.com/grocer-core-poc/server/internal/agent/graph/prompts"
	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/services/completion"
	"github.com/grocer-core-poc/server/internal/services/vectorsearch"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Product index columns.
const (
	colProductID   = "productID"
	colProductName = "productName"
	colUnitPrice   = "unitPrice"
	colStoreID     = "storeID"
)

// FailureStage names the step of an inventory check that failed.
type FailureStage int

const (
	StageProductExtraction FailureStage = iota + 1
	StageStoreExtraction
	StageLookup
	StageAnalysis
)

func (s FailureStage) String() string {
	switch s {
	case StageProductExtraction:
		return "product_extraction"
	case StageStoreExtraction:
		return "store_extraction"
	case StageLookup:
		return "lookup"
	case StageAnalysis:
		return "analysis"
	default:
		return "unknown"
	}
}

type InventoryFailure struct {
	Stage FailureStage
	Err   error
}

// InventoryOutcome is either a successful analysis or a failure; Records
// holds whatever was looked up before a failure.
type InventoryOutcome struct {
	Records  []model.LookupResult
	Analysis string
	Failure  *InventoryFailure
}

func (o InventoryOutcome) String() string {
	if o.Failure != nil {
		return fmt.Sprintf("Unable to check inventory. Following error: %v", o.Failure.Err)
	}
	return o.Analysis
}

// InventoryAdapter checks availability and price of products per store.
type InventoryAdapter struct {
	completer completion.Completer
	search    vectorsearch.Searcher
	index     string
}

func NewInventoryAdapter(c completion.Completer, s vectorsearch.Searcher, index string) *InventoryAdapter {
	return &InventoryAdapter{completer: c, search: s, index: index}
}

func (a *InventoryAdapter) ID() ToolID { return Inventory }

// Invoke never fails; failures are reported in the returned text.
func (a *InventoryAdapter) Invoke(ctx context.Context, input string) (string, error) {
	out := a.Check(ctx, input)
	if out.Failure != nil {
		logx.Error().Str("tool", Inventory.Name()).Str("stage", out.Failure.Stage.String()).Err(out.Failure.Err).Msg("Inventory check failed")
	}
	return out.String(), nil
}

func (a *InventoryAdapter) Check(ctx context.Context, input string) InventoryOutcome {
	products, err := a.extractList(ctx, input, prompts.RenderProductList)
	if err != nil {
		return InventoryOutcome{Failure: &InventoryFailure{Stage: StageProductExtraction, Err: err}}
	}
	stores, err := a.extractList(ctx, input, prompts.RenderStoreList)
	if err != nil {
		return InventoryOutcome{Failure: &InventoryFailure{Stage: StageStoreExtraction, Err: err}}
	}

	records := make([]model.LookupResult, 0, len(stores)*len(products))
	for _, store := range stores {
		for _, product := range products {
			rec, err := a.lookup(ctx, store, product)
			if err != nil {
				return InventoryOutcome{Records: records, Failure: &InventoryFailure{Stage: StageLookup, Err: err}}
			}
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return InventoryOutcome{Records: records}
	}

	payload, err := sonic.MarshalString(records)
	if err != nil {
		return InventoryOutcome{Records: records, Failure: &InventoryFailure{Stage: StageAnalysis, Err: err}}
	}
	p, err := prompts.RenderInventoryAnalysis(ctx, payload)
	if err != nil {
		return InventoryOutcome{Records: records, Failure: &InventoryFailure{Stage: StageAnalysis, Err: err}}
	}
	analysis, err := a.completer.Complete(ctx, p)
	if err != nil {
		return InventoryOutcome{Records: records, Failure: &InventoryFailure{Stage: StageAnalysis, Err: err}}
	}
	return InventoryOutcome{Records: records, Analysis: analysis}
}

func (a *InventoryAdapter) extractList(
	ctx context.Context,
	input string,
	render func(context.Context, string) (string, error),
) ([]string, error) {
	p, err := render(ctx, input)
	if err != nil {
		return nil, err
	}
	out, err := a.completer.Complete(ctx, p)
	if err != nil {
		return nil, err
	}
	return parsers.ParseStringList(out)
}

func (a *InventoryAdapter) lookup(ctx context.Context, store, product string) (model.LookupResult, error) {
	rows, err := a.search.Search(ctx, vectorsearch.Query{
		Index:   a.index,
		Text:    product,
		Columns: []string{colProductID, colUnitPrice, colStoreID, colProductName},
		Limit:   1,
		Filters: map[string]string{colStoreID: store},
	})
	if err != nil {
		return model.LookupResult{}, err
	}
	if len(rows) == 0 {
		return model.NotFoundLookup(store, product), nil
	}
	row := rows[0]
	return model.LookupResult{
		StoreID:            store,
		ProductQuery:       product,
		MatchedProductName: row.String(colProductName),
		MatchedProductID:   row.String(colProductID),
		MatchedPrice:       row.Float(colUnitPrice),
		SimilarityScore:    row.Score,
		Found:              true,
	}, nil
}

var _ Adapter = (*InventoryAdapter)(nil)
