package model

// LookupResult is the per (store, product) record of an inventory check.
type LookupResult struct {
	StoreID            string  `json:"store_id"`
	ProductQuery       string  `json:"product_query"`
	MatchedProductName string  `json:"matched_product_name"`
	MatchedProductID   string  `json:"matched_product_id"`
	MatchedPrice       float64 `json:"matched_price,omitempty"`
	SimilarityScore    float64 `json:"similarity_score"`
	Found              bool    `json:"found"`
}

const NoMatchProductName = "No same or similar product found"

// NotFoundLookup builds the sentinel record for a pair without a similarity match.
func NotFoundLookup(storeID, product string) LookupResult {
	return LookupResult{
		StoreID:            storeID,
		ProductQuery:       product,
		MatchedProductName: NoMatchProductName,
		MatchedProductID:   "No product found for " + storeID,
		SimilarityScore:    0,
	}
}

// CatalogFunction is a stored, parameterized read-only query exposed as a tool.
type CatalogFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  []CatalogParam `json:"parameters"`
	Body        string         `json:"body"`
}

type CatalogParam struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
