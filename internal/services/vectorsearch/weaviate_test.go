package vectorsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRows(t *testing.T) {
	get := map[string]any{
		"Product": []any{
			map[string]any{
				"productID":   "G001",
				"productName": "Milk",
				"unitPrice":   1.99,
				"storeID":     "5",
				"_additional": map[string]any{"certainty": 0.93},
			},
			"garbage",
		},
	}

	rows := decodeRows(get, "Product")
	require.Len(t, rows, 1)
	assert.InDelta(t, 0.93, rows[0].Score, 1e-9)
	assert.Equal(t, "G001", rows[0].String("productID"))
	assert.Equal(t, "1.99", rows[0].String("unitPrice"))
	assert.InDelta(t, 1.99, rows[0].Float("unitPrice"), 1e-9)
	assert.NotContains(t, rows[0].Values, "_additional")
}

func TestDecodeRowsMissingClass(t *testing.T) {
	assert.Empty(t, decodeRows(map[string]any{"Recipe": []any{}}, "Product"))
	assert.Empty(t, decodeRows(nil, "Product"))
}

func TestBuildWhere(t *testing.T) {
	assert.Nil(t, buildWhere(nil))

	assert.NotNil(t, buildWhere(map[string]string{"storeID": "5"}))
	assert.NotNil(t, buildWhere(map[string]string{"storeID": "5", "productID": "G001"}))
}

func TestRowAccessors(t *testing.T) {
	r := Row{Values: map[string]any{"price": "2.49", "n": 3}}
	assert.InDelta(t, 2.49, r.Float("price"), 1e-9)
	assert.Equal(t, "3", r.String("n"))
	assert.Equal(t, "", r.String("missing"))
	assert.Zero(t, r.Float("missing"))
}

func TestObjectIDIsStable(t *testing.T) {
	assert.Equal(t, ObjectID("Product", "G001_5"), ObjectID("Product", "G001_5"))
	assert.NotEqual(t, ObjectID("Product", "G001_5"), ObjectID("Product", "G001_2"))
}
