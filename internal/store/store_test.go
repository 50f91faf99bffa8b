package store

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/services/sqlagent"
	pkgsqlite "github.com/grocer-core-poc/server/pkg/sqlite"
)

type recordingIndexer struct {
	objects map[string]map[string]any
}

func (r *recordingIndexer) Upsert(_ context.Context, index, key string, props map[string]any) error {
	if r.objects == nil {
		r.objects = map[string]map[string]any{}
	}
	r.objects[index+"/"+key] = props
	return nil
}

func seededDB(t *testing.T, idx *recordingIndexer) *sql.DB {
	t.Helper()
	ctx := context.Background()
	cfg := pkgsqlite.Config{Path: ":memory:"}
	db, err := cfg.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := &Seeder{
		DB:    db,
		Index: model.IndexConfig{ProductIndex: "Product", RecipeIndex: "Recipe"},
		Now:   func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) },
		Rand:  rand.New(rand.NewSource(1)),
	}
	if idx != nil {
		s.Indexer = idx
	}
	require.NoError(t, s.Seed(ctx, DefaultDataset("grocer@example.com")))
	return db
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSeedPopulatesTables(t *testing.T) {
	db := seededDB(t, nil)

	assert.Equal(t, 4, count(t, db, TableUsers))
	assert.Equal(t, 16, count(t, db, TableProducts))
	assert.Equal(t, 4, count(t, db, TableTransactions))
	assert.Equal(t, 3, count(t, db, TableRecipe))
	assert.Equal(t, 8, count(t, db, TableOffers))
	assert.Equal(t, 2, count(t, db, TableCatalogFunctions))

	var total float64
	var store string
	require.NoError(t, db.QueryRow(`SELECT TotalPrice, StoreID FROM transactions WHERE TransactionID = 'T003'`).Scan(&total, &store))
	assert.InDelta(t, 10.47, total, 1e-9)
	assert.Equal(t, "21", store)

	var start, end string
	var points int
	require.NoError(t, db.QueryRow(`SELECT OfferStartDate, OfferEndDate, OfferLoyaltyPoints FROM offers WHERE LoyaltyID = 'L002' AND OfferedProductID = 'G003'`).Scan(&start, &end, &points))
	assert.Equal(t, "2024-03-07", start)
	assert.Equal(t, "2024-03-14", end)
	assert.GreaterOrEqual(t, points, 100)
	assert.LessOrEqual(t, points, 200)
}

func TestSeedIsRepeatable(t *testing.T) {
	db := seededDB(t, nil)
	s := &Seeder{DB: db}
	require.NoError(t, s.Seed(context.Background(), DefaultDataset("grocer@example.com")))
	assert.Equal(t, 4, count(t, db, TableUsers))
}

func TestSeedIndexes(t *testing.T) {
	idx := &recordingIndexer{}
	seededDB(t, idx)

	assert.Len(t, idx.objects, 16+3)
	milk := idx.objects["Product/G001_5"]
	require.NotNil(t, milk)
	assert.Equal(t, "Milk", milk["productName"])
	assert.Equal(t, "5", milk["storeID"])

	shake := idx.objects["Recipe/1"]
	require.NotNil(t, shake)
	assert.Contains(t, shake["content"], "Recipe: Milkshake. Ingredients: Milk, Bananas, Sugar, Ice cubes. Steps: Pour milk")
}

func TestCatalogCall(t *testing.T) {
	db := seededDB(t, nil)
	c := NewCatalog(db, sqlagent.Limits{MaxRows: 10})
	ctx := context.Background()

	fns, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, fns, 2)
	assert.Equal(t, "genai__data__get_loyalty_points", fns[0].Name)
	assert.Equal(t, "loyalty_id", fns[0].Parameters[0].Name)

	out, err := c.Call(ctx, "genai__data__get_store_products", map[string]string{"store_id": "11"})
	require.NoError(t, err)
	assert.Contains(t, out, "ProductID | ProductName | UnitPrice")
	assert.Contains(t, out, "G004 | Bananas | 0.99")

	_, err = c.Call(ctx, "genai__data__get_store_products", map[string]string{})
	assert.ErrorContains(t, err, `missing argument "store_id"`)

	_, err = c.Call(ctx, "genai__data__nope", nil)
	assert.ErrorIs(t, err, ErrFunctionNotFound)
}

func TestDatasetStores(t *testing.T) {
	assert.Equal(t, []string{"11", "2", "21", "5"}, DefaultDataset("x").Stores())
}
