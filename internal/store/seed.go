package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/grocer-core-poc/server/internal/agent/model"
	"github.com/grocer-core-poc/server/internal/services/vectorsearch"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

const dateLayout = "2006-01-02"

type User struct {
	LoyaltyID    string
	Name         string
	Email        string
	StoreAddress string
	StoreID      string
}

type Product struct {
	ID         string
	Name       string
	Units      int
	UnitOfMeas string
	UnitPrice  float64
}

type Transaction struct {
	ID           string
	LoyaltyID    string
	ProductID    string
	Quantity     int
	PurchaseDate string
	ExpiryDate   string
}

type Recipe struct {
	ID          int
	Name        string
	Ingredients []string
	Steps       []string
}

// Content is the searchable summary stored with the recipe.
func (r Recipe) Content() string {
	return fmt.Sprintf("Recipe: %s. Ingredients: %s. Steps: %s",
		r.Name, strings.Join(r.Ingredients, ", "), strings.Join(r.Steps, " "))
}

// Dataset is the synthetic data written by Seed.
type Dataset struct {
	Users        []User
	Products     []Product
	Transactions []Transaction
	Recipes      []Recipe
	// OfferedProducts maps a loyalty id to its offered product ids.
	OfferedProducts map[string][]string
	Catalog         []model.CatalogFunction
}

// DefaultDataset returns a small multinational grocery dataset. Every user
// email is set to email so that deliveries reach a controlled inbox.
func DefaultDataset(email string) Dataset {
	return Dataset{
		Users: []User{
			{"L001", "Canadian", email, "150 Carlton, Toronto, Ontario, Canada", "5"},
			{"L002", "Indian", email, "Vihar, Delhi, India", "11"},
			{"L003", "Arab", email, "Financial Center Rd, Downtown Dubai, Dubai, United Arab Emirates", "21"},
			{"L004", "Mexican", email, "104, Parliament, Mexico City, Mexico", "2"},
		},
		Products: []Product{
			{"G001", "Milk", 1, "Liter", 1.99},
			{"G002", "Bread Loaf", 1, "Pack", 2.49},
			{"G003", "Apples", 1, "Kg", 3.49},
			{"G004", "Bananas", 1, "Kg", 0.99},
		},
		Transactions: []Transaction{
			{"T001", "L001", "G001", 2, "2023-09-01", "2023-09-10"},
			{"T002", "L002", "G002", 1, "2023-09-02", "2023-09-09"},
			{"T003", "L003", "G003", 3, "2023-09-03", "2023-09-12"},
			{"T004", "L004", "G004", 2, "2023-09-04", "2023-09-11"},
		},
		Recipes: []Recipe{
			{1, "Milkshake", []string{"Milk", "Bananas", "Sugar", "Ice cubes"},
				[]string{"Pour milk into a blender.", "Add sliced bananas and sugar.", "Blend until smooth.", "Serve with ice cubes."}},
			{2, "Fruit Salad", []string{"Apples", "Bananas", "Oranges", "Lemon juice"},
				[]string{"Chop all fruits into small pieces.", "Mix them in a large bowl.", "Drizzle with lemon juice.", "Serve chilled."}},
			{3, "Banana Bread", []string{"Bananas", "Flour", "Eggs", "Sugar", "Baking powder"},
				[]string{"Preheat oven to 175°C.", "Mash bananas.", "Mix all ingredients until well combined.", "Pour into a loaf pan and bake for 60 minutes."}},
		},
		OfferedProducts: map[string][]string{
			"L001": {"G001", "G002"},
			"L003": {"G001", "G002"},
			"L002": {"G003", "G004"},
			"L004": {"G003", "G004"},
		},
		Catalog: []model.CatalogFunction{
			{
				Name:        "genai__data__get_loyalty_points",
				Description: "Returns the total loyalty points a user can earn from current offers. Input is the user Loyalty ID.",
				Parameters:  []model.CatalogParam{{Name: "loyalty_id", Description: "Loyalty ID of the user, e.g. L001"}},
				Body:        "SELECT LoyaltyID, SUM(OfferLoyaltyPoints) AS TotalOfferPoints FROM offers WHERE LoyaltyID = :loyalty_id GROUP BY LoyaltyID",
			},
			{
				Name:        "genai__data__get_store_products",
				Description: "Lists product names and unit prices stocked by a store. Input is the store id.",
				Parameters:  []model.CatalogParam{{Name: "store_id", Description: "Store identifier, e.g. 5"}},
				Body:        "SELECT ProductID, ProductName, UnitPrice FROM products WHERE StoreID = :store_id ORDER BY ProductID",
			},
		},
	}
}

// Stores returns the distinct store ids of the dataset users, sorted.
func (d Dataset) Stores() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, u := range d.Users {
		if _, ok := seen[u.StoreID]; ok {
			continue
		}
		seen[u.StoreID] = struct{}{}
		out = append(out, u.StoreID)
	}
	sort.Strings(out)
	return out
}

// Seeder writes a Dataset into the relational store and, optionally, the
// similarity index.
type Seeder struct {
	DB      *sql.DB
	Indexer vectorsearch.Indexer
	Index   model.IndexConfig
	Now     func() time.Time
	Rand    *rand.Rand
}

// Seed replaces the content of every table with d.
func (s *Seeder) Seed(ctx context.Context, d Dataset) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	rng := s.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(now().UnixNano()))
	}

	if err := Migrate(ctx, s.DB); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, t := range []string{TableUsers, TableProducts, TableTransactions, TableRecipe, TableOffers, TableCatalogFunctions} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}

	for _, u := range d.Users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (LoyaltyID, UserName, UserEmail, UserHomeStoreAddress, StoreID) VALUES (?, ?, ?, ?, ?)`,
			u.LoyaltyID, u.Name, u.Email, u.StoreAddress, u.StoreID); err != nil {
			return fmt.Errorf("insert user %s: %w", u.LoyaltyID, err)
		}
	}

	products := make(map[string]Product, len(d.Products))
	for _, p := range d.Products {
		products[p.ID] = p
		for _, store := range d.Stores() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO products (ProductIDStoreId, ProductID, ProductName, Units, UnitOfMeasurement, UnitPrice, StoreID) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				p.ID+"_"+store, p.ID, p.Name, p.Units, p.UnitOfMeas, p.UnitPrice, store); err != nil {
				return fmt.Errorf("insert product %s: %w", p.ID, err)
			}
		}
	}

	usersByID := make(map[string]User, len(d.Users))
	for _, u := range d.Users {
		usersByID[u.LoyaltyID] = u
	}
	for _, t := range d.Transactions {
		p, ok := products[t.ProductID]
		if !ok {
			return fmt.Errorf("transaction %s references unknown product %s", t.ID, t.ProductID)
		}
		total := math.Round(float64(t.Quantity)*p.UnitPrice*100) / 100
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (TransactionID, LoyaltyID, ProductID, ProductName, QuantityPurchased, ProductPurchaseDate, ProductExpiryDate, UnitPrice, TotalPrice, StoreID)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.LoyaltyID, t.ProductID, p.Name, t.Quantity, t.PurchaseDate, t.ExpiryDate, p.UnitPrice, total, usersByID[t.LoyaltyID].StoreID); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	for _, r := range d.Recipes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe (RecipeID, RecipeName, Ingredients, Steps, content) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, strings.Join(r.Ingredients, ", "), strings.Join(r.Steps, " "), r.Content()); err != nil {
			return fmt.Errorf("insert recipe %s: %w", r.Name, err)
		}
	}

	start := now().Format(dateLayout)
	end := now().AddDate(0, 0, 7).Format(dateLayout)
	loyaltyIDs := make([]string, 0, len(d.OfferedProducts))
	for id := range d.OfferedProducts {
		loyaltyIDs = append(loyaltyIDs, id)
	}
	sort.Strings(loyaltyIDs)
	for _, id := range loyaltyIDs {
		points := 100 + rng.Intn(101)
		for _, pid := range d.OfferedProducts[id] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO offers (LoyaltyID, OfferedProductID, ProductName, OfferLoyaltyPoints, OfferStartDate, OfferEndDate) VALUES (?, ?, ?, ?, ?, ?)`,
				id, pid, products[pid].Name, points, start, end); err != nil {
				return fmt.Errorf("insert offer %s/%s: %w", id, pid, err)
			}
		}
	}

	for _, fn := range d.Catalog {
		params, err := sonic.MarshalString(fn.Parameters)
		if err != nil {
			return fmt.Errorf("marshal catalog params %s: %w", fn.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_functions (name, description, parameters, body) VALUES (?, ?, ?, ?)`,
			fn.Name, fn.Description, params, fn.Body); err != nil {
			return fmt.Errorf("insert catalog function %s: %w", fn.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	logx.Info().Int("users", len(d.Users)).Int("products", len(d.Products)).Msg("relational store seeded")

	if s.Indexer == nil {
		return nil
	}
	return s.seedIndexes(ctx, d)
}

func (s *Seeder) seedIndexes(ctx context.Context, d Dataset) error {
	for _, p := range d.Products {
		for _, store := range d.Stores() {
			key := p.ID + "_" + store
			err := s.Indexer.Upsert(ctx, s.Index.ProductIndex, key, map[string]any{
				"productID":   p.ID,
				"productName": p.Name,
				"unitPrice":   p.UnitPrice,
				"storeID":     store,
			})
			if err != nil {
				return err
			}
		}
	}
	for _, r := range d.Recipes {
		err := s.Indexer.Upsert(ctx, s.Index.RecipeIndex, fmt.Sprint(r.ID), map[string]any{
			"recipeID":   fmt.Sprint(r.ID),
			"recipeName": r.Name,
			"content":    r.Content(),
		})
		if err != nil {
			return err
		}
	}
	logx.Info().Str("product_index", s.Index.ProductIndex).Str("recipe_index", s.Index.RecipeIndex).Msg("similarity indexes seeded")
	return nil
}
