package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names of the relational store.
const (
	TableUsers            = "users"
	TableProducts         = "products"
	TableTransactions     = "transactions"
	TableRecipe           = "recipe"
	TableOffers           = "offers"
	TableCatalogFunctions = "catalog_functions"
)

// Column comments are kept inside the DDL so schema dumps carry them.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	LoyaltyID TEXT PRIMARY KEY,        -- loyalty program identifier of the user, e.g. L001
	UserName TEXT NOT NULL,            -- display name of the user
	UserEmail TEXT,                    -- email address used for grocery list delivery
	UserHomeStoreAddress TEXT,         -- postal address of the user's home store
	StoreID TEXT NOT NULL              -- identifier of the user's home store
);

CREATE TABLE IF NOT EXISTS products (
	ProductIDStoreId TEXT PRIMARY KEY, -- product id and store id joined by an underscore
	ProductID TEXT NOT NULL,           -- product identifier, e.g. G001
	ProductName TEXT NOT NULL,         -- product name
	Units INTEGER NOT NULL,            -- number of units per sale
	UnitOfMeasurement TEXT NOT NULL,   -- unit of measurement of one unit
	UnitPrice REAL NOT NULL,           -- price of one unit
	StoreID TEXT NOT NULL              -- store stocking the product
);
CREATE INDEX IF NOT EXISTS idx_products_store ON products(StoreID);

CREATE TABLE IF NOT EXISTS transactions (
	TransactionID TEXT PRIMARY KEY,    -- purchase identifier
	LoyaltyID TEXT NOT NULL,           -- purchasing user
	ProductID TEXT NOT NULL,           -- purchased product
	ProductName TEXT NOT NULL,         -- purchased product name
	QuantityPurchased INTEGER NOT NULL,-- number of units purchased
	ProductPurchaseDate TEXT NOT NULL, -- purchase date, YYYY-MM-DD
	ProductExpiryDate TEXT NOT NULL,   -- best before date of the purchased product, YYYY-MM-DD
	UnitPrice REAL NOT NULL,           -- price of one unit at purchase
	TotalPrice REAL NOT NULL,          -- QuantityPurchased times UnitPrice
	StoreID TEXT NOT NULL              -- store of the purchase
);
CREATE INDEX IF NOT EXISTS idx_transactions_loyalty ON transactions(LoyaltyID);

CREATE TABLE IF NOT EXISTS recipe (
	RecipeID INTEGER PRIMARY KEY,      -- recipe identifier
	RecipeName TEXT NOT NULL,          -- dish name
	Ingredients TEXT NOT NULL,         -- comma separated ingredients
	Steps TEXT NOT NULL,               -- preparation steps
	content TEXT NOT NULL              -- searchable summary of name, ingredients and steps
);

CREATE TABLE IF NOT EXISTS offers (
	LoyaltyID TEXT NOT NULL,           -- user receiving the offer
	OfferedProductID TEXT NOT NULL,    -- product on offer
	ProductName TEXT NOT NULL,         -- name of the product on offer
	OfferLoyaltyPoints INTEGER NOT NULL, -- loyalty points earned when buying the product
	OfferStartDate TEXT NOT NULL,      -- first day of the offer, YYYY-MM-DD
	OfferEndDate TEXT NOT NULL,        -- last day of the offer, YYYY-MM-DD
	PRIMARY KEY (LoyaltyID, OfferedProductID)
);

CREATE TABLE IF NOT EXISTS catalog_functions (
	name TEXT PRIMARY KEY,             -- tool name, dots replaced by double underscores
	description TEXT NOT NULL,
	parameters TEXT NOT NULL,          -- JSON list of {name, description}
	body TEXT NOT NULL                 -- SELECT statement with :name placeholders
);
`

// Migrate creates every table of the relational store.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
