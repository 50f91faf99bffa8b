package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/grocer-core-poc/server/internal/agent/model"
	errx "github.com/grocer-core-poc/server/internal/core/error"
	"github.com/grocer-core-poc/server/internal/services/sqlagent"
)

// ErrFunctionNotFound is returned when a catalog function does not exist.
var ErrFunctionNotFound = errors.New("catalog function not found")

// Catalog reads and executes stored catalog functions.
type Catalog struct {
	db     *sql.DB
	limits sqlagent.Limits
}

func NewCatalog(db *sql.DB, limits sqlagent.Limits) *Catalog {
	return &Catalog{db: db, limits: limits}
}

// List returns every stored function, ordered by name.
func (c *Catalog) List(ctx context.Context) ([]model.CatalogFunction, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, description, parameters, body FROM catalog_functions ORDER BY name`)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()

	var out []model.CatalogFunction
	for rows.Next() {
		fn, err := scanFunction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStore(err)
	}
	return out, nil
}

func (c *Catalog) Get(ctx context.Context, name string) (model.CatalogFunction, error) {
	row := c.db.QueryRowContext(ctx, `SELECT name, description, parameters, body FROM catalog_functions WHERE name = ?`, name)
	fn, err := scanFunction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CatalogFunction{}, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	return fn, err
}

// Call executes the named function with args bound to its declared parameters.
func (c *Catalog) Call(ctx context.Context, name string, args map[string]string) (string, error) {
	fn, err := c.Get(ctx, name)
	if err != nil {
		return "", err
	}

	bound := make([]any, 0, len(fn.Parameters))
	for _, p := range fn.Parameters {
		v, ok := args[p.Name]
		if !ok {
			return "", fmt.Errorf("catalog function %s: missing argument %q", name, p.Name)
		}
		bound = append(bound, sql.Named(p.Name, v))
	}

	out, err := sqlagent.RunQuery(ctx, c.db, fn.Body, bound, c.limits)
	if err != nil {
		return "", errx.WrapStore(fmt.Errorf("catalog function %s: %w", name, err))
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFunction(s scanner) (model.CatalogFunction, error) {
	var fn model.CatalogFunction
	var params string
	if err := s.Scan(&fn.Name, &fn.Description, &params, &fn.Body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fn, err
		}
		return fn, errx.WrapStore(err)
	}
	if strings.TrimSpace(params) != "" {
		if err := sonic.UnmarshalString(params, &fn.Parameters); err != nil {
			return fn, fmt.Errorf("decode parameters of %s: %w", fn.Name, err)
		}
	}
	return fn, nil
}
