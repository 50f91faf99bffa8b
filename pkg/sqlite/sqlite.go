package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path         string `split_words:"true" default:"data/grocer.db"`
	BusyTimeout  int    `split_words:"true" default:"5000"`
	MaxOpenConns int    `split_words:"true" default:"10"`
}

// New opens the database in WAL mode. A Path of ":memory:" opens a private
// in-memory database pinned to a single connection.
func (c *Config) New(ctx context.Context) (*sql.DB, error) {
	memory := c.Path == ":memory:" || strings.HasPrefix(c.Path, "file::memory:")
	dsn := c.Path
	if !memory {
		if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", c.Path, c.BusyTimeout)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if memory {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(c.MaxOpenConns)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
