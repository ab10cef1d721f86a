// Package store persists analysis runs in PostgreSQL or SQLite through sqlx.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"wiastat/internal/errors"
	"wiastat/internal/migration"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to url and applies migrations. postgres:// and
// postgresql:// URLs select PostgreSQL; anything else is a SQLite path,
// optionally prefixed with sqlite://. An empty url opens an in-memory database.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	driver, dsn := parseURL(url)

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to connect to %s database", driver), err)
	}
	if driver == "sqlite" {
		// One connection keeps an in-memory database alive and serializes writers.
		db.SetMaxOpenConns(1)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func parseURL(url string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres", url
	case url == "":
		return "sqlite", ":memory:"
	}
	return "sqlite", strings.TrimPrefix(url, "sqlite://")
}
