package migration

import (
	"context"

	"wiastat/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. Statements are kept to
// the subset of SQL that PostgreSQL and SQLite share.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysisRunsTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create analysis_runs table"))
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create indexes"))
	}

	return nil
}

func (r *MigrationRunner) createAnalysisRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id VARCHAR(64) PRIMARY KEY,
			created_at BIGINT NOT NULL,
			cohort_hash VARCHAR(64) NOT NULL,
			sample_count INTEGER NOT NULL,
			comparison_count INTEGER NOT NULL,
			comparisons TEXT NOT NULL,
			matrix TEXT
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_cohort_hash ON analysis_runs(cohort_hash)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
