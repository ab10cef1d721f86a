package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"

	"wiastat/domain/comparison"
	"wiastat/domain/core"
	"wiastat/internal/errors"
	"wiastat/ports"
)

// RunRepository implements ports.RunRepository on an analysis_runs table.
type RunRepository struct {
	db *sqlx.DB
}

var _ ports.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a repository over a migrated database.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

type runRow struct {
	ID              string         `db:"id"`
	CreatedAt       int64          `db:"created_at"`
	CohortHash      string         `db:"cohort_hash"`
	SampleCount     int            `db:"sample_count"`
	ComparisonCount int            `db:"comparison_count"`
	Comparisons     string         `db:"comparisons"`
	Matrix          sql.NullString `db:"matrix"`
}

func (r runRow) summary() ports.RunSummary {
	return ports.RunSummary{
		ID:              core.RunID(r.ID),
		CreatedAt:       core.NewTimestamp(time.Unix(0, r.CreatedAt).UTC()),
		CohortHash:      core.CohortHash(r.CohortHash),
		SampleCount:     r.SampleCount,
		ComparisonCount: r.ComparisonCount,
	}
}

// SaveRun stores a run, assigning an ID and timestamp when they are unset.
func (r *RunRepository) SaveRun(ctx context.Context, run *ports.RunRecord) error {
	if run.ID == "" {
		run.ID = core.NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = core.Now()
	}

	comparisons, err := json.Marshal(run.Comparisons)
	if err != nil {
		return errors.Wrap(err, "failed to encode comparisons")
	}
	var matrix sql.NullString
	if run.Matrix != nil {
		data, err := json.Marshal(run.Matrix)
		if err != nil {
			return errors.Wrap(err, "failed to encode matrix")
		}
		matrix = sql.NullString{String: string(data), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO analysis_runs (id, created_at, cohort_hash, sample_count, comparison_count, comparisons, matrix)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), run.ID.String(), run.CreatedAt.Time().UnixNano(), run.CohortHash.String(),
		run.SampleCount, len(run.Comparisons), string(comparisons), matrix)
	if err != nil {
		return errors.DatabaseError("failed to save run", err)
	}
	return nil
}

// GetRun loads a run with its comparisons.
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT id, created_at, cohort_hash, sample_count, comparison_count, comparisons, matrix
		FROM analysis_runs
		WHERE id = ?
	`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("run " + id.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load run", err)
	}

	s := row.summary()
	run := &ports.RunRecord{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		CohortHash:  s.CohortHash,
		SampleCount: s.SampleCount,
	}
	var comparisons []*comparison.Comparison
	if err := json.Unmarshal([]byte(row.Comparisons), &comparisons); err != nil {
		return nil, errors.Wrap(err, "failed to decode comparisons")
	}
	run.Comparisons = comparisons
	if row.Matrix.Valid {
		if err := json.Unmarshal([]byte(row.Matrix.String), &run.Matrix); err != nil {
			return nil, errors.Wrap(err, "failed to decode matrix")
		}
	}
	return run, nil
}

// ListRuns returns run summaries, newest first. A limit of zero or less
// returns every run.
func (r *RunRepository) ListRuns(ctx context.Context, limit, offset int) ([]ports.RunSummary, error) {
	query := `
		SELECT id, created_at, cohort_hash, sample_count, comparison_count, '' AS comparisons, NULL AS matrix
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	summaries := make([]ports.RunSummary, len(rows))
	for i, row := range rows {
		summaries[i] = row.summary()
	}
	return summaries, nil
}

// DeleteRun removes a run; deleting an unknown run is a NOT_FOUND error.
func (r *RunRepository) DeleteRun(ctx context.Context, id core.RunID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM analysis_runs WHERE id = ?`), id.String())
	if err != nil {
		return errors.DatabaseError("failed to delete run", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to delete run", err)
	}
	if n == 0 {
		return errors.NotFound("run " + id.String())
	}
	return nil
}
