package ports

import (
	"context"

	"wiastat/domain/comparison"
	"wiastat/domain/core"
)

// RunRecord is a persisted run of the comparison engine.
type RunRecord struct {
	ID          core.RunID               `json:"id"`
	CreatedAt   core.Timestamp           `json:"created_at"`
	CohortHash  core.CohortHash          `json:"cohort_hash"`
	SampleCount int                      `json:"sample_count"`
	Comparisons []*comparison.Comparison `json:"comparisons"`
	Matrix      [][]string               `json:"matrix,omitempty"`
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	ID              core.RunID      `json:"id"`
	CreatedAt       core.Timestamp  `json:"created_at"`
	CohortHash      core.CohortHash `json:"cohort_hash"`
	SampleCount     int             `json:"sample_count"`
	ComparisonCount int             `json:"comparison_count"`
}

// RunRepository stores completed runs.
type RunRepository interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id core.RunID) (*RunRecord, error)
	ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error)
	DeleteRun(ctx context.Context, id core.RunID) error
}
