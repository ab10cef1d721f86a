package ports

import (
	"context"

	"wiastat/domain/comparison"
)

// StatisticalBackend computes significance and summary statistics for the
// collections of one outcome. Collections share a data type; paired outcomes
// hold exactly two collections of equal length.
type StatisticalBackend interface {
	Compare(ctx context.Context, outcome *comparison.Outcome) (*comparison.Statistics, error)
}
