package ports

import (
	"context"

	"wiastat/domain/sample"
)

// SampleReader loads analysed samples from some storage format.
type SampleReader interface {
	ReadSamples(ctx context.Context) ([]*sample.Sample, error)
}
