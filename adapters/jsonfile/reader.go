// Package jsonfile loads and saves samples as a JSON array.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"wiastat/domain/sample"
	"wiastat/ports"
)

// Reader loads a JSON array of samples from a file.
type Reader struct {
	path string
}

var _ ports.SampleReader = (*Reader)(nil)

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) ReadSamples(ctx context.Context) ([]*sample.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	var samples []*sample.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.path, err)
	}
	for i, s := range samples {
		if s == nil || s.Path == "" {
			return nil, fmt.Errorf("%s: sample %d has no path", r.path, i)
		}
	}
	return samples, nil
}

// WriteSamples saves samples in the format Reader loads.
func WriteSamples(path string, samples []*sample.Sample) error {
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
