// Package report flattens samples and comparisons into the shapes the output
// writers consume.
package report

import (
	"strings"

	"wiastat/domain/sample"
)

// ExportToMatrix returns a header row holding every printable key of every
// sample, then one row per sample. Keys are merged case-insensitively in
// first-seen order; a sample without a key gets an empty cell.
func ExportToMatrix(samples []*sample.Sample) [][]string {
	var header []string
	column := make(map[string]int)
	rows := make([]map[int]string, len(samples))

	for i, s := range samples {
		rows[i] = make(map[int]string)
		for _, f := range s.PrintableFields() {
			key := strings.ToLower(f.Key)
			idx, ok := column[key]
			if !ok {
				idx = len(header)
				column[key] = idx
				header = append(header, f.Key)
			}
			if _, dup := rows[i][idx]; !dup {
				rows[i][idx] = f.Value
			}
		}
	}

	matrix := make([][]string, 0, len(samples)+1)
	matrix = append(matrix, header)
	for _, values := range rows {
		row := make([]string, len(header))
		for idx, v := range values {
			row[idx] = v
		}
		matrix = append(matrix, row)
	}
	return matrix
}
