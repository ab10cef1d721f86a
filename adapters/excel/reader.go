package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"wiastat/domain/sample"
	"wiastat/ports"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *zap.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *zap.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: logger.Named("excel")}
}

// ReadSheet reads one sheet into header-keyed rows. CSV files have a single
// sheet and ignore the name. A missing sheet yields (nil, nil) when optional.
func (r *DataReader) ReadSheet(sheet string, optional bool) (*ExcelData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		if sheet != SamplesSheet {
			return nil, nil
		}
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData(sheet, optional)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *DataReader) readExcelData(sheet string, optional bool) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, r.filePath)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	r.logger.Debug("sheet read",
		zap.String("sheet", sheet), zap.Int("rows", len(rows)), zap.Duration("elapsed", time.Since(startTime)))

	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %s must have a header row", sheet)
	}
	return r.processRows(rows), nil
}

func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("CSV file must have a header row")
	}
	return r.processRows(rows), nil
}

// processRows converts raw string rows into ExcelData format. Header keys
// are lower-cased so that lookups are case-insensitive.
func (r *DataReader) processRows(rows [][]string) *ExcelData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	var dataRows []RawRowData
	for _, row := range rows[1:] {
		rowData := make(RawRowData)
		empty := true
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
				if rowData[headers[j]] != "" {
					empty = false
				}
			}
		}
		if !empty {
			dataRows = append(dataRows, rowData)
		}
	}
	return &ExcelData{Headers: headers, Rows: dataRows}
}

// SampleReader loads samples from a workbook with a Samples sheet and an
// optional Waves sheet, or from a CSV file holding only the Samples columns.
type SampleReader struct {
	data   *DataReader
	logger *zap.Logger
}

var _ ports.SampleReader = (*SampleReader)(nil)

func NewSampleReader(filePath string, logger *zap.Logger) *SampleReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampleReader{data: NewDataReader(filePath, logger), logger: logger.Named("samples")}
}

// ReadSamples parses every sample row and attaches its waves.
func (r *SampleReader) ReadSamples(ctx context.Context) ([]*sample.Sample, error) {
	samplesData, err := r.data.ReadSheet(SamplesSheet, false)
	if err != nil {
		return nil, err
	}

	var samples []*sample.Sample
	byFile := make(map[string]*sample.Sample)
	for i, row := range samplesData.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := parseSample(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SamplesSheet, i+2, err)
		}
		if _, dup := byFile[s.Key()]; dup {
			return nil, fmt.Errorf("%s row %d: duplicate file %q", SamplesSheet, i+2, s.Path)
		}
		byFile[s.Key()] = s
		samples = append(samples, s)
	}

	wavesData, err := r.data.ReadSheet(WavesSheet, true)
	if err != nil {
		return nil, err
	}
	if wavesData != nil {
		for i, row := range wavesData.Rows {
			file := row.get(ColFile)
			s, ok := byFile[(&sample.Sample{Path: file}).Key()]
			if !ok {
				return nil, fmt.Errorf("%s row %d: unknown file %q", WavesSheet, i+2, file)
			}
			w, err := parseWave(row)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", WavesSheet, i+2, err)
			}
			s.Waves = append(s.Waves, w)
		}
	}

	r.logger.Info("samples loaded", zap.String("file", r.data.filePath), zap.Int("samples", len(samples)))
	return samples, nil
}

func (row RawRowData) get(column string) string {
	return row[strings.ToLower(column)]
}

func (row RawRowData) float(column string) (float64, error) {
	v := row.get(column)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not a number", column, v)
	}
	return f, nil
}

func (row RawRowData) optionalFloat(column string) (*float64, error) {
	if row.get(column) == "" {
		return nil, nil
	}
	f, err := row.float(column)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (row RawRowData) tristate(column string) (sample.Tristate, error) {
	switch strings.ToLower(row.get(column)) {
	case "":
		return sample.Unknown, nil
	case "yes", "y", "true", "1":
		return sample.True, nil
	case "no", "n", "false", "0":
		return sample.False, nil
	}
	return sample.Unknown, fmt.Errorf("column %s: %q is not yes/no", column, row.get(column))
}

func parseSample(row RawRowData) (*sample.Sample, error) {
	s := &sample.Sample{
		Path:      row.get(ColFile),
		Subject:   row.get(ColSubject),
		Treatment: row.get(ColTreatment),
	}
	if s.Path == "" {
		return nil, fmt.Errorf("column %s is required", ColFile)
	}

	scalars := []struct {
		column string
		dst    *float64
	}{
		{ColWaveSpeed, &s.WaveSpeed},
		{ColAvgPressure, &s.AvgPressure},
		{ColMaxPressure, &s.MaxPressure},
		{ColMinPressure, &s.MinPressure},
		{ColAvgFlow, &s.AvgFlow},
		{ColMaxFlow, &s.MaxFlow},
		{ColMinFlow, &s.MinFlow},
		{ColResistance, &s.Resistance},
		{ColCumulativeNet, &s.CumulativeNet},
		{ColCumulativeForward, &s.CumulativeForward},
		{ColCumulativeBackward, &s.CumulativeBackward},
		{ColPeakForward, &s.PeakForward},
		{ColPeakBackward, &s.PeakBackward},
	}
	for _, sc := range scalars {
		v, err := row.float(sc.column)
		if err != nil {
			return nil, err
		}
		*sc.dst = v
	}

	optional := []struct {
		column string
		dst    **float64
	}{
		{ColVesselDiameter, &s.VesselDiameter},
		{ColFlowReserve, &s.FlowReserve},
		{ColResistanceIndex, &s.ResistanceIndex},
		{ColFlowIncrease, &s.FlowIncrease},
	}
	for _, o := range optional {
		v, err := row.optionalFloat(o.column)
		if err != nil {
			return nil, err
		}
		*o.dst = v
	}

	var err error
	if s.EndoDependentFlag, err = row.tristate(ColEndoDependent); err != nil {
		return nil, err
	}
	if s.EndoIndependentFlag, err = row.tristate(ColEndoIndependent); err != nil {
		return nil, err
	}
	return s, nil
}

func parseWave(row RawRowData) (sample.Wave, error) {
	w := sample.Wave{Name: row.get(ColWave)}
	if w.Name == "" {
		return w, fmt.Errorf("column %s is required", ColWave)
	}
	dir, err := sample.ParseDirection(row.get(ColDirection))
	if err != nil {
		return w, err
	}
	w.Direction = dir

	fields := []struct {
		column string
		dst    *float64
	}{
		{ColStart, &w.StartTime},
		{ColEnd, &w.EndTime},
		{ColCumulativeIntensity, &w.CumulativeIntensity},
		{ColPeakIntensity, &w.PeakIntensity},
	}
	for _, f := range fields {
		v, err := row.float(f.column)
		if err != nil {
			return w, err
		}
		*f.dst = v
	}
	return w, nil
}
