package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"wiastat/adapters/excel"
	"wiastat/adapters/markdown"
	"wiastat/adapters/pdf"
	"wiastat/adapters/plot"
	"wiastat/adapters/stats/backend"
	"wiastat/domain/category"
	"wiastat/domain/comparison"
	"wiastat/domain/core"
	"wiastat/domain/sample"
	internalcomparison "wiastat/internal/comparison"
	"wiastat/internal/config"
	"wiastat/internal/derived"
	"wiastat/internal/errors"
	"wiastat/internal/report"
	"wiastat/internal/subtype"
	"wiastat/ports"
)

// AnalysisService is the entry point for one cohort: it owns the sample
// registry, derives the cross-treatment metrics, runs the comparison plan and
// writes reports. It is not safe for concurrent use.
type AnalysisService struct {
	cfg        config.AnalysisConfig
	registry   *category.Registry
	classifier *subtype.Classifier
	calculator *derived.Calculator
	builder    *internalcomparison.Builder
	runner     *internalcomparison.Runner
	runs       ports.RunRepository
	logger     *zap.Logger

	comparisons []*comparison.Comparison
	lastRun     *ports.RunRecord
}

// Options wires the service's collaborators. Only Config is required; a nil
// Backend selects the built-in statistics, a nil Prompter never asks for
// diameters and a nil Runs disables persistence.
type Options struct {
	Config   config.AnalysisConfig
	Backend  ports.StatisticalBackend
	Prompter ports.DiameterPrompter
	Runs     ports.RunRepository
	Logger   *zap.Logger
}

// NewAnalysisService creates a service with an empty registry.
func NewAnalysisService(opts Options) (*AnalysisService, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	aliases, err := opts.Config.AliasTable()
	if err != nil {
		return nil, err
	}
	if opts.Backend == nil {
		opts.Backend = backend.New(logger)
	}

	registry := category.NewRegistry(aliases)
	classifier := subtype.NewClassifier(opts.Config.Thresholds)
	builder := internalcomparison.NewBuilder(registry, classifier, opts.Backend, logger)

	return &AnalysisService{
		cfg:        opts.Config,
		registry:   registry,
		classifier: classifier,
		calculator: derived.NewCalculator(opts.Prompter, opts.Config.SkipDiameters, logger),
		builder:    builder,
		runner:     internalcomparison.NewRunner(builder, opts.Config.Workers, logger),
		runs:       opts.Runs,
		logger:     logger.Named("analysis"),
	}, nil
}

// Load reads samples from reader and discovers their categories.
func (s *AnalysisService) Load(ctx context.Context, reader ports.SampleReader) error {
	samples, err := reader.ReadSamples(ctx)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read samples"))
	}
	s.Discover(samples)
	return nil
}

// Discover replaces the sample list and rebuilds every category. Previous
// comparisons are discarded.
func (s *AnalysisService) Discover(samples []*sample.Sample) {
	s.registry.Discover(samples)
	s.comparisons = nil
	s.lastRun = nil
	s.logger.Info("categories discovered",
		zap.Int("samples", len(samples)),
		zap.Int("wave_categories", len(s.registry.WaveCategories())),
		zap.Int("treatments", len(s.registry.TreatmentCategories())))
}

// Derive computes flow reserve, resistance index and flow increase.
func (s *AnalysisService) Derive(ctx context.Context) (derived.Report, error) {
	rep, err := s.calculator.Calculate(ctx, s.registry)
	if err != nil {
		return rep, errors.Wrap(err, "failed to derive metrics")
	}
	return rep, nil
}

// RunStats derives the metrics, then evaluates every planned comparison.
// On error no comparisons are kept.
func (s *AnalysisService) RunStats(ctx context.Context) ([]*comparison.Comparison, error) {
	start := time.Now()
	s.comparisons = nil
	s.lastRun = nil

	if _, err := s.Derive(ctx); err != nil {
		return nil, err
	}

	plan := internalcomparison.Plan(s.registry, s.classifier)
	comparisons, err := s.runner.Run(ctx, plan)
	if err != nil {
		return nil, err
	}
	s.comparisons = comparisons

	samples := s.registry.Samples()
	keys := make([]string, len(samples))
	for i, smp := range samples {
		keys[i] = smp.Key()
	}
	s.lastRun = &ports.RunRecord{
		ID:          core.NewRunID(),
		CreatedAt:   core.Now(),
		CohortHash:  core.ComputeCohortHash(keys),
		SampleCount: len(samples),
		Comparisons: comparisons,
		Matrix:      report.ExportToMatrix(samples),
	}

	s.logger.Info("statistics complete",
		zap.String("run_id", s.lastRun.ID.String()),
		zap.Int("planned", len(plan)),
		zap.Int("comparisons", len(comparisons)),
		zap.Duration("elapsed", time.Since(start)))
	return comparisons, nil
}

// Comparisons returns the result of the last successful RunStats.
func (s *AnalysisService) Comparisons() []*comparison.Comparison {
	out := make([]*comparison.Comparison, len(s.comparisons))
	copy(out, s.comparisons)
	return out
}

// LastRun returns the record of the last successful RunStats, or nil.
func (s *AnalysisService) LastRun() *ports.RunRecord { return s.lastRun }

// PersistRun stores the last run when a repository is configured.
func (s *AnalysisService) PersistRun(ctx context.Context) (*ports.RunRecord, error) {
	if s.lastRun == nil {
		return nil, errors.InvalidInput("no completed run to persist")
	}
	if s.runs == nil {
		return nil, errors.ConfigInvalid("run persistence is not configured")
	}
	if err := s.runs.SaveRun(ctx, s.lastRun); err != nil {
		return nil, err
	}
	s.logger.Info("run persisted", zap.String("run_id", s.lastRun.ID.String()))
	return s.lastRun, nil
}

// DataArray returns the raw sample matrix.
func (s *AnalysisService) DataArray() [][]string {
	return report.ExportToMatrix(s.registry.Samples())
}

// Samples returns the master sample list.
func (s *AnalysisService) Samples() []*sample.Sample { return s.registry.Samples() }

// Save writes the comparisons to target, choosing the format by extension:
// .xlsx, .pdf and .md hold the statistics report, .csv the raw sample matrix.
// An existing target is replaced only when confirmer approves.
func (s *AnalysisService) Save(target string, confirmer ports.OverwriteConfirmer) error {
	if _, err := os.Stat(target); err == nil {
		if confirmer == nil || !confirmer.ConfirmOverwrite(target) {
			return errors.TargetExists(target)
		}
	} else if !os.IsNotExist(err) {
		return errors.IOError(target, err)
	}

	var err error
	switch ext := strings.ToLower(filepath.Ext(target)); ext {
	case ".xlsx":
		err = s.saveSheet(func() (ports.SheetCloser, error) { return excel.NewSheetWriter(target, excel.ReportSheet) })
	case ".md":
		err = s.saveSheet(func() (ports.SheetCloser, error) { return markdown.NewWriter(target), nil })
	case ".pdf":
		err = s.savePDF(target)
	case ".csv":
		err = s.saveMatrix(target)
	default:
		return errors.InvalidInput(fmt.Sprintf("unsupported report format %q", ext))
	}
	if err != nil {
		return errors.IOError(target, err)
	}
	s.logger.Info("report saved", zap.String("target", target))
	return nil
}

func (s *AnalysisService) saveSheet(open func() (ports.SheetCloser, error)) error {
	sheet, err := open()
	if err != nil {
		return err
	}
	if err := report.NewWriter(s.cfg.Alpha).WriteReport(sheet, s.comparisons); err != nil {
		sheet.Close()
		return err
	}
	return sheet.Close()
}

func (s *AnalysisService) savePDF(target string) error {
	w := pdf.NewWriter(target, "Wave intensity statistics")
	if err := report.NewWriter(s.cfg.Alpha).WriteReport(w, s.comparisons); err != nil {
		w.Close()
		return err
	}
	for i, c := range s.comparisons {
		for j, o := range plot.Significant(c, s.cfg.Alpha) {
			caption := fmt.Sprintf("%s: %s", c.Name, o.Name)
			png, err := plot.OutcomePNG(caption, o)
			if err != nil {
				s.logger.Warn("plot skipped", zap.String("outcome", caption), zap.Error(err))
				continue
			}
			if err := w.AddImage(fmt.Sprintf("plot-%d-%d", i, j), png, caption); err != nil {
				w.Close()
				return err
			}
		}
	}
	return w.Close()
}

func (s *AnalysisService) saveMatrix(target string) error {
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(s.DataArray()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WaveCategories returns the discovered wave categories in discovery order.
func (s *AnalysisService) WaveCategories() []*category.WaveCategory {
	return s.registry.WaveCategories()
}

func (s *AnalysisService) TreatmentCategories() []*category.TreatmentCategory {
	return s.registry.TreatmentCategories()
}

func (s *AnalysisService) WaveCategoryGroups() []*category.WaveCategoryGroup {
	return s.registry.WaveCategoryGroups()
}

func (s *AnalysisService) findSample(path string) (*sample.Sample, error) {
	key := (&sample.Sample{Path: path}).Key()
	for _, smp := range s.registry.Samples() {
		if smp.Key() == key {
			return smp, nil
		}
	}
	return nil, errors.NotFound("sample " + path)
}

func (s *AnalysisService) findWaveCategory(key string) (*category.WaveCategory, error) {
	if c, ok := s.registry.WaveCategory(key); ok {
		return c, nil
	}
	for _, c := range s.registry.WaveCategories() {
		if strings.EqualFold(c.Label(), key) {
			return c, nil
		}
	}
	return nil, errors.NotFound("wave category " + key)
}

func (s *AnalysisService) findTreatment(label string) (*category.TreatmentCategory, error) {
	if t, ok := s.registry.TreatmentCategory(label); ok {
		return t, nil
	}
	return nil, errors.NotFound("treatment " + label)
}

// RenameTreatment relabels the sample stored at path.
func (s *AnalysisService) RenameTreatment(path, newName string) error {
	smp, err := s.findSample(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(newName) == "" {
		return errors.ValidationError("treatment name cannot be empty")
	}
	s.registry.RenameTreatment(smp, newName)
	return nil
}

// RemoveSample drops the sample stored at path from the cohort.
func (s *AnalysisService) RemoveSample(path string) error {
	smp, err := s.findSample(path)
	if err != nil {
		return err
	}
	s.registry.RemoveSample(smp)
	return nil
}

// AddWaveCategoryGroup groups the wave categories named by keys. A key is a
// category identity key or its label, e.g. "FCW (proximal)".
func (s *AnalysisService) AddWaveCategoryGroup(name string, keys []string) (*category.WaveCategoryGroup, error) {
	members := make([]*category.WaveCategory, 0, len(keys))
	for _, k := range keys {
		c, err := s.findWaveCategory(k)
		if err != nil {
			return nil, err
		}
		members = append(members, c)
	}
	g, err := s.registry.AddWaveCategoryGroup(name, members)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}
	return g, nil
}

func (s *AnalysisService) RenameWaveCategory(key, newName string) error {
	c, err := s.findWaveCategory(key)
	if err != nil {
		return err
	}
	if err := s.registry.RenameWaveCategory(c, newName); err != nil {
		return errors.WithCode(errors.CodeValidationError, err)
	}
	return nil
}

func (s *AnalysisService) RemoveWaveCategory(key string) error {
	c, err := s.findWaveCategory(key)
	if err != nil {
		return err
	}
	s.registry.RemoveWaveCategory(c)
	return nil
}

func (s *AnalysisService) RemoveWaveCategoryGroup(name string) error {
	for _, g := range s.registry.WaveCategoryGroups() {
		if strings.EqualFold(g.Name(), name) {
			s.registry.RemoveWaveCategoryGroup(g)
			return nil
		}
	}
	return errors.NotFound("wave category group " + name)
}

// RemoveTreatmentCategory deletes a treatment; its samples stay in the cohort
// without a treatment.
func (s *AnalysisService) RemoveTreatmentCategory(label string) error {
	t, err := s.findTreatment(label)
	if err != nil {
		return err
	}
	s.registry.RemoveTreatmentCategory(t)
	return nil
}

// SetTreatmentType overrides the type assigned from the alias table.
func (s *AnalysisService) SetTreatmentType(label, typ string) error {
	t, err := s.findTreatment(label)
	if err != nil {
		return err
	}
	parsed, err := category.ParseTreatmentType(typ)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	s.registry.SetTreatmentType(t, parsed)
	return nil
}
