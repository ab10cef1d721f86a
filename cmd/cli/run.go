package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wiastat/adapters/excel"
	"wiastat/adapters/jsonfile"
	"wiastat/adapters/store"
	"wiastat/app"
	"wiastat/internal/config"
	"wiastat/internal/errors"
	"wiastat/ports"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		out           string
		skipDiameters bool
		force         bool
		persist       bool
		groups        []string
	)

	cmd := &cobra.Command{
		Use:   "run [samples.xlsx|samples.csv|samples.json]",
		Short: "Derive metrics, run every comparison and write the report",
		Long: `Load samples, derive flow reserve, resistance index and flow increase,
evaluate every comparison and write the statistics report.

The report format follows the --out extension: .xlsx, .pdf, .md or .csv
(raw sample matrix). Missing vessel diameters are asked for on stdin unless
--skip-diameters is given.

Example: wia run cohort.xlsx --out stats.xlsx --group "Forward=fcw|proximal,lfcw|proximal"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cmd.Flags().Changed("skip-diameters") {
				cfg.Analysis.SkipDiameters = skipDiameters
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_stats.xlsx"
			}

			var runs ports.RunRepository
			if persist {
				if cfg.Database.URL == "" {
					return errors.ConfigInvalid("--persist requires DATABASE_URL")
				}
				db, err := store.Open(cmd.Context(), cfg.Database.URL)
				if err != nil {
					return err
				}
				defer db.Close()
				runs = store.NewRunRepository(db)
			}

			in := bufio.NewReader(cmd.InOrStdin())
			svc, err := app.NewAnalysisService(app.Options{
				Config:   cfg.Analysis,
				Prompter: newConsolePrompter(in, cmd.ErrOrStderr()),
				Runs:     runs,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			return runAnalysis(cmd.Context(), svc, runAnalysisOptions{
				input:     args[0],
				out:       out,
				groups:    groups,
				persist:   persist,
				confirmer: newConsoleConfirmer(in, cmd.ErrOrStderr(), force),
				stdout:    cmd.OutOrStdout(),
				logger:    logger,
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Report file (default: <input>_stats.xlsx)")
	cmd.Flags().BoolVar(&skipDiameters, "skip-diameters", false, "Never prompt for vessel diameters; use velocities")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite the report file without asking")
	cmd.Flags().BoolVar(&persist, "persist", false, "Save the run to DATABASE_URL")
	cmd.Flags().StringArrayVar(&groups, "group", nil, "Wave category group as name=key,key (repeatable)")

	return cmd
}

type runAnalysisOptions struct {
	input     string
	out       string
	groups    []string
	persist   bool
	confirmer ports.OverwriteConfirmer
	stdout    io.Writer
	logger    *zap.Logger
}

func runAnalysis(ctx context.Context, svc *app.AnalysisService, o runAnalysisOptions) error {
	if err := svc.Load(ctx, sampleReader(o.input, o.logger)); err != nil {
		return err
	}
	for _, spec := range o.groups {
		name, keys, err := parseGroup(spec)
		if err != nil {
			return err
		}
		if _, err := svc.AddWaveCategoryGroup(name, keys); err != nil {
			return err
		}
	}

	comparisons, err := svc.RunStats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.stdout, "%d samples, %d comparisons\n", len(svc.Samples()), len(comparisons))

	if o.persist {
		run, err := svc.PersistRun(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(o.stdout, "run %s saved\n", run.ID)
	}

	if err := svc.Save(o.out, o.confirmer); err != nil {
		return err
	}
	fmt.Fprintf(o.stdout, "report written to %s\n", o.out)
	return nil
}

// parseGroup splits "name=key,key" into a group name and wave category keys.
func parseGroup(spec string) (string, []string, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", nil, errors.InvalidInput(fmt.Sprintf("invalid group %q, want name=key,key", spec))
	}
	var keys []string
	for _, key := range strings.Split(list, ",") {
		if key = strings.ToLower(strings.TrimSpace(key)); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", nil, errors.InvalidInput(fmt.Sprintf("group %q has no wave categories", name))
	}
	return strings.TrimSpace(name), keys, nil
}

// sampleReader picks the reader for path by extension.
func sampleReader(path string, logger *zap.Logger) ports.SampleReader {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return jsonfile.NewReader(path)
	}
	return excel.NewSampleReader(path, logger)
}

// loadService creates a non-prompting service and loads path into it.
func loadService(ctx context.Context, cfg *config.Config, path string, logger *zap.Logger) (*app.AnalysisService, error) {
	svc, err := app.NewAnalysisService(app.Options{Config: cfg.Analysis, Logger: logger})
	if err != nil {
		return nil, err
	}
	if err := svc.Load(ctx, sampleReader(path, logger)); err != nil {
		return nil, err
	}
	return svc, nil
}
