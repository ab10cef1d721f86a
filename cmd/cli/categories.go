package main

import (
	"bufio"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wiastat/app"
)

func newCategoriesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories [samples]",
		Short: "List the wave and treatment categories discovered in a sample file",
		Long: `List the discovered categories. The KEY column is what --group takes.

Example: wia categories cohort.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			svc, err := loadService(cmd.Context(), cfg, args[0], logger)
			if err != nil {
				return err
			}
			return printCategories(cmd.OutOrStdout(), svc)
		},
	}
}

func printCategories(out io.Writer, svc *app.AnalysisService) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "WAVE CATEGORY\tKEY\tSAMPLES\n")
	for _, c := range svc.WaveCategories() {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Label(), c.Key(), c.Len())
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "TREATMENT\tTYPE\tSAMPLES\n")
	for _, t := range svc.TreatmentCategories() {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", t.Name(), t.Type(), t.Len())
	}
	return tw.Flush()
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		out   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "export [samples]",
		Short: "Derive metrics and write the raw sample matrix as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg.Analysis.SkipDiameters = true
			svc, err := loadService(cmd.Context(), cfg, args[0], logger)
			if err != nil {
				return err
			}
			if _, err := svc.Derive(cmd.Context()); err != nil {
				return err
			}
			if err := svc.Save(out, newConsoleConfirmer(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(), force)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d samples written to %s\n", len(svc.Samples()), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "matrix.csv", "CSV file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite without asking")
	return cmd
}
