package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/araith/godea/api/v1alpha1"
	"github.com/araith/godea/internal/config"
	"github.com/araith/godea/internal/datasource"
	"github.com/araith/godea/internal/logging"
	"github.com/araith/godea/internal/metrics"
	"github.com/araith/godea/internal/optimizer"
	"github.com/araith/godea/internal/weightstore"
	"github.com/araith/godea/pkg/core"
)

type solveOptions struct {
	configFile  string
	format      string
	metricsOut  string
	spillDB     string
	concurrency int
}

func newSolveCommand() *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Evaluate the DMUs of a CSV data set",
		Long: `Evaluate every DMU of a CSV data set and write a report.

The first CSV row is the header: a DMU name column followed by one column per
category. Parameters are read, in increasing priority, from the --config YAML
file, DEA_* environment variables (e.g. DEA_ORIENTATION=both) and the flags
below. List values are separated with semicolons:

  dea solve --data-file farms.csv --input-categories "land;labour" \
      --output-categories wheat --return-to-scale both`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "YAML parameter file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", v1alpha1.FormatJSON, "Report format: json or yaml")
	cmd.Flags().StringVar(&opts.metricsOut, "metrics-out", "", "Write solver metrics in Prometheus text format to this file")
	cmd.Flags().StringVar(&opts.spillDB, "spill-db", "", "Keep peer weights in this SQLite database instead of memory")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Maximum number of models evaluated at once (0: one per CPU)")
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runSolve(cmd *cobra.Command, opts *solveOptions) (err error) {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	if opts.format != v1alpha1.FormatJSON && opts.format != v1alpha1.FormatYAML {
		return fmt.Errorf("unsupported --format %q (want %s or %s)", opts.format, v1alpha1.FormatJSON, v1alpha1.FormatYAML)
	}
	params, err := config.Load(opts.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	if params.DataFile == "" {
		return errors.New("no data file: set --data-file or data_file in the config")
	}

	data, err := datasource.NewCSVFile(params.DataFile).Load(ctx, datasource.Roles{
		Inputs:  params.InputCategories,
		Outputs: params.OutputCategories,
	})
	if err != nil {
		return err
	}

	session := core.NewSession()
	if opts.spillDB != "" {
		store, serr := weightstore.OpenSQLite(ctx, opts.spillDB)
		if serr != nil {
			return serr
		}
		defer func() {
			if cerr := store.Close(); err == nil {
				err = cerr
			}
		}()
		session = core.NewSession(core.WithStoreFactory(store.Factory()))
	}

	m := metrics.New()
	opt := optimizer.New(params,
		optimizer.WithSession(session),
		optimizer.WithMetrics(m),
		optimizer.WithConcurrency(opts.concurrency),
	)
	report, err := opt.Optimize(ctx, data, params.DataFile)
	if err != nil {
		return err
	}

	if err := writeTo(cmd.OutOrStdout(), params.OutputFile, func(w io.Writer) error {
		return report.Encode(w, opts.format)
	}); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if opts.metricsOut != "" {
		if err := writeTo(nil, opts.metricsOut, m.WriteText); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	logger.V(logging.DEBUG).Info("Report written", "output", params.OutputFile, "format", opts.format)
	return nil
}

// writeTo calls write on the file at path, or on fallback when path is
// empty.
func writeTo(fallback io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(fallback)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
