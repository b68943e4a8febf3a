package main

import (
	"github.com/spf13/cobra"

	"github.com/araith/godea/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dea",
		Short: "dea - Data Envelopment Analysis engine",
		Long: `dea measures the relative efficiency of decision making units (DMUs)
that turn inputs into outputs.

Each DMU is scored with a linear program against the others; the report lists
scores, peers, duals and, depending on the options, slacks and ranks.`,
		Version:      version,
		SilenceUsage: true,
	}

	debug := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	flush := func() {}
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		opts := logging.Options{}
		if *debug {
			opts = logging.Options{Verbosity: logging.DEBUG, Development: true}
		}
		logger, sync, err := logging.NewLogger(opts)
		if err != nil {
			return err
		}
		flush = sync
		logging.SetLogger(logger)
		cmd.SetContext(logging.IntoContext(cmd.Context(), logger))
		return nil
	}
	cmd.PersistentPostRun = func(*cobra.Command, []string) { flush() }

	cmd.AddCommand(newSolveCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
