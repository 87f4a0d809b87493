package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"rcrao/internal/cli"
	"rcrao/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root has run.
type app struct {
	logger *slog.Logger
	cfg    *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "rcrao-report",
		Short:         "Generate RCRAO financial reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			a.logger = cli.SetupLogger("rcrao-report")
			a.cfg = config.Load()
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return nil
		},
	}

	root.AddCommand(
		newGenerateCmd(a),
		newEnqueueCmd(a),
		newSeedCmd(a),
	)
	return root
}
