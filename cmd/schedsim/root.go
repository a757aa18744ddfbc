package main

import (
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	logger := zap.NewNop()

	root := &cobra.Command{
		Use:          "schedsim",
		Short:        "Preview retry schedules",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// SCHEDULE_* overrides may live in a local .env file.
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return errors.Wrap(err, "failed to load .env")
			}
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return errors.Wrap(err, "failed to initialize logger")
				}
				logger = l
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every driver step")

	root.AddCommand(newSimulateCmd(func() *zap.Logger { return logger }))
	return root
}
