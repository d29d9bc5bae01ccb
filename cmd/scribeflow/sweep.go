package main

import (
	"github.com/spf13/cobra"
)

var sweepOnce bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Report job records whose workflow never reached its wait state",
	RunE: func(cmd *cobra.Command, args []string) error {
		reporter := container.OrphanReporter()
		if sweepOnce {
			_, err := reporter.Run(cmd.Context())
			return err
		}
		return reporter.Schedule(cmd.Context(), cfg.OrphanSweepSchedule)
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepOnce, "once", false, "Run a single sweep and exit")
	rootCmd.AddCommand(sweepCmd)
}
