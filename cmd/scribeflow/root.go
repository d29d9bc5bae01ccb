package main

import (
	"github.com/RezaEskandarii/scribeflow/app"
	"github.com/RezaEskandarii/scribeflow/types/config"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	container *app.Container
)

var rootCmd = &cobra.Command{
	Use:           "scribeflow",
	Short:         "Job orchestration for uploaded media transcription.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container != nil {
			return nil
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		ctr, err := app.NewContainer(cmd.Context(), c)
		if err != nil {
			return err
		}
		cfg, container = c, ctr
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return nil
		}
		return container.Close()
	},
}
