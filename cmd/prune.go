package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired sync groups, keeping the newest per day.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(cmd.Context(), cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			deleted, err := app.pruner.Run(cmd.Context())
			if err != nil {
				return err
			}
			app.logger.Info("prune complete", zap.Int("deleted", deleted))
			return nil
		},
	}
}
