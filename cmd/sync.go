package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch all divisions once and persist a snapshot.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(cmd.Context(), cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.orchestrator.Run(cmd.Context())
			if err != nil {
				return err
			}
			app.logger.Info("sync complete",
				zap.String("sync_key", res.SyncKey),
				zap.Int("divisions", res.Divisions),
				zap.Int("deals", res.DealCount),
				zap.Float64("total_revenue", res.TotalRevenue),
			)
			return nil
		},
	}
}
