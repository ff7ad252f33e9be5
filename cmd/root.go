// Package cmd defines the dealstats command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dealstats",
		Short: "Snapshot Groupon deal revenue per division and serve daily reports.",
		Long: `dealstats periodically fetches the deal catalog for every division of the
Groupon API, normalizes quantities and prices into per-day revenue figures,
and persists each snapshot as a sync group. The accumulated groups back a
set of HTML revenue reports, one per day.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults apply when unset)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newPruneCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
