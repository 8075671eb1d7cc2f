package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one discovery cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.engine().Reconcile(context.Background())
		if err != nil {
			return fmt.Errorf("reconcile failed: %w", err)
		}

		fmt.Printf("inserted %d, pruned %d, not ready %d, failed %d (%s)\n",
			report.Inserted, report.Pruned, report.NotReady, report.Failed, report.Duration.Round(1e6))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
