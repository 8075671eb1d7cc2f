package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-probe stored records and remove remotely cancelled ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		swept, err := a.engine().Sweep(context.Background())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		fmt.Printf("removed %d cancelled record(s)\n", swept)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
