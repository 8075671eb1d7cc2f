package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <booking-id>",
	Short: "Cancel a booking by its remote id",
	Long: `Cancel a booking on the remote site and remove it from the local
mirror. Local state changes only when the site confirms the refund.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid booking id %q", args[0])
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.bookingService().Cancel(context.Background(), id); err != nil {
			return err
		}

		fmt.Printf("booking %d cancelled\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
