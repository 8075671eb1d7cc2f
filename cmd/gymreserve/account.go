package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/auth"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage stored booking account credentials",
	Long: `Manage the remote account ids used to attribute bookings. Credentials
are kept in the system keychain when one is available, with the
GYMRESERVE_DEFAULT_OPENID environment variable as a read-only fallback.`,
}

var accountSetCmd = &cobra.Command{
	Use:   "set <name> <openid>",
	Short: "Store an account id under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := auth.NewManager()
		if err := manager.Store(&auth.Account{Name: args[0], OpenID: args[1]}); err != nil {
			return fmt.Errorf("failed to store account: %w", err)
		}
		fmt.Printf("stored account %q\n", args[0])
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show whether an account is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := auth.NewManager()
		if _, err := manager.Retrieve(args[0]); err != nil {
			return fmt.Errorf("no stored account %q", args[0])
		}
		fmt.Printf("account %q is stored\n", args[0])
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := auth.NewManager()
		if err := manager.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		fmt.Printf("deleted account %q\n", args[0])
		return nil
	},
}

func init() {
	accountCmd.AddCommand(accountSetCmd)
	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	rootCmd.AddCommand(accountCmd)
}
