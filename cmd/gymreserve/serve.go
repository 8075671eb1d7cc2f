package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	syncengine "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background poller until interrupted",
	Long: `Run the synchronization loop: every poll interval, discover newly
approved bookings above the greatest known id, prune records older than
today, and sweep stored records for remote cancellations.

A failing cycle is logged and the loop continues on the next tick.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		poller := syncengine.NewPoller(a.engine(), a.cfg.Sync.PollInterval, a.log)
		if err := poller.Start(ctx); err != nil {
			return err
		}

		go func() {
			for report := range poller.Reports() {
				if report.Err != nil {
					a.log.WithError(report.Err).Warn("poll cycle ended with error")
				}
			}
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		a.log.Info("shutting down, waiting for in-flight cycle")
		poller.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
