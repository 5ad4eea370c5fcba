package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Class rescheduling API for the studio",
	Long: `studio serves the class rescheduling API and runs its maintenance jobs.

Available commands:
  serve            - start the HTTP API and the scheduler
  migrate          - apply or inspect database migrations
  seed             - load the demo studio catalog
  sweep            - run the daily sweep once
  allocate-jokers  - create the joker balances of a month`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(allocateJokersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
