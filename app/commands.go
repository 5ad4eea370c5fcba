package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studio-system/migrations"
	"studio-system/pkg/utils"
	"studio-system/seeders"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|redo|version]",
	Short:     "Apply or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status", "redo", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		command := "up"
		if len(args) == 1 {
			command = args[0]
		}

		cfg, logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		db, err := connectDB(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.Run(cmd.Context(), db, command); err != nil {
			return err
		}
		logger.Info("migrations done", zap.String("command", command))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo studios, instructors, students and class schedules",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		db, err := connectDB(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		return seeders.SeedCatalog(cmd.Context(), db, logger.Named("seed"))
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the daily sweep once for today in the studio time zone",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.registry.Sweep.Run(cmd.Context())
		if res != nil {
			fmt.Fprintf(cmd.OutOrStdout(),
				"sweep %s: leaves activated=%d completed=%d, changes completed=%d expired=%d, waitlist expired=%d\n",
				res.Date, res.LeavesActivated, res.LeavesCompleted, res.ChangesCompleted, res.ChangesExpired, res.WaitlistExpired)
		}
		return err
	},
}

var allocateMonth string

var allocateJokersCmd = &cobra.Command{
	Use:   "allocate-jokers",
	Short: "Create the joker balances of a month for every enrolled student",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		period := utils.MonthStart(rt.registry.Calendar.Today())
		if m := strings.TrimSpace(allocateMonth); m != "" {
			if period, err = utils.ParseMonth(m); err != nil {
				return fmt.Errorf("--month: %w", err)
			}
		}

		res, err := rt.registry.Jokers.AllocateMonth(cmd.Context(), period)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "jokers %s: %d students, %d balances created\n", res.Month, res.Students, res.Created)
		return nil
	},
}

func init() {
	allocateJokersCmd.Flags().StringVar(&allocateMonth, "month", "", "month to allocate as YYYY-MM (default: current month)")
}
