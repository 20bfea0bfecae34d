package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"csa/internal/query"
	"csa/pkg/timetable"
)

var rootCmd = &cobra.Command{
	Use:   "csactl",
	Short: "Plan earliest-arrival journeys on a connection timetable",
	Long: `csactl runs the connection scan over a timetable file (a CSV of
connections or a GTFS zip) and prints the earliest arrival and the route.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("data", "d", "testdata/connections.csv", "timetable file (connections CSV or GTFS zip)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log loader and planner details to stderr")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadRunner parses the --data timetable and returns a runner over it.
func loadRunner(ctx context.Context, cmd *cobra.Command) (*query.Runner, *timetable.ParseResult, error) {
	logger := newLogger(cmd)
	path, _ := cmd.Flags().GetString("data")

	result, err := timetable.LoadFile(ctx, path, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	return query.NewRunner(query.StaticRecords(result.Records), logger), result, nil
}
