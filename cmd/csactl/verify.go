package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"csa/internal/query"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the planner against a table of expected arrivals",
	Long: `verify runs every fixture (origin, destination, departure, expected arrival)
against the timetable and prints the comparison. Without --fixtures the
reference cases of the bundled connections dataset are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fixturesPath, _ := cmd.Flags().GetString("fixtures")

		fixtures := query.ReferenceFixtures()
		if fixturesPath != "" {
			f, err := os.Open(fixturesPath)
			if err != nil {
				return fmt.Errorf("open fixtures: %w", err)
			}
			fixtures, err = query.LoadFixtures(f)
			f.Close()
			if err != nil {
				return err
			}
		}

		runner, _, err := loadRunner(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		report := query.Verify(cmd.Context(), runner, fixtures)
		out := cmd.OutOrStdout()
		for _, o := range report.Outcomes {
			f := o.Fixture
			switch {
			case o.Err != nil:
				fmt.Fprintf(out, "%s -> %s at %s: error: %v\n", f.Origin, f.Destination, f.Departure, o.Err)
			case o.Passed:
				fmt.Fprintf(out, "%s -> %s at %s: good solution found (%s)\n", f.Origin, f.Destination, f.Departure, o.Actual)
			default:
				fmt.Fprintf(out, "%s -> %s at %s: wrong arrival time: expected: %s  actual: %s\n", f.Origin, f.Destination, f.Departure, f.ExpectedArrival, o.Actual)
			}
		}
		fmt.Fprintf(out, "%d passed, %d failed\n", report.Passed, report.Failed)

		if !report.OK() {
			return fmt.Errorf("%d of %d fixtures failed", report.Failed, len(report.Outcomes))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringP("fixtures", "x", "", "fixture CSV (origin,destination,departure_time,expected_arrival_time)")
}
