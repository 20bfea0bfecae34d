package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"csa/internal/domain"
	"csa/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find the earliest arrival from one station to another",
	Example: `  csactl query --from A --to D --departure 06:00
  csactl query -d gtfs.zip --from 1001 --to 2040 --departure 07:45 --legs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		departure, _ := cmd.Flags().GetString("departure")
		showLegs, _ := cmd.Flags().GetBool("legs")

		if from == "" || to == "" || departure == "" {
			return fmt.Errorf("--from, --to and --departure are required")
		}

		runner, _, err := loadRunner(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		j, err := runner.Run(cmd.Context(), query.Query{Origin: from, Destination: to, Departure: departure})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !j.Found() {
			fmt.Fprintf(out, "No path found from %s to %s (arrival %s)\n", j.Origin, j.Destination, j.Arrival)
			return nil
		}

		fmt.Fprintf(out, "Solution found: from %s at %s to %s at %s\n", j.Origin, j.Departure, j.Destination, j.Arrival)
		fmt.Fprintf(out, "solution path: %s\n", joinStations(j.Path))
		if showLegs {
			for i, leg := range j.Legs {
				fmt.Fprintf(out, "  %d. [%s] %s -> %s (arrive %s)%s\n", i+1, leg.Departure, leg.From, leg.To, leg.Arrival, legSuffix(leg))
			}
		}
		return nil
	},
}

func joinStations(path []domain.Station) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = string(s)
	}
	return strings.Join(parts, " -> ")
}

func legSuffix(leg domain.Leg) string {
	switch {
	case leg.Route != "" && leg.TripID != "":
		return fmt.Sprintf(" %s trip %s", leg.Route, leg.TripID)
	case leg.Route != "":
		return " " + leg.Route
	case leg.TripID != "":
		return " trip " + leg.TripID
	}
	return ""
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringP("from", "f", "", "origin station")
	queryCmd.Flags().StringP("to", "t", "", "destination station")
	queryCmd.Flags().StringP("departure", "a", "", "departure time, HH:MM")
	queryCmd.Flags().BoolP("legs", "l", false, "print every ridden connection")
}
