package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"csa/internal/domain"
	"csa/internal/network"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the stations of the timetable",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, result, err := loadRunner(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		labels := make([]domain.Station, 0)
		for s := range network.BuildStations(result.Records) {
			labels = append(labels, s)
		}
		slices.Sort(labels)

		out := cmd.OutOrStdout()
		for _, s := range labels {
			if name := result.StopNames[string(s)]; name != "" {
				fmt.Fprintf(out, "%s\t%s\n", s, name)
			} else {
				fmt.Fprintln(out, s)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stationsCmd)
}
