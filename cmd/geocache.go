package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var geocacheCmd = &cobra.Command{
	Use:   "geocache",
	Short: "Maintain the reverse-geocode cache",
}

var geocachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cache entries older than GEO_CACHE_TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.geocodeCache().PurgeStale(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d stale entries\n", n)
		return nil
	},
}

func init() {
	geocacheCmd.AddCommand(geocachePurgeCmd)
}
