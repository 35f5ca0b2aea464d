package main

import (
	"context"

	"github.com/spf13/cobra"
)

var sourcesFile string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage the source registry",
}

var sourcesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create or update sources from a YAML file, matched by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return a.syncSources(ctx, sourcesFile)
	},
}

func init() {
	sourcesSyncCmd.Flags().StringVarP(&sourcesFile, "file", "f", "", "path to the sources YAML file")
	_ = sourcesSyncCmd.MarkFlagRequired("file")
	sourcesCmd.AddCommand(sourcesSyncCmd)
}
