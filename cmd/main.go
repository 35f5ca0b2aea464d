// govjobs-service: government job aggregator.
//
// Ingests postings from heterogeneous government sources (RSS feeds, HTML
// notice boards, PDF gazettes), normalizes and deduplicates them into one
// canonical store, and serves keyword, faceted and radius search over HTTP.
//
// Commands:
//   - serve             HTTP + gRPC health, cron-driven ingestion
//   - ingest            run one ingestion cycle and exit
//   - migrate           apply schema migrations
//   - sources sync      upsert the source registry from a YAML file
//   - geocache purge    delete stale reverse-geocode entries
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "govjobs-service"

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:          "govjobs",
	Short:        "Government job aggregator",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(geocacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
