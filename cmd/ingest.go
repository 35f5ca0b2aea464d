package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobmate/govjobs-service/internal/scraper"
)

var ingestSourceIDs string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := scraper.ParseSourceIDs(ingestSourceIDs)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		log := zap.S().Named("ingest")
		in := a.ingestor()

		var report scraper.RunReport
		if len(ids) == 0 {
			if report, err = in.RunAll(ctx); err != nil {
				return err
			}
		} else {
			for _, id := range ids {
				sr, err := in.RunSource(ctx, id)
				if err != nil {
					return fmt.Errorf("source %s: %w", id, err)
				}
				report.Sources = append(report.Sources, sr)
			}
		}

		t := report.Totals()
		log.Infow("ingestion finished",
			"sources", len(report.Sources), "failed_sources", report.FailedSources(),
			"fetched", t.Fetched, "inserted", t.Inserted, "updated", t.Updated,
			"unchanged", t.Unchanged, "rejected", t.Rejected, "failed", t.Failed)
		if n := report.FailedSources(); n > 0 && n == len(report.Sources) {
			return fmt.Errorf("all %d source(s) failed", n)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceIDs, "source", "", "comma separated source ids to run (default: all active)")
}
