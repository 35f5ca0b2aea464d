package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobmate/govjobs-service/internal/events"
	"jobmate/govjobs-service/internal/metrics"
	"jobmate/govjobs-service/internal/model"
)

// JobWriter persists canonical jobs. UpsertJob applies the dedup decision
// atomically and reports which branch it took; it sets job.ID.
type JobWriter interface {
	UpsertJob(ctx context.Context, job *model.Job) (model.UpsertOutcome, error)
}

// SourceRegistry is the orchestrator's view of the source registry.
type SourceRegistry interface {
	ListActiveSources(ctx context.Context) ([]model.JobSource, error)
	GetSource(ctx context.Context, id uuid.UUID) (*model.JobSource, error)
	MarkSourceRun(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RunStats counts what happened to the listings of one source run.
type RunStats struct {
	Fetched   int `json:"fetched"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
}

// ─── Worker ──────────────────────────────────────────────────────────────────

// Worker runs the full ingest cycle for a single source: adapter, normalise,
// filter, upsert.
type Worker struct {
	adapters *Registry
	store    JobWriter
	now      func() time.Time
}

// NewWorker constructs a Worker.
func NewWorker(adapters *Registry, store JobWriter) *Worker {
	return &Worker{adapters: adapters, store: store, now: time.Now}
}

// Run ingests one source. A store error on a single listing is logged and
// counted as failed; it never aborts the source. The returned error is set
// only when the source itself could not be read.
func (w *Worker) Run(ctx context.Context, src model.JobSource) (RunStats, error) {
	log := zap.S().Named("worker").With("source", src.Name, "source_id", src.ID)
	var stats RunStats

	adapter, err := w.adapters.Adapter(src.Type)
	if err != nil {
		return stats, err
	}
	listings, err := adapter.Listings(ctx, src)
	if err != nil {
		return stats, err
	}

	terms := ExcludeTerms(src)
	now := w.now()

	for raw := range listings {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("source %s interrupted: %w", src.Name, err)
		}
		stats.Fetched++

		job := Normalize(raw, src, now)
		if job.Title == "" || ContainsRedFlag(job, terms) {
			stats.Rejected++
			continue
		}

		outcome, err := w.store.UpsertJob(ctx, &job)
		if err != nil {
			log.Warnw("upsert failed", "title", job.Title, "hash", job.SourceHash, "error", err)
			stats.Failed++
			continue
		}
		switch outcome {
		case model.OutcomeInserted:
			stats.Inserted++
		case model.OutcomeUpdated:
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}

	log.Infow("source done",
		"fetched", stats.Fetched, "inserted", stats.Inserted, "updated", stats.Updated,
		"unchanged", stats.Unchanged, "rejected", stats.Rejected, "failed", stats.Failed)
	return stats, nil
}

// ─── Ingestor ────────────────────────────────────────────────────────────────

// SourceReport is the outcome of one source within a run.
type SourceReport struct {
	SourceID   uuid.UUID     `json:"sourceId"`
	SourceName string        `json:"sourceName"`
	Stats      RunStats      `json:"stats"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// RunReport collects the per-source reports of one ingestion run.
type RunReport struct {
	Sources []SourceReport `json:"sources"`
}

// Totals sums the stats of every source.
func (r RunReport) Totals() RunStats {
	var t RunStats
	for _, s := range r.Sources {
		t.Fetched += s.Stats.Fetched
		t.Inserted += s.Stats.Inserted
		t.Updated += s.Stats.Updated
		t.Unchanged += s.Stats.Unchanged
		t.Rejected += s.Stats.Rejected
		t.Failed += s.Stats.Failed
	}
	return t
}

// FailedSources counts sources whose run ended in error.
func (r RunReport) FailedSources() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Publisher receives one notification per processed source.
type Publisher interface {
	PublishJobsIngested(ctx context.Context, ev events.JobsIngested) error
}

// Ingestor runs every active source on a bounded worker pool. Sources are
// isolated from each other: one failing or slow source never stops or
// delays the others beyond its own timeout.
type Ingestor struct {
	sources       SourceRegistry
	worker        *Worker
	publisher     Publisher
	workers       int
	sourceTimeout time.Duration
}

// NewIngestor constructs an Ingestor. publisher may be nil.
func NewIngestor(sources SourceRegistry, worker *Worker, publisher Publisher, workers int, sourceTimeout time.Duration) *Ingestor {
	if workers < 1 {
		workers = 1
	}
	return &Ingestor{
		sources:       sources,
		worker:        worker,
		publisher:     publisher,
		workers:       workers,
		sourceTimeout: sourceTimeout,
	}
}

// RunAll ingests every active source. It fails only when the active sources
// cannot be listed; per-source failures are in the report.
func (in *Ingestor) RunAll(ctx context.Context) (RunReport, error) {
	log := zap.S().Named("ingestor")

	sources, err := in.sources.ListActiveSources(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("list active sources: %w", err)
	}
	if len(sources) == 0 {
		log.Info("no active sources, nothing to ingest")
		return RunReport{}, nil
	}

	log.Infow("ingestion cycle started", "sources", len(sources), "workers", in.workers)
	start := time.Now()

	reports := make([]SourceReport, len(sources))
	g := new(errgroup.Group)
	g.SetLimit(in.workers)
	for i, src := range sources {
		g.Go(func() error {
			reports[i] = in.runOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	report := RunReport{Sources: reports}
	t := report.Totals()
	log.Infow("ingestion cycle complete",
		"duration", time.Since(start), "failed_sources", report.FailedSources(),
		"inserted", t.Inserted, "updated", t.Updated, "unchanged", t.Unchanged,
		"rejected", t.Rejected, "failed", t.Failed)
	return report, nil
}

// RunSource ingests a single source by id, active or not.
func (in *Ingestor) RunSource(ctx context.Context, id uuid.UUID) (SourceReport, error) {
	src, err := in.sources.GetSource(ctx, id)
	if err != nil {
		return SourceReport{}, err
	}
	return in.runOne(ctx, *src), nil
}

func (in *Ingestor) runOne(ctx context.Context, src model.JobSource) SourceReport {
	log := zap.S().Named("ingestor").With("source", src.Name, "source_id", src.ID)
	report := SourceReport{SourceID: src.ID, SourceName: src.Name}
	start := time.Now()

	if err := ctx.Err(); err != nil {
		report.Err = err
		return report
	}

	runCtx := ctx
	if in.sourceTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, in.sourceTimeout)
		defer cancel()
	}

	report.Stats, report.Err = in.worker.Run(runCtx, src)
	report.Duration = time.Since(start)

	result := metrics.ResultOK
	if report.Err != nil {
		result = metrics.ResultError
		var fe *SourceFetchError
		var pe *SourceParseError
		switch {
		case errors.As(report.Err, &fe):
			log.Warnw("source fetch failed, skipped", "url", fe.URL, "status", fe.StatusCode, "error", report.Err)
		case errors.As(report.Err, &pe):
			log.Warnw("source parse failed, skipped", "error", report.Err)
		default:
			log.Errorw("source run failed", "error", report.Err)
		}
	}
	metrics.ObserveSourceRun(src.Name, result, report.Duration)
	metrics.AddListings(src.Name, string(model.OutcomeInserted), report.Stats.Inserted)
	metrics.AddListings(src.Name, string(model.OutcomeUpdated), report.Stats.Updated)
	metrics.AddListings(src.Name, string(model.OutcomeUnchanged), report.Stats.Unchanged)
	metrics.AddListings(src.Name, "rejected", report.Stats.Rejected)
	metrics.AddListings(src.Name, "failed", report.Stats.Failed)

	// Bookkeeping must land even when the source's own deadline expired.
	bkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := in.sources.MarkSourceRun(bkCtx, src.ID, time.Now().UTC()); err != nil {
		log.Warnw("mark last_run_at failed", "error", err)
	}

	if in.publisher != nil {
		ev := events.JobsIngested{
			SourceID:   src.ID.String(),
			SourceName: src.Name,
			Inserted:   report.Stats.Inserted,
			Updated:    report.Stats.Updated,
			Unchanged:  report.Stats.Unchanged,
			Rejected:   report.Stats.Rejected,
			Failed:     report.Stats.Failed,
		}
		if report.Err != nil {
			ev.Error = report.Err.Error()
		}
		if err := in.publisher.PublishJobsIngested(bkCtx, ev); err != nil {
			log.Warnw("publish "+events.ChannelJobsIngested+" failed", "error", err)
		}
	}
	return report
}

// ParseSourceIDs parses a comma separated list of source ids.
func ParseSourceIDs(s string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid source id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
