package scraper_test

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/govjobs-service/internal/events"
	"jobmate/govjobs-service/internal/model"
	"jobmate/govjobs-service/internal/scraper"
	"jobmate/govjobs-service/internal/store"
	"jobmate/govjobs-service/internal/store/memory"
)

// stubAdapter serves canned listings per source name.
type stubAdapter struct {
	listings map[string][]model.RawListing
	fail     map[string]error
	block    map[string]bool
}

func (stubAdapter) Type() model.SourceType { return model.SourceTypeRSS }

func (a stubAdapter) Listings(ctx context.Context, src model.JobSource) (iter.Seq[model.RawListing], error) {
	if a.block[src.Name] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := a.fail[src.Name]; err != nil {
		return nil, err
	}
	return slices.Values(a.listings[src.Name]), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.JobsIngested
}

func (p *recordingPublisher) PublishJobsIngested(_ context.Context, ev events.JobsIngested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func addSource(t *testing.T, s *memory.Store, name string, cfg model.SourceConfig) model.JobSource {
	t.Helper()
	src := model.JobSource{Name: name, BaseURL: "https://" + name + ".example.gov.in", Type: model.SourceTypeRSS, Config: cfg, Active: true}
	_, err := s.UpsertSource(context.Background(), &src)
	require.NoError(t, err)
	return src
}

var sscListings = []model.RawListing{
	{Title: "Combined Graduate Level Exam", Organisation: "SSC", Link: "https://ssc.gov.in/cgl"},
	{Title: "Multi Tasking Staff", Organisation: "SSC", Link: "https://ssc.gov.in/mts"},
	{Title: "", Link: "https://ssc.gov.in/blank"},
	{Title: "CGL Answer Key", Organisation: "SSC", Link: "https://ssc.gov.in/key"},
}

func TestIngestor_RunAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addSource(t, st, "ssc", model.SourceConfig{"excludeTerms": "answer key"})

	adapter := stubAdapter{listings: map[string][]model.RawListing{"ssc": sscListings}}
	pub := &recordingPublisher{}
	in := scraper.NewIngestor(st, scraper.NewWorker(scraper.NewRegistry(adapter), st), pub, 2, time.Second)

	first, err := in.RunAll(ctx)
	require.NoError(t, err)
	require.Len(t, first.Sources, 1)
	assert.Equal(t, scraper.RunStats{Fetched: 4, Inserted: 2, Rejected: 2}, first.Sources[0].Stats)
	assert.Equal(t, 2, st.Len())

	second, err := in.RunAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, scraper.RunStats{Fetched: 4, Unchanged: 2, Rejected: 2}, second.Sources[0].Stats)
	assert.Equal(t, 2, st.Len(), "re-running the same input adds nothing")

	require.Len(t, pub.events, 2)
	assert.Equal(t, 2, pub.events[0].Inserted)
	assert.Equal(t, 2, pub.events[1].Unchanged)
	assert.Equal(t, "ssc", pub.events[1].SourceName)
}

func TestIngestor_SourceIsolation(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	good := addSource(t, st, "good", nil)
	broken := addSource(t, st, "broken", nil)
	slow := addSource(t, st, "slow", nil)

	adapter := stubAdapter{
		listings: map[string][]model.RawListing{"good": sscListings[:2]},
		fail: map[string]error{
			"broken": &scraper.SourceFetchError{Source: "broken", URL: broken.BaseURL, StatusCode: 500},
		},
		block: map[string]bool{"slow": true},
	}
	pub := &recordingPublisher{}
	in := scraper.NewIngestor(st, scraper.NewWorker(scraper.NewRegistry(adapter), st), pub, 3, 100*time.Millisecond)

	report, err := in.RunAll(ctx)
	require.NoError(t, err, "per-source failures never fail the run")
	require.Len(t, report.Sources, 3)
	assert.Equal(t, 2, report.FailedSources())
	assert.Equal(t, 2, report.Totals().Inserted)

	byName := map[string]scraper.SourceReport{}
	for _, r := range report.Sources {
		byName[r.SourceName] = r
	}
	assert.NoError(t, byName["good"].Err)
	var fe *scraper.SourceFetchError
	assert.ErrorAs(t, byName["broken"].Err, &fe)
	assert.ErrorIs(t, byName["slow"].Err, context.DeadlineExceeded)

	for _, id := range []uuid.UUID{good.ID, broken.ID, slow.ID} {
		src, err := st.GetSource(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, src.LastRunAt, "last_run_at is set for %s even on failure", src.Name)
	}

	require.Len(t, pub.events, 3)
	for _, ev := range pub.events {
		if ev.SourceName == "broken" {
			assert.NotEmpty(t, ev.Error)
		}
	}
}

func TestIngestor_SyndicatedPostingCollapses(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	addSource(t, st, "a", nil)
	addSource(t, st, "b", nil)

	posting := model.RawListing{Title: "Forest Guard", Organisation: "Forest Department", Link: "https://forest.gov.in/fg"}
	adapter := stubAdapter{listings: map[string][]model.RawListing{
		"a": {posting},
		"b": {posting},
	}}
	in := scraper.NewIngestor(st, scraper.NewWorker(scraper.NewRegistry(adapter), st), nil, 1, time.Second)

	report, err := in.RunAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, 1, report.Totals().Inserted)
	assert.Equal(t, 1, report.Totals().Unchanged)
}

func TestIngestor_ListFailureIsReturned(t *testing.T) {
	in := scraper.NewIngestor(failingRegistry{}, scraper.NewWorker(scraper.NewRegistry(), memory.New()), nil, 1, time.Second)
	_, err := in.RunAll(context.Background())
	assert.Error(t, err)
}

func TestIngestor_RunSource(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	src := addSource(t, st, "ssc", nil)
	adapter := stubAdapter{listings: map[string][]model.RawListing{"ssc": sscListings[:1]}}
	in := scraper.NewIngestor(st, scraper.NewWorker(scraper.NewRegistry(adapter), st), nil, 1, time.Second)

	rep, err := in.RunSource(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Stats.Inserted)

	_, err = in.RunSource(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWorker_ItemFailureDoesNotAbortSource(t *testing.T) {
	st := memory.New()
	src := addSource(t, st, "ssc", nil)
	adapter := stubAdapter{listings: map[string][]model.RawListing{"ssc": sscListings[:2]}}
	w := scraper.NewWorker(scraper.NewRegistry(adapter), flakyWriter{inner: st, failTitle: "Multi Tasking Staff"})

	stats, err := w.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.Failed)
}

func TestWorker_ExtendedDeadlineReopensPosting(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	src := addSource(t, st, "ssc", nil)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	past, future := today.AddDate(0, 0, -1), today.AddDate(0, 1, 0)
	listing := model.RawListing{Title: "Stenographer Grade C", Organisation: "SSC", Link: "https://ssc.gov.in/steno", LastDate: &past}

	adapter := stubAdapter{listings: map[string][]model.RawListing{"ssc": {listing}}}
	stats, err := scraper.NewWorker(scraper.NewRegistry(adapter), st).Run(ctx, src)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Inserted)

	listing.LastDate = &future
	adapter = stubAdapter{listings: map[string][]model.RawListing{"ssc": {listing}}}
	stats, err = scraper.NewWorker(scraper.NewRegistry(adapter), st).Run(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	res, err := st.SearchJobs(ctx, model.SearchQuery{Sort: model.SortLatest, Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)
	assert.Equal(t, model.StatusOpen, res.Jobs[0].Status)
	assert.True(t, res.Jobs[0].ApplyEndDate.Equal(future))
}

func TestWorker_UnsupportedSourceType(t *testing.T) {
	st := memory.New()
	src := addSource(t, st, "ssc", nil)
	src.Type = model.SourceTypeHTML

	_, err := scraper.NewWorker(scraper.NewRegistry(stubAdapter{}), st).Run(context.Background(), src)
	assert.ErrorIs(t, err, scraper.ErrUnsupportedSource)
}

type flakyWriter struct {
	inner     scraper.JobWriter
	failTitle string
}

func (f flakyWriter) UpsertJob(ctx context.Context, job *model.Job) (model.UpsertOutcome, error) {
	if job.Title == f.failTitle {
		return "", errors.New("connection reset")
	}
	return f.inner.UpsertJob(ctx, job)
}

type failingRegistry struct{}

func (failingRegistry) ListActiveSources(context.Context) ([]model.JobSource, error) {
	return nil, errors.New("database down")
}

func (failingRegistry) GetSource(context.Context, uuid.UUID) (*model.JobSource, error) {
	return nil, store.ErrNotFound
}

func (failingRegistry) MarkSourceRun(context.Context, uuid.UUID, time.Time) error { return nil }

func TestParseSourceIDs(t *testing.T) {
	id := uuid.New()
	ids, err := scraper.ParseSourceIDs(" " + id.String() + ", ")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)

	_, err = scraper.ParseSourceIDs("nope")
	assert.Error(t, err)
}
