package store_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/govjobs-service/internal/db"
	"jobmate/govjobs-service/internal/geo"
	"jobmate/govjobs-service/internal/model"
	"jobmate/govjobs-service/internal/store"
)

// newStore connects to TEST_DATABASE_URL, migrates and empties the schema.
func newStore(t *testing.T) *store.Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("TEST_DATABASE_URL not set or -short")
	}
	ctx := context.Background()
	pool, err := db.NewPostgresPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE jobs, job_sources, geo_cache`)
	require.NoError(t, err)
	return store.New(pool)
}

func f(v float64) *float64 { return &v }

func sourceFixture(t *testing.T, s *store.Store) model.JobSource {
	t.Helper()
	src := model.JobSource{
		Name:    "ssc",
		BaseURL: "https://ssc.gov.in/rss",
		Type:    model.SourceTypeRSS,
		Config:  model.SourceConfig{"defaultOrg": "SSC"},
		Active:  true,
	}
	created, err := s.UpsertSource(context.Background(), &src)
	require.NoError(t, err)
	require.True(t, created)
	return src
}

func TestPostgres_UpsertJobDedup(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	src := sourceFixture(t, s)

	j := model.Job{SourceID: src.ID, Title: "Junior Engineer", Organisation: "SSC", SourceHash: "h1", Status: model.StatusOpen}
	out, err := s.UpsertJob(ctx, &j)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeInserted, out)

	again := j
	out, err = s.UpsertJob(ctx, &again)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUnchanged, out)

	future := time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour)

	closed := j
	closed.Status = model.StatusClosed
	out, err = s.UpsertJob(ctx, &closed)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUpdated, out)
	assert.Equal(t, j.ID, closed.ID)

	extended := j
	extended.Status = model.StatusOpen
	extended.ApplyEndDate = &future
	out, err = s.UpsertJob(ctx, &extended)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUpdated, out, "an extended deadline reopens the posting")
	assert.Equal(t, model.StatusOpen, extended.Status)

	done := j
	done.Status = model.StatusResultOut
	out, err = s.UpsertJob(ctx, &done)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUpdated, out)

	again = done
	again.Status = model.StatusOpen
	out, err = s.UpsertJob(ctx, &again)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUnchanged, out, "result_out is kept")

	got, err := s.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResultOut, got.Status)
}

func TestPostgres_UnknownSource(t *testing.T) {
	s := newStore(t)
	j := model.Job{SourceID: uuid.New(), Title: "x", SourceHash: "h", Status: model.StatusOpen}
	_, err := s.UpsertJob(context.Background(), &j)
	assert.ErrorIs(t, err, store.ErrUnknownSource)
}

func TestPostgres_SearchAndBox(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	src := sourceFixture(t, s)

	for _, j := range []model.Job{
		{Title: "Junior Engineer Civil", Organisation: "SSC", SourceHash: "a", Status: model.StatusOpen, State: "Delhi", Category: "Engineering", Lat: f(28.6139), Lon: f(77.2090)},
		{Title: "Staff Nurse", Organisation: "AIIMS", SourceHash: "b", Status: model.StatusOpen, State: "Delhi", Category: "Medical"},
		{Title: "Port Clerk", Organisation: "Mumbai Port Trust", SourceHash: "c", Status: model.StatusUpcoming, State: "Maharashtra", Lat: f(19.0760), Lon: f(72.8777)},
	} {
		j.SourceID = src.ID
		_, err := s.UpsertJob(ctx, &j)
		require.NoError(t, err)
	}

	res, err := s.SearchJobs(ctx, model.SearchQuery{State: "Delhi", Sort: model.SortLatest, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []string{"Delhi"}, res.Facets.States)
	assert.Equal(t, []string{"Engineering", "Medical"}, res.Facets.Categories)

	res, err = s.SearchJobs(ctx, model.SearchQuery{Q: "engineer", Sort: model.SortRelevance, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.NotEmpty(t, res.Jobs)
	assert.Equal(t, "Junior Engineer Civil", res.Jobs[0].Title)

	jobs, err := s.JobsInBox(ctx, geo.BoundingBoxAround(28.6139, 77.2090, 50))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Junior Engineer Civil", jobs[0].Title)
}

func TestPostgres_SourcesAndGeoCache(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	src := sourceFixture(t, s)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.MarkSourceRun(ctx, src.ID, at))
	got, err := s.GetSource(ctx, src.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, got.LastRunAt.Equal(at))
	assert.Equal(t, "SSC", got.Config.String("defaultOrg", ""))

	_, err = s.GetSource(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.PutGeo(ctx, model.GeoCacheEntry{Key: "28.6139:77.2090", Result: json.RawMessage(`{"a":1}`), CachedAt: at.Add(-48 * time.Hour)}))
	e, err := s.GetGeo(ctx, "28.6139:77.2090")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(e.Result))

	n, err := s.PurgeGeoOlderThan(ctx, at.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = s.GetGeo(ctx, "28.6139:77.2090")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
