package search_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/govjobs-service/internal/geo"
	"jobmate/govjobs-service/internal/model"
	"jobmate/govjobs-service/internal/search"
	"jobmate/govjobs-service/internal/store"
	"jobmate/govjobs-service/internal/store/memory"
)

func f(v float64) *float64 { return &v }

type place struct {
	title    string
	lat, lon *float64
}

var places = []place{
	{"Delhi Secretariat Clerk", f(28.6139), f(77.2090)},
	{"Gurugram Patwari", f(28.4595), f(77.0266)},
	{"Jaipur Teacher", f(26.9124), f(75.7873)},
	{"Mumbai Port Trust", f(19.0760), f(72.8777)},
	{"Chennai Metro", f(13.0827), f(80.2707)},
	{"Unplaced Posting", nil, nil},
}

func seeded(t *testing.T) (*search.Service, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	src := model.JobSource{Name: "portal", BaseURL: "https://portal.gov.in", Type: model.SourceTypeHTML, Active: true}
	_, err := st.UpsertSource(ctx, &src)
	require.NoError(t, err)

	for _, p := range places {
		j := model.Job{SourceID: src.ID, Title: p.title, SourceHash: p.title, Status: model.StatusOpen, Lat: p.lat, Lon: p.lon}
		_, err := st.UpsertJob(ctx, &j)
		require.NoError(t, err)
	}
	return search.NewService(st), st
}

func nearby(lat, lon, radius float64, limit int) search.NearbyParams {
	return search.NearbyParams{Lat: &lat, Lon: &lon, RadiusKm: &radius, Limit: limit}
}

func titles(jobs []model.NearbyJob) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Title)
	}
	return out
}

func TestNearby_SortedByDistanceWithinRadius(t *testing.T) {
	svc, _ := seeded(t)
	res, err := svc.Nearby(context.Background(), nearby(28.6139, 77.2090, 300, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"Delhi Secretariat Clerk", "Gurugram Patwari", "Jaipur Teacher"}, titles(res.Jobs))
	for i, j := range res.Jobs {
		assert.LessOrEqual(t, j.DistanceKm, 300.0)
		if i > 0 {
			assert.GreaterOrEqual(t, j.DistanceKm, res.Jobs[i-1].DistanceKm)
		}
	}
	assert.Equal(t, 300.0, res.RadiusKm)
}

func TestNearby_Monotonic(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()
	radii := []float64{0, 20, 300, 1100, 1200, 2000}

	var prev map[string]bool
	for _, r := range radii {
		res, err := svc.Nearby(ctx, nearby(28.6139, 77.2090, r, search.MaxNearbyLimit))
		require.NoError(t, err)
		cur := map[string]bool{}
		for _, j := range res.Jobs {
			cur[j.Title] = true
		}
		for title := range prev {
			assert.True(t, cur[title], "%q found at a smaller radius is missing at %v km", title, r)
		}
		prev = cur
	}
}

func TestNearby_DelhiToMumbai(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	res, err := svc.Nearby(ctx, nearby(28.6139, 77.2090, 1200, 0))
	require.NoError(t, err)
	var found bool
	for _, j := range res.Jobs {
		if j.Title == "Mumbai Port Trust" {
			found = true
			// 1148.09 km with R=6371.
			assert.InDelta(t, 1150, j.DistanceKm, 10)
		}
	}
	assert.True(t, found)

	res, err = svc.Nearby(ctx, nearby(28.6139, 77.2090, 1100, 0))
	require.NoError(t, err)
	assert.NotContains(t, titles(res.Jobs), "Mumbai Port Trust")
}

func TestNearby_ZeroRadiusMatchesExactPoint(t *testing.T) {
	svc, _ := seeded(t)
	res, err := svc.Nearby(context.Background(), nearby(19.0760, 72.8777, 0, 0))
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)
	assert.Equal(t, "Mumbai Port Trust", res.Jobs[0].Title)
	assert.Equal(t, 0.0, res.Jobs[0].DistanceKm)
}

func TestNearby_NeverReturnsUnplacedJobs(t *testing.T) {
	svc, _ := seeded(t)
	res, err := svc.Nearby(context.Background(), nearby(20, 78, 2000, search.MaxNearbyLimit))
	require.NoError(t, err)
	assert.NotContains(t, titles(res.Jobs), "Unplaced Posting")
	for _, j := range res.Jobs {
		assert.True(t, j.HasPosition())
	}
}

func TestNearby_Limit(t *testing.T) {
	svc, _ := seeded(t)
	res, err := svc.Nearby(context.Background(), nearby(28.6139, 77.2090, 2000, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi Secretariat Clerk", "Gurugram Patwari"}, titles(res.Jobs))
}

func TestNearby_Validation(t *testing.T) {
	svc, _ := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name string
		p    search.NearbyParams
		want string
	}{
		{"missing lat", search.NearbyParams{Lon: f(77), RadiusKm: f(10)}, "lat is required"},
		{"missing lon", search.NearbyParams{Lat: f(28), RadiusKm: f(10)}, "lon is required"},
		{"missing radius", search.NearbyParams{Lat: f(28), Lon: f(77)}, "radiusKm is required"},
		{"lat out of range", nearby(91, 77, 10, 0), "lat must be <= 90"},
		{"lon out of range", nearby(28, -181, 10, 0), "lon must be >= -180"},
		{"negative radius", nearby(28, 77, -1, 0), "radiusKm must be >= 0"},
		{"radius too large", nearby(28, 77, 2000.5, 0), "radiusKm must be <= 2000"},
		{"limit too large", nearby(28, 77, 10, 201), "limit must be <= 200"},
		{"nan", nearby(math.NaN(), 77, 10, 0), "lat must be a finite number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Nearby(ctx, tt.p)
			var ve *search.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Msg, tt.want)
		})
	}
}

func TestGet(t *testing.T) {
	svc, st := seeded(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid")
	var ve *search.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	jobs, err := st.JobsInBox(ctx, geo.BoundingBoxAround(19.0760, 72.8777, 1))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	got, err := svc.Get(ctx, jobs[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Mumbai Port Trust", got.Title)
}

// spyStore records the query the service built.
type spyStore struct {
	search.Store
	got model.SearchQuery
}

func (s *spyStore) SearchJobs(_ context.Context, q model.SearchQuery) (model.SearchResult, error) {
	s.got = q
	return model.SearchResult{Page: q.Page, PageSize: q.PageSize}, nil
}

func TestSearch_Defaults(t *testing.T) {
	spy := &spyStore{}
	_, err := search.NewService(spy).Search(context.Background(), search.SearchParams{State: " Bihar "})
	require.NoError(t, err)

	assert.Equal(t, model.SortLatest, spy.got.Sort)
	assert.Equal(t, 1, spy.got.Page)
	assert.Equal(t, model.DefaultPageSize, spy.got.PageSize)
	assert.Equal(t, "Bihar", spy.got.State)
}

func TestSearch_RelevanceWithoutQueryFallsBackToLatest(t *testing.T) {
	spy := &spyStore{}
	svc := search.NewService(spy)

	_, err := svc.Search(context.Background(), search.SearchParams{Sort: "relevance"})
	require.NoError(t, err)
	assert.Equal(t, model.SortLatest, spy.got.Sort)

	_, err = svc.Search(context.Background(), search.SearchParams{Sort: "relevance", Q: "clerk"})
	require.NoError(t, err)
	assert.Equal(t, model.SortRelevance, spy.got.Sort)
}

func TestValidationBoundsFollowLimits(t *testing.T) {
	ctx := context.Background()
	svc := search.NewService(&spyStore{})

	_, err := svc.Search(ctx, search.SearchParams{Page: model.MaxPage, PageSize: model.MaxPageSize})
	require.NoError(t, err)
	_, err = svc.Search(ctx, search.SearchParams{Page: model.MaxPage + 1})
	assert.ErrorAs(t, err, new(*search.ValidationError))
	_, err = svc.Search(ctx, search.SearchParams{PageSize: model.MaxPageSize + 1})
	assert.ErrorAs(t, err, new(*search.ValidationError))

	geoSvc, _ := seeded(t)
	_, err = geoSvc.Nearby(ctx, nearby(28.6, 77.2, search.MaxRadiusKm, search.MaxNearbyLimit))
	require.NoError(t, err)
	_, err = geoSvc.Nearby(ctx, nearby(28.6, 77.2, search.MaxRadiusKm+0.001, 0))
	assert.ErrorAs(t, err, new(*search.ValidationError))
	_, err = geoSvc.Nearby(ctx, nearby(28.6, 77.2, 10, search.MaxNearbyLimit+1))
	assert.ErrorAs(t, err, new(*search.ValidationError))
}

func TestSearch_Validation(t *testing.T) {
	svc := search.NewService(&spyStore{})
	tests := []struct {
		name string
		p    search.SearchParams
		want string
	}{
		{"unknown status", search.SearchParams{Status: "archived"}, "status must be one of"},
		{"padded status", search.SearchParams{Status: " open"}, "status must be one of"},
		{"unknown sort", search.SearchParams{Sort: "oldest"}, "sort must be one of"},
		{"negative page", search.SearchParams{Page: -1}, "page must be >= 0"},
		{"page size too large", search.SearchParams{PageSize: 101}, "pageSize must be <= 100"},
		{"page too large", search.SearchParams{Page: 1 << 60, PageSize: 20}, "page must be <= 10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.p)
			var ve *search.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Msg, tt.want)
		})
	}
}
