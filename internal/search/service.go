// Package search is the read side of the job store: keyword and faceted
// search, lookup by id and radius queries. It holds no state of its own.
package search

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"jobmate/govjobs-service/internal/geo"
	"jobmate/govjobs-service/internal/model"
)

// Radius query bounds.
const (
	MaxRadiusKm        = 2000.0
	DefaultNearbyLimit = 50
	MaxNearbyLimit     = 200

	// distances within this of the radius count as inside
	radiusEpsilon = 1e-9
)

// Store is the read contract the query engine needs.
type Store interface {
	GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error)
	SearchJobs(ctx context.Context, q model.SearchQuery) (model.SearchResult, error)
	JobsInBox(ctx context.Context, box geo.BoundingBox) ([]model.Job, error)
}

// SearchParams is an unvalidated search request.
type SearchParams struct {
	Q             string `query:"q"             validate:"max=200"`
	State         string `query:"state"         validate:"max=100"`
	District      string `query:"district"      validate:"max=100"`
	Category      string `query:"category"      validate:"max=100"`
	Qualification string `query:"qualification" validate:"max=100"`
	Status        string `query:"status"        validate:"job_status"`
	Sort          string `query:"sort"          validate:"sort_order"`
	Page          int    `query:"page"          validate:"page"`
	PageSize      int    `query:"pageSize"      validate:"page_size"`
}

// NearbyParams is an unvalidated radius request. Coordinates and radius are
// required; there is no default radius.
type NearbyParams struct {
	Lat      *float64 `query:"lat"      validate:"required,gte=-90,lte=90"`
	Lon      *float64 `query:"lon"      validate:"required,gte=-180,lte=180"`
	RadiusKm *float64 `query:"radiusKm" validate:"required,radius_km"`
	Limit    int      `query:"limit"    validate:"nearby_limit"`
}

// Service answers job queries.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService returns a Service reading from store.
func NewService(store Store) *Service {
	return &Service{store: store, validate: newValidator()}
}

// Search validates p, applies defaults and runs the search.
func (s *Service) Search(ctx context.Context, p SearchParams) (model.SearchResult, error) {
	q, err := s.searchQuery(p)
	if err != nil {
		return model.SearchResult{}, err
	}
	res, err := s.store.SearchJobs(ctx, q)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

func (s *Service) searchQuery(p SearchParams) (model.SearchQuery, error) {
	if err := s.validate.Struct(p); err != nil {
		return model.SearchQuery{}, fromValidator(err)
	}

	q := model.SearchQuery{
		Q:             strings.TrimSpace(p.Q),
		State:         strings.TrimSpace(p.State),
		District:      strings.TrimSpace(p.District),
		Category:      strings.TrimSpace(p.Category),
		Qualification: strings.TrimSpace(p.Qualification),
		Status:        model.Status(p.Status),
		Sort:          model.SortOrder(strings.TrimSpace(p.Sort)),
		Page:          p.Page,
		PageSize:      p.PageSize,
	}
	if q.Sort == "" {
		q.Sort = model.SortLatest
	}
	if q.Sort == model.SortRelevance && q.Q == "" {
		q.Sort = model.SortLatest
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = model.DefaultPageSize
	}
	return q, nil
}

// Get returns one job. A malformed id is a ValidationError; an unknown one
// is the store's not-found error.
func (s *Service) Get(ctx context.Context, id string) (*model.Job, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, invalid("invalid job id %q", id)
	}
	return s.store.GetJob(ctx, uid)
}

// Nearby returns positioned jobs within the radius, nearest first.
func (s *Service) Nearby(ctx context.Context, p NearbyParams) (model.NearbyResult, error) {
	q, err := s.nearbyQuery(p)
	if err != nil {
		return model.NearbyResult{}, err
	}

	candidates, err := s.store.JobsInBox(ctx, geo.BoundingBoxAround(q.Lat, q.Lon, q.RadiusKm))
	if err != nil {
		return model.NearbyResult{}, fmt.Errorf("nearby: %w", err)
	}

	res := model.NearbyResult{Jobs: []model.NearbyJob{}, Lat: q.Lat, Lon: q.Lon, RadiusKm: q.RadiusKm}
	for _, j := range candidates {
		if !j.HasPosition() {
			continue
		}
		d := geo.Haversine(q.Lat, q.Lon, *j.Lat, *j.Lon)
		if d > q.RadiusKm+radiusEpsilon {
			continue
		}
		res.Jobs = append(res.Jobs, model.NearbyJob{Job: j, DistanceKm: d})
	}

	slices.SortFunc(res.Jobs, func(a, b model.NearbyJob) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	if len(res.Jobs) > q.Limit {
		res.Jobs = res.Jobs[:q.Limit]
	}
	return res, nil
}

func (s *Service) nearbyQuery(p NearbyParams) (model.NearbyQuery, error) {
	for name, v := range map[string]*float64{"lat": p.Lat, "lon": p.Lon, "radiusKm": p.RadiusKm} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return model.NearbyQuery{}, invalid("%s must be a finite number", name)
		}
	}
	if err := s.validate.Struct(p); err != nil {
		return model.NearbyQuery{}, fromValidator(err)
	}
	q := model.NearbyQuery{Lat: *p.Lat, Lon: *p.Lon, RadiusKm: *p.RadiusKm, Limit: p.Limit}
	if q.Limit == 0 {
		q.Limit = DefaultNearbyLimit
	}
	return q, nil
}
