package store

import (
	"context"
	"fmt"
	"time"

	"jobmate/govjobs-service/internal/model"
)

// GetGeo returns the durable cache entry for key.
func (s *Store) GetGeo(ctx context.Context, key string) (*model.GeoCacheEntry, error) {
	e := model.GeoCacheEntry{Key: key}
	err := s.pool.QueryRow(ctx,
		`SELECT result, cached_at FROM geo_cache WHERE cache_key = $1`, key,
	).Scan(&e.Result, &e.CachedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get geo_cache: %w", err)
	}
	return &e, nil
}

// PutGeo writes an entry; the last writer wins.
func (s *Store) PutGeo(ctx context.Context, e model.GeoCacheEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO geo_cache (cache_key, result, cached_at) VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET result = EXCLUDED.result, cached_at = EXCLUDED.cached_at`,
		e.Key, e.Result, e.CachedAt,
	)
	if err != nil {
		return fmt.Errorf("put geo_cache: %w", err)
	}
	return nil
}

// PurgeGeoOlderThan deletes entries cached before cutoff and returns how many went.
func (s *Store) PurgeGeoOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM geo_cache WHERE cached_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge geo_cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
