package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobmate/govjobs-service/internal/model"
)

const sourceColumns = `id, name, base_url, type, config, active, last_run_at, created_at, updated_at`

func scanSource(row pgx.Row) (model.JobSource, error) {
	var src model.JobSource
	err := row.Scan(&src.ID, &src.Name, &src.BaseURL, &src.Type, &src.Config,
		&src.Active, &src.LastRunAt, &src.CreatedAt, &src.UpdatedAt)
	if src.Config == nil {
		src.Config = model.SourceConfig{}
	}
	return src, err
}

func (s *Store) listSources(ctx context.Context, query string) ([]model.JobSource, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query job_sources: %w", err)
	}
	sources, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.JobSource, error) {
		return scanSource(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan job_sources: %w", err)
	}
	return sources, nil
}

// ListActiveSources returns every source with active = true, by name.
func (s *Store) ListActiveSources(ctx context.Context) ([]model.JobSource, error) {
	return s.listSources(ctx, `SELECT `+sourceColumns+` FROM job_sources WHERE active ORDER BY name`)
}

// ListSources returns every registered source, by name.
func (s *Store) ListSources(ctx context.Context) ([]model.JobSource, error) {
	return s.listSources(ctx, `SELECT `+sourceColumns+` FROM job_sources ORDER BY name`)
}

// GetSource returns one source by id.
func (s *Store) GetSource(ctx context.Context, id uuid.UUID) (*model.JobSource, error) {
	src, err := scanSource(s.pool.QueryRow(ctx, `SELECT `+sourceColumns+` FROM job_sources WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return &src, nil
}

// MarkSourceRun records when the orchestrator last processed a source.
func (s *Store) MarkSourceRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_sources SET last_run_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark source run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertSource registers a source or updates the one with the same name.
// It reports whether a new row was created and fills src from the row.
func (s *Store) UpsertSource(ctx context.Context, src *model.JobSource) (bool, error) {
	if src.Config == nil {
		src.Config = model.SourceConfig{}
	}
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO job_sources (name, base_url, type, config, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			base_url   = EXCLUDED.base_url,
			type       = EXCLUDED.type,
			config     = EXCLUDED.config,
			active     = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id, (xmax = 0), last_run_at, created_at, updated_at`,
		src.Name, src.BaseURL, string(src.Type), src.Config, src.Active,
	).Scan(&src.ID, &inserted, &src.LastRunAt, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("upsert source %q: %w", src.Name, err)
	}
	return inserted, nil
}
