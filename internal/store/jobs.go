package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobmate/govjobs-service/internal/geo"
	"jobmate/govjobs-service/internal/model"
)

const jobColumns = `id, source_id, title, organisation, source_url, official_notification_url,
	source_hash, category, qualification, status, state, district, lat, lon,
	location_label, vacancies, description, age_limit, salary,
	apply_start_date, apply_end_date, exam_date, published_at, created_at, updated_at`

func scanJob(row pgx.Row) (model.Job, error) {
	var j model.Job
	err := row.Scan(
		&j.ID, &j.SourceID, &j.Title, &j.Organisation, &j.SourceURL, &j.OfficialNotificationURL,
		&j.SourceHash, &j.Category, &j.Qualification, &j.Status, &j.State, &j.District, &j.Lat, &j.Lon,
		&j.LocationLabel, &j.Vacancies, &j.Description, &j.AgeLimit, &j.Salary,
		&j.ApplyStartDate, &j.ApplyEndDate, &j.ExamDate, &j.PublishedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

func collectJobs(rows pgx.Rows) ([]model.Job, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Job, error) {
		return scanJob(row)
	})
}

// nextStatusSQL keeps result_out once it is stored (model.NextStatus).
const nextStatusSQL = `CASE
		WHEN jobs.status = 'result_out' THEN jobs.status
		ELSE EXCLUDED.status
	END`

// upsertJobSQL applies the dedup decision in one statement. A conflicting
// row is only rewritten when a mutable column differs; when nothing differs
// no row is returned. published_at, created_at and source_id are never
// overwritten, and the stored status comes back with the row.
const upsertJobSQL = `
INSERT INTO jobs (
	source_id, title, organisation, source_url, official_notification_url, source_hash,
	category, qualification, status, state, district, lat, lon, location_label,
	vacancies, description, age_limit, salary,
	apply_start_date, apply_end_date, exam_date, published_at, search_vector
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
	$19, $20, $21, $22,
	jobs_search_vector($2, $3, $7, $10, $11, $8, $16)
)
ON CONFLICT (source_hash) DO UPDATE SET
	title                     = EXCLUDED.title,
	organisation              = EXCLUDED.organisation,
	source_url                = EXCLUDED.source_url,
	official_notification_url = EXCLUDED.official_notification_url,
	category                  = EXCLUDED.category,
	qualification             = EXCLUDED.qualification,
	status                    = ` + nextStatusSQL + `,
	state                     = EXCLUDED.state,
	district                  = EXCLUDED.district,
	lat                       = EXCLUDED.lat,
	lon                       = EXCLUDED.lon,
	location_label            = EXCLUDED.location_label,
	vacancies                 = EXCLUDED.vacancies,
	description               = EXCLUDED.description,
	age_limit                 = EXCLUDED.age_limit,
	salary                    = EXCLUDED.salary,
	apply_start_date          = EXCLUDED.apply_start_date,
	apply_end_date            = EXCLUDED.apply_end_date,
	exam_date                 = EXCLUDED.exam_date,
	search_vector             = EXCLUDED.search_vector,
	updated_at                = NOW()
WHERE (
	jobs.title, jobs.organisation, jobs.source_url, jobs.official_notification_url,
	jobs.category, jobs.qualification, jobs.status, jobs.state, jobs.district,
	jobs.lat, jobs.lon, jobs.location_label, jobs.vacancies, jobs.description,
	jobs.age_limit, jobs.salary, jobs.apply_start_date, jobs.apply_end_date, jobs.exam_date
) IS DISTINCT FROM (
	EXCLUDED.title, EXCLUDED.organisation, EXCLUDED.source_url, EXCLUDED.official_notification_url,
	EXCLUDED.category, EXCLUDED.qualification, ` + nextStatusSQL + `, EXCLUDED.state, EXCLUDED.district,
	EXCLUDED.lat, EXCLUDED.lon, EXCLUDED.location_label, EXCLUDED.vacancies, EXCLUDED.description,
	EXCLUDED.age_limit, EXCLUDED.salary, EXCLUDED.apply_start_date, EXCLUDED.apply_end_date, EXCLUDED.exam_date
)
RETURNING id, (xmax = 0), status, created_at, updated_at`

// UpsertJob inserts job, updates the existing row with the same source hash,
// or leaves it untouched when nothing changed. On insert or update job.ID,
// CreatedAt and UpdatedAt are filled from the row.
func (s *Store) UpsertJob(ctx context.Context, job *model.Job) (model.UpsertOutcome, error) {
	var (
		inserted bool
		status   string
	)
	err := s.pool.QueryRow(ctx, upsertJobSQL,
		job.SourceID, job.Title, job.Organisation, job.SourceURL, job.OfficialNotificationURL, job.SourceHash,
		job.Category, job.Qualification, string(job.Status), job.State, job.District, job.Lat, job.Lon, job.LocationLabel,
		job.Vacancies, job.Description, job.AgeLimit, job.Salary,
		job.ApplyStartDate, job.ApplyEndDate, job.ExamDate, job.PublishedAt,
	).Scan(&job.ID, &inserted, &status, &job.CreatedAt, &job.UpdatedAt)
	if err == nil {
		job.Status = model.Status(status)
	}

	switch {
	case err == nil && inserted:
		return model.OutcomeInserted, nil
	case err == nil:
		return model.OutcomeUpdated, nil
	case isNoRows(err):
		return model.OutcomeUnchanged, nil
	case isForeignKeyViolation(err):
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, job.SourceID)
	default:
		return "", fmt.Errorf("upsert job %s: %w", job.SourceHash, err)
	}
}

// GetJob returns one job by id.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

// SearchJobs runs a validated search: one page of jobs plus the total and
// facets of the whole filtered set.
func (s *Store) SearchJobs(ctx context.Context, q model.SearchQuery) (model.SearchResult, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var qp string
	if q.Q != "" {
		qp = arg(q.Q)
		where = append(where, fmt.Sprintf(`(
			search_vector @@ websearch_to_tsquery('simple', %[1]s)
			OR title %% %[1]s OR organisation %% %[1]s
			OR strpos(lower(title), lower(%[1]s)) > 0
			OR strpos(lower(organisation), lower(%[1]s)) > 0)`, qp))
	}
	for _, f := range []struct{ col, val string }{
		{"state", q.State},
		{"district", q.District},
		{"category", q.Category},
		{"qualification", q.Qualification},
		{"status", string(q.Status)},
	} {
		if f.val != "" {
			where = append(where, f.col+" = "+arg(f.val))
		}
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	res := model.SearchResult{Page: q.Page, PageSize: q.PageSize}
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       coalesce(array_agg(DISTINCT state ORDER BY state) FILTER (WHERE state <> ''), '{}'),
		       coalesce(array_agg(DISTINCT category ORDER BY category) FILTER (WHERE category <> ''), '{}'),
		       coalesce(array_agg(DISTINCT status ORDER BY status), '{}')
		FROM jobs`+whereSQL, args...,
	).Scan(&res.Total, &res.Facets.States, &res.Facets.Categories, &res.Facets.Statuses)
	if err != nil {
		return res, fmt.Errorf("search facets: %w", err)
	}

	order := orderBy(q.Sort, qp)
	pageSQL := `SELECT ` + jobColumns + ` FROM jobs` + whereSQL +
		` ORDER BY ` + order + ` LIMIT ` + arg(q.PageSize) + ` OFFSET ` + arg(q.Offset())
	rows, err := s.pool.Query(ctx, pageSQL, args...)
	if err != nil {
		return res, fmt.Errorf("search jobs: %w", err)
	}
	res.Jobs, err = collectJobs(rows)
	if err != nil {
		return res, fmt.Errorf("search jobs scan: %w", err)
	}
	if res.Jobs == nil {
		res.Jobs = []model.Job{}
	}
	return res, nil
}

// orderBy returns the ORDER BY clause for a sort. qp is the placeholder of
// the free-text query, empty when there is none.
func orderBy(sort model.SortOrder, qp string) string {
	const latest = `published_at DESC NULLS LAST, id`
	switch sort {
	case model.SortClosingSoon:
		return `apply_end_date ASC NULLS LAST, ` + latest
	case model.SortRelevance:
		if qp == "" {
			return latest
		}
		return fmt.Sprintf(`ts_rank(search_vector, websearch_to_tsquery('simple', %[1]s))
			+ greatest(similarity(title, %[1]s), similarity(organisation, %[1]s)) DESC, `, qp) + latest
	default:
		return latest
	}
}

// JobsInBox returns every positioned job inside box. It is the range-index
// prefilter of radius queries; callers compute exact distances.
func (s *Store) JobsInBox(ctx context.Context, box geo.BoundingBox) ([]model.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE lat IS NOT NULL AND lon IS NOT NULL
		  AND lat BETWEEN $1 AND $2
		  AND lon BETWEEN $3 AND $4`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, fmt.Errorf("jobs in box: %w", err)
	}
	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, fmt.Errorf("jobs in box scan: %w", err)
	}
	return jobs, nil
}
