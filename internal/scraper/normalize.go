package scraper

import (
	"strings"
	"time"

	"jobmate/govjobs-service/internal/geo"
	"jobmate/govjobs-service/internal/model"
)

// Normalize maps a raw listing onto the canonical job shape, applying the
// source's defaults. It does not touch the network or the store; now is the
// fallback publish time for listings that carry none and the reference day
// for closing postings past their last date.
func Normalize(raw model.RawListing, src model.JobSource, now time.Time) model.Job {
	cfg := src.Config

	org := clean(raw.Organisation)
	if org == "" {
		org = cfg.String("defaultOrg", clean(src.Name))
	}
	link := strings.TrimSpace(raw.Link)

	job := model.Job{
		SourceID:                src.ID,
		Title:                   clean(raw.Title),
		Organisation:            org,
		SourceURL:               link,
		OfficialNotificationURL: link,
		Category:                cfg.String("defaultCategory", ""),
		Qualification:           cfg.String("defaultQualification", ""),
		Status:                  model.StatusOpen,
		State:                   cfg.String("defaultState", ""),
		District:                cfg.String("defaultDistrict", ""),
		Description:             clean(raw.Description),
		ApplyEndDate:            raw.LastDate,
	}
	job.SourceHash = SourceHash(job.Title, job.Organisation, link)

	// A posting whose last date is before today can no longer be applied to.
	if raw.LastDate != nil && raw.LastDate.Before(now.UTC().Truncate(24*time.Hour)) {
		job.Status = model.StatusClosed
	}

	published := now.UTC()
	if raw.PublishedAt != nil && !raw.PublishedAt.IsZero() {
		published = raw.PublishedAt.UTC()
	}
	job.PublishedAt = &published

	locate(&job, cfg)
	return job
}

// locate fills coordinates and a display label. Explicit source coordinates
// win over the state seat; a job in an unknown state stays unplaced.
func locate(job *model.Job, cfg model.SourceConfig) {
	lat, okLat := cfg.Float("lat")
	lon, okLon := cfg.Float("lon")
	switch {
	case okLat && okLon && geo.ValidCoordinate(lat, lon):
		job.Lat, job.Lon = &lat, &lon
	case job.State != "":
		if p, ok := geo.StateSeat(job.State); ok {
			job.Lat, job.Lon = &p.Lat, &p.Lon
		}
	}

	job.LocationLabel = cfg.String("locationLabel", "")
	if job.LocationLabel != "" {
		return
	}
	switch {
	case job.District != "" && job.State != "":
		job.LocationLabel = job.District + ", " + job.State
	case job.District != "":
		job.LocationLabel = job.District
	default:
		job.LocationLabel = job.State
	}
}

func clean(s string) string { return strings.Join(strings.Fields(s), " ") }
