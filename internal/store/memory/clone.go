package memory

import (
	"maps"
	"time"

	"jobmate/govjobs-service/internal/model"
)

func ptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneJob(j *model.Job) model.Job {
	c := *j
	c.Lat, c.Lon = ptr(j.Lat), ptr(j.Lon)
	c.Vacancies = ptr(j.Vacancies)
	c.ApplyStartDate, c.ApplyEndDate = ptr(j.ApplyStartDate), ptr(j.ApplyEndDate)
	c.ExamDate, c.PublishedAt = ptr(j.ExamDate), ptr(j.PublishedAt)
	return c
}

func cloneConfig(c model.SourceConfig) model.SourceConfig {
	if c == nil {
		return model.SourceConfig{}
	}
	return maps.Clone(c)
}

func cloneSource(src *model.JobSource) model.JobSource {
	c := *src
	c.Config = cloneConfig(src.Config)
	c.LastRunAt = ptr(src.LastRunAt)
	return c
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// sameMutable reports whether every column an update may rewrite is equal.
func sameMutable(a, b *model.Job) bool {
	return a.Title == b.Title &&
		a.Organisation == b.Organisation &&
		a.SourceURL == b.SourceURL &&
		a.OfficialNotificationURL == b.OfficialNotificationURL &&
		a.Category == b.Category &&
		a.Qualification == b.Qualification &&
		a.Status == b.Status &&
		a.State == b.State &&
		a.District == b.District &&
		eqPtr(a.Lat, b.Lat) && eqPtr(a.Lon, b.Lon) &&
		a.LocationLabel == b.LocationLabel &&
		eqPtr(a.Vacancies, b.Vacancies) &&
		a.Description == b.Description &&
		a.AgeLimit == b.AgeLimit &&
		a.Salary == b.Salary &&
		eqTime(a.ApplyStartDate, b.ApplyStartDate) &&
		eqTime(a.ApplyEndDate, b.ApplyEndDate) &&
		eqTime(a.ExamDate, b.ExamDate)
}

// applyMutable copies the updatable columns of src onto dst. Provenance and
// publish time stay as first recorded.
func applyMutable(dst, src *model.Job) {
	c := cloneJob(src)
	dst.Title = c.Title
	dst.Organisation = c.Organisation
	dst.SourceURL = c.SourceURL
	dst.OfficialNotificationURL = c.OfficialNotificationURL
	dst.Category = c.Category
	dst.Qualification = c.Qualification
	dst.Status = c.Status
	dst.State = c.State
	dst.District = c.District
	dst.Lat, dst.Lon = c.Lat, c.Lon
	dst.LocationLabel = c.LocationLabel
	dst.Vacancies = c.Vacancies
	dst.Description = c.Description
	dst.AgeLimit = c.AgeLimit
	dst.Salary = c.Salary
	dst.ApplyStartDate = c.ApplyStartDate
	dst.ApplyEndDate = c.ApplyEndDate
	dst.ExamDate = c.ExamDate
}
