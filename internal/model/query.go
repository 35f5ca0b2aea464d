package model

// SortOrder selects the ordering of a search result page.
type SortOrder string

const (
	SortLatest      SortOrder = "latest"
	SortClosingSoon SortOrder = "closing_soon"
	SortRelevance   SortOrder = "relevance"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 10000
)

// SearchQuery is a validated keyword/faceted search request.
type SearchQuery struct {
	Q             string
	State         string
	District      string
	Category      string
	Qualification string
	Status        Status
	Sort          SortOrder
	Page          int
	PageSize      int
}

// Offset returns the number of rows skipped before the requested page.
func (q SearchQuery) Offset() int { return max(q.Page-1, 0) * q.PageSize }

// Facets lists the distinct values present in a filtered result set.
type Facets struct {
	States     []string `json:"states"`
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
}

// SearchResult is one page of jobs plus the totals of the filtered set.
type SearchResult struct {
	Jobs     []Job  `json:"jobs"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Facets   Facets `json:"facets"`
}

// NearbyQuery is a validated radius query.
type NearbyQuery struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
	Limit    int
}

// NearbyJob is a job annotated with its great-circle distance from the query center.
type NearbyJob struct {
	Job
	DistanceKm float64 `json:"distanceKm"`
}

// NearbyResult is the response of a radius query.
type NearbyResult struct {
	Jobs     []NearbyJob `json:"jobs"`
	Lat      float64     `json:"lat"`
	Lon      float64     `json:"lon"`
	RadiusKm float64     `json:"radiusKm"`
}
