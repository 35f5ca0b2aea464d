package scraper

import (
	"context"
	"fmt"
	"iter"

	"jobmate/govjobs-service/internal/model"
)

// Adapter turns one source into a sequence of raw listings.
//
// Listings fetches and parses the whole source document before returning, so
// a failure for the source surfaces as one error. The returned sequence walks
// the parsed document lazily and may be ranged over more than once.
// Items without a title never appear in it.
type Adapter interface {
	Type() model.SourceType
	Listings(ctx context.Context, src model.JobSource) (iter.Seq[model.RawListing], error)
}

// Registry resolves the adapter for a source by its type.
type Registry struct {
	adapters map[model.SourceType]Adapter
}

// NewRegistry builds a registry from the given adapters. A later adapter for
// the same type replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[model.SourceType]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Type()] = a
	}
	return r
}

// DefaultRegistry wires the RSS, HTML and PDF adapters onto one fetcher.
func DefaultRegistry(f *Fetcher) *Registry {
	return NewRegistry(NewRSSAdapter(f), NewHTMLAdapter(f), NewPDFAdapter())
}

// Adapter returns the adapter for t.
func (r *Registry) Adapter(t model.SourceType) (Adapter, error) {
	a, ok := r.adapters[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, t)
	}
	return a, nil
}

func emptySeq[T any]() iter.Seq[T] {
	return func(func(T) bool) {}
}
