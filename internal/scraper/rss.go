package scraper

import (
	"bytes"
	"context"
	"iter"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"jobmate/govjobs-service/internal/model"
)

// RSSAdapter reads RSS, Atom and JSON feeds.
//
// Config options: titleField, linkField, descriptionField, dateField and
// orgField name the entry element each value is read from. Names are matched
// against the standard entry fields first, then custom elements, then
// namespaced extension elements.
type RSSAdapter struct {
	fetcher *Fetcher
}

// NewRSSAdapter returns an RSS adapter using f for retrieval.
func NewRSSAdapter(f *Fetcher) *RSSAdapter { return &RSSAdapter{fetcher: f} }

func (*RSSAdapter) Type() model.SourceType { return model.SourceTypeRSS }

func (a *RSSAdapter) Listings(ctx context.Context, src model.JobSource) (iter.Seq[model.RawListing], error) {
	body, err := a.fetcher.Get(ctx, src.Name, src.BaseURL)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &SourceParseError{Source: src.Name, Err: err}
	}

	cfg := src.Config
	titleField := cfg.String("titleField", "title")
	linkField := cfg.String("linkField", "link")
	descField := cfg.String("descriptionField", "description")
	dateField := cfg.String("dateField", "")
	orgField := cfg.String("orgField", "")

	return func(yield func(model.RawListing) bool) {
		for _, item := range feed.Items {
			if item == nil {
				continue
			}
			raw := model.RawListing{
				Title:       clean(stripHTML(itemField(item, titleField))),
				Link:        resolveLink(src.BaseURL, itemField(item, linkField)),
				Description: stripHTML(itemField(item, descField)),
			}
			if raw.Title == "" {
				continue
			}
			if orgField != "" {
				raw.Organisation = itemField(item, orgField)
			}
			raw.PublishedAt = itemDate(item, dateField)
			if !yield(raw) {
				return
			}
		}
	}, nil
}

// itemField looks a named value up on a feed entry.
func itemField(item *gofeed.Item, name string) string {
	switch strings.ToLower(name) {
	case "title":
		return item.Title
	case "link":
		if item.Link != "" {
			return item.Link
		}
		if len(item.Links) > 0 {
			return item.Links[0]
		}
		return ""
	case "description", "summary":
		if item.Description != "" {
			return item.Description
		}
		return item.Content
	case "content":
		return item.Content
	case "guid", "id":
		return item.GUID
	case "author":
		if len(item.Authors) > 0 && item.Authors[0] != nil {
			return item.Authors[0].Name
		}
		return ""
	case "category":
		if len(item.Categories) > 0 {
			return item.Categories[0]
		}
		return ""
	case "pubdate", "published":
		return item.Published
	case "updated":
		return item.Updated
	}

	if v, ok := item.Custom[name]; ok {
		return v
	}
	for _, byName := range item.Extensions {
		if exts := byName[name]; len(exts) > 0 {
			return exts[0].Value
		}
	}
	return ""
}

func itemDate(item *gofeed.Item, dateField string) *time.Time {
	if dateField != "" {
		if t, ok := parseDate(itemField(item, dateField)); ok {
			return t
		}
	}
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		return &t
	}
	if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		return &t
	}
	return nil
}
