package scraper

import (
	"bytes"
	"context"
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobmate/govjobs-service/internal/model"
)

const defaultListSelector = ".job-item"

// HTMLAdapter scrapes listing pages with CSS selectors.
//
// Config options: listSelector (default ".job-item") picks one element per
// posting; titleSelector, orgSelector, linkSelector and lastDateSelector are
// evaluated inside it. Without a title selector the item's whole text is the
// title; without a link selector the item's own href or its first link is used.
type HTMLAdapter struct {
	fetcher *Fetcher
}

// NewHTMLAdapter returns an HTML adapter using f for retrieval.
func NewHTMLAdapter(f *Fetcher) *HTMLAdapter { return &HTMLAdapter{fetcher: f} }

func (*HTMLAdapter) Type() model.SourceType { return model.SourceTypeHTML }

func (a *HTMLAdapter) Listings(ctx context.Context, src model.JobSource) (iter.Seq[model.RawListing], error) {
	body, err := a.fetcher.Get(ctx, src.Name, src.BaseURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &SourceParseError{Source: src.Name, Err: err}
	}

	sel := htmlSelectors{
		list:     src.Config.String("listSelector", defaultListSelector),
		title:    src.Config.String("titleSelector", ""),
		org:      src.Config.String("orgSelector", ""),
		link:     src.Config.String("linkSelector", ""),
		lastDate: src.Config.String("lastDateSelector", ""),
	}

	return func(yield func(model.RawListing) bool) {
		doc.Find(sel.list).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			raw := sel.extract(s, src.BaseURL)
			if raw.Title == "" {
				return true
			}
			return yield(raw)
		})
	}, nil
}

type htmlSelectors struct {
	list, title, org, link, lastDate string
}

func (h htmlSelectors) extract(s *goquery.Selection, base string) model.RawListing {
	var raw model.RawListing

	if h.title != "" {
		raw.Title = clean(s.Find(h.title).First().Text())
	}
	if raw.Title == "" {
		raw.Title = clean(s.Text())
	}
	if h.org != "" {
		raw.Organisation = clean(s.Find(h.org).First().Text())
	}

	var href string
	if h.link != "" {
		href, _ = s.Find(h.link).First().Attr("href")
	}
	if href == "" {
		href, _ = s.Attr("href")
	}
	if href == "" {
		href, _ = s.Find("a[href]").First().Attr("href")
	}
	raw.Link = resolveLink(base, href)

	if h.lastDate != "" {
		if t, ok := parseDate(s.Find(h.lastDate).First().Text()); ok {
			raw.LastDate = t
		}
	}
	return raw
}

// resolveLink makes href absolute against the source base URL.
func resolveLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil || b.Host == "" {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}

// stripHTML returns the text content of an HTML fragment.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
