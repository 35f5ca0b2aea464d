package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"unicode"
)

// SourceHash returns the deduplication key of a posting: the hex SHA-256 of
// its normalised title, organisation and link. The source id is deliberately
// not part of it, so the same posting syndicated by two sources collapses to
// one record.
func SourceHash(title, organisation, link string) string {
	sig := normalizeText(title) + "\x1f" + normalizeText(organisation) + "\x1f" + normalizeLink(link)
	sum := sha256.Sum256([]byte(sig))
	return hex.EncodeToString(sum[:])
}

// normalizeText lower-cases s, turns punctuation and symbols into spaces and
// collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// normalizeLink canonicalises an absolute URL: lower-case scheme and host, no
// fragment, no trailing slash. The query string is significant and kept.
func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.ToLower(link)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")
	return u.String()
}
