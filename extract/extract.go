// Package extract recovers track, album, and artist records from the
// heterogeneous response bodies the remote site emits. Depending on page
// template the body carries an embedded structured-data payload, bare
// presentational markup, or neither; extraction always prefers the
// structured payload and falls back to markup scraping.
package extract

import (
	"net/url"
	"strings"
)

type Source int

const (
	// SourceEmpty means neither strategy produced a record. That is a
	// valid "no results" outcome, not a failure.
	SourceEmpty Source = iota
	// SourceStructured means records came from the embedded data payload.
	SourceStructured
	// SourceScraped means records came from the markup fallback.
	SourceScraped
)

func (s Source) String() string {
	switch s {
	case SourceStructured:
		return "structured"
	case SourceScraped:
		return "scraped"
	case SourceEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

type Track struct {
	Name            string  `json:"name"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	URL             string  `json:"url"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	Quality         *string `json:"quality,omitempty"`
}

type Album struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

type Artist struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Outcome struct {
	Source  Source
	Tracks  []Track
	Albums  []Album
	Artists []Artist
}

func (o Outcome) IsEmpty() bool {
	return len(o.Tracks) == 0 && len(o.Albums) == 0 && len(o.Artists) == 0
}

// Extractor normalizes response bodies into record listings. Relative
// record URLs resolve against the configured base.
type Extractor struct {
	base *url.URL
}

func New(baseURL string) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if nil != err {
		return nil, err
	}
	return &Extractor{base: base}, nil
}

// Extract applies both strategies with first-match-wins precedence: the
// embedded structured payload is schema-stable across presentational
// changes, so it always wins when present and parseable.
func (e *Extractor) Extract(body []byte) Outcome {
	if out, ok := e.extractStructured(body); ok && !out.IsEmpty() {
		out.Source = SourceStructured
		return out
	}

	if out, ok := e.extractMarkup(body); ok && !out.IsEmpty() {
		out.Source = SourceScraped
		return out
	}

	return Outcome{Source: SourceEmpty}
}

// resolveURL rebases a possibly-relative record URL. Unparsable URLs
// collapse to empty, which discards the record downstream.
func (e *Extractor) resolveURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if nil != err {
		return ""
	}
	return e.base.ResolveReference(ref).String()
}
