package extract

import (
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/ryanlong1004/lucida-flow/sliceutil"
)

// dataMarker opens the embedded payload the site's page framework inlines
// into a script tag. The payload is a serialized object graph whose second
// element carries the search results.
const dataMarker = "const data = "

func (e *Extractor) extractStructured(body []byte) (Outcome, bool) {
	payload, ok := embeddedPayload(string(body))
	if !ok {
		return Outcome{}, false
	}

	results := gjson.Parse(payload).Get("1.data.results")
	if !results.Exists() {
		return Outcome{}, false
	}
	if !results.Get("success").Bool() {
		return Outcome{}, false
	}

	inner := results.Get("results")

	var out Outcome
	for _, t := range inner.Get("tracks").Array() {
		track := Track{
			Name:   strings.TrimSpace(t.Get("title").String()),
			Artist: joinArtistNames(t.Get("artists")),
			Album:  strings.TrimSpace(t.Get("album.title").String()),
			URL:    e.resolveURL(t.Get("url").String()),
		}
		if d := t.Get("duration"); d.Exists() {
			track.DurationSeconds = lo.ToPtr(int(d.Int()))
		}
		if q := t.Get("quality"); q.Exists() && q.String() != "" {
			track.Quality = lo.ToPtr(strings.TrimSpace(q.String()))
		}
		if track.URL == "" {
			continue
		}
		out.Tracks = append(out.Tracks, track)
	}

	for _, a := range inner.Get("albums").Array() {
		album := Album{
			Name:   strings.TrimSpace(a.Get("title").String()),
			Artist: joinArtistNames(a.Get("artists")),
			URL:    e.resolveURL(a.Get("url").String()),
		}
		if album.URL == "" {
			continue
		}
		out.Albums = append(out.Albums, album)
	}

	for _, a := range inner.Get("artists").Array() {
		artist := Artist{
			Name: strings.TrimSpace(a.Get("name").String()),
			URL:  e.resolveURL(a.Get("url").String()),
		}
		if artist.URL == "" {
			continue
		}
		out.Artists = append(out.Artists, artist)
	}

	return out, true
}

func joinArtistNames(artists gjson.Result) string {
	names := sliceutil.Map(artists.Array(), func(a gjson.Result) string {
		return strings.TrimSpace(a.Get("name").String())
	})
	return strings.Join(lo.Compact(names), ", ")
}

// embeddedPayload locates the payload marker and returns the balanced
// bracket span that follows it. Bracket counting tracks string literals
// and escapes so braces inside titles do not derail the scan.
func embeddedPayload(body string) (string, bool) {
	start := strings.Index(body, dataMarker)
	if start == -1 {
		return "", false
	}
	start += len(dataMarker)

	var (
		depth      int
		inString   bool
		escapeNext bool
	)
	for i := start; i < len(body); i++ {
		c := body[i]

		if escapeNext {
			escapeNext = false
			continue
		}

		switch {
		case c == '\\':
			escapeNext = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
			if depth == 0 {
				return body[start : i+1], true
			}
		}
	}

	return "", false
}
