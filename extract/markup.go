package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Markup fallback: when no structured payload is present the site still
// renders result rows as container divs with known class markers. Field
// conventions inside a row's metadata block: h1 title, h2 artist, h3
// album, first anchor the record URL.
const (
	trackRowClass  = "search-result-track"
	albumRowClass  = "search-result-album"
	artistRowClass = "search-result-artist"
	metadataClass  = "metadata"
)

func (e *Extractor) extractMarkup(body []byte) (Outcome, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if nil != err {
		return Outcome{}, false
	}

	var out Outcome

	for _, row := range findAllByClass(doc, trackRowClass) {
		if track, ok := e.parseTrackRow(row); ok {
			out.Tracks = append(out.Tracks, track)
		}
	}

	for _, row := range findAllByClass(doc, albumRowClass) {
		meta := metadataOf(row)
		album := Album{
			Name:   headingText(meta, "h1"),
			Artist: headingText(meta, "h2"),
			URL:    e.resolveURL(firstAnchorHref(meta)),
		}
		if album.URL == "" {
			continue
		}
		out.Albums = append(out.Albums, album)
	}

	for _, row := range findAllByClass(doc, artistRowClass) {
		meta := metadataOf(row)
		artist := Artist{
			Name: headingText(meta, "h1"),
			URL:  e.resolveURL(firstAnchorHref(meta)),
		}
		if artist.URL == "" {
			continue
		}
		out.Artists = append(out.Artists, artist)
	}

	return out, true
}

func (e *Extractor) parseTrackRow(row *html.Node) (Track, bool) {
	meta := metadataOf(row)
	if meta == nil {
		return Track{}, false
	}

	track := Track{
		Name:   headingText(meta, "h1"),
		Artist: headingText(meta, "h2"),
		Album:  headingText(meta, "h3"),
		URL:    e.resolveURL(firstAnchorHref(meta)),
	}
	if track.URL == "" {
		return Track{}, false
	}
	return track, true
}

func metadataOf(row *html.Node) *html.Node {
	matches := findAllByClass(row, metadataClass)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

func findAllByClass(root *html.Node, class string) []*html.Node {
	var matches []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			matches = append(matches, n)
		}
	})
	return matches
}

func headingText(root *html.Node, tag string) string {
	if root == nil {
		return ""
	}
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && n.Data == tag {
			found = n
		}
	})
	if found == nil {
		return ""
	}
	return strings.TrimSpace(nodeText(found))
}

func firstAnchorHref(root *html.Node) string {
	if root == nil {
		return ""
	}
	var href string
	walk(root, func(n *html.Node) {
		if href != "" || n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		for _, attr := range n.Attr {
			if attr.Key == "href" && attr.Val != "" {
				href = attr.Val
				return
			}
		}
	})
	return href
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
