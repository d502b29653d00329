package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// FindDownloadLink resolves the direct resource locator out of a track
// page: first an anchor carrying a download class marker, then any anchor
// whose target or label mentions downloading. Empty means the page exposes
// no usable link.
func (e *Extractor) FindDownloadLink(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if nil != err {
		return ""
	}

	var classMatch, looseMatch string
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		href := anchorHref(n)
		if href == "" {
			return
		}

		if classMatch == "" && anchorHasDownloadClass(n) {
			classMatch = href
			return
		}

		if looseMatch == "" {
			if strings.Contains(strings.ToLower(href), "download") ||
				strings.EqualFold(strings.TrimSpace(nodeText(n)), "download") {
				looseMatch = href
			}
		}
	})

	if classMatch != "" {
		return e.resolveURL(classMatch)
	}
	if looseMatch != "" {
		return e.resolveURL(looseMatch)
	}
	return ""
}

func anchorHref(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			return attr.Val
		}
	}
	return ""
}

func anchorHasDownloadClass(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" && strings.Contains(strings.ToLower(attr.Val), "download") {
			return true
		}
	}
	return false
}
