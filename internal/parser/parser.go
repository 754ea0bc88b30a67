package parser

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Page holds what the extractor pulled out of a single HTML document.
type Page struct {
	// Title is the content of the first <title> element, falling back to
	// the first <h1> when the document has no title.
	Title string
	// Text is the visible text of the document with all whitespace runs
	// collapsed to single spaces. Script, style, and noscript content is
	// excluded.
	Text string
	// Links are the absolute http and https URLs of all <a href>
	// elements, in document order with duplicates removed.
	Links []string
}

// Extractor parses HTML documents. It is stateless and safe for
// concurrent use.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// skipPrefixes are href values that never lead to a fetchable page.
var skipPrefixes = []string{"#", "javascript:", "mailto:", "tel:", "data:"}

// Extract parses body and collects the title, visible text, and outbound
// links in a single pass. Relative hrefs are resolved against base. Parse
// errors yield an empty Page; extraction never fails the caller.
func (e *Extractor) Extract(body []byte, base *url.URL) *Page {
	page := &Page{}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return page
	}

	var (
		textParts []string
		heading   string
		seen      = make(map[string]struct{})
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := collapseWhitespace(n.Data); text != "" {
				textParts = append(textParts, text)
			}
			return
		case html.CommentNode, html.DoctypeNode:
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if page.Title == "" {
					page.Title = collapseWhitespace(nodeText(n))
				}
				return
			case "h1":
				if heading == "" {
					heading = collapseWhitespace(nodeText(n))
				}
			case "a":
				if link, ok := resolveLink(n, base); ok {
					if _, dup := seen[link]; !dup {
						seen[link] = struct{}{}
						page.Links = append(page.Links, link)
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if page.Title == "" {
		page.Title = heading
	}
	page.Text = strings.Join(textParts, " ")
	return page
}

// resolveLink turns the href of an anchor element into an absolute URL.
// Fragment-only, javascript:, mailto:, tel:, and data: hrefs are skipped,
// and so is anything that does not resolve to http or https.
func resolveLink(n *html.Node, base *url.URL) (string, bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	resolved, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(resolved.Scheme) {
	case "http", "https":
		return resolved.String(), true
	default:
		return "", false
	}
}

// nodeText concatenates the text nodes beneath n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// collapseWhitespace trims s and squeezes interior whitespace runs into
// single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
