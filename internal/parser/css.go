package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SelectText returns the collapsed text of every element in body matching
// the CSS selector, in document order. Elements with no text are omitted.
func SelectText(body []byte, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var matches []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if text := collapseWhitespace(sel.Text()); text != "" {
			matches = append(matches, text)
		}
	})
	return matches, nil
}

// SelectAttr returns the value of attr for every element in body matching
// the CSS selector that carries the attribute. Values are trimmed but kept
// even when empty, since an empty attribute is still a match.
func SelectAttr(body []byte, selector, attr string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var matches []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if value, ok := sel.Attr(attr); ok {
			matches = append(matches, strings.TrimSpace(value))
		}
	})
	return matches, nil
}
