// Package extract holds the DOM helpers and text parsers shared by the
// portal adapters. Pages are snapshotted once per attempt and walked here
// with goquery, so row extraction never touches the live browser.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var spaceRun = regexp.MustCompile(`\s+`)

// Parse turns a frame's rendered HTML into a goquery document.
func Parse(rawHTML string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// MustCompile compiles a CSS selector once at package init. Adapter
// selectors are constants, so a bad one is a programming error.
func MustCompile(sel string) cascadia.Selector {
	return cascadia.MustCompile(sel)
}

// Text returns the whitespace-collapsed text of the selection.
func Text(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	return Squash(s.Text())
}

// blockTags break text the way a browser's innerText does. Inline
// elements (b, small, span, abbr) join their text without a gap.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "label": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "section": true, "table": true,
	"tbody": true, "td": true, "tfoot": true, "th": true, "thead": true,
	"tr": true, "ul": true,
}

// InnerText is Text with a separator at block and cell boundaries, so
// adjacent blocks ("<div>M2</div><div>Letter 1</div>") do not run together
// while inline markup ("$12<small>.50</small>") stays joined. Script and
// style contents are skipped.
func InnerText(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return Squash(b.String())
}

// Squash collapses whitespace runs to single spaces and trims the ends.
func Squash(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// Attr returns the trimmed attribute value of the first element in s and
// whether the attribute was present.
func Attr(s *goquery.Selection, name string) (string, bool) {
	if s == nil || s.Length() == 0 {
		return "", false
	}
	v, ok := s.First().Attr(name)
	return strings.TrimSpace(v), ok
}

// Children returns the direct element children of s matching sel, in
// document order (the goquery equivalent of ":scope > sel").
func Children(s *goquery.Selection, sel cascadia.Selector) *goquery.Selection {
	return s.ChildrenMatcher(sel)
}
