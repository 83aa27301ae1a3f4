package fetchkit

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// Page is the document handle returned by Fetcher.Get. It wraps the parsed
// HTML and exposes the title, selector queries, and the plain text.
type Page struct {
	url        string
	statusCode int
	doc        *goquery.Document
}

// Node is a single selector match.
type Node struct {
	sel *goquery.Selection
}

// Text returns the node's text content, trimmed.
func (n Node) Text() string {
	return strings.TrimSpace(n.sel.Text())
}

// URL returns the URL the page was fetched from.
func (p *Page) URL() string { return p.url }

// StatusCode returns the HTTP status of the fetch.
func (p *Page) StatusCode() int { return p.statusCode }

// Title returns the first <title> element's trimmed text. ok is false when
// the document has no title element. Title never fails.
func (p *Page) Title() (string, bool) {
	sel := p.doc.Find("title").First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// Query matches a CSS selector against the document and returns the matches
// in document order. Invalid selector syntax is an error.
func (p *Page) Query(selector string) ([]Node, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: invalid selector %q", selector)
	}
	var nodes []Node
	p.doc.FindMatcher(matcher).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, Node{sel: s})
	})
	return nodes, nil
}

// skipSubtrees are elements whose text is never visible page content.
var skipSubtrees = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Text returns the document's visible plain text: script/style/noscript/
// template/iframe subtrees dropped, text nodes joined, whitespace runs
// collapsed, result trimmed. Returns "" for an empty document.
func (p *Page) Text() string {
	var parts []string
	for _, root := range p.doc.Selection.Nodes {
		collectText(root, &parts)
	}
	joined := strings.Join(parts, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(joined, " "))
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.ElementNode && skipSubtrees[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
