package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed page that can be queried for marker classes.
type Document struct {
	root *html.Node
}

// ParseDocument parses an HTML page.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &Document{root: root}, nil
}

// CountClass returns how many sensors carry the class token.
//
// PRTG map objects print the number of sensors they stand for as their text;
// those numbers are summed. When no element carries a number, each element
// counts as one sensor.
func (d *Document) CountClass(token string) int {
	elements, sum := 0, 0
	walk(d.root, func(n *html.Node) {
		if n.Type != html.ElementNode || !hasClass(n, token) {
			return
		}
		elements++
		if v, err := strconv.Atoi(strings.TrimSpace(textOf(n))); err == nil && v > 0 {
			sum += v
		}
	})
	if sum == 0 {
		return elements
	}
	return sum
}

func hasClass(n *html.Node, token string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == token {
					return true
				}
			}
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
