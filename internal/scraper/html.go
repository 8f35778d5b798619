package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlToLines strips markup from an HTML document and returns its visible
// text, one text node per line. The line structure matters: the extractor
// works per line, and merging adjacent nodes would glue unrelated offers
// together.
func htmlToLines(page string) string {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return sb.String()
}
