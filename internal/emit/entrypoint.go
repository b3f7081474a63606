package emit

import (
	"strings"

	"golang.org/x/net/html"
)

// DetectEntryPoints walks a parsed HTML document for every <script> element
// carrying a src attribute, in document order, and returns their src values
// — the bundler's build input, derived from the
// detected entry point(s)".
func DetectEntryPoints(htmlContent string) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, a := range n.Attr {
				if a.Key == "src" {
					out = append(out, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// RewriteEntryPointSrc rewrites every <script src="oldSrc"> reference to
// newSrc and re-renders the document, leaving every other node untouched.
func RewriteEntryPointSrc(htmlContent, oldSrc, newSrc string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for i, a := range n.Attr {
				if a.Key == "src" && a.Val == oldSrc {
					n.Attr[i].Val = newSrc
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return htmlContent
	}
	return sb.String()
}
