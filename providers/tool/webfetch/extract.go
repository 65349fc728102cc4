package webfetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxLinks bounds the outbound links collected from one page.
const maxLinks = 5

// maxLinkTextLen bounds the visible text stored per link.
const maxLinkTextLen = 100

// pageData is the result of reducing raw markup to its useful parts.
type pageData struct {
	Title   string
	Content string
	Links   []Link
}

// extractPage derives a title, the primary body text and up to maxLinks
// outbound links from raw HTML. Body extraction tries three strategies in
// order, stopping at the first that yields text:
//
//  1. semantic main-content containers (main, article)
//  2. containers whose class or id suggests a content/main region
//  3. all paragraph and heading elements in document order
//
// The title is read before boilerplate removal, so an h1 inside a header
// still titles the page. Boilerplate regions (script, style, nav, footer,
// header, aside) are removed before link collection and before any content
// strategy runs. An empty extract is valid output, not an error.
func extractPage(rawHTML string, base *url.URL) (pageData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return pageData{}, err
	}

	title := collapseWhitespace(doc.Find("title").First().Text())
	if title == "" {
		title = collapseWhitespace(doc.Find("h1").First().Text())
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()

	links := collectLinks(doc, base)

	content := nodeText(doc.Find("main, article"))
	if content == "" {
		content = nodeText(contentLikeContainers(doc))
	}
	if content == "" {
		content = nodeText(doc.Find("p, h1, h2, h3, h4, h5, h6"))
	}

	return pageData{
		Title:   title,
		Content: content,
		Links:   links,
	}, nil
}

// contentLikeContainers selects div/section elements whose class or id
// attribute suggests a main-content region.
func contentLikeContainers(doc *goquery.Document) *goquery.Selection {
	return doc.Find("div, section").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		hint := strings.ToLower(class + " " + id)
		return strings.Contains(hint, "content") || strings.Contains(hint, "main")
	})
}

// topLevelNodes drops nodes that are descendants of another node in the
// set, so nested containers do not contribute their text twice.
func topLevelNodes(nodes []*html.Node) []*html.Node {
	inSet := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		inSet[n] = true
	}
	var out []*html.Node
	for _, n := range nodes {
		nested := false
		for p := n.Parent; p != nil; p = p.Parent {
			if inSet[p] {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, n)
		}
	}
	return out
}

// collectLinks gathers up to maxLinks anchors with visible text, resolving
// relative targets against the page's own address.
func collectLinks(doc *goquery.Document, base *url.URL) []Link {
	var links []Link
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		text := collapseWhitespace(s.Text())
		if href == "" || text == "" || strings.HasPrefix(href, "#") {
			return true
		}

		absolute := href
		if base != nil {
			if resolved, err := base.Parse(href); err == nil {
				absolute = resolved.String()
			}
		}

		if runes := []rune(text); len(runes) > maxLinkTextLen {
			text = string(runes[:maxLinkTextLen])
		}
		links = append(links, Link{Text: text, URL: absolute})
		return len(links) < maxLinks
	})
	return links
}

// nodeText walks the selection's nodes and joins their text content with
// single spaces, so adjacent blocks never run together the way a plain
// Text() concatenation would make them.
func nodeText(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, node := range topLevelNodes(sel.Nodes) {
		appendTextNodes(node, &sb)
	}
	return collapseWhitespace(sb.String())
}

func appendTextNodes(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		appendTextNodes(child, sb)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
