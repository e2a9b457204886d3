package archive

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Bootstrap scripts the Wayback Machine inlines into archived pages.
var injectedScript = regexp.MustCompile(`window\.RufflePlayer|__wm\.wombat`)

// CleanHTML removes the nodes the Wayback Machine injects into archived
// pages: its static script and link tags, "Wayback" comments in the head,
// and the Ruffle/wombat bootstrap scripts.
func CleanHTML(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	head := doc.Find("head")
	head.Find(`script[src*="web-static.archive.org"]`).Remove()
	head.Find(`link[href*="web-static.archive.org"]`).Remove()
	removeComments(head, "Wayback")

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if injectedScript.MatchString(s.Text()) {
			s.Remove()
		}
	})

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return cleaned, nil
}

// removeComments drops comment child nodes containing substr from every node
// in the selection. goquery selectors cannot address comments, so this walks
// the underlying tree.
func removeComments(sel *goquery.Selection, substr string) {
	for _, node := range sel.Nodes {
		for child := node.FirstChild; child != nil; {
			next := child.NextSibling
			if child.Type == html.CommentNode && strings.Contains(child.Data, substr) {
				node.RemoveChild(child)
			}
			child = next
		}
	}
}
