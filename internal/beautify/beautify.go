// Package beautify normalizes fetched documents so the line differ sees
// stable, comparable line boundaries regardless of how the origin server
// minified or formatted its output.
package beautify

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Elements whose text children are raw data, not markup.
var rawTextElements = map[string]bool{
	"script": true, "style": true, "pre": true, "textarea": true,
}

// HTML re-renders a document with one element per line and depth-based
// indentation.
func HTML(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	var b strings.Builder
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		writeNode(&b, child, 0)
	}
	return b.String(), nil
}

func writeNode(b *strings.Builder, n *html.Node, depth int) {
	indent := strings.Repeat(" ", depth)

	switch n.Type {
	case html.DoctypeNode:
		fmt.Fprintf(b, "%s<!DOCTYPE %s>\n", indent, n.Data)
	case html.CommentNode:
		fmt.Fprintf(b, "%s<!--%s-->\n", indent, n.Data)
	case html.TextNode:
		writeTextLines(b, n.Data, indent)
	case html.ElementNode:
		b.WriteString(indent)
		b.WriteByte('<')
		b.WriteString(n.Data)
		for _, attr := range n.Attr {
			fmt.Fprintf(b, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
		if voidElements[n.Data] {
			b.WriteString("/>\n")
			return
		}
		b.WriteString(">\n")

		if rawTextElements[n.Data] {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					writeTextLines(b, c.Data, indent+" ")
				}
			}
		} else {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				writeNode(b, c, depth+1)
			}
		}
		fmt.Fprintf(b, "%s</%s>\n", indent, n.Data)
	}
}

// writeTextLines emits non-blank text lines at the given indentation.
func writeTextLines(b *strings.Builder, text, indent string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// Markdown converts an HTML document to markdown so two snapshots can be
// compared by their readable text rather than by their markup.
func Markdown(content string) (string, error) {
	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("converting html to markdown: %w", err)
	}
	return out, nil
}
