// Package page assembles reassembled diff lines into a standalone HTML
// document with a change-density sidebar.
package page

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/waydiffer/waydiffer/internal/diff"
)

//go:embed assets
var assets embed.FS

var (
	pageTmpl  = template.Must(template.ParseFS(assets, "assets/page.tmpl.html"))
	styleCSS  = mustAsset("assets/diff.css")
	sidebarJS = mustAsset("assets/sidebar.js")
)

func mustAsset(name string) string {
	data, err := assets.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

type pageData struct {
	Style  string
	Script string
	Lines  string
}

// Render produces the final self-contained diff page. Every line record
// appears exactly once, in input order, as one container block. Line HTML is
// embedded verbatim; the reassembler already produced safe markup.
func Render(lines []diff.Line) (string, error) {
	var rows strings.Builder
	for i, line := range lines {
		if i > 0 {
			rows.WriteByte('\n')
		}
		fmt.Fprintf(&rows, "\t\t\t<div class=\"line\"><span class=\"line-num\">%d</span>%s</div>",
			line.Number, line.HTML)
	}

	var b strings.Builder
	err := pageTmpl.Execute(&b, pageData{
		Style:  styleCSS,
		Script: sidebarJS,
		Lines:  rows.String(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering diff page: %w", err)
	}
	return b.String(), nil
}
