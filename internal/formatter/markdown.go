package formatter

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

var mdEscaper = strings.NewReplacer(`|`, `\|`, `\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`)

// RenderMarkdown renders records as a GitHub-flavored markdown table.
func RenderMarkdown(cols *column.Set, records []record.Record) string {
	specs := cols.Specs()
	if len(specs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("|")
	for _, s := range specs {
		b.WriteString(" " + mdEscaper.Replace(s.Title()) + " |")
	}
	b.WriteString("\n|")
	for _, s := range specs {
		if s.Kind == column.KindNumber {
			b.WriteString(" ---: |")
		} else {
			b.WriteString(" --- |")
		}
	}
	b.WriteString("\n")
	for _, r := range records {
		b.WriteString("|")
		for _, s := range specs {
			b.WriteString(" " + mdEscaper.Replace(cell(s, r)) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHTML renders the markdown table to a standalone HTML document.
func RenderHTML(cols *column.Set, records []record.Record, opts Options) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(RenderMarkdown(cols, records)))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: opts.Title,
	})
	return string(markdown.Render(doc, renderer))
}
