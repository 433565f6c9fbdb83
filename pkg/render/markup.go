// Package render turns Typst source into preview markup and export
// artifacts using the typst command line compiler.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// PlaceholderHTML is shown while the buffer is empty.
const PlaceholderHTML = `<div style="color: #71717A; padding: 40px; text-align: center;">Start typing Typst markup to see preview...</div>`

const (
	// MsgCompilerNotFound is the preview message when typst is not installed.
	MsgCompilerNotFound = "Typst CLI not found. Install it for live preview."
	// MsgNoOutput is reported when typst succeeds without producing pages.
	MsgNoOutput = "No output generated"
	// MsgTimedOut is reported when a compile exceeds its deadline.
	MsgTimedOut = "Compilation timed out"
)

// PageStackHTML wraps rendered SVG pages into the preview page stack.
func PageStackHTML(pages []string) string {
	var b strings.Builder
	b.WriteString(`<div style="display: flex; flex-direction: column; gap: 20px; padding: 20px; background: white;">`)
	for _, page := range pages {
		b.WriteString(`<div style="box-shadow: 0 2px 8px rgba(0,0,0,0.1); padding: 10px; background: white;">`)
		b.WriteString(page)
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// ErrorHTML renders a compiler message as the styled error payload.
func ErrorHTML(msg string) string {
	return `<div style="padding: 20px; background: #FEF2F2; border: 1px solid #FECACA; border-radius: 4px; margin: 20px;">` +
		`<div style="color: #DC2626; font-weight: 600; margin-bottom: 8px;">Compilation Error</div>` +
		`<pre style="color: #991B1B; font-size: 13px; white-space: pre-wrap; margin: 0; font-family: 'JetBrains Mono', monospace;">` +
		html.EscapeString(msg) +
		`</pre></div>`
}

const documentHead = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { margin: 0; padding: 20px; background: #f5f5f5; font-family: system-ui, sans-serif; }
        .page { background: white; box-shadow: 0 2px 8px rgba(0,0,0,0.1); margin: 0 auto 20px; max-width: 800px; }
        details.source { max-width: 800px; margin: 0 auto; background: white; padding: 10px; }
        details.source pre { overflow-x: auto; font-size: 13px; }
    </style>
</head>
<body>
`

// DocumentHTML builds a standalone HTML page from rendered SVG pages. When
// source is non-empty a collapsible, syntax highlighted listing of it is
// appended.
func DocumentHTML(title string, pages []string, source string) string {
	if title == "" {
		title = "Typst Document"
	}

	var b strings.Builder
	fmt.Fprintf(&b, documentHead, html.EscapeString(title))
	for _, page := range pages {
		b.WriteString(`<div class="page">`)
		b.WriteString(page)
		b.WriteString("</div>\n")
	}
	if source != "" {
		b.WriteString("<details class=\"source\"><summary>Typst source</summary>\n")
		b.WriteString(HighlightHTML(source))
		b.WriteString("</details>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// HighlightHTML renders source as an inline-styled <pre> block. It falls
// back to escaped plain text if highlighting fails.
func HighlightHTML(source string) string {
	lexer := lexers.Get("typst")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	it, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "<pre>" + html.EscapeString(source) + "</pre>"
	}

	var b strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))
	if err := formatter.Format(&b, style, it); err != nil {
		return "<pre>" + html.EscapeString(source) + "</pre>"
	}
	return b.String()
}

// PreviewPage wraps preview markup into a page that reloads itself, so a
// browser pointed at the preview file follows the editor.
func PreviewPage(fragment string, refreshSeconds int) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n")
	if refreshSeconds > 0 {
		fmt.Fprintf(&b, "<meta http-equiv=\"refresh\" content=\"%d\">\n", refreshSeconds)
	}
	b.WriteString("<title>Rapid Typst Preview</title>\n</head>\n<body style=\"margin: 0; background: #f5f5f5;\">\n")
	b.WriteString(fragment)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
