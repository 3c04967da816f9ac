package render

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// DefaultStyle chroma style used when none is configured
const DefaultStyle = "monokai"

// Renderer markdown to sanitized HTML
type Renderer interface {
	Render(markdown string) (string, error)
}

// MarkdownRenderer GFM with chroma highlighted code blocks. Code is emitted with
// CSS classes, the stylesheet of the style is available from CSS.
type MarkdownRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	style  string
}

var _ Renderer = &MarkdownRenderer{}

// NewMarkdownRenderer create a renderer highlighting code with the named chroma style
func NewMarkdownRenderer(style string) (*MarkdownRenderer, error) {
	if style == "" {
		style = DefaultStyle
	}
	if _, ok := styles.Registry[style]; !ok {
		return nil, errors.Errorf("unknown highlight style: %s", style)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("span")
	policy.AllowAttrs("class").Globally()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("type", "checked", "disabled").OnElements("input")

	return &MarkdownRenderer{md: md, policy: policy, style: style}, nil
}

// Render convert markdown into sanitized HTML
func (mr *MarkdownRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := mr.md.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.Wrap(err, "rendering markdown")
	}
	return mr.policy.Sanitize(buf.String()), nil
}

// CSS stylesheet of the highlight classes
func (mr *MarkdownRenderer) CSS() (string, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(mr.style)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
