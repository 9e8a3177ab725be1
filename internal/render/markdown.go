package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/jongmin-chung/jamie/internal/domain/content"
)

// ErrRender is returned for any failure inside the markdown pipeline.
var ErrRender = errors.New("failed to parse markdown content")

type Options struct {
	// Sanitize runs the HTML through a UGC policy. On by default.
	Sanitize bool
	// HighlightStyle is the chroma style name; classes are emitted either way.
	HighlightStyle string
}

func DefaultOptions() Options {
	return Options{Sanitize: true, HighlightStyle: "github"}
}

type MarkdownRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewMarkdownRenderer(opts Options) *MarkdownRenderer {
	style := opts.HighlightStyle
	if style == "" {
		style = "github"
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithGuessLanguage(true),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	r := &MarkdownRenderer{md: md}
	if opts.Sanitize {
		r.policy = sanitizePolicy()
	}
	return r
}

func sanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").OnElements("pre", "code", "span", "div")
	p.AllowAttrs("tabindex").OnElements("pre")
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")
	p.AllowAttrs("align").OnElements("th", "td")
	return p
}

type Result struct {
	HTML     []byte
	Headings []content.Heading
}

// Render converts a markdown body to HTML. Empty or whitespace-only input
// yields an empty Result.
func (r *MarkdownRenderer) Render(ctx context.Context, src []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(bytes.TrimSpace(src)) == 0 {
		return Result{}, nil
	}

	res, err := r.render(src)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return res, nil
}

func (r *MarkdownRenderer) render(src []byte) (res Result, err error) {
	// extensions may panic on pathological input; surface it as a render error
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	var heads []content.Heading
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			switch v := v.(type) {
			case string:
				id = v
			case []byte:
				id = string(v)
			}
		}
		heads = append(heads, content.Heading{
			Level: h.Level,
			Text:  strings.TrimSpace(nodeText(h, src)),
			Slug:  id,
		})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return Result{}, err
	}

	out := buf.Bytes()
	if r.policy != nil {
		out = r.policy.SanitizeBytes(out)
	}
	return Result{HTML: out, Headings: heads}, nil
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(nodeText(c, src))
		}
	}
	return b.String()
}
