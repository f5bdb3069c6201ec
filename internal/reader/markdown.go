package reader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

func (f *MarkdownFormat) Load(filename string, opts Options) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return FromMarkdown(filepath.Base(filename), data, opts), nil
}

// FromMarkdown keeps the Markdown source lines and takes titles from its
// headings. Heading-like lines inside code blocks are not titles.
func FromMarkdown(name string, src []byte, opts Options) *Document {
	lines := splitLines(string(src))
	titles := markdownTitles(src)
	titles = applyTitlePattern(lines, titles, opts.TitlePattern)
	return NewDocument(name, lines, titles)
}

func markdownTitles(src []byte) []TitleEntry {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var titles []TitleEntry
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title := headingText(h, src)
		if title == "" || h.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		start := h.Lines().At(0).Start
		titles = append(titles, TitleEntry{
			Title:      title,
			LineNumber: bytes.Count(src[:start], []byte("\n")),
			Level:      h.Level - 1, // h1 = level 0
		})
		return ast.WalkSkipChildren, nil
	})
	return titles
}

func headingText(h *ast.Heading, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(h, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := node.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
