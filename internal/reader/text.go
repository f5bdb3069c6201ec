package reader

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// TextFormat implements Format for plain text files.
type TextFormat struct{}

func init() {
	Register(&TextFormat{})
}

func (f *TextFormat) Name() string         { return "Text" }
func (f *TextFormat) Extensions() []string { return []string{".txt", ".text"} }

func (f *TextFormat) Load(filename string, opts Options) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return FromText(filepath.Base(filename), string(data), opts), nil
}

// chapterRegex matches the usual chapter headings of plain text books.
var chapterRegex = regexp.MustCompile(`(?i)^(chapter|part|book|prologue|epilogue|preface|appendix)\b|^第[0-9零一二三四五六七八九十百千两]+[章节回卷部集篇]`)

// FromText builds a document from plain text, detecting chapter headings.
func FromText(name, text string, opts Options) *Document {
	lines := splitLines(text)

	var titles []TitleEntry
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" || utf8.RuneCountInString(t) > maxTitleRunes {
			continue
		}
		if chapterRegex.MatchString(t) {
			titles = append(titles, TitleEntry{Title: t, LineNumber: i})
		}
	}
	titles = applyTitlePattern(lines, titles, opts.TitlePattern)

	return NewDocument(name, lines, titles)
}
