// Package reader loads documents into a flat line buffer with structural
// titles, and splits that buffer into pages.
package reader

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// ShortTitleWidth is the display width of TitleEntry.ShortTitle.
const ShortTitleWidth = 24

// maxTitleRunes bounds how long a plain text line may be and still be
// taken for a heading.
const maxTitleRunes = 60

// TitleEntry is one structural heading of a document.
type TitleEntry struct {
	Title      string
	LineNumber int
	ShortTitle string
	// IsCustomOnly marks titles found only by the user title pattern.
	IsCustomOnly bool
	Level        int
}

// Document is a loaded document: its lines and its titles ordered by line.
type Document struct {
	ID     string
	Name   string
	Lines  []string
	Titles []TitleEntry

	titleLines map[int]int
}

// Options tune how documents are loaded.
type Options struct {
	// TitlePattern is an extra regular expression for heading lines.
	TitlePattern *regexp.Regexp
}

// NewDocument builds a document and indexes its titles. Titles are sorted
// by line; when two share a line the first one wins.
func NewDocument(name string, lines []string, titles []TitleEntry) *Document {
	sort.SliceStable(titles, func(i, j int) bool {
		return titles[i].LineNumber < titles[j].LineNumber
	})
	d := &Document{
		Name:       name,
		Lines:      lines,
		titleLines: make(map[int]int, len(titles)),
	}
	for _, t := range titles {
		if _, dup := d.titleLines[t.LineNumber]; dup {
			continue
		}
		if t.ShortTitle == "" {
			t.ShortTitle = ShortTitle(t.Title)
		}
		d.titleLines[t.LineNumber] = len(d.Titles)
		d.Titles = append(d.Titles, t)
	}
	return d
}

// IsTitle reports whether line starts a title.
func (d *Document) IsTitle(line int) bool {
	_, ok := d.titleLines[line]
	return ok
}

// Title returns the title starting at line.
func (d *Document) Title(line int) (TitleEntry, bool) {
	i, ok := d.titleLines[line]
	if !ok {
		return TitleEntry{}, false
	}
	return d.Titles[i], true
}

// ShortTitle truncates a title to ShortTitleWidth display cells.
func ShortTitle(title string) string {
	return runewidth.Truncate(strings.TrimSpace(title), ShortTitleWidth, "…")
}

// applyTitlePattern adds titles for lines matching the user pattern that
// no built-in rule already found.
func applyTitlePattern(lines []string, titles []TitleEntry, pattern *regexp.Regexp) []TitleEntry {
	if pattern == nil {
		return titles
	}
	known := make(map[int]bool, len(titles))
	for _, t := range titles {
		known[t.LineNumber] = true
	}
	for i, line := range lines {
		text := strings.TrimSpace(line)
		if known[i] || text == "" || utf8.RuneCountInString(text) > maxTitleRunes {
			continue
		}
		if pattern.MatchString(text) {
			titles = append(titles, TitleEntry{
				Title:        text,
				LineNumber:   i,
				IsCustomOnly: true,
			})
		}
	}
	return titles
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
