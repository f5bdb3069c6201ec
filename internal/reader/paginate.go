package reader

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const tabWidth = 4

// Wrap splits a line into display rows of at most width cells. Words are
// kept whole where possible; longer words are broken. An empty line is one
// empty row.
func Wrap(line string, width int) []string {
	line = strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
	if width <= 0 || line == "" {
		return []string{line}
	}
	wrapped := wrap.String(wordwrap.String(line, width), width)
	return strings.Split(wrapped, "\n")
}

// Paginator packs lines into pages of a fixed number of rows. It works in
// steps so a UI can show provisional pages while a long document is still
// being measured.
type Paginator struct {
	lines  []string
	width  int
	rows   int
	next   int
	used   int
	breaks []int
}

// NewPaginator returns a paginator for lines wrapped at width, with
// rowsPerPage rows per page.
func NewPaginator(lines []string, width, rowsPerPage int) *Paginator {
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}
	return &Paginator{lines: lines, width: width, rows: rowsPerPage}
}

// Step measures up to n more lines and reports whether pagination is done.
// A line that does not fit in the rows left starts a new page; a line
// taller than a whole page gets a page of its own.
func (p *Paginator) Step(n int) bool {
	for ; n > 0 && p.next < len(p.lines); n-- {
		h := len(Wrap(p.lines[p.next], p.width))
		if p.used > 0 && p.used+h > p.rows {
			p.breaks = append(p.breaks, p.next)
			p.used = 0
		}
		p.used += h
		p.next++
	}
	return p.Done()
}

// Done reports whether every line has been measured.
func (p *Paginator) Done() bool {
	return p.next >= len(p.lines)
}

// Progress returns the number of measured lines and the total.
func (p *Paginator) Progress() (measured, total int) {
	return p.next, len(p.lines)
}

// Breaks returns a copy of the page breaks found so far.
func (p *Paginator) Breaks() []int {
	out := make([]int, len(p.breaks))
	copy(out, p.breaks)
	return out
}

// Paginate returns the page breaks of lines in one go.
func Paginate(lines []string, width, rowsPerPage int) []int {
	p := NewPaginator(lines, width, rowsPerPage)
	p.Step(len(lines))
	return p.Breaks()
}
