// Package nav maps a paginated line buffer to pages and resolves page and
// line navigation requests into renders and scroll instructions.
package nav

import (
	"errors"
	"sort"
)

var (
	// ErrInvalidArgument signals a caller bug, such as a page list shorter
	// than MinPageListLength.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrLineNotFound means the target line has no rendered element.
	ErrLineNotFound = errors.New("line not found")
)

// State is the shared pagination state of one open document. It is owned
// by the UI goroutine and never touched concurrently.
type State struct {
	// PageBreaks[i] is the first line of page i+2. Strictly increasing.
	PageBreaks []int
	// BufferLen is the number of lines in the content buffer.
	BufferLen int
	// CurrentPage is 1-based and always within [1, TotalPages()].
	CurrentPage int
	// Processing is set while PageBreaks is still being computed.
	Processing bool
	// ActiveTitle is the line number of the highlighted TOC entry, or -1.
	ActiveTitle int
}

// NewState returns a state positioned on page one with no active title.
func NewState(bufferLen int, breaks []int) *State {
	return &State{
		PageBreaks:  breaks,
		BufferLen:   bufferLen,
		CurrentPage: 1,
		ActiveTitle: -1,
	}
}

// TotalPages is len(PageBreaks)+1.
func (s *State) TotalPages() int {
	return len(s.PageBreaks) + 1
}

// Clamp returns page limited to [1, TotalPages()].
func (s *State) Clamp(page int) int {
	if page < 1 {
		return 1
	}
	if total := s.TotalPages(); page > total {
		return total
	}
	return page
}

// PageRange returns the half-open line range [start, end) of page.
func (s *State) PageRange(page int) (start, end int) {
	page = s.Clamp(page)
	end = s.BufferLen
	if page >= 2 {
		start = s.PageBreaks[page-2]
	}
	if page-1 < len(s.PageBreaks) {
		end = s.PageBreaks[page-1]
	}
	return start, end
}

// PageOf returns the page containing line: the 1-based index of the first
// break strictly greater than line, or the last page when there is none.
func (s *State) PageOf(line int) int {
	i := sort.Search(len(s.PageBreaks), func(i int) bool {
		return s.PageBreaks[i] > line
	})
	return s.Clamp(i + 1)
}
