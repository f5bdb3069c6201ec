package nav

import "fmt"

// MinPageListLength is the smallest strip that still fits both edge
// clusters, one gap and the current page.
const MinPageListLength = 5

// EntryKind tags a PageEntry.
type EntryKind int

const (
	// EntryPage is a concrete page number.
	EntryPage EntryKind = iota
	// EntryGap is a collapsed range, rendered as a jump input.
	EntryGap
)

// PageEntry is one slot of the pagination strip.
type PageEntry struct {
	Kind EntryKind
	Page int
}

// PageNumber returns an entry for page n.
func PageNumber(n int) PageEntry { return PageEntry{Kind: EntryPage, Page: n} }

// Gap returns a gap entry.
func Gap() PageEntry { return PageEntry{Kind: EntryGap} }

// IsGap reports whether the entry is a collapsed range.
func (e PageEntry) IsGap() bool { return e.Kind == EntryGap }

func (e PageEntry) String() string {
	if e.IsGap() {
		return "…"
	}
	return fmt.Sprintf("%d", e.Page)
}

// ComputePageList returns the pagination strip for totalPages with
// currentPage selected, using at most maxLength slots. While
// duringProcessing is set the page count is provisional and the trailing
// cluster is left out.
func ComputePageList(totalPages, currentPage, maxLength int, duringProcessing bool) ([]PageEntry, error) {
	if maxLength < MinPageListLength {
		return nil, fmt.Errorf("%w: page list length %d is below %d", ErrInvalidArgument, maxLength, MinPageListLength)
	}

	sideWidth := 1
	if maxLength >= 9 {
		sideWidth = 2
	}
	leftWidth := (maxLength - sideWidth*2 - 3) / 2
	rightWidth := (maxLength - sideWidth*2 - 2) / 2

	if totalPages <= maxLength {
		return pageRange(nil, 1, totalPages), nil
	}

	// near the start
	if currentPage <= maxLength-sideWidth-1-rightWidth {
		out := pageRange(nil, 1, maxLength-sideWidth-1)
		out = append(out, Gap())
		if duringProcessing {
			return out, nil
		}
		return pageRange(out, totalPages-sideWidth+1, totalPages), nil
	}

	// near the end
	if currentPage >= totalPages-sideWidth-1-rightWidth {
		out := pageRange(nil, 1, sideWidth)
		out = append(out, Gap())
		if duringProcessing {
			return out, nil
		}
		return pageRange(out, totalPages-sideWidth-1-rightWidth-leftWidth, totalPages), nil
	}

	out := pageRange(nil, 1, sideWidth)
	out = append(out, Gap())
	out = pageRange(out, currentPage-leftWidth, currentPage+rightWidth)
	if duringProcessing {
		return out, nil
	}
	out = append(out, Gap())
	return pageRange(out, totalPages-sideWidth+1, totalPages), nil
}

func pageRange(out []PageEntry, start, end int) []PageEntry {
	for p := start; p <= end; p++ {
		out = append(out, PageNumber(p))
	}
	return out
}
