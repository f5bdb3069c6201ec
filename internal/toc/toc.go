// Package toc is the table of contents of an open document: a virtualized
// window over its titles with one active entry.
package toc

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/theme"
)

// RenderTimeout bounds how long AwaitRendered waits for a render.
const RenderTimeout = 100 * time.Millisecond

// List is the TOC. Only height rows are rendered at a time; the window
// follows the cursor.
type List struct {
	titles []reader.TitleEntry
	active int
	cursor int
	offset int
	height int

	mu      sync.Mutex
	pending chan struct{}
}

// New returns a list over titles showing height rows.
func New(titles []reader.TitleEntry, height int) *List {
	l := &List{titles: titles, active: -1, height: max(height, 1)}
	l.invalidate()
	return l
}

// Titles returns all titles in line order.
func (l *List) Titles() []reader.TitleEntry { return l.titles }

// Len returns the number of titles.
func (l *List) Len() int { return len(l.titles) }

// index returns the position of the title starting at line.
func (l *List) index(line int) (int, bool) {
	i := sort.Search(len(l.titles), func(i int) bool {
		return l.titles[i].LineNumber >= line
	})
	if i < len(l.titles) && l.titles[i].LineNumber == line {
		return i, true
	}
	return 0, false
}

// SetActive highlights the title starting at line and brings it into view.
// A line without a title leaves the list untouched.
func (l *List) SetActive(line int) {
	i, ok := l.index(line)
	if !ok || i == l.active {
		return
	}
	l.active = i
	l.cursor = i
	l.follow()
	l.invalidate()
}

// TitleAt returns the line of the last title at or before line.
func (l *List) TitleAt(line int) (int, bool) {
	i := sort.Search(len(l.titles), func(i int) bool {
		return l.titles[i].LineNumber > line
	})
	if i == 0 {
		return 0, false
	}
	return l.titles[i-1].LineNumber, true
}

// Active returns the highlighted title.
func (l *List) Active() (reader.TitleEntry, bool) {
	if l.active < 0 {
		return reader.TitleEntry{}, false
	}
	return l.titles[l.active], true
}

// ActiveIndex returns the position of the highlighted title, -1 if none.
func (l *List) ActiveIndex() int { return l.active }

// Selected returns the title under the cursor.
func (l *List) Selected() (reader.TitleEntry, bool) {
	if len(l.titles) == 0 {
		return reader.TitleEntry{}, false
	}
	return l.titles[l.cursor], true
}

// MoveCursor moves the cursor by delta entries, clamped to the list.
func (l *List) MoveCursor(delta int) {
	if len(l.titles) == 0 {
		return
	}
	l.cursor = min(max(l.cursor+delta, 0), len(l.titles)-1)
	l.follow()
	l.invalidate()
}

// ResetCursor puts the cursor back on the active title.
func (l *List) ResetCursor() {
	if l.active >= 0 {
		l.cursor = l.active
		l.follow()
		l.invalidate()
	}
}

// SetHeight changes how many rows are rendered.
func (l *List) SetHeight(height int) {
	l.height = max(height, 1)
	l.follow()
	l.invalidate()
}

// Window returns the index range [start, end) of rendered titles.
func (l *List) Window() (start, end int) {
	return l.offset, min(l.offset+l.height, len(l.titles))
}

func (l *List) follow() {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
	l.offset = max(min(l.offset, len(l.titles)-l.height), 0)
}

// View renders the visible window at width cells and signals Rendered.
func (l *List) View(width int, styles theme.Styles) string {
	start, end := l.Window()
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		t := l.titles[i]
		label := t.Title
		if width < 2*reader.ShortTitleWidth {
			label = t.ShortTitle
		}
		label = strings.Repeat("  ", t.Level) + label
		label = runewidth.Truncate(label, width, "…")
		label = runewidth.FillRight(label, width)

		style := styles.TOCItem
		switch {
		case i == l.active:
			style = styles.TOCActive
		case t.IsCustomOnly:
			style = styles.TOCCustom
		}
		if i == l.cursor {
			style = style.Inherit(styles.TOCCursor)
		}
		rows = append(rows, style.Render(label))
	}
	l.markRendered()
	return strings.Join(rows, "\n")
}

// Rendered returns a channel closed by the first View after the last change.
func (l *List) Rendered() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return l.pending
}

func (l *List) invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		l.pending = make(chan struct{})
	}
}

func (l *List) markRendered() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending != nil {
		close(l.pending)
		l.pending = nil
	}
}

// AwaitRendered waits for done, giving up after timeout. A timeout is
// logged and reported as false; callers carry on either way.
func AwaitRendered(done <-chan struct{}, timeout time.Duration, logger *slog.Logger) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		if logger != nil {
			logger.Warn("table of contents did not render in time", "timeout", timeout)
		}
		return false
	}
}
