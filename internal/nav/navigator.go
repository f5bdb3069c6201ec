package nav

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// HeadingMargin is how many text lines a heading is kept below the top
// edge after a jump, so it is not hidden under the reserved margin.
const HeadingMargin = 3

// ScrollTarget tells GotoPage where to leave the viewport.
type ScrollTarget int

const (
	// ScrollNone leaves the scroll position to the caller.
	ScrollNone ScrollTarget = iota
	// ScrollTop moves to the start of the rendered page.
	ScrollTop
	// ScrollBottom moves to the end of the rendered page.
	ScrollBottom
)

func (t ScrollTarget) String() string {
	switch t {
	case ScrollTop:
		return "top"
	case ScrollBottom:
		return "bottom"
	default:
		return "none"
	}
}

// Renderer fills the visible content region with lines [start, end).
// It is synchronous from the caller's point of view.
type Renderer interface {
	Render(start, end int)
}

// PageListView receives the recomputed pagination strip.
type PageListView interface {
	SetPageList(entries []PageEntry)
}

// Scroller positions the content viewport. All moves are immediate.
type Scroller interface {
	ScrollToTop()
	ScrollToBottom()
	ScrollTo(offset int)
	ScrollBy(delta int)
	Offset() int
	LineHeight() int
}

// LineElement is the rendered form of one buffer line.
type LineElement struct {
	Line    int
	Offset  int
	Heading bool
}

// LineLocator finds the rendered element of a buffer line on the current page.
type LineLocator interface {
	Line(n int) (LineElement, bool)
}

// TOC is the table of contents collaborator.
type TOC interface {
	// SetActive highlights the title at line. No-op when line has no title.
	SetActive(line int)
	// TitleAt returns the line of the last title at or before line.
	TitleAt(line int) (int, bool)
}

// History persists the last read position. Failures never abort navigation.
type History interface {
	SetHistory(documentID string, line int) error
}

// Deps groups the collaborators of a Navigator. TOC and History are optional.
type Deps struct {
	Renderer Renderer
	Pages    PageListView
	Scroller Scroller
	Lines    LineLocator
	TOC      TOC
	History  History
}

// Navigator resolves page and line requests against a State.
type Navigator struct {
	state      *State
	documentID string
	maxItems   int
	deps       Deps
	log        *slog.Logger

	// set by a title jump, consumed by the next SyncActiveTitle
	titleJump bool
}

// New returns a Navigator for the document identified by documentID.
// maxItems is the pagination strip length and must be at least
// MinPageListLength.
func New(state *State, documentID string, maxItems int, deps Deps, logger *slog.Logger) (*Navigator, error) {
	if maxItems < MinPageListLength {
		return nil, fmt.Errorf("%w: page list length %d is below %d", ErrInvalidArgument, maxItems, MinPageListLength)
	}
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", ErrInvalidArgument)
	}
	if deps.Renderer == nil || deps.Pages == nil || deps.Scroller == nil || deps.Lines == nil {
		return nil, fmt.Errorf("%w: renderer, page list view, scroller and line locator are required", ErrInvalidArgument)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Navigator{
		state:      state,
		documentID: documentID,
		maxItems:   maxItems,
		deps:       deps,
		log:        logger.With("component", "nav"),
	}, nil
}

// State returns the navigation state.
func (n *Navigator) State() *State { return n.state }

// MaxItems returns the pagination strip length.
func (n *Navigator) MaxItems() int { return n.maxItems }

// PageList computes the strip for the current state.
func (n *Navigator) PageList() []PageEntry {
	entries, err := ComputePageList(n.state.TotalPages(), n.state.CurrentPage, n.maxItems, n.state.Processing)
	if err != nil {
		// maxItems is validated in New
		panic(err)
	}
	return entries
}

// RefreshPageList recomputes the strip and hands it to the page list view.
func (n *Navigator) RefreshPageList() {
	n.deps.Pages.SetPageList(n.PageList())
}

// Repaginate replaces the page breaks, e.g. while background pagination
// progresses, and refreshes the strip. The current page is clamped but
// not re-rendered.
func (n *Navigator) Repaginate(breaks []int, bufferLen int, processing bool) {
	n.state.PageBreaks = breaks
	n.state.BufferLen = bufferLen
	n.state.Processing = processing
	n.state.CurrentPage = n.state.Clamp(n.state.CurrentPage)
	n.RefreshPageList()
}

// GotoPage makes page current, clamped into range, renders it, refreshes
// the strip, scrolls and records the page start in history. Going to the
// current page still renders.
func (n *Navigator) GotoPage(page int, scroll ScrollTarget) {
	n.gotoPage(page, scroll)
	start, _ := n.state.PageRange(n.state.CurrentPage)
	n.record(start)
}

// GotoPageFromInput parses raw as a page number. Unparsable input keeps
// the current page but still re-renders it.
func (n *Navigator) GotoPageFromInput(raw string, scroll ScrollTarget) {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n.log.Debug("page input is not a number", "input", raw)
		page = n.state.CurrentPage
	}
	n.GotoPage(page, scroll)
}

// NextPage moves forward one page and scrolls to its top.
func (n *Navigator) NextPage() {
	n.GotoPage(n.state.CurrentPage+1, ScrollTop)
}

// PrevPage moves back one page and scrolls to its bottom.
func (n *Navigator) PrevPage() {
	n.GotoPage(n.state.CurrentPage-1, ScrollBottom)
}

// GotoLine shows line, switching pages if needed. A title jump highlights
// the title and suppresses the next scroll-driven active title update.
// For other lines the rendered element must exist; otherwise the previous
// page and scroll offset are restored and ErrLineNotFound is returned.
func (n *Navigator) GotoLine(line int, isTitle bool) error {
	prevPage := n.state.CurrentPage
	prevOffset := n.deps.Scroller.Offset()

	target := n.state.PageOf(line)
	if target != n.state.CurrentPage {
		n.gotoPage(target, ScrollNone)
	}

	if isTitle {
		if el, ok := n.deps.Lines.Line(line); ok {
			n.scrollToHeading(el)
		}
		n.markActive(line)
		n.titleJump = true
		n.record(line)
		return nil
	}

	el, ok := n.deps.Lines.Line(line)
	if !ok {
		n.log.Warn("navigation target has no rendered line", "line", line, "page", target)
		if n.state.CurrentPage != prevPage {
			n.gotoPage(prevPage, ScrollNone)
		}
		n.deps.Scroller.ScrollTo(prevOffset)
		return fmt.Errorf("%w: line %d", ErrLineNotFound, line)
	}

	if el.Heading {
		n.scrollToHeading(el)
		n.markActive(line)
	} else {
		n.deps.Scroller.ScrollTo(el.Offset)
	}
	n.record(line)
	return nil
}

// SyncActiveTitle updates the active title from the first visible line.
// It is skipped once right after a title jump. Reports whether the active
// title changed.
func (n *Navigator) SyncActiveTitle(topLine int) bool {
	if n.titleJump {
		n.titleJump = false
		return false
	}
	if n.deps.TOC == nil {
		return false
	}
	title, ok := n.deps.TOC.TitleAt(topLine)
	if !ok || title == n.state.ActiveTitle {
		return false
	}
	n.markActive(title)
	return true
}

// TitleJumpPending reports whether the one-shot title jump flag is set.
func (n *Navigator) TitleJumpPending() bool { return n.titleJump }

func (n *Navigator) gotoPage(page int, scroll ScrollTarget) {
	n.state.CurrentPage = n.state.Clamp(page)
	start, end := n.state.PageRange(n.state.CurrentPage)
	n.deps.Renderer.Render(start, end)
	n.RefreshPageList()

	switch scroll {
	case ScrollTop:
		n.deps.Scroller.ScrollToTop()
	case ScrollBottom:
		n.deps.Scroller.ScrollToBottom()
	}
	n.log.Debug("page shown", "page", n.state.CurrentPage, "start", start, "end", end, "scroll", scroll)
}

func (n *Navigator) scrollToHeading(el LineElement) {
	n.deps.Scroller.ScrollTo(el.Offset)
	n.deps.Scroller.ScrollBy(-HeadingMargin * n.deps.Scroller.LineHeight())
}

func (n *Navigator) markActive(line int) {
	n.state.ActiveTitle = line
	if n.deps.TOC != nil {
		n.deps.TOC.SetActive(line)
	}
}

func (n *Navigator) record(line int) {
	if n.deps.History == nil {
		return
	}
	if err := n.deps.History.SetHistory(n.documentID, line); err != nil {
		n.log.Warn("failed to save reading position", "document", n.documentID, "line", line, "err", err)
	}
}
