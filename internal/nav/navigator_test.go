package nav

import (
	"errors"
	"fmt"
	"testing"
)

// fakeView renders one row per line and records every call.
type fakeView struct {
	headings map[int]bool
	skip     map[int]bool
	renders  [][2]int
	scrolls  []string
	offset   int
	rows     int
	start    int
}

func (v *fakeView) Render(start, end int) {
	v.renders = append(v.renders, [2]int{start, end})
	v.start = start
	v.rows = end - start
	v.offset = 0
}

func (v *fakeView) ScrollToTop() {
	v.scrolls = append(v.scrolls, "top")
	v.offset = 0
}

func (v *fakeView) ScrollToBottom() {
	v.scrolls = append(v.scrolls, "bottom")
	v.offset = v.rows
}

func (v *fakeView) ScrollTo(offset int) {
	v.scrolls = append(v.scrolls, fmt.Sprintf("to %d", offset))
	v.offset = offset
}

func (v *fakeView) ScrollBy(delta int) {
	v.scrolls = append(v.scrolls, fmt.Sprintf("by %d", delta))
	v.offset += delta
	if v.offset < 0 {
		v.offset = 0
	}
}

func (v *fakeView) Offset() int     { return v.offset }
func (v *fakeView) LineHeight() int { return 1 }

func (v *fakeView) Line(n int) (LineElement, bool) {
	if n < v.start || n >= v.start+v.rows || v.skip[n] {
		return LineElement{}, false
	}
	return LineElement{Line: n, Offset: n - v.start, Heading: v.headings[n]}, true
}

type fakeStrip struct {
	updates int
	last    []PageEntry
}

func (s *fakeStrip) SetPageList(entries []PageEntry) {
	s.updates++
	s.last = entries
}

type fakeTOC struct {
	titles []int
	active []int
}

func (c *fakeTOC) SetActive(line int) { c.active = append(c.active, line) }

func (c *fakeTOC) TitleAt(line int) (int, bool) {
	found, ok := 0, false
	for _, l := range c.titles {
		if l > line {
			break
		}
		found, ok = l, true
	}
	return found, ok
}

type historyEntry struct {
	doc  string
	line int
}

type fakeHistory struct {
	entries []historyEntry
	err     error
}

func (h *fakeHistory) SetHistory(doc string, line int) error {
	h.entries = append(h.entries, historyEntry{doc, line})
	return h.err
}

type harness struct {
	nav     *Navigator
	view    *fakeView
	strip   *fakeStrip
	toc     *fakeTOC
	history *fakeHistory
}

// newHarness builds a four page document: [0,10) [10,25) [25,40) [40,50).
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		view:    &fakeView{headings: map[int]bool{}, skip: map[int]bool{}},
		strip:   &fakeStrip{},
		toc:     &fakeTOC{titles: []int{0, 12, 30}},
		history: &fakeHistory{},
	}
	state := NewState(50, []int{10, 25, 40})
	n, err := New(state, "doc", 7, Deps{
		Renderer: h.view,
		Pages:    h.strip,
		Scroller: h.view,
		Lines:    h.view,
		TOC:      h.toc,
		History:  h.history,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.nav = n
	n.GotoPage(1, ScrollTop)
	h.reset()
	return h
}

func (h *harness) reset() {
	h.view.renders = nil
	h.view.scrolls = nil
	h.strip.updates = 0
	h.toc.active = nil
	h.history.entries = nil
}

func TestNewValidatesStripLength(t *testing.T) {
	v := &fakeView{}
	deps := Deps{Renderer: v, Pages: &fakeStrip{}, Scroller: v, Lines: v}

	if _, err := New(NewState(10, nil), "doc", 4, deps, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for length 4, got %v", err)
	}
	if _, err := New(NewState(10, nil), "doc", 5, deps, nil); err != nil {
		t.Errorf("length 5: %v", err)
	}
	if _, err := New(NewState(10, nil), "doc", 5, Deps{}, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for missing collaborators, got %v", err)
	}
}

func TestGotoPageClamps(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		expected int
		render   [2]int
	}{
		{"zero", 0, 1, [2]int{0, 10}},
		{"negative", -3, 1, [2]int{0, 10}},
		{"second", 2, 2, [2]int{10, 25}},
		{"last", 4, 4, [2]int{40, 50}},
		{"past end", 9, 4, [2]int{40, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.nav.GotoPage(tt.page, ScrollTop)

			if got := h.nav.State().CurrentPage; got != tt.expected {
				t.Errorf("CurrentPage = %d, want %d", got, tt.expected)
			}
			if len(h.view.renders) != 1 || h.view.renders[0] != tt.render {
				t.Errorf("renders = %v, want [%v]", h.view.renders, tt.render)
			}
			if len(h.history.entries) != 1 || h.history.entries[0].line != tt.render[0] {
				t.Errorf("history = %v, want page start %d", h.history.entries, tt.render[0])
			}
		})
	}
}

func TestGotoCurrentPageStillRenders(t *testing.T) {
	h := newHarness(t)
	h.nav.GotoPage(1, ScrollNone)
	h.nav.GotoPage(1, ScrollNone)

	if len(h.view.renders) != 2 {
		t.Errorf("expected 2 renders, got %d", len(h.view.renders))
	}
	if h.strip.updates != 2 {
		t.Errorf("expected 2 strip updates, got %d", h.strip.updates)
	}
}

func TestGotoPageScroll(t *testing.T) {
	tests := []struct {
		target   ScrollTarget
		expected []string
	}{
		{ScrollTop, []string{"top"}},
		{ScrollBottom, []string{"bottom"}},
		{ScrollNone, nil},
	}

	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			h := newHarness(t)
			h.nav.GotoPage(3, tt.target)
			if fmt.Sprint(h.view.scrolls) != fmt.Sprint(tt.expected) {
				t.Errorf("scrolls = %v, want %v", h.view.scrolls, tt.expected)
			}
		})
	}
}

func TestNextPrevPage(t *testing.T) {
	h := newHarness(t)
	h.nav.NextPage()
	h.nav.NextPage()
	if got := h.nav.State().CurrentPage; got != 3 {
		t.Fatalf("after two NextPage: page %d", got)
	}
	h.nav.PrevPage()
	if got := h.nav.State().CurrentPage; got != 2 {
		t.Errorf("after PrevPage: page %d", got)
	}
	if last := h.view.scrolls[len(h.view.scrolls)-1]; last != "bottom" {
		t.Errorf("PrevPage should scroll to bottom, got %q", last)
	}
	h.nav.PrevPage()
	h.nav.PrevPage()
	if got := h.nav.State().CurrentPage; got != 1 {
		t.Errorf("PrevPage past start: page %d", got)
	}
}

func TestGotoPageFromInput(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"3", 3},
		{" 2 ", 2},
		{"40", 4},
		{"0", 1},
		{"abc", 1},
		{"", 1},
		{"2.5", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h := newHarness(t)
			h.nav.GotoPageFromInput(tt.input, ScrollTop)

			if got := h.nav.State().CurrentPage; got != tt.expected {
				t.Errorf("CurrentPage = %d, want %d", got, tt.expected)
			}
			if len(h.view.renders) != 1 {
				t.Errorf("expected a render even for %q, got %d", tt.input, len(h.view.renders))
			}
			if len(h.view.scrolls) != 1 || h.view.scrolls[0] != "top" {
				t.Errorf("scrolls = %v", h.view.scrolls)
			}
		})
	}
}

func TestPageOf(t *testing.T) {
	s := NewState(50, []int{10, 25, 40})
	tests := []struct {
		line     int
		expected int
	}{
		{-1, 1},
		{0, 1},
		{9, 1},
		{10, 2},
		{24, 2},
		{25, 3},
		{39, 3},
		{40, 4},
		{1000, 4},
	}
	for _, tt := range tests {
		if got := s.PageOf(tt.line); got != tt.expected {
			t.Errorf("PageOf(%d) = %d, want %d", tt.line, got, tt.expected)
		}
	}
}

func TestPageRangeSinglePage(t *testing.T) {
	s := NewState(7, nil)
	if start, end := s.PageRange(1); start != 0 || end != 7 {
		t.Errorf("PageRange(1) = [%d, %d), want [0, 7)", start, end)
	}
	if got := s.TotalPages(); got != 1 {
		t.Errorf("TotalPages() = %d", got)
	}
}

func TestGotoLineTitle(t *testing.T) {
	h := newHarness(t)
	h.view.headings[30] = true

	if err := h.nav.GotoLine(30, true); err != nil {
		t.Fatalf("GotoLine: %v", err)
	}
	if got := h.nav.State().CurrentPage; got != 3 {
		t.Errorf("CurrentPage = %d, want 3", got)
	}
	// page transition does not force a scroll
	want := []string{"to 5", "by -3"}
	if fmt.Sprint(h.view.scrolls) != fmt.Sprint(want) {
		t.Errorf("scrolls = %v, want %v", h.view.scrolls, want)
	}
	if len(h.toc.active) != 1 || h.toc.active[0] != 30 {
		t.Errorf("active = %v, want [30]", h.toc.active)
	}
	if h.nav.State().ActiveTitle != 30 {
		t.Errorf("ActiveTitle = %d", h.nav.State().ActiveTitle)
	}
	if !h.nav.TitleJumpPending() {
		t.Error("title jump flag not set")
	}
	if len(h.history.entries) != 1 || h.history.entries[0] != (historyEntry{"doc", 30}) {
		t.Errorf("history = %v", h.history.entries)
	}
}

func TestGotoLineTitleWithoutElement(t *testing.T) {
	h := newHarness(t)
	if err := h.nav.GotoLine(1000, true); err != nil {
		t.Fatalf("title jumps never fail: %v", err)
	}
	if got := h.nav.State().CurrentPage; got != 4 {
		t.Errorf("CurrentPage = %d, want 4", got)
	}
}

func TestGotoLinePlain(t *testing.T) {
	h := newHarness(t)
	if err := h.nav.GotoLine(18, false); err != nil {
		t.Fatalf("GotoLine: %v", err)
	}
	if got := h.nav.State().CurrentPage; got != 2 {
		t.Errorf("CurrentPage = %d, want 2", got)
	}
	if fmt.Sprint(h.view.scrolls) != fmt.Sprint([]string{"to 8"}) {
		t.Errorf("scrolls = %v", h.view.scrolls)
	}
	if len(h.toc.active) != 0 {
		t.Errorf("plain line should not change the active title: %v", h.toc.active)
	}
	if h.nav.TitleJumpPending() {
		t.Error("title jump flag set for a plain line")
	}
	if len(h.history.entries) != 1 || h.history.entries[0].line != 18 {
		t.Errorf("history = %v", h.history.entries)
	}
}

func TestGotoLineSamePageDoesNotRender(t *testing.T) {
	h := newHarness(t)
	if err := h.nav.GotoLine(4, false); err != nil {
		t.Fatalf("GotoLine: %v", err)
	}
	if len(h.view.renders) != 0 {
		t.Errorf("renders = %v, want none", h.view.renders)
	}
}

func TestGotoLineHeading(t *testing.T) {
	h := newHarness(t)
	h.view.headings[12] = true
	if err := h.nav.GotoLine(12, false); err != nil {
		t.Fatalf("GotoLine: %v", err)
	}
	want := []string{"to 2", "by -3"}
	if fmt.Sprint(h.view.scrolls) != fmt.Sprint(want) {
		t.Errorf("scrolls = %v, want %v", h.view.scrolls, want)
	}
	if len(h.toc.active) != 1 || h.toc.active[0] != 12 {
		t.Errorf("active = %v", h.toc.active)
	}
	if h.nav.TitleJumpPending() {
		t.Error("heading lines reached through links are not title jumps")
	}
}

func TestGotoLineNotFound(t *testing.T) {
	h := newHarness(t)
	h.view.ScrollTo(6)
	h.reset()
	h.view.skip[33] = true

	err := h.nav.GotoLine(33, false)
	if !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
	if got := h.nav.State().CurrentPage; got != 1 {
		t.Errorf("CurrentPage = %d, want the previous page 1", got)
	}
	if got := h.view.Offset(); got != 6 {
		t.Errorf("offset = %d, want the previous offset 6", got)
	}
	if len(h.history.entries) != 0 {
		t.Errorf("no history expected, got %v", h.history.entries)
	}
}

func TestSyncActiveTitle(t *testing.T) {
	h := newHarness(t)

	if !h.nav.SyncActiveTitle(14) {
		t.Fatal("expected the active title to change")
	}
	if h.nav.State().ActiveTitle != 12 {
		t.Errorf("ActiveTitle = %d, want 12", h.nav.State().ActiveTitle)
	}
	if h.nav.SyncActiveTitle(20) {
		t.Error("same title should not be re-activated")
	}

	if err := h.nav.GotoLine(30, true); err != nil {
		t.Fatal(err)
	}
	// consumed by the scroll the jump itself caused
	if h.nav.SyncActiveTitle(27) {
		t.Error("scroll right after a title jump should be ignored")
	}
	if h.nav.State().ActiveTitle != 30 {
		t.Errorf("ActiveTitle = %d, want 30", h.nav.State().ActiveTitle)
	}
	if !h.nav.SyncActiveTitle(27) {
		t.Error("later scrolls should update the active title")
	}
	if h.nav.State().ActiveTitle != 12 {
		t.Errorf("ActiveTitle = %d, want 12", h.nav.State().ActiveTitle)
	}
}

func TestHistoryFailureDoesNotAbort(t *testing.T) {
	h := newHarness(t)
	h.history.err = errors.New("disk full")

	h.nav.GotoPage(2, ScrollTop)
	if got := h.nav.State().CurrentPage; got != 2 {
		t.Errorf("CurrentPage = %d", got)
	}
	if err := h.nav.GotoLine(41, false); err != nil {
		t.Errorf("GotoLine: %v", err)
	}
}

func TestRepaginate(t *testing.T) {
	h := newHarness(t)
	h.nav.GotoPage(4, ScrollTop)
	h.reset()

	h.nav.Repaginate([]int{10}, 20, true)
	if got := h.nav.State().CurrentPage; got != 2 {
		t.Errorf("CurrentPage = %d, want 2", got)
	}
	if h.strip.updates != 1 {
		t.Errorf("strip updates = %d", h.strip.updates)
	}
	if len(h.view.renders) != 0 {
		t.Errorf("Repaginate should not render, got %v", h.view.renders)
	}
}

func TestStripFollowsProcessing(t *testing.T) {
	v := &fakeView{}
	s := &fakeStrip{}
	breaks := make([]int, 29)
	for i := range breaks {
		breaks[i] = (i + 1) * 10
	}
	n, err := New(NewState(300, breaks), "doc", 7, Deps{Renderer: v, Pages: s, Scroller: v, Lines: v}, nil)
	if err != nil {
		t.Fatal(err)
	}

	n.Repaginate(breaks, 300, true)
	if got := fmt.Sprint(s.last); got != "[1 2 3 4 5 …]" {
		t.Errorf("processing strip = %s", got)
	}
	n.Repaginate(breaks, 300, false)
	if got := fmt.Sprint(s.last); got != "[1 2 3 4 5 … 30]" {
		t.Errorf("final strip = %s", got)
	}
}
