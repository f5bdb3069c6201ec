//go:build !gui

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/metcalfc/prr/internal/nav"
	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/theme"
	"github.com/metcalfc/prr/internal/toc"
)

const appName = "prr"

const (
	// lines measured per pagination step
	paginateStep = 500
	// status, strip and controls rows
	chromeRows  = 3
	maxTOCWidth = 40
)

// pageView shows the lines of one page in a viewport. One buffer line
// may wrap to several rows.
type pageView struct {
	vp      viewport.Model
	lines   []string
	isTitle func(int) bool
	styles  theme.Styles
	width   int

	start, end int
	rowOf      []int // buffer line - start -> first row
	rowLine    []int // row -> buffer line
}

func newPageView(doc *reader.Document, styles theme.Styles) *pageView {
	return &pageView{
		vp:      viewport.New(0, 0),
		lines:   doc.Lines,
		isTitle: doc.IsTitle,
		styles:  styles,
	}
}

func (v *pageView) Render(start, end int) {
	v.start, v.end = start, end
	v.rowOf = v.rowOf[:0]
	v.rowLine = v.rowLine[:0]

	var sb strings.Builder
	for n := start; n < end; n++ {
		style := v.styles.Text
		if v.isTitle(n) {
			style = v.styles.Heading
		}
		v.rowOf = append(v.rowOf, len(v.rowLine))
		for _, row := range reader.Wrap(v.lines[n], v.width) {
			if len(v.rowLine) > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(style.Render(row))
			v.rowLine = append(v.rowLine, n)
		}
	}
	v.vp.SetContent(sb.String())
}

// rerender redraws the current page, e.g. after a theme change.
func (v *pageView) rerender() {
	offset := v.vp.YOffset
	v.Render(v.start, v.end)
	v.vp.SetYOffset(offset)
}

func (v *pageView) ScrollToTop()        { v.vp.GotoTop() }
func (v *pageView) ScrollToBottom()     { v.vp.GotoBottom() }
func (v *pageView) ScrollTo(offset int) { v.vp.SetYOffset(offset) }
func (v *pageView) ScrollBy(delta int)  { v.vp.SetYOffset(v.vp.YOffset + delta) }
func (v *pageView) Offset() int         { return v.vp.YOffset }
func (v *pageView) LineHeight() int     { return 1 }

func (v *pageView) Line(n int) (nav.LineElement, bool) {
	if n < v.start || n >= v.end {
		return nav.LineElement{}, false
	}
	return nav.LineElement{Line: n, Offset: v.rowOf[n-v.start], Heading: v.isTitle(n)}, true
}

// TopLine returns the buffer line at the top of the viewport.
func (v *pageView) TopLine() int {
	return v.lineAtRow(v.vp.YOffset)
}

// ReadingLine returns the first line below the heading margin, the line
// the active title is taken from.
func (v *pageView) ReadingLine() int {
	return v.lineAtRow(v.vp.YOffset + nav.HeadingMargin*v.LineHeight())
}

func (v *pageView) lineAtRow(row int) int {
	if len(v.rowLine) == 0 {
		return v.start
	}
	return v.rowLine[min(max(row, 0), len(v.rowLine)-1)]
}

// pageStrip holds the pagination strip and the entry focused with tab.
type pageStrip struct {
	entries []nav.PageEntry
	focus   int
}

func (s *pageStrip) SetPageList(entries []nav.PageEntry) {
	s.entries = entries
	if s.focus >= len(entries) {
		s.focus = len(entries) - 1
	}
}

func (s *pageStrip) cycle(delta int) {
	n := len(s.entries)
	if n == 0 {
		return
	}
	if s.focus < 0 {
		if delta > 0 {
			s.focus = 0
		} else {
			s.focus = n - 1
		}
		return
	}
	s.focus = ((s.focus+delta)%n + n) % n
}

func (s *pageStrip) focused() (nav.PageEntry, bool) {
	if s.focus < 0 || s.focus >= len(s.entries) {
		return nav.PageEntry{}, false
	}
	return s.entries[s.focus], true
}

// View renders the strip. The jump input, when open, replaces the focused
// gap or follows the strip.
func (s *pageStrip) View(current int, styles theme.Styles, jump string) string {
	parts := make([]string, 0, len(s.entries)+1)
	placed := jump == ""
	for i, e := range s.entries {
		switch {
		case e.IsGap() && i == s.focus && !placed:
			parts = append(parts, jump)
			placed = true
		case e.IsGap() && i == s.focus:
			parts = append(parts, styles.PageFocus.Render(e.String()))
		case e.IsGap():
			parts = append(parts, styles.Gap.Render(e.String()))
		case i == s.focus:
			parts = append(parts, styles.PageFocus.Render(e.String()))
		case e.Page == current:
			parts = append(parts, styles.PageCurrent.Render(e.String()))
		default:
			parts = append(parts, styles.Page.Render(e.String()))
		}
	}
	if !placed {
		parts = append(parts, jump)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

type paginateMsg struct{ gen int }

type tocSettledMsg struct{ ok bool }

type model struct {
	s      *session
	doc    *reader.Document
	nav    *nav.Navigator
	view   *pageView
	strip  *pageStrip
	toc    *toc.List
	jump   textinput.Model
	styles theme.Styles

	paginator *reader.Paginator
	gen       int
	pageRows  int

	width, height int
	tocVisible    bool
	tocFocus      bool
	jumping       bool
	lastActive    int
	flash         string
	quitting      bool
	initCmd       tea.Cmd
}

func newModel(s *session, width, height int) (*model, error) {
	styles := theme.New(s.settings.Theme)
	jump := textinput.New()
	jump.Prompt = "Page: "
	jump.Placeholder = "#"
	jump.CharLimit = 7
	jump.Width = 7

	m := &model{
		s:          s,
		doc:        s.doc,
		view:       newPageView(s.doc, styles),
		strip:      &pageStrip{focus: -1},
		toc:        toc.New(s.doc.Titles, 1),
		jump:       jump,
		styles:     styles,
		width:      width,
		height:     height,
		tocVisible: s.settings.ShowTOC && len(s.doc.Titles) > 0,
		lastActive: -1,
	}

	st := nav.NewState(len(s.doc.Lines), nil)
	st.Processing = true
	n, err := nav.New(st, s.doc.ID, s.settings.MaxPageItems, nav.Deps{
		Renderer: m.view,
		Pages:    m.strip,
		Scroller: m.view,
		Lines:    m.view,
		TOC:      m.toc,
		History:  s.history(),
	}, s.logger)
	if err != nil {
		return nil, err
	}
	m.nav = n

	anchor, _ := s.resumeLine()
	w, h := m.layout()
	m.resize(w, h)
	m.initCmd = m.startPagination(anchor)
	return m, nil
}

// layout returns the content width and body height for the window.
func (m *model) layout() (int, int) {
	w := m.width
	if m.tocVisible {
		w -= m.tocWidth() + 1
	}
	return max(w, 1), max(m.height-chromeRows, 1)
}

func (m *model) tocWidth() int {
	return min(maxTOCWidth, m.width/3)
}

func (m *model) rowsPerPage() int {
	if m.s.settings.LinesPerPage > 0 {
		return m.s.settings.LinesPerPage
	}
	return m.view.vp.Height
}

func (m *model) resize(w, h int) {
	m.view.vp.Width = w
	m.view.vp.Height = h
	m.toc.SetHeight(h - 1)
}

// relayout applies the window size and repaginates when the page shape
// changed, keeping the top visible line in view.
func (m *model) relayout() tea.Cmd {
	w, h := m.layout()
	m.resize(w, h)
	if w == m.view.width && m.rowsPerPage() == m.pageRows {
		return nil
	}
	return m.startPagination(m.view.TopLine())
}

// startPagination measures synchronously until the page holding anchor is
// final, shows anchor, and continues in the background.
func (m *model) startPagination(anchor int) tea.Cmd {
	m.gen++
	m.view.width, _ = m.layout()
	m.pageRows = m.rowsPerPage()
	m.paginator = reader.NewPaginator(m.doc.Lines, m.view.width, m.pageRows)
	for !m.paginator.Done() {
		breaks := m.paginator.Breaks()
		if len(breaks) > 0 && breaks[len(breaks)-1] > anchor {
			break
		}
		m.paginator.Step(paginateStep)
	}
	m.nav.Repaginate(m.paginator.Breaks(), len(m.doc.Lines), !m.paginator.Done())
	// rows are rewrapped even when the page number stays the same
	m.nav.GotoPage(m.nav.State().PageOf(anchor), nav.ScrollTop)
	if err := m.nav.GotoLine(anchor, false); err != nil {
		m.s.logger.Warn("could not restore position", "line", anchor, "err", err)
	}
	return tea.Batch(m.afterScroll(), m.nextStep())
}

func (m *model) nextStep() tea.Cmd {
	if m.paginator.Done() {
		return nil
	}
	gen := m.gen
	return func() tea.Msg { return paginateMsg{gen: gen} }
}

func (m *model) stepPagination() tea.Cmd {
	done := m.paginator.Step(paginateStep)
	m.nav.Repaginate(m.paginator.Breaks(), len(m.doc.Lines), !done)
	if done {
		st := m.nav.State()
		start, end := st.PageRange(st.CurrentPage)
		if start != m.view.start || end != m.view.end {
			// the provisional last page was on screen
			m.nav.GotoPage(st.CurrentPage, nav.ScrollNone)
		}
		m.s.logger.Debug("pagination done", "pages", st.TotalPages())
	}
	return m.nextStep()
}

// afterScroll updates the active title from the viewport and, when the TOC
// is on screen, waits for it to show the change.
func (m *model) afterScroll() tea.Cmd {
	m.nav.SyncActiveTitle(m.view.ReadingLine())
	active := m.nav.State().ActiveTitle
	if active == m.lastActive {
		return nil
	}
	m.lastActive = active
	if !m.tocVisible {
		return nil
	}
	done := m.toc.Rendered()
	logger := m.s.logger
	return func() tea.Msg {
		return tocSettledMsg{ok: toc.AwaitRendered(done, toc.RenderTimeout, logger)}
	}
}

func (m *model) Init() tea.Cmd {
	return m.initCmd
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		switch {
		case m.jumping:
			return m.updateJump(msg)
		case m.tocFocus:
			return m, m.updateTOC(msg)
		}
		return m.updateContent(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.relayout()

	case paginateMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.stepPagination()

	case tocSettledMsg:
		if active, ok := m.toc.Active(); ok && msg.ok {
			m.flash = active.Title
		}
		return m, nil
	}
	return m, nil
}

func (m *model) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.nav.GotoPageFromInput(m.jump.Value(), nav.ScrollTop)
		m.closeJump()
		return m, m.afterScroll()
	case "esc":
		m.closeJump()
		return m, nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m *model) openJump() tea.Cmd {
	m.jumping = true
	m.jump.Reset()
	return m.jump.Focus()
}

func (m *model) closeJump() {
	m.jumping = false
	m.jump.Blur()
	m.jump.Reset()
}

func (m *model) updateTOC(msg tea.KeyMsg) tea.Cmd {
	page := max(m.view.vp.Height-1, 1)
	switch msg.String() {
	case "up", "k":
		m.toc.MoveCursor(-1)
	case "down", "j":
		m.toc.MoveCursor(1)
	case "pgup":
		m.toc.MoveCursor(-page)
	case "pgdown":
		m.toc.MoveCursor(page)
	case "home":
		m.toc.MoveCursor(-m.toc.Len())
	case "end":
		m.toc.MoveCursor(m.toc.Len())
	case "enter":
		sel, ok := m.toc.Selected()
		if !ok {
			return nil
		}
		m.tocFocus = false
		if err := m.nav.GotoLine(sel.LineNumber, true); err != nil {
			m.s.logger.Warn("table of contents jump failed", "line", sel.LineNumber, "err", err)
		}
		return m.afterScroll()
	case "esc":
		m.toc.ResetCursor()
		m.tocFocus = false
	case "t":
		m.toc.ResetCursor()
		return m.setTOCVisible(false)
	case "q":
		return m.quit()
	}
	return nil
}

// quit records the top visible line as the reading position.
func (m *model) quit() tea.Cmd {
	m.quitting = true
	m.s.saveLine(m.view.TopLine())
	return tea.Quit
}

func (m *model) setTOCVisible(visible bool) tea.Cmd {
	m.tocVisible = visible
	m.tocFocus = visible
	m.s.settings.ShowTOC = visible
	m.s.saveSettings()
	return m.relayout()
}

func (m *model) updateContent(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	vp := &m.view.vp
	switch msg.String() {
	case "q", "Q":
		return m, m.quit()

	case "right", "l", "n":
		m.nav.NextPage()
	case "left", "h", "p":
		m.nav.PrevPage()
	case "home":
		m.nav.GotoPage(1, nav.ScrollTop)
	case "end":
		m.nav.GotoPage(m.nav.State().TotalPages(), nav.ScrollTop)

	case "down", "j":
		m.view.ScrollBy(1)
	case "up", "k":
		m.view.ScrollBy(-1)
	case "pgdown":
		m.view.ScrollBy(vp.Height)
	case "pgup":
		m.view.ScrollBy(-vp.Height)
	case " ":
		if vp.AtBottom() {
			m.nav.NextPage()
		} else {
			m.view.ScrollBy(vp.Height)
		}

	case "g":
		return m, m.openJump()
	case "tab":
		m.strip.cycle(1)
		return m, nil
	case "shift+tab":
		m.strip.cycle(-1)
		return m, nil
	case "esc":
		m.strip.focus = -1
		return m, nil
	case "enter":
		e, ok := m.strip.focused()
		if !ok {
			return m, nil
		}
		if e.IsGap() {
			return m, m.openJump()
		}
		m.nav.GotoPage(e.Page, nav.ScrollTop)

	case "t":
		if len(m.doc.Titles) == 0 {
			m.flash = "no table of contents"
			return m, nil
		}
		if m.tocVisible {
			m.tocFocus = true
			return m, nil
		}
		return m, m.setTOCVisible(true)
	case "T":
		m.styles = theme.New(theme.Toggle(m.styles.Mode))
		m.view.styles = m.styles
		m.view.rerender()
		m.s.settings.Theme = m.styles.Mode
		m.s.saveSettings()
		return m, nil
	case "r":
		m.nav.GotoPage(m.nav.State().CurrentPage, nav.ScrollNone)

	default:
		return m, nil
	}
	return m, m.afterScroll()
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}

	body := m.view.vp.View()
	if m.tocVisible {
		_, h := m.layout()
		title := m.styles.TOCTitle.Render("Contents")
		if m.tocFocus {
			title = m.styles.TOCActive.Render("Contents")
		}
		panel := m.styles.TOCBorder.
			Width(m.tocWidth()).
			Height(h).
			Render(title + "\n" + m.toc.View(m.tocWidth(), m.styles))
		body = lipgloss.JoinHorizontal(lipgloss.Top, panel, body)
	}

	jump := ""
	if m.jumping {
		jump = m.jump.View()
	}
	st := m.nav.State()
	strip := m.strip.View(st.CurrentPage, m.styles, jump)

	return strings.Join([]string{m.statusView(), body, strip, m.controlsView()}, "\n")
}

func (m *model) statusView() string {
	st := m.nav.State()
	pages := fmt.Sprintf("Page %d/%d", st.CurrentPage, st.TotalPages())
	if st.Processing {
		measured, total := m.paginator.Progress()
		pages += fmt.Sprintf(" (paginating %d%%)", measured*100/max(total, 1))
	}
	parts := []string{m.doc.Name, pages}
	if active, ok := m.toc.Active(); ok {
		parts = append(parts, active.ShortTitle)
	}
	status := m.styles.Status.Render(strings.Join(parts, " | "))
	if m.flash != "" {
		status += m.styles.Warning.Render(" " + m.flash)
	}
	return status
}

func (m *model) controlsView() string {
	var help string
	switch {
	case m.jumping:
		help = "enter: go  esc: cancel"
	case m.tocFocus:
		help = "↑/↓: select  enter: jump  esc: back  t: hide  q: quit"
	default:
		help = "←/→: page  ↑/↓: scroll  g: go to  tab: strip  t: contents  T: theme  q: quit"
	}
	return m.styles.Controls.Render(help)
}

func run(s *session) error {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		width, height = w, h
	}

	m, err := newModel(s, width, height)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
