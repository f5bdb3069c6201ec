//go:build gui

package main

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	fynetheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/prr/internal/nav"
	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/theme"
	"github.com/metcalfc/prr/internal/toc"
)

const appName = "grr"

const (
	paginateStep = 500
	windowWidth  = 900
	windowHeight = 700
	tocOffset    = 0.3
	gapWidth     = 64
)

// variantTheme pins the default theme to one variant.
type variantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t variantTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(name, t.variant)
}

func applyTheme(a fyne.App, mode string) {
	switch mode {
	case theme.Light:
		a.Settings().SetTheme(variantTheme{fynetheme.DefaultTheme(), fynetheme.VariantLight})
	case theme.Dark:
		a.Settings().SetTheme(variantTheme{fynetheme.DefaultTheme(), fynetheme.VariantDark})
	default:
		a.Settings().SetTheme(fynetheme.DefaultTheme())
	}
}

func textSize() fyne.Size {
	return fyne.MeasureText("M", fynetheme.TextSize(), fyne.TextStyle{})
}

// pagePane shows one page as a column of labels in a vertical scroll.
type pagePane struct {
	doc        *reader.Document
	box        *fyne.Container
	scroll     *container.Scroll
	labels     []*widget.Label
	start, end int
}

func newPagePane(doc *reader.Document) *pagePane {
	box := container.NewVBox()
	return &pagePane{doc: doc, box: box, scroll: container.NewVScroll(box)}
}

func (p *pagePane) Render(start, end int) {
	p.start, p.end = start, end
	p.labels = p.labels[:0]
	objects := make([]fyne.CanvasObject, 0, end-start)
	for n := start; n < end; n++ {
		l := widget.NewLabel(p.doc.Lines[n])
		l.Wrapping = fyne.TextWrapWord
		if p.doc.IsTitle(n) {
			l.TextStyle = fyne.TextStyle{Bold: true}
			l.SizeName = fynetheme.SizeNameSubHeadingText
		}
		p.labels = append(p.labels, l)
		objects = append(objects, l)
	}
	p.box.Objects = objects
	p.box.Refresh()
	p.scroll.Refresh()
}

// rowY returns the top of the i-th label of the page.
func (p *pagePane) rowY(i int) float32 {
	var y float32
	for _, l := range p.labels[:i] {
		y += l.MinSize().Height + fynetheme.Padding()
	}
	return y
}

// lineAt returns the buffer line shown at y.
func (p *pagePane) lineAt(y float32) int {
	var top float32
	for i, l := range p.labels {
		top += l.MinSize().Height + fynetheme.Padding()
		if y < top {
			return p.start + i
		}
	}
	return max(p.end-1, p.start)
}

func (p *pagePane) ScrollToTop()    { p.scroll.ScrollToTop() }
func (p *pagePane) ScrollToBottom() { p.scroll.ScrollToBottom() }

func (p *pagePane) ScrollTo(offset int) {
	limit := max(p.box.MinSize().Height-p.scroll.Size().Height, 0)
	p.scroll.Offset = fyne.NewPos(0, min(max(float32(offset), 0), limit))
	p.scroll.Refresh()
}

func (p *pagePane) ScrollBy(delta int) { p.ScrollTo(p.Offset() + delta) }
func (p *pagePane) Offset() int        { return int(p.scroll.Offset.Y) }
func (p *pagePane) LineHeight() int    { return int(textSize().Height) }

func (p *pagePane) Line(n int) (nav.LineElement, bool) {
	if n < p.start || n >= p.end {
		return nav.LineElement{}, false
	}
	return nav.LineElement{Line: n, Offset: int(p.rowY(n - p.start)), Heading: p.doc.IsTitle(n)}, true
}

// ReadingLine is the line below the heading margin.
func (p *pagePane) ReadingLine() int {
	return p.lineAt(float32(p.Offset() + nav.HeadingMargin*p.LineHeight()))
}

// tocPane mirrors the active title into a fyne list.
type tocPane struct {
	list    *toc.List
	view    *widget.List
	syncing bool
}

func (t *tocPane) SetActive(line int) {
	t.list.SetActive(line)
	i := t.list.ActiveIndex()
	if i < 0 || t.view == nil {
		return
	}
	// Select fires OnSelected
	t.syncing = true
	t.view.Select(i)
	t.view.ScrollTo(i)
	t.syncing = false
}

func (t *tocPane) TitleAt(line int) (int, bool) { return t.list.TitleAt(line) }

// stripBar is the pagination strip: page buttons and jump entries for gaps.
type stripBar struct {
	box     *fyne.Container
	gaps    []*widget.Entry
	current func() int
	onPage  func(page int)
	onJump  func(raw string)
}

func (s *stripBar) SetPageList(entries []nav.PageEntry) {
	s.gaps = s.gaps[:0]
	objects := make([]fyne.CanvasObject, 0, len(entries))
	for _, e := range entries {
		if e.IsGap() {
			in := widget.NewEntry()
			in.SetPlaceHolder(e.String())
			in.OnSubmitted = s.onJump
			s.gaps = append(s.gaps, in)
			objects = append(objects, container.NewGridWrap(fyne.NewSize(gapWidth, in.MinSize().Height), in))
			continue
		}
		page := e.Page
		b := widget.NewButton(e.String(), func() { s.onPage(page) })
		if page == s.current() {
			b.Importance = widget.HighImportance
		}
		objects = append(objects, b)
	}
	s.box.Objects = objects
	s.box.Refresh()
}

func run(s *session) error {
	a := app.New()
	applyTheme(a, s.settings.Theme)
	w := a.NewWindow(appName + " - " + s.doc.Name)

	pane := newPagePane(s.doc)
	tp := &tocPane{list: toc.New(s.doc.Titles, len(s.doc.Titles))}
	strip := &stripBar{box: container.NewHBox()}
	statusLabel := widget.NewLabel("")
	statusLabel.Alignment = fyne.TextAlignCenter
	controlsLabel := widget.NewLabel("←/→: page  ↑/↓: scroll  G: go to  T: contents  SHIFT+T: theme  R: refresh  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	st := nav.NewState(len(s.doc.Lines), nil)
	st.Processing = true
	n, err := nav.New(st, s.doc.ID, s.settings.MaxPageItems, nav.Deps{
		Renderer: pane,
		Pages:    strip,
		Scroller: pane,
		Lines:    pane,
		TOC:      tp,
		History:  s.history(),
	}, s.logger)
	if err != nil {
		return err
	}

	updateStatus := func() {
		text := fmt.Sprintf("Page %d/%d", st.CurrentPage, st.TotalPages())
		if st.Processing {
			text += " (paginating)"
		}
		if t, ok := tp.list.Active(); ok {
			text += " | " + t.Title
		}
		statusLabel.SetText(text)
	}
	// act runs a navigation and brings the active title and status up to date
	act := func(f func()) {
		f()
		n.SyncActiveTitle(pane.ReadingLine())
		updateStatus()
	}

	strip.current = func() int { return st.CurrentPage }
	strip.onPage = func(page int) {
		act(func() { n.GotoPage(page, nav.ScrollTop) })
	}
	strip.onJump = func(raw string) {
		act(func() { n.GotoPageFromInput(raw, nav.ScrollTop) })
		w.Canvas().Unfocus()
	}
	pane.scroll.OnScrolled = func(fyne.Position) {
		n.SyncActiveTitle(pane.ReadingLine())
		updateStatus()
	}

	body := fyne.CanvasObject(pane.scroll)
	var split *container.Split
	var tocPanel *fyne.Container
	titles := s.doc.Titles
	if len(titles) > 0 {
		tp.view = widget.NewList(
			func() int { return len(titles) },
			func() fyne.CanvasObject { return widget.NewLabel("Title") },
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				t := titles[id]
				l := obj.(*widget.Label)
				l.TextStyle = fyne.TextStyle{Italic: t.IsCustomOnly}
				l.SetText(strings.Repeat("  ", t.Level) + t.Title)
			},
		)
		tp.view.OnSelected = func(id widget.ListItemID) {
			if tp.syncing || id >= len(titles) {
				return
			}
			line := titles[id].LineNumber
			act(func() {
				if err := n.GotoLine(line, true); err != nil {
					s.logger.Warn("table of contents jump failed", "line", line, "err", err)
				}
			})
		}
		tocPanel = container.NewBorder(
			widget.NewLabelWithStyle("Table of Contents", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, nil, nil,
			tp.view,
		)
		split = container.NewHSplit(tocPanel, pane.scroll)
		split.Offset = tocOffset
		if !s.settings.ShowTOC {
			tocPanel.Hide()
		}
		body = split
	}

	w.SetContent(container.NewBorder(
		statusLabel,
		container.NewVBox(container.NewCenter(strip.box), controlsLabel),
		nil, nil,
		body,
	))
	w.Resize(fyne.NewSize(windowWidth, windowHeight))

	// page shape from the window and font metrics
	glyph := textSize()
	cols := int(windowWidth * (1 - tocOffset) / glyph.Width)
	rows := s.settings.LinesPerPage
	if rows <= 0 {
		rows = int(windowHeight * 0.75 / (glyph.Height + fynetheme.Padding()))
	}

	anchor, _ := s.resumeLine()
	p := reader.NewPaginator(s.doc.Lines, cols, rows)
	for !p.Done() {
		breaks := p.Breaks()
		if len(breaks) > 0 && breaks[len(breaks)-1] > anchor {
			break
		}
		p.Step(paginateStep)
	}
	n.Repaginate(p.Breaks(), len(s.doc.Lines), !p.Done())
	n.GotoPage(st.PageOf(anchor), nav.ScrollTop)
	updateStatus()

	// the paginator belongs to this goroutine from here on
	go func() {
		// offsets are only known once the window is laid out
		time.Sleep(100 * time.Millisecond)
		fyne.Do(func() {
			act(func() {
				if err := n.GotoLine(anchor, false); err != nil {
					s.logger.Warn("could not restore position", "line", anchor, "err", err)
				}
			})
		})
		for !p.Done() {
			done := p.Step(paginateStep)
			breaks := p.Breaks()
			fyne.Do(func() {
				n.Repaginate(breaks, len(s.doc.Lines), !done)
				if done {
					start, end := st.PageRange(st.CurrentPage)
					if start != pane.start || end != pane.end {
						n.GotoPage(st.CurrentPage, nav.ScrollNone)
					}
				}
				updateStatus()
			})
		}
	}()

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyRight, fyne.KeyPageDown:
			act(n.NextPage)
		case fyne.KeyLeft, fyne.KeyPageUp:
			act(n.PrevPage)
		case fyne.KeyHome:
			act(func() { n.GotoPage(1, nav.ScrollTop) })
		case fyne.KeyEnd:
			act(func() { n.GotoPage(st.TotalPages(), nav.ScrollTop) })
		case fyne.KeyDown:
			act(func() { pane.ScrollBy(pane.LineHeight()) })
		case fyne.KeyUp:
			act(func() { pane.ScrollBy(-pane.LineHeight()) })
		case fyne.KeyEscape:
			w.Canvas().Unfocus()
		}
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 'g', 'G':
			if len(strip.gaps) > 0 {
				w.Canvas().Focus(strip.gaps[0])
			}

		case 't':
			if tocPanel == nil {
				return
			}
			s.settings.ShowTOC = !s.settings.ShowTOC
			if s.settings.ShowTOC {
				tocPanel.Show()
			} else {
				tocPanel.Hide()
			}
			split.Refresh()
			s.saveSettings()

		case 'T':
			mode := s.settings.Theme
			if mode == theme.Auto {
				mode = theme.Light
				if a.Settings().ThemeVariant() == fynetheme.VariantDark {
					mode = theme.Dark
				}
			}
			s.settings.Theme = theme.Toggle(mode)
			applyTheme(a, s.settings.Theme)
			s.saveSettings()

		case 'r', 'R':
			act(func() { n.GotoPage(st.CurrentPage, nav.ScrollNone) })

		case 'q', 'Q':
			w.Close()
		}
	})

	w.SetOnClosed(func() {
		// Save position before closing
		s.saveLine(pane.lineAt(float32(pane.Offset())))
	})

	w.ShowAndRun()
	return nil
}
