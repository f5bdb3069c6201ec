package reader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Load reads the spine in order. Each spine item whose href appears in the
// NCX gets that label as a title on its first line; items without one
// contribute their h1-h6 headings instead.
func (f *EPUBFormat) Load(filename string, opts Options) (*Document, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	tocByHref := buildTOCHrefMap(filename, book)

	var lines []string
	var titles []TitleEntry

	for _, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}

		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		chapter := parseChapter(string(data))
		if len(chapter.lines) == 0 {
			continue
		}

		start := len(lines)
		lines = append(lines, chapter.lines...)

		if title, ok := lookupTitle(tocByHref, ref.Item.HREF); ok {
			titles = append(titles, TitleEntry{Title: title, LineNumber: start})
			continue
		}
		for _, h := range chapter.headings {
			titles = append(titles, TitleEntry{
				Title:      h.text,
				LineNumber: start + h.line,
				Level:      h.level,
			})
		}
	}

	titles = applyTitlePattern(lines, titles, opts.TitlePattern)
	return NewDocument(filepath.Base(filename), lines, titles), nil
}

type chapterHeading struct {
	line  int
	level int
	text  string
}

type chapterText struct {
	lines    []string
	headings []chapterHeading
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Blockquote: true, atom.Pre: true, atom.Tr: true,
	atom.Dt: true, atom.Dd: true, atom.Figcaption: true,
}

func headingLevel(a atom.Atom) (int, bool) {
	switch a {
	case atom.H1:
		return 0, true
	case atom.H2:
		return 1, true
	case atom.H3:
		return 2, true
	case atom.H4:
		return 3, true
	case atom.H5:
		return 4, true
	case atom.H6:
		return 5, true
	}
	return 0, false
}

// parseChapter turns one XHTML spine item into lines, one per block.
func parseChapter(s string) chapterText {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return chapterText{}
	}

	var out chapterText
	var cur strings.Builder
	flush := func() string {
		t := strings.Join(strings.Fields(cur.String()), " ")
		cur.Reset()
		if t != "" {
			out.lines = append(out.lines, t)
		}
		return t
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head, atom.Script, atom.Style:
				return
			case atom.Br:
				flush()
				return
			case atom.Td, atom.Th:
				cur.WriteString(" ")
			}
		}
		if n.Type == html.TextNode {
			cur.WriteString(n.Data)
		}

		block := n.Type == html.ElementNode && blockTags[n.DataAtom]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			line := len(out.lines)
			if t := flush(); t != "" {
				if level, ok := headingLevel(n.DataAtom); ok {
					out.headings = append(out.headings, chapterHeading{line: line, level: level, text: t})
				}
			}
		}
	}
	walk(doc)
	flush()

	return out
}

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

func lookupTitle(tocByHref map[string]string, href string) (string, bool) {
	if href == "" {
		return "", false
	}
	if t, ok := tocByHref[href]; ok {
		return t, true
	}
	t, ok := tocByHref[path.Base(href)]
	return t, ok
}

// buildTOCHrefMap parses the NCX and returns a map of href to title
func buildTOCHrefMap(filename string, book *epub.Rootfile) map[string]string {
	result := make(map[string]string)

	ncxData, err := findAndReadNCX(filename, book)
	if err != nil {
		return result
	}

	var toc ncx
	if err := xml.Unmarshal(ncxData, &toc); err != nil {
		return result
	}

	var extract func(points []navPoint)
	extract = func(points []navPoint) {
		for _, np := range points {
			href := np.Content.Src
			title := strings.TrimSpace(np.Label.Text)

			if idx := strings.Index(href, "#"); idx != -1 {
				href = href[:idx]
			}
			if _, exists := result[href]; !exists {
				result[href] = title
			}
			if base := path.Base(href); base != href {
				if _, exists := result[base]; !exists {
					result[base] = title
				}
			}

			extract(np.Children)
		}
	}
	extract(toc.NavMap.NavPoints)

	return result
}

func findAndReadNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}

	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX file found in EPUB")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("NCX file %s not found in archive", ncxPath)
}
