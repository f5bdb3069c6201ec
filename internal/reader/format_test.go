package reader

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		content := "Chapter 1\nHello world.\n\nChapter 2\nGoodbye.\n"
		path := filepath.Join(tmpDir, "test.txt")
		os.WriteFile(path, []byte(content), 0644)

		doc, err := Open(path, Options{})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if doc.Name != "test.txt" {
			t.Errorf("Name = %q", doc.Name)
		}
		if len(doc.Lines) != 5 {
			t.Errorf("got %d lines, want 5: %q", len(doc.Lines), doc.Lines)
		}
		if len(doc.Titles) != 2 || doc.Titles[1].LineNumber != 3 {
			t.Errorf("titles = %+v", doc.Titles)
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		content := "Some content\nwithout a known extension"
		path := filepath.Join(tmpDir, "test.log")
		os.WriteFile(path, []byte(content), 0644)

		doc, err := Open(path, Options{})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if len(doc.Lines) != 2 || doc.Lines[1] != "without a known extension" {
			t.Errorf("lines = %q", doc.Lines)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		path := filepath.Join(tmpDir, "test.md")
		os.WriteFile(path, []byte("# Title\n\nBody\n"), 0644)

		doc, err := Open(path, Options{})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if len(doc.Titles) != 1 || doc.Titles[0].Title != "Title" {
			t.Errorf("titles = %+v", doc.Titles)
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := Open(filepath.Join(tmpDir, "nonexistent.txt"), Options{})
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("broken epub", func(t *testing.T) {
		path := filepath.Join(tmpDir, "broken.epub")
		os.WriteFile(path, []byte("not a zip"), 0644)

		if _, err := Open(path, Options{}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestFromTextTitles(t *testing.T) {
	text := `Preface
Some words.
CHAPTER ONE
It was a dark night.
第一章 开始
内容
Chapter 3: a line that keeps going and going well past the point where anyone would call it a heading
* * *
The end.`

	doc := FromText("book", text, Options{TitlePattern: regexp.MustCompile(`^\* \* \*$|^Preface$`)})

	want := []struct {
		line   int
		custom bool
	}{
		{0, false},
		{2, false},
		{4, false},
		{7, true},
	}
	if len(doc.Titles) != len(want) {
		t.Fatalf("got %d titles, want %d: %+v", len(doc.Titles), len(want), doc.Titles)
	}
	for i, w := range want {
		got := doc.Titles[i]
		if got.LineNumber != w.line || got.IsCustomOnly != w.custom {
			t.Errorf("title %d = %+v, want line %d custom %v", i, got, w.line, w.custom)
		}
		if got.ShortTitle == "" {
			t.Errorf("title %d has no short title", i)
		}
	}
	if !doc.IsTitle(2) || doc.IsTitle(3) {
		t.Error("IsTitle disagrees with Titles")
	}
}

func TestShortTitle(t *testing.T) {
	if got := ShortTitle("  Short  "); got != "Short" {
		t.Errorf("ShortTitle = %q", got)
	}
	long := "An Extraordinarily Long Chapter Title For Testing"
	got := ShortTitle(long)
	if got == long || len([]rune(got)) > ShortTitleWidth {
		t.Errorf("ShortTitle(%q) = %q", long, got)
	}
}

func TestNewDocumentOrdersTitles(t *testing.T) {
	doc := NewDocument("x", []string{"a", "b", "c"}, []TitleEntry{
		{Title: "second", LineNumber: 2},
		{Title: "first", LineNumber: 0},
		{Title: "dup", LineNumber: 2},
	})
	if len(doc.Titles) != 2 {
		t.Fatalf("titles = %+v", doc.Titles)
	}
	if doc.Titles[0].Title != "first" || doc.Titles[1].Title != "second" {
		t.Errorf("titles = %+v", doc.Titles)
	}
	if title, ok := doc.Title(2); !ok || title.Title != "second" {
		t.Errorf("Title(2) = %+v, %v", title, ok)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) == 0 {
		t.Error("no formats registered")
	}
	for _, f := range formats {
		if f == "EPUB (.epub)" {
			return
		}
	}
	t.Errorf("EPUB not registered: %v", formats)
}
