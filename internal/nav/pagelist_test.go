package nav

import (
	"errors"
	"reflect"
	"testing"
)

// strip builds an expected strip; 0 stands for a gap.
func strip(pages ...int) []PageEntry {
	out := make([]PageEntry, 0, len(pages))
	for _, p := range pages {
		if p == 0 {
			out = append(out, Gap())
			continue
		}
		out = append(out, PageNumber(p))
	}
	return out
}

func TestComputePageList(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		current    int
		maxLength  int
		processing bool
		expected   []PageEntry
	}{
		{"fits", 5, 3, 7, false, strip(1, 2, 3, 4, 5)},
		{"fits exactly", 7, 7, 7, false, strip(1, 2, 3, 4, 5, 6, 7)},
		{"single page", 1, 1, 5, false, strip(1)},
		{"start", 100, 1, 7, false, strip(1, 2, 3, 4, 5, 0, 100)},
		{"start edge", 100, 4, 7, false, strip(1, 2, 3, 4, 5, 0, 100)},
		{"middle", 100, 5, 7, false, strip(1, 0, 4, 5, 6, 0, 100)},
		{"middle deep", 100, 50, 7, false, strip(1, 0, 49, 50, 51, 0, 100)},
		{"end edge", 100, 97, 7, false, strip(1, 0, 96, 97, 98, 99, 100)},
		{"end", 100, 100, 7, false, strip(1, 0, 96, 97, 98, 99, 100)},
		{"wide start", 50, 1, 9, false, strip(1, 2, 3, 4, 5, 6, 0, 49, 50)},
		{"wide middle", 50, 25, 9, false, strip(1, 2, 0, 24, 25, 26, 0, 49, 50)},
		{"wide end", 50, 48, 9, false, strip(1, 2, 0, 45, 46, 47, 48, 49, 50)},
		{"narrow start", 10, 3, 5, false, strip(1, 2, 3, 0, 10)},
		{"narrow middle", 10, 4, 5, false, strip(1, 0, 4, 0, 10)},
		{"narrow end", 10, 8, 5, false, strip(1, 0, 8, 9, 10)},
		{"processing fits", 5, 2, 7, true, strip(1, 2, 3, 4, 5)},
		{"processing start", 100, 1, 7, true, strip(1, 2, 3, 4, 5, 0)},
		{"processing middle", 100, 50, 7, true, strip(1, 0, 49, 50, 51)},
		{"processing end", 100, 99, 7, true, strip(1, 0)},
		{"processing wide end", 50, 48, 9, true, strip(1, 2, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputePageList(tt.total, tt.current, tt.maxLength, tt.processing)
			if err != nil {
				t.Fatalf("ComputePageList: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ComputePageList(%d, %d, %d, %v) = %v, want %v",
					tt.total, tt.current, tt.maxLength, tt.processing, got, tt.expected)
			}
		})
	}
}

func TestComputePageListMinimumLength(t *testing.T) {
	if _, err := ComputePageList(20, 1, 4, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("length 4: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ComputePageList(20, 1, 0, true); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("length 0: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ComputePageList(20, 1, 5, false); err != nil {
		t.Errorf("length 5: unexpected error %v", err)
	}
}

func TestComputePageListProperties(t *testing.T) {
	for maxLength := 5; maxLength <= 13; maxLength++ {
		for total := 1; total <= 40; total++ {
			for current := 1; current <= total; current++ {
				full, err := ComputePageList(total, current, maxLength, false)
				if err != nil {
					t.Fatalf("ComputePageList(%d, %d, %d): %v", total, current, maxLength, err)
				}
				checkStrip(t, full, total, current, maxLength)

				partial, err := ComputePageList(total, current, maxLength, true)
				if err != nil {
					t.Fatalf("ComputePageList(%d, %d, %d, processing): %v", total, current, maxLength, err)
				}
				checkPrefix(t, partial, full, total, maxLength)
			}
		}
	}
}

func checkStrip(t *testing.T, entries []PageEntry, total, current, maxLength int) {
	t.Helper()

	if total <= maxLength {
		if len(entries) != total {
			t.Fatalf("total %d max %d: expected every page, got %v", total, maxLength, entries)
		}
		for i, e := range entries {
			if e.IsGap() || e.Page != i+1 {
				t.Fatalf("total %d max %d: entry %d = %v", total, maxLength, i, e)
			}
		}
		return
	}

	if len(entries) != maxLength {
		t.Errorf("total %d current %d max %d: length %d, want %d", total, current, maxLength, len(entries), maxLength)
	}

	gaps := 0
	containsCurrent := false
	prev := 0
	afterGap := false
	for _, e := range entries {
		if e.IsGap() {
			gaps++
			afterGap = true
			continue
		}
		if e.Page == current {
			containsCurrent = true
		}
		switch {
		case prev == 0:
		case afterGap && e.Page <= prev+1:
			t.Errorf("total %d current %d max %d: gap hides nothing in %v", total, current, maxLength, entries)
		case !afterGap && e.Page != prev+1:
			t.Errorf("total %d current %d max %d: run not contiguous in %v", total, current, maxLength, entries)
		}
		prev = e.Page
		afterGap = false
	}
	if gaps < 1 || gaps > 2 {
		t.Errorf("total %d current %d max %d: %d gaps in %v", total, current, maxLength, gaps, entries)
	}
	if !containsCurrent {
		t.Errorf("total %d current %d max %d: current page missing from %v", total, current, maxLength, entries)
	}
	if entries[0].Page != 1 || entries[len(entries)-1].Page != total {
		t.Errorf("total %d current %d max %d: edges missing from %v", total, current, maxLength, entries)
	}
}

func checkPrefix(t *testing.T, partial, full []PageEntry, total, maxLength int) {
	t.Helper()

	if total <= maxLength {
		if !reflect.DeepEqual(partial, full) {
			t.Errorf("total %d max %d: processing changed a full-fit strip: %v vs %v", total, maxLength, partial, full)
		}
		return
	}
	if len(partial) >= len(full) {
		t.Fatalf("total %d max %d: processing strip %v is not shorter than %v", total, maxLength, partial, full)
	}
	if !reflect.DeepEqual(partial, full[:len(partial)]) {
		t.Errorf("total %d max %d: %v is not a prefix of %v", total, maxLength, partial, full)
	}
	// only whole runs are dropped
	if !partial[len(partial)-1].IsGap() && !full[len(partial)].IsGap() {
		t.Errorf("total %d max %d: %v cut inside a run of %v", total, maxLength, partial, full)
	}
}

func TestPageEntryString(t *testing.T) {
	if got := PageNumber(12).String(); got != "12" {
		t.Errorf("PageNumber(12).String() = %q", got)
	}
	if got := Gap().String(); got != "…" {
		t.Errorf("Gap().String() = %q", got)
	}
}
