package doc

import "testing"

func TestKindTranslatable(t *testing.T) {
	testCases := []struct {
		kind Kind
		want bool
	}{
		{KindBody, true},
		{KindHeading, true},
		{KindCaption, true},
		{KindFootnote, true},
		{KindReference, true},
		{KindFormula, false},
		{KindTable, false},
		{KindFigure, false},
		{KindUnknown, true},
	}
	for _, tc := range testCases {
		if got := tc.kind.Translatable(); got != tc.want {
			t.Errorf("%s.Translatable() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestBBoxContains(t *testing.T) {
	box := BBox{X: 10, Y: 20, Width: 100, Height: 50}

	if !box.Contains(60, 45) {
		t.Error("Expected center point inside")
	}
	if !box.Contains(10, 20) {
		t.Error("Expected corner on the box edge to count as inside")
	}
	if box.Contains(5, 45) {
		t.Error("Expected point left of the box outside")
	}
	if box.Contains(60, 80) {
		t.Error("Expected point above the box outside")
	}
}

func TestBBoxOverlap(t *testing.T) {
	a := BBox{X: 0, Y: 0, Width: 10, Height: 10}
	b := BBox{X: 5, Y: 5, Width: 10, Height: 10}
	c := BBox{X: 20, Y: 20, Width: 5, Height: 5}

	if got := a.Overlap(b); got != 25 {
		t.Errorf("Expected overlap 25, got %v", got)
	}
	if got := a.Overlap(c); got != 0 {
		t.Errorf("Expected no overlap, got %v", got)
	}
	if a.Overlap(b) != b.Overlap(a) {
		t.Error("Expected overlap to be symmetric")
	}
}

func TestFontCreateOnFirstUse(t *testing.T) {
	d := NewDocument("test.pdf")

	first := d.Font("F1", "Times-Roman")
	second := d.Font("F1", "ignored")
	if first != second {
		t.Error("Expected the same entry for repeated lookups")
	}
	if first.Name != "Times-Roman" {
		t.Errorf("Expected the first registration to win, got %q", first.Name)
	}
	if len(d.Fonts) != 1 {
		t.Errorf("Expected 1 font entry, got %d", len(d.Fonts))
	}
}

func TestMarkUsedDeduplicatesGlyphs(t *testing.T) {
	entry := &FontEntry{ID: "F1"}
	entry.MarkUsed("aabbcc")
	entry.MarkUsed("abc")

	if got := entry.GlyphCount(); got != 3 {
		t.Errorf("Expected 3 distinct glyphs, got %d", got)
	}
}

func TestSetTranslation(t *testing.T) {
	run := &TextRun{ID: "r1", Text: "Hello"}
	if run.HasTranslation {
		t.Error("Expected no translation initially")
	}

	run.SetTranslation("안녕하세요", true)
	if !run.HasTranslation || !run.FromCache {
		t.Error("Expected translation flags set")
	}
	if run.Translation != "안녕하세요" {
		t.Errorf("Expected translation stored, got %q", run.Translation)
	}

	// An empty translation is still a translation.
	run2 := &TextRun{ID: "r2", Text: "x"}
	run2.SetTranslation("", false)
	if !run2.HasTranslation {
		t.Error("Expected HasTranslation true for empty translation")
	}
}

func TestTranslatableRunsOrder(t *testing.T) {
	d := NewDocument("test.pdf")
	r1 := &TextRun{ID: "a", IsTranslatable: true}
	r2 := &TextRun{ID: "b", IsTranslatable: false}
	r3 := &TextRun{ID: "c", IsTranslatable: true}
	d.Pages = []*Page{
		{Number: 1, Regions: []*Region{{Runs: []*TextRun{r1, r2}}}},
		{Number: 2, Regions: []*Region{{Runs: []*TextRun{r3}}}},
	}

	runs := d.TranslatableRuns()
	if len(runs) != 2 {
		t.Fatalf("Expected 2 translatable runs, got %d", len(runs))
	}
	if runs[0].ID != "a" || runs[1].ID != "c" {
		t.Errorf("Expected page order preserved, got %s, %s", runs[0].ID, runs[1].ID)
	}
}
