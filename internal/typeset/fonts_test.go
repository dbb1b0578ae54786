package typeset

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"paper-translator/internal/doc"
)

func TestRecordGlyphs(t *testing.T) {
	document := doc.NewDocument("test.pdf")
	translated := &doc.TextRun{ID: "a", Page: 1, Text: "Hello", FontID: "F1", IsTranslatable: true}
	translated.SetTranslation("안녕", false)
	kept := &doc.TextRun{ID: "b", Page: 1, Text: "E=mc", FontID: "CMMI10"}
	document.Pages = append(document.Pages, &doc.Page{
		Number: 1,
		Regions: []*doc.Region{
			{Kind: doc.KindBody, Runs: []*doc.TextRun{translated}},
			{Kind: doc.KindFormula, Runs: []*doc.TextRun{kept}},
		},
	})

	RecordGlyphs(document, "NotoSansKR")

	substitute := document.Fonts["NotoSansKR"]
	if substitute == nil {
		t.Fatal("Expected the substitute font to be registered")
	}
	if substitute.GlyphCount() != 2 {
		t.Errorf("Expected 2 glyphs (안, 녕), got %d", substitute.GlyphCount())
	}

	original := document.Fonts["CMMI10"]
	if original == nil {
		t.Fatal("Expected the formula font to be registered")
	}
	// E, =, m, c
	if original.GlyphCount() != 4 {
		t.Errorf("Expected 4 glyphs, got %d", original.GlyphCount())
	}
}

func TestFinalizeSubsets(t *testing.T) {
	document := doc.NewDocument("test.pdf")
	document.Font("F1", "F1").MarkUsed("abc")
	document.Font("F2", "F2").MarkUsed("xyz")

	FinalizeSubsets(document, true)
	for id, entry := range document.Fonts {
		if !entry.Finalized {
			t.Errorf("font %s: expected finalized", id)
		}
		if !entry.Subset {
			t.Errorf("font %s: expected subset flag set", id)
		}
	}

	FinalizeSubsets(document, false)
	for id, entry := range document.Fonts {
		if entry.Subset {
			t.Errorf("font %s: expected full embedding when subsetting is off", id)
		}
	}
}

func TestWriteSubsetFontStagesSmallerFont(t *testing.T) {
	dir := t.TempDir()
	fontPath := filepath.Join(dir, "GoRegular.ttf")
	if err := os.WriteFile(fontPath, goregular.TTF, 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	entry := &doc.FontEntry{ID: "GoRegular", Name: "GoRegular"}
	entry.MarkUsed("Bonjour le monde")

	path, missing, err := writeSubsetFont(fontPath, entry)
	if err != nil {
		t.Fatalf("writeSubsetFont failed: %v", err)
	}
	defer os.RemoveAll(filepath.Dir(path))

	if filepath.Base(path) != "GoRegular.ttf" {
		t.Errorf("Expected the staged font to keep its base name, got %q", filepath.Base(path))
	}
	if len(missing) != 0 {
		t.Errorf("Expected no missing runes, got %q", string(missing))
	}

	subset, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	// The embedded program must observably differ from the full font.
	if len(subset) >= len(goregular.TTF) {
		t.Errorf("Expected the subset smaller than the full font, got %d >= %d",
			len(subset), len(goregular.TTF))
	}
}
