package typeset

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

func TestSubsetFontKeepsUsedGlyphs(t *testing.T) {
	subset, missing, err := SubsetFont(goregular.TTF, runeSet("Hello world"))
	if err != nil {
		t.Fatalf("SubsetFont failed: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("Expected no missing runes, got %q", string(missing))
	}
	if len(subset) >= len(goregular.TTF) {
		t.Errorf("Expected the subset smaller than the full font, got %d >= %d",
			len(subset), len(goregular.TTF))
	}

	f, err := sfnt.Parse(subset)
	if err != nil {
		t.Fatalf("Subset font does not parse: %v", err)
	}
	full, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("Full font does not parse: %v", err)
	}
	if f.NumGlyphs() != full.NumGlyphs() {
		t.Errorf("Expected glyph ids preserved, got %d glyphs, want %d",
			f.NumGlyphs(), full.NumGlyphs())
	}

	var buf sfnt.Buffer
	for _, r := range "Helo wrd" {
		gi, err := f.GlyphIndex(&buf, r)
		if err != nil || gi == 0 {
			t.Fatalf("Rune %q lost its mapping: index %d, err %v", r, gi, err)
		}
		if r == ' ' {
			continue
		}
		segments, err := f.LoadGlyph(&buf, gi, fixed.I(12), nil)
		if err != nil {
			t.Errorf("Glyph for %q failed to load: %v", r, err)
		} else if len(segments) == 0 {
			t.Errorf("Expected the outline for %q kept", r)
		}
	}
}

func TestSubsetFontDropsUnusedOutlines(t *testing.T) {
	subset, _, err := SubsetFont(goregular.TTF, runeSet("a"))
	if err != nil {
		t.Fatalf("SubsetFont failed: %v", err)
	}
	f, err := sfnt.Parse(subset)
	if err != nil {
		t.Fatalf("Subset font does not parse: %v", err)
	}

	var buf sfnt.Buffer
	gi, err := f.GlyphIndex(&buf, 'z')
	if err != nil || gi == 0 {
		t.Fatalf("Expected 'z' still mapped: index %d, err %v", gi, err)
	}
	segments, err := f.LoadGlyph(&buf, gi, fixed.I(12), nil)
	if err != nil {
		t.Fatalf("LoadGlyph failed: %v", err)
	}
	if len(segments) != 0 {
		t.Error("Expected the outline for the unused 'z' dropped")
	}
}

func TestSubsetFontReportsMissingRunes(t *testing.T) {
	// Go Regular has no Hangul coverage.
	_, missing, err := SubsetFont(goregular.TTF, runeSet("a한"))
	if err != nil {
		t.Fatalf("SubsetFont failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != '한' {
		t.Errorf("Expected the unmapped rune reported, got %q", string(missing))
	}
}

func TestSubsetFontRejectsGarbage(t *testing.T) {
	if _, _, err := SubsetFont([]byte("definitely not a font"), runeSet("a")); err == nil {
		t.Error("Expected an error for a non-font input")
	}
}
