// Package doc defines the in-memory representation of a parsed PDF document:
// pages, classified regions, text runs and the shared font table. It is built
// by the parser, annotated by the layout classifier and the translation
// dispatcher, and finally consumed by the typesetting engine.
package doc

import "fmt"

// Kind is the semantic class of a layout region.
type Kind string

const (
	KindBody      Kind = "body"
	KindHeading   Kind = "heading"
	KindFormula   Kind = "formula"
	KindTable     Kind = "table"
	KindFigure    Kind = "figure"
	KindCaption   Kind = "caption"
	KindFootnote  Kind = "footnote"
	KindReference Kind = "reference"
	KindUnknown   Kind = "unknown"
)

// Translatable reports whether text inside a region of this kind should be
// sent to the translation backend. Formulas, tables and figures must keep
// their exact glyph positioning and are never translated.
func (k Kind) Translatable() bool {
	switch k {
	case KindBody, KindHeading, KindCaption, KindFootnote, KindReference:
		return true
	case KindFormula, KindTable, KindFigure:
		return false
	default:
		return true
	}
}

// BBox is an axis-aligned rectangle in PDF points, origin at the bottom-left
// of the page.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point (x, y) lies inside the box.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}

// Overlap returns the intersection area of two boxes.
func (b BBox) Overlap(o BBox) float64 {
	w := min(b.X+b.Width, o.X+o.Width) - max(b.X, o.X)
	h := min(b.Y+b.Height, o.Y+o.Height) - max(b.Y, o.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Area returns the area of the box.
func (b BBox) Area() float64 {
	return b.Width * b.Height
}

// TextRun is the smallest translatable unit: a string of characters sharing
// one font, size and baseline position.
type TextRun struct {
	ID       string  `json:"id"`
	Page     int     `json:"page"`
	Text     string  `json:"text"`
	FontID   string  `json:"font_id"`
	FontSize float64 `json:"font_size"`
	X        float64 `json:"x"` // baseline origin
	Y        float64 `json:"y"`
	Box      BBox    `json:"box"`
	Rotation int     `json:"rotation"`

	// IsTranslatable is derived from the owning region's kind plus per-run
	// regex overrides; set by the layout classifier.
	IsTranslatable bool `json:"is_translatable"`

	// Translation is filled in by the dispatcher. HasTranslation
	// distinguishes "not translated" from an empty translation.
	Translation    string `json:"translation,omitempty"`
	HasTranslation bool   `json:"has_translation"`
	FromCache      bool   `json:"from_cache"`
}

// SetTranslation records a successful translation on the run.
func (r *TextRun) SetTranslation(text string, fromCache bool) {
	r.Translation = text
	r.HasTranslation = true
	r.FromCache = fromCache
}

// Region is a classified rectangular layout block owning an ordered sequence
// of text runs. Regions on a page may overlap; each run belongs to exactly
// one region.
type Region struct {
	Kind       Kind       `json:"kind"`
	Box        BBox       `json:"box"`
	Confidence float64    `json:"confidence"`
	Runs       []*TextRun `json:"runs"`
}

// Page has fixed geometry once parsed and an ordered sequence of regions.
type Page struct {
	Number  int       `json:"number"` // 1-based
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Regions []*Region `json:"regions"`
}

// Runs returns the page's runs in region order.
func (p *Page) Runs() []*TextRun {
	var runs []*TextRun
	for _, reg := range p.Regions {
		runs = append(runs, reg.Runs...)
	}
	return runs
}

// FontEntry maps a font id to substitution and subsetting metadata. One entry
// exists per distinct (original font, target script) pair; multiple runs
// share an entry by reference. The typesetting engine mutates the used-glyph
// set while emitting output and finalizes subsetting once per entry.
type FontEntry struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`       // original font name as found in the PDF
	Substitute string            `json:"substitute"` // font chosen for the target script
	UsedGlyphs map[rune]struct{} `json:"-"`
	Subset     bool              `json:"subset"`
	Finalized  bool              `json:"finalized"`
}

// MarkUsed records every rune of s as referenced by the output.
func (f *FontEntry) MarkUsed(s string) {
	if f.UsedGlyphs == nil {
		f.UsedGlyphs = make(map[rune]struct{})
	}
	for _, r := range s {
		f.UsedGlyphs[r] = struct{}{}
	}
}

// GlyphCount returns the number of distinct glyphs referenced so far.
func (f *FontEntry) GlyphCount() int {
	return len(f.UsedGlyphs)
}

// Warning is a non-fatal condition recorded against the document.
type Warning struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Page    int       `json:"page,omitempty"`
	RunID   string    `json:"run_id,omitempty"`
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("[%s] page %d: %s", w.Code, w.Page, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// Document is the root of the model. It owns the global font table and the
// warning list; it is created by parsing input bytes and discarded after both
// output variants are rendered.
type Document struct {
	Path     string                `json:"path"`
	Pages    []*Page               `json:"pages"`
	Fonts    map[string]*FontEntry `json:"fonts"`
	Warnings []Warning             `json:"warnings"`
}

// NewDocument returns an empty document for the given source path.
func NewDocument(path string) *Document {
	return &Document{
		Path:  path,
		Fonts: make(map[string]*FontEntry),
	}
}

// Font returns the entry for id, creating it on first use.
func (d *Document) Font(id, name string) *FontEntry {
	if e, ok := d.Fonts[id]; ok {
		return e
	}
	e := &FontEntry{ID: id, Name: name, UsedGlyphs: make(map[rune]struct{})}
	d.Fonts[id] = e
	return e
}

// AddWarning records a non-fatal condition on the document.
func (d *Document) AddWarning(w Warning) {
	d.Warnings = append(d.Warnings, w)
}

// TranslatableRuns returns all runs marked translatable, in page and region
// order. Output ordering downstream is keyed off this deterministic order,
// not off translation completion order.
func (d *Document) TranslatableRuns() []*TextRun {
	var runs []*TextRun
	for _, page := range d.Pages {
		for _, run := range page.Runs() {
			if run.IsTranslatable {
				runs = append(runs, run)
			}
		}
	}
	return runs
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}
