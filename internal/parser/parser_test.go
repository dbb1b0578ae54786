package parser

import (
	"os"
	"path/filepath"
	"testing"

	"paper-translator/internal/doc"
	"paper-translator/internal/pdftest"
)

func TestParseGeneratedPDF(t *testing.T) {
	path := pdftest.WriteSample(t, t.TempDir(), "Hello world", "E=mc2")

	document, err := New("").Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if document.PageCount() != 1 {
		t.Fatalf("Expected 1 page, got %d", document.PageCount())
	}
	page := document.Pages[0]
	if page.Width != 612 || page.Height != 792 {
		t.Errorf("Expected letter geometry, got %vx%v", page.Width, page.Height)
	}

	runs := page.Runs()
	if len(runs) != 2 {
		t.Fatalf("Expected 2 text runs, got %d", len(runs))
	}
	if runs[0].Text != "Hello world" || runs[1].Text != "E=mc2" {
		t.Errorf("Expected runs in reading order, got %q, %q", runs[0].Text, runs[1].Text)
	}
	for _, run := range runs {
		if run.FontID != "Helvetica" {
			t.Errorf("run %s: expected font Helvetica, got %q", run.ID, run.FontID)
		}
		if run.Box.Width <= 0 || run.Box.Height <= 0 {
			t.Errorf("run %s: expected a positive box, got %+v", run.ID, run.Box)
		}
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := New("").Parse(filepath.Join(t.TempDir(), "nope.pdf"))
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	if doc.CodeOf(err) != doc.ErrMalformedDocument {
		t.Errorf("Expected ErrMalformedDocument, got %v", doc.CodeOf(err))
	}
}

func TestParseDirectory(t *testing.T) {
	_, err := New("").Parse(t.TempDir())
	if err == nil {
		t.Fatal("Expected an error for a directory")
	}
	if doc.CodeOf(err) != doc.ErrMalformedDocument {
		t.Errorf("Expected ErrMalformedDocument, got %v", doc.CodeOf(err))
	}
}

func TestParseNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-pdf.pdf")
	if err := os.WriteFile(path, []byte("plain text, no PDF header"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err := New("").Parse(path)
	if err == nil {
		t.Fatal("Expected an error for a non-PDF file")
	}
	if doc.CodeOf(err) != doc.ErrMalformedDocument {
		t.Errorf("Expected ErrMalformedDocument, got %v", doc.CodeOf(err))
	}
}

func TestParseBytesMalformed(t *testing.T) {
	_, err := New("").ParseBytes([]byte("%PDF-1.4 truncated garbage"))
	if err == nil {
		t.Fatal("Expected an error for malformed bytes")
	}
	if doc.CodeOf(err) != doc.ErrMalformedDocument {
		t.Errorf("Expected ErrMalformedDocument, got %v", doc.CodeOf(err))
	}
}

func TestParseRealPDF(t *testing.T) {
	path := filepath.Join("testdata", "sample.pdf")
	if _, err := os.Stat(path); err != nil {
		t.Skip("no sample PDF fixture available")
	}

	document, err := New("").Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if document.PageCount() == 0 {
		t.Error("Expected at least one page")
	}
	for _, page := range document.Pages {
		if page.Width <= 0 || page.Height <= 0 {
			t.Errorf("page %d: expected positive geometry, got %vx%v",
				page.Number, page.Width, page.Height)
		}
	}
}

func TestSortRegionsReadingOrder(t *testing.T) {
	page := &doc.Page{Number: 1, Width: 612, Height: 792}
	// Bottom-left origin: higher Y is higher on the page.
	add := func(id string, x, y float64) {
		page.Regions = append(page.Regions, &doc.Region{
			Box:  doc.BBox{X: x, Y: y, Width: 100, Height: 12},
			Runs: []*doc.TextRun{{ID: id}},
		})
	}
	add("footer", 50, 30)
	add("title", 200, 700)
	add("left column", 50, 400)
	add("right column", 320, 402) // same line as left column within tolerance

	sortRegions(page)

	got := make([]string, 0, len(page.Regions))
	for _, region := range page.Regions {
		got = append(got, region.Runs[0].ID)
	}
	want := []string{"title", "left column", "right column", "footer"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}
}
