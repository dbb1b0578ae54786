// Package parser builds the document model from PDF bytes. It extracts text
// runs with font and position information, assigns a first-pass kind to each
// region, and records glyph-mapping problems as warnings instead of failing
// the whole document.
package parser

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"paper-translator/internal/doc"
	"paper-translator/internal/logger"
)

// Parser turns a PDF file into a doc.Document.
type Parser struct {
	pageRange string
}

// New creates a Parser. pageRange limits extraction to the selected pages
// ("1-5", "1,5,10-15"); empty means all pages.
func New(pageRange string) *Parser {
	return &Parser{pageRange: pageRange}
}

// Parse reads the PDF at path and builds the document model. It fails with
// an encrypted- or malformed-document error when the file cannot be read;
// glyphs that cannot be mapped to Unicode degrade to per-run warnings.
func (p *Parser) Parse(path string) (*doc.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, doc.NewError(doc.ErrMalformedDocument, "input file does not exist", err)
		}
		return nil, doc.NewError(doc.ErrMalformedDocument, "cannot access input file", err)
	}
	if info.IsDir() {
		return nil, doc.NewError(doc.ErrMalformedDocument, "input path is a directory", nil)
	}

	// pdfcpu reads the full cross-reference table, which catches encryption
	// and structural corruption before text extraction starts.
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
			return nil, doc.NewError(doc.ErrEncryptedDocument, "document is encrypted and no password was supplied", err)
		}
		return nil, doc.NewError(doc.ErrMalformedDocument, "input is not a valid PDF", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, doc.NewError(doc.ErrMalformedDocument, "failed to read page geometry", err)
	}

	selected, err := ParsePageRange(p.pageRange, ctx.PageCount)
	if err != nil {
		return nil, doc.NewError(doc.ErrMalformedDocument, "invalid page range", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, doc.NewError(doc.ErrMalformedDocument, "cannot open PDF for text extraction", err)
	}
	defer f.Close()

	d := doc.NewDocument(path)
	runID := 0

	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		if !selected[pageNum] {
			continue
		}

		page := &doc.Page{Number: pageNum}
		if pageNum-1 < len(dims) {
			page.Width = dims[pageNum-1].Width
			page.Height = dims[pageNum-1].Height
		}

		pg := r.Page(pageNum)
		if pg.V.IsNull() || pg.V.Key("Contents").Kind() == pdf.Null {
			d.Pages = append(d.Pages, page)
			continue
		}

		rows, err := pg.GetTextByRow()
		if err != nil {
			d.AddWarning(doc.Warning{
				Code:    doc.ErrMalformedDocument,
				Message: fmt.Sprintf("text extraction failed: %v", err),
				Page:    pageNum,
			})
			d.Pages = append(d.Pages, page)
			continue
		}

		for _, row := range rows {
			run := p.mergeRow(d, pageNum, row)
			if run == nil {
				continue
			}
			runID++
			run.ID = fmt.Sprintf("run_%d", runID)

			if strings.Contains(run.Text, "(cid:") {
				d.AddWarning(doc.Warning{
					Code:    doc.ErrUnmappableGlyph,
					Message: "glyphs without Unicode mapping kept as-is",
					Page:    pageNum,
					RunID:   run.ID,
				})
			}

			page.Regions = append(page.Regions, &doc.Region{
				Kind: kindForRun(run.Text, run.FontSize, isBoldFont(d.Fonts[run.FontID])),
				Box:  run.Box,
				Runs: []*doc.TextRun{run},
			})
		}

		sortRegions(page)
		d.Pages = append(d.Pages, page)
	}

	logger.Info("document parsed",
		logger.String("path", path),
		logger.Int("pages", len(d.Pages)),
		logger.Int("runs", runID),
		logger.Int("fonts", len(d.Fonts)))

	return d, nil
}

// ParseBytes parses an in-memory PDF by staging it in a temp file.
func (p *Parser) ParseBytes(data []byte) (*doc.Document, error) {
	tmp, err := os.CreateTemp("", "paper-translator-*.pdf")
	if err != nil {
		return nil, doc.NewError(doc.ErrMalformedDocument, "failed to stage input bytes", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, doc.NewError(doc.ErrMalformedDocument, "failed to stage input bytes", err)
	}
	tmp.Close()
	return p.Parse(tmp.Name())
}

// mergeRow collapses one extracted row into a text run, filtering out
// PostScript operator garbage and rows with excessive control characters.
func (p *Parser) mergeRow(d *doc.Document, pageNum int, row *pdf.Row) *doc.TextRun {
	if len(row.Content) == 0 {
		return nil
	}

	var sb strings.Builder
	var minX, maxX, minY, maxY float64
	var totalFontSize float64
	var fontName string
	count := 0

	for _, text := range row.Content {
		if text.S == "" || isPostScriptCode(text.S) {
			continue
		}
		sb.WriteString(text.S)
		if count == 0 {
			minX, maxX, minY, maxY = text.X, text.X, text.Y, text.Y
			fontName = text.Font
		} else {
			minX = min(minX, text.X)
			maxX = max(maxX, text.X)
			minY = min(minY, text.Y)
			maxY = max(maxY, text.Y)
		}
		totalFontSize += text.FontSize
		count++
	}

	text := strings.TrimSpace(sb.String())
	if text == "" || isPostScriptCode(text) || hasExcessiveNonPrintable(text) {
		return nil
	}

	avgFontSize := totalFontSize / float64(count)
	if avgFontSize <= 0 {
		avgFontSize = 10.0
	}

	// Width from glyph positions when available, otherwise estimated from
	// text length. Height from the font size.
	width := float64(len(text)) * avgFontSize * 0.5
	if maxX > minX {
		width = max(width, maxX-minX+avgFontSize)
	}
	height := max(maxY-minY, avgFontSize*1.2)

	entry := d.Font(fontKey(fontName), fontName)

	return &doc.TextRun{
		Page:     pageNum,
		Text:     text,
		FontID:   entry.ID,
		FontSize: avgFontSize,
		X:        minX,
		Y:        minY,
		Box:      doc.BBox{X: minX, Y: minY, Width: width, Height: height},
	}
}

// fontKey normalizes subset-prefixed font names ("ABCDEF+CMR10" -> "CMR10").
func fontKey(name string) string {
	if i := strings.LastIndex(name, "+"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	if name == "" {
		return "unknown"
	}
	return name
}

func isBoldFont(e *doc.FontEntry) bool {
	if e == nil {
		return false
	}
	return strings.Contains(strings.ToLower(e.Name), "bold")
}

// sortRegions orders regions top-to-bottom, left-to-right. PDF coordinates
// have their origin at the bottom-left, so higher Y means higher on the page.
func sortRegions(page *doc.Page) {
	const yTolerance = 5.0
	sort.SliceStable(page.Regions, func(i, j int) bool {
		a, b := page.Regions[i].Box, page.Regions[j].Box
		if abs(a.Y-b.Y) < yTolerance {
			return a.X < b.X
		}
		return a.Y > b.Y
	})
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// isPostScriptCode reports whether text looks like PDF operator code that
// leaked into extraction rather than document text.
func isPostScriptCode(text string) bool {
	if len(text) == 0 {
		return false
	}
	lower := strings.ToLower(text)

	if (strings.Contains(text, " def ") || strings.HasSuffix(text, " def")) && strings.Contains(text, "/") {
		return true
	}
	if strings.Contains(lower, "null def") {
		return true
	}
	for _, marker := range []string{"@stx", "@etx", "/burl", "burl@"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, op := range []string{
		"currentpoint", "gsave", "grestore", "newpath", "closepath",
		"setrgbcolor", "setgray", "setlinewidth", "showpage",
		"moveto", "lineto", "curveto",
	} {
		if strings.Contains(lower, op) {
			return true
		}
	}

	// Several PostScript-style /Name tokens in a row is operator code, not
	// prose. URLs also carry slashes, so skip them.
	if !strings.Contains(text, "://") && !strings.Contains(lower, "http") {
		nameCount := 0
		for _, word := range strings.Fields(text) {
			if len(word) > 1 && word[0] == '/' && isIdentifier(word[1:]) {
				nameCount++
			}
		}
		if nameCount >= 3 {
			return true
		}
	}
	return false
}

func isIdentifier(s string) bool {
	for _, c := range s {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '@' {
			return false
		}
	}
	return true
}

// hasExcessiveNonPrintable reports whether more than 10% of the characters
// are control characters.
func hasExcessiveNonPrintable(text string) bool {
	if len(text) == 0 {
		return false
	}
	bad := 0
	for _, r := range text {
		if (r < 32 && r != '\n' && r != '\r' && r != '\t') || (r >= 0x7F && r <= 0x9F) {
			bad++
		}
	}
	return float64(bad)/float64(len(text)) > 0.1
}
