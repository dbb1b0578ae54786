// Package pdftest builds small single-page PDF fixtures for tests. The files
// are assembled byte by byte so both the structural reader and the text
// extractor accept them without external tooling.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteSample writes a one-page PDF containing the given text lines into dir
// and returns its path.
func WriteSample(t testing.TB, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "sample.pdf")
	if err := os.WriteFile(path, Sample(lines...), 0644); err != nil {
		t.Fatalf("writing PDF fixture: %v", err)
	}
	return path
}

// Sample returns the bytes of a one-page letter-sized PDF that shows the
// given text lines in Helvetica 12pt, top to bottom.
func Sample(lines ...string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("0 -40 Td\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapeString(line))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		fontObject(),
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefPos := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&out, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefPos)
	return out.Bytes()
}

// fontObject declares Helvetica with a flat widths array so extraction
// reports usable glyph positions.
func fontObject() string {
	widths := make([]string, 0, 95)
	for i := 32; i <= 126; i++ {
		widths = append(widths, "500")
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica "+
		"/FirstChar 32 /LastChar 126 /Widths [%s] >>", strings.Join(widths, " "))
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	return s
}
