package parser

import (
	"testing"

	"paper-translator/internal/doc"
)

func TestKindForRun(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		fontSize float64
		isBold   bool
		want     doc.Kind
	}{
		{"plain prose", "The model achieves strong results on all benchmarks over long training runs.", 10, false, doc.KindBody},
		{"figure caption", "Figure 3: Attention weights per layer", 9, false, doc.KindCaption},
		{"table caption", "Table 1: Results on the test set", 9, false, doc.KindCaption},
		{"references heading", "References", 12, false, doc.KindReference},
		{"numbered heading", "3.2 Experimental Setup", 12, false, doc.KindHeading},
		{"named section", "Introduction", 14, true, doc.KindHeading},
		{"bold uppercase heading", "RELATED WORK", 10, true, doc.KindHeading},
		{"equation", "f(n) = 2n - 1", 10, false, doc.KindFormula},
		{"integral", "∫ f(x) dx", 10, false, doc.KindFormula},
		{"subscript heavy", "x_i^2 + y_j^2 = z_k^2", 10, false, doc.KindFormula},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := kindForRun(tc.text, tc.fontSize, tc.isBold)
			if got != tc.want {
				t.Errorf("kindForRun(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestLooksLikeFormula(t *testing.T) {
	formulas := []string{
		"a + b = c",
		"∑ x_i",
		"f(x) = 2x - 1",
	}
	for _, text := range formulas {
		if !looksLikeFormula(text) {
			t.Errorf("Expected %q recognized as formula", text)
		}
	}

	prose := []string{
		"Neural networks have transformed natural language processing.",
		"We describe the training procedure in the next section.",
	}
	for _, text := range prose {
		if looksLikeFormula(text) {
			t.Errorf("Expected %q recognized as prose", text)
		}
	}
}

func TestFontKey(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"ABCDEF+CMR10", "CMR10"},
		{"CMR10", "CMR10"},
		{"", "unknown"},
		{"XYZZYQ+NimbusRomNo9L-Regu", "NimbusRomNo9L-Regu"},
	}
	for _, tc := range testCases {
		if got := fontKey(tc.in); got != tc.want {
			t.Errorf("fontKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsPostScriptCode(t *testing.T) {
	code := []string{
		"/BU.S /URI /Type def",
		"gsave newpath moveto",
		"null def",
	}
	for _, text := range code {
		if !isPostScriptCode(text) {
			t.Errorf("Expected %q flagged as operator code", text)
		}
	}

	prose := []string{
		"See https://example.org/path/to/paper for details.",
		"The quick brown fox.",
	}
	for _, text := range prose {
		if isPostScriptCode(text) {
			t.Errorf("Expected %q kept as text", text)
		}
	}
}
