package typeset

import (
	"path/filepath"
	"testing"
)

func TestOutputPaths(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		langOut   string
		outputDir string
		wantMono  string
		wantDual  string
	}{
		{
			name:     "next to input",
			input:    "/papers/attention.pdf",
			langOut:  "ko",
			wantMono: "/papers/attention-ko-mono.pdf",
			wantDual: "/papers/attention-ko-dual.pdf",
		},
		{
			name:      "explicit output dir",
			input:     "/papers/attention.pdf",
			langOut:   "zh",
			outputDir: "/out",
			wantMono:  "/out/attention-zh-mono.pdf",
			wantDual:  "/out/attention-zh-dual.pdf",
		},
		{
			name:     "no extension",
			input:    "/papers/report",
			langOut:  "ja",
			wantMono: "/papers/report-ja-mono.pdf",
			wantDual: "/papers/report-ja-dual.pdf",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mono, dual := OutputPaths(tc.input, tc.langOut, tc.outputDir)
			if mono != filepath.FromSlash(tc.wantMono) {
				t.Errorf("mono: expected %q, got %q", tc.wantMono, mono)
			}
			if dual != filepath.FromSlash(tc.wantDual) {
				t.Errorf("dual: expected %q, got %q", tc.wantDual, dual)
			}
		})
	}
}

func TestSubstituteFor(t *testing.T) {
	testCases := []struct {
		lang string
		want string
	}{
		{"ko", "NotoSansKR"},
		{"zh", "NotoSansSC"},
		{"zh-TW", "NotoSansTC"},
		{"ja", "NotoSansJP"},
		{"de", "Helvetica"},
		{"fr", "Helvetica"},
	}
	for _, tc := range testCases {
		if got := SubstituteFor(tc.lang); got != tc.want {
			t.Errorf("SubstituteFor(%q) = %q, want %q", tc.lang, got, tc.want)
		}
	}
}

func TestPageIndex(t *testing.T) {
	testCases := []struct {
		path string
		want int
	}{
		{"/tmp/x/doc_1.pdf", 1},
		{"/tmp/x/doc_12.pdf", 12},
		{"/tmp/x/doc-3.pdf", 3},
		{"/tmp/x/doc.pdf", 0},
	}
	for _, tc := range testCases {
		if got := pageIndex(tc.path); got != tc.want {
			t.Errorf("pageIndex(%q) = %d, want %d", tc.path, got, tc.want)
		}
	}
}
