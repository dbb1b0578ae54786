package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"paper-translator/internal/config"
	"paper-translator/internal/dispatch"
	"paper-translator/internal/doc"
	"paper-translator/internal/pdftest"
	"paper-translator/internal/translator"
)

func TestNewValidatesSettings(t *testing.T) {
	s := config.Default()
	s.Threads = 0
	if _, err := New(s); err == nil {
		t.Error("Expected invalid settings rejected")
	}

	if _, err := New(config.Default()); err != nil {
		t.Errorf("Expected default settings accepted, got %v", err)
	}
}

func TestNewNilSettingsUsesDefaults(t *testing.T) {
	eng, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) failed: %v", err)
	}
	if eng.settings.Service != config.DefaultService {
		t.Errorf("Expected default service, got %q", eng.settings.Service)
	}
}

func TestTranslateFileInvalidLanguagePair(t *testing.T) {
	s := config.Default()
	s.LangOut = "notalang"
	eng, err := New(s)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = eng.TranslateFile(context.Background(), "whatever.pdf")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if doc.CodeOf(err) != doc.ErrInvalidLanguagePair {
		t.Errorf("Expected ErrInvalidLanguagePair, got %v", doc.CodeOf(err))
	}
}

func TestTranslateFileMissingInput(t *testing.T) {
	eng, err := New(config.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = eng.TranslateFile(context.Background(), "does-not-exist.pdf")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if doc.CodeOf(err) != doc.ErrMalformedDocument {
		t.Errorf("Expected ErrMalformedDocument, got %v", doc.CodeOf(err))
	}
}

func TestSummarize(t *testing.T) {
	document := doc.NewDocument("test.pdf")
	document.Pages = []*doc.Page{{Number: 1}, {Number: 2}}
	document.AddWarning(doc.Warning{Code: doc.ErrUnmappableGlyph, Page: 1})
	document.AddWarning(doc.Warning{Code: doc.ErrUnmappableGlyph, Page: 2})
	document.AddWarning(doc.Warning{Code: doc.ErrRenderFailed, Page: 2})

	units := []*dispatch.Unit{
		{Text: "a", Translation: "x"},
		{Text: "b", Translation: "y", FromCache: true},
		{Text: "c", Failed: true},
		{Text: "d", Translation: "z"},
	}

	s := summarize(document, units, true, true, 3*time.Second)

	if s.Pages != 2 {
		t.Errorf("Expected 2 pages, got %d", s.Pages)
	}
	if s.TotalUnits != 4 {
		t.Errorf("Expected 4 units, got %d", s.TotalUnits)
	}
	if s.TranslatedUnits != 2 {
		t.Errorf("Expected 2 translated units, got %d", s.TranslatedUnits)
	}
	if s.CachedUnits != 1 {
		t.Errorf("Expected 1 cached unit, got %d", s.CachedUnits)
	}
	if s.FailedUnits != 1 {
		t.Errorf("Expected 1 failed unit, got %d", s.FailedUnits)
	}
	if s.UnmappedGlyphs != 2 {
		t.Errorf("Expected 2 unmapped glyph warnings, got %d", s.UnmappedGlyphs)
	}
	if s.UntranslatedPages != 1 {
		t.Errorf("Expected 1 untranslated page, got %d", s.UntranslatedPages)
	}
	if !s.DegradedClassifier || !s.UsedFallback {
		t.Error("Expected degraded and fallback flags carried through")
	}
	if s.Duration != 3*time.Second {
		t.Errorf("Expected duration recorded, got %v", s.Duration)
	}
}

type stubBackend struct{}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Translate(ctx context.Context, texts []string, langIn, langOut string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "Traduction: " + text
	}
	return out, nil
}

func withStubBackend(t *testing.T) {
	t.Helper()
	orig := newBackend
	newBackend = func(service string, settings *config.Settings) (translator.Backend, error) {
		return &stubBackend{}, nil
	}
	t.Cleanup(func() { newBackend = orig })
}

func pipelineSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.Default()
	s.LangOut = "fr"
	s.CacheEnabled = false
	s.OutputDir = t.TempDir()
	return s
}

func TestTranslateFileEndToEnd(t *testing.T) {
	input := pdftest.WriteSample(t, t.TempDir(), "Hello world", "The quick brown fox")
	s := pipelineSettings(t)
	withStubBackend(t)

	eng, err := New(s)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	result, err := eng.TranslateFile(context.Background(), input)
	if err != nil {
		t.Fatalf("TranslateFile failed: %v", err)
	}

	monoPages, err := api.PageCountFile(result.MonoPath)
	if err != nil {
		t.Fatalf("Mono PDF unreadable: %v", err)
	}
	if monoPages != 1 {
		t.Errorf("Expected 1 mono page, got %d", monoPages)
	}

	dualPages, err := api.PageCountFile(result.DualPath)
	if err != nil {
		t.Fatalf("Dual PDF unreadable: %v", err)
	}
	if dualPages != 2*monoPages {
		t.Errorf("Expected the dual PDF to double the page count, got %d for %d", dualPages, monoPages)
	}

	if result.Summary.Pages != 1 {
		t.Errorf("Expected 1 page in the summary, got %d", result.Summary.Pages)
	}
	if result.Summary.TranslatedUnits < 1 {
		t.Errorf("Expected at least 1 translated unit, got %d", result.Summary.TranslatedUnits)
	}
	if result.Summary.FailedUnits != 0 {
		t.Errorf("Expected no failed units, got %d", result.Summary.FailedUnits)
	}
}

func TestTranslateFileCancelledWritesNoOutput(t *testing.T) {
	input := pdftest.WriteSample(t, t.TempDir(), "Hello world")
	s := pipelineSettings(t)
	withStubBackend(t)

	eng, err := New(s)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.TranslateFile(ctx, input)
	if err == nil {
		t.Fatal("Expected an error from a cancelled run")
	}
	if doc.CodeOf(err) != doc.ErrCancelled {
		t.Errorf("Expected ErrCancelled, got %v", doc.CodeOf(err))
	}

	entries, err := os.ReadDir(s.OutputDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected no output files from a cancelled run, found %v", names)
	}
}
