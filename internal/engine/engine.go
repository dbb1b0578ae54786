// Package engine runs the full translation pipeline: parse, classify,
// translate, typeset.
package engine

import (
	"context"
	"time"

	"paper-translator/internal/cache"
	"paper-translator/internal/config"
	"paper-translator/internal/dispatch"
	"paper-translator/internal/doc"
	"paper-translator/internal/layout"
	"paper-translator/internal/logger"
	"paper-translator/internal/parser"
	"paper-translator/internal/translator"
	"paper-translator/internal/typeset"
)

// Summary aggregates what happened during a translation run.
type Summary struct {
	Pages              int
	TotalUnits         int
	TranslatedUnits    int
	CachedUnits        int
	FailedUnits        int
	UnmappedGlyphs     int
	UntranslatedPages  int
	DegradedClassifier bool
	UsedFallback       bool
	Duration           time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	MonoPath string
	DualPath string
	Summary  Summary
	Warnings []doc.Warning
}

// Engine translates PDF documents according to its settings.
type Engine struct {
	settings *config.Settings
}

// newBackend is swapped in tests to run the pipeline without a live service.
var newBackend = translator.New

// New creates an engine. Settings are validated here so later stages can
// assume they are well formed.
func New(settings *config.Settings) (*Engine, error) {
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Engine{settings: settings}, nil
}

// TranslateFile runs the full pipeline on inputPath and writes the mono and
// dual PDFs next to it (or into the configured output directory). On
// cancellation no output files are left behind.
func (e *Engine) TranslateFile(ctx context.Context, inputPath string) (*Result, error) {
	start := time.Now()
	s := e.settings

	if err := translator.ValidatePair(s.LangIn, s.LangOut); err != nil {
		return nil, err
	}

	document, err := parser.New(s.PageRange).Parse(inputPath)
	if err != nil {
		return nil, err
	}
	logger.Info("document parsed",
		logger.String("input", inputPath),
		logger.Int("pages", document.PageCount()))

	classifier, err := layout.NewClassifier(s)
	if err != nil {
		return nil, err
	}
	defer classifier.Close()
	if err := classifier.Classify(document); err != nil {
		return nil, err
	}

	backend, err := newBackend(s.Service, s)
	if err != nil {
		return nil, err
	}
	var fallback translator.Backend
	if s.FallbackService != "" && s.FallbackService != s.Service {
		fallback, err = newBackend(s.FallbackService, s)
		if err != nil {
			logger.Warn("fallback service unavailable", logger.Err(err))
			fallback = nil
		}
	}

	store, err := e.openCache()
	if err != nil {
		logger.Warn("translation cache unavailable, continuing without it",
			logger.Err(err))
		store = nil
	}
	defer store.Close()

	units := dispatch.Collect(document, s.LangIn, s.LangOut, s.Model)
	dispatcher := dispatch.NewDispatcher(dispatch.Options{
		Backend:  backend,
		Fallback: fallback,
		Store:    store,
		LangIn:   s.LangIn,
		LangOut:  s.LangOut,
		Model:    s.Model,
		Settings: s,
	})
	if err := dispatcher.TranslateAll(ctx, units); err != nil {
		return nil, err
	}
	dispatch.Apply(units)

	// A cancellation that arrives after translation but before rendering
	// still produces no output files.
	if err := ctx.Err(); err != nil {
		return nil, doc.NewError(doc.ErrCancelled, "translation cancelled", err)
	}

	renderer, err := typeset.NewRenderer(s)
	if err != nil {
		return nil, err
	}
	typeset.RecordGlyphs(document, renderer.FontName())
	typeset.FinalizeSubsets(document, s.SubsetFonts)
	monoPath, dualPath := typeset.OutputPaths(inputPath, s.LangOut, s.OutputDir)
	if err := renderer.RenderMono(document, monoPath); err != nil {
		typeset.CleanupPartial(monoPath, dualPath)
		return nil, err
	}
	if err := renderer.RenderDual(inputPath, monoPath, dualPath); err != nil {
		typeset.CleanupPartial(monoPath, dualPath)
		return nil, err
	}

	result := &Result{
		MonoPath: monoPath,
		DualPath: dualPath,
		Summary:  summarize(document, units, classifier.Degraded(), dispatcher.UsedFallback(), time.Since(start)),
		Warnings: document.Warnings,
	}
	logger.Info("translation complete",
		logger.String("mono", monoPath),
		logger.String("dual", dualPath),
		logger.Int("translated", result.Summary.TranslatedUnits),
		logger.Int("cached", result.Summary.CachedUnits),
		logger.Int("failed", result.Summary.FailedUnits))
	return result, nil
}

// Analyze parses and classifies a document without translating it. Useful
// for inspecting what a run would translate.
func (e *Engine) Analyze(inputPath string) (*doc.Document, error) {
	document, err := parser.New(e.settings.PageRange).Parse(inputPath)
	if err != nil {
		return nil, err
	}
	classifier, err := layout.NewClassifier(e.settings)
	if err != nil {
		return nil, err
	}
	defer classifier.Close()
	if err := classifier.Classify(document); err != nil {
		return nil, err
	}
	return document, nil
}

func (e *Engine) openCache() (*cache.Store, error) {
	if !e.settings.CacheEnabled {
		return cache.OpenMemory()
	}
	path := e.settings.CachePath
	if path == "" {
		path = config.DefaultCachePath()
	}
	return cache.Open(path)
}

func summarize(document *doc.Document, units []*dispatch.Unit, degraded, usedFallback bool, elapsed time.Duration) Summary {
	s := Summary{
		Pages:              document.PageCount(),
		TotalUnits:         len(units),
		DegradedClassifier: degraded,
		UsedFallback:       usedFallback,
		Duration:           elapsed,
	}
	for _, unit := range units {
		switch {
		case unit.Failed:
			s.FailedUnits++
		case unit.FromCache:
			s.CachedUnits++
		case unit.Translation != "":
			s.TranslatedUnits++
		}
	}
	for _, w := range document.Warnings {
		switch w.Code {
		case doc.ErrUnmappableGlyph:
			s.UnmappedGlyphs++
		case doc.ErrRenderFailed:
			s.UntranslatedPages++
		}
	}
	return s
}
