package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"paper-translator/internal/config"
	"paper-translator/internal/engine"
	"paper-translator/internal/logger"
)

func main() {
	var (
		configPath   = flag.String("config", "", "path to config file (default ~/.config/paper-translator/config.json)")
		langIn       = flag.String("li", "", "source language (default auto)")
		langOut      = flag.String("lo", "", "target language")
		service      = flag.String("service", "", "translation service: openai or google")
		model        = flag.String("model", "", "model identifier for the openai service")
		threads      = flag.Int("threads", 0, "number of concurrent translation workers")
		pages        = flag.String("pages", "", "page range to translate, e.g. 1-5 or 1,3,10-12")
		outputDir    = flag.String("output", "", "directory for output files (default next to input)")
		fontPath     = flag.String("font", "", "TrueType font file for overlay text")
		ignoreCache  = flag.Bool("ignore-cache", false, "re-translate even when cached results exist")
		noCache      = flag.Bool("no-cache", false, "disable the persistent translation cache")
		noSubset     = flag.Bool("no-subset", false, "embed full fonts instead of subsets")
		overflow     = flag.String("overflow", "", "overflow policy: shrink or overflow")
		verbose      = flag.Bool("v", false, "enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input.pdf>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	logCfg := logger.DefaultConfig()
	if *verbose {
		logCfg.Level = logger.LevelDebug
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	manager, err := config.NewManager(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := manager.Load(); err != nil {
		fatal(err)
	}
	settings := manager.Settings()
	applyFlags(settings, *langIn, *langOut, *service, *model, *threads,
		*pages, *outputDir, *fontPath, *ignoreCache, *noCache, *noSubset, *overflow)

	eng, err := engine.New(settings)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Input:    %s\n", inputPath)
	fmt.Printf("Language: %s -> %s\n", settings.LangIn, settings.LangOut)
	fmt.Printf("Service:  %s\n", settings.Service)
	fmt.Println()

	result, err := eng.TranslateFile(ctx, inputPath)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Mono: %s\n", result.MonoPath)
	fmt.Printf("Dual: %s\n", result.DualPath)
	fmt.Printf("Units: %d translated, %d cached, %d failed (%.1fs)\n",
		result.Summary.TranslatedUnits, result.Summary.CachedUnits,
		result.Summary.FailedUnits, result.Summary.Duration.Seconds())
	if result.Summary.DegradedClassifier {
		fmt.Println("Note: layout model unavailable, classification used font heuristics only")
	}
	for _, w := range result.Warnings {
		if w.Page > 0 {
			fmt.Printf("Warning (page %d): %s\n", w.Page, w.Message)
		} else {
			fmt.Printf("Warning: %s\n", w.Message)
		}
	}
}

func applyFlags(s *config.Settings, langIn, langOut, service, model string,
	threads int, pages, outputDir, fontPath string,
	ignoreCache, noCache, noSubset bool, overflow string) {
	if langIn != "" {
		s.LangIn = langIn
	}
	if langOut != "" {
		s.LangOut = langOut
	}
	if service != "" {
		s.Service = service
	}
	if model != "" {
		s.Model = model
	}
	if threads > 0 {
		s.Threads = threads
	}
	if pages != "" {
		s.PageRange = pages
	}
	if outputDir != "" {
		s.OutputDir = outputDir
	}
	if fontPath != "" {
		s.FontPath = fontPath
	}
	if ignoreCache {
		s.IgnoreCache = true
	}
	if noCache {
		s.CacheEnabled = false
	}
	if noSubset {
		s.SubsetFonts = false
	}
	if overflow != "" {
		s.OverflowPolicy = config.OverflowPolicy(overflow)
	}
}

func fatal(err error) {
	logger.Error("fatal error", err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logger.Close()
	os.Exit(1)
}
