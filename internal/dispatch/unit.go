// Package dispatch turns a parsed document into deduplicated translation
// units and drives them through a translation backend with a bounded worker
// pool, request rate limiting, retries and a fallback service.
package dispatch

import (
	"strings"

	"paper-translator/internal/cache"
	"paper-translator/internal/doc"
)

// Unit is one unique piece of text to translate. Several runs across the
// document may share a unit when their normalized text is identical.
type Unit struct {
	Fingerprint string
	Text        string
	Runs        []*doc.TextRun

	Translation string
	FromCache   bool
	Failed      bool
}

// Collect gathers the translatable runs of a document into units, merging
// runs with the same fingerprint. Unit order follows first appearance.
func Collect(document *doc.Document, langIn, langOut, model string) []*Unit {
	byFingerprint := make(map[string]*Unit)
	var units []*Unit

	for _, run := range document.TranslatableRuns() {
		text := strings.TrimSpace(run.Text)
		if text == "" {
			continue
		}
		fp := cache.Fingerprint(text, langIn, langOut, model)
		if unit, ok := byFingerprint[fp]; ok {
			unit.Runs = append(unit.Runs, run)
			continue
		}
		unit := &Unit{Fingerprint: fp, Text: text, Runs: []*doc.TextRun{run}}
		byFingerprint[fp] = unit
		units = append(units, unit)
	}
	return units
}

// Apply writes completed translations back onto the runs. Failed units keep
// their original text untouched.
func Apply(units []*Unit) {
	for _, unit := range units {
		if unit.Failed || unit.Translation == "" {
			continue
		}
		for _, run := range unit.Runs {
			run.SetTranslation(unit.Translation, unit.FromCache)
		}
	}
}
