package typeset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"paper-translator/internal/doc"
	"paper-translator/internal/logger"
)

// substituteFonts maps target languages to the user font that can render
// them. Scripts pdfcpu's core fonts already cover fall through to Helvetica.
var substituteFonts = map[string]string{
	"ko":    "NotoSansKR",
	"zh":    "NotoSansSC",
	"zh-cn": "NotoSansSC",
	"zh-tw": "NotoSansTC",
	"ja":    "NotoSansJP",
	"ru":    "Helvetica",
}

const defaultOverlayFont = "Helvetica"

// SubstituteFor returns the overlay font name for a target language.
func SubstituteFor(langOut string) string {
	if name, ok := substituteFonts[strings.ToLower(langOut)]; ok {
		return name
	}
	return defaultOverlayFont
}

// InstallFont registers a TrueType font file with pdfcpu so watermark text
// can reference it by name. A missing path is not an error: rendering falls
// back to the core fonts, which covers Latin and Cyrillic targets.
func InstallFont(fontPath string) error {
	if fontPath == "" {
		return nil
	}
	if _, err := os.Stat(fontPath); err != nil {
		return doc.NewErrorWithDetails(doc.ErrRenderFailed,
			"overlay font file not found", fontPath, err)
	}
	if err := api.InstallFonts([]string{fontPath}); err != nil {
		return doc.NewError(doc.ErrRenderFailed, "failed to install overlay font", err)
	}
	logger.Info("overlay font installed", logger.String("path", fontPath))
	return nil
}

// prepareOverlayFont installs the user font for overlay text. With subsetting
// on, the installed font program is restricted to the glyph outlines the
// document actually uses; runes the font cannot map are recorded as warnings.
// Without a user font the core fonts cover the overlay and nothing is embedded.
func (r *Renderer) prepareOverlayFont(document *doc.Document) error {
	if r.fontPath == "" {
		return nil
	}
	installPath := r.fontPath
	if r.subsetFonts {
		if entry := document.Fonts[r.fontName]; entry != nil && entry.GlyphCount() > 0 {
			subsetPath, missing, err := writeSubsetFont(r.fontPath, entry)
			if err != nil {
				logger.Warn("font subsetting failed, embedding the full font", logger.Err(err))
			} else {
				defer os.RemoveAll(filepath.Dir(subsetPath))
				installPath = subsetPath
				for _, missed := range missing {
					document.AddWarning(doc.Warning{
						Code:    doc.ErrUnmappableGlyph,
						Message: fmt.Sprintf("overlay font has no glyph for %q", missed),
					})
				}
			}
		}
	}
	return InstallFont(installPath)
}

// writeSubsetFont stages a subset copy of the font in a temp directory under
// the original base name, so pdfcpu installs it under the same font name.
func writeSubsetFont(fontPath string, entry *doc.FontEntry) (string, []rune, error) {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return "", nil, err
	}
	subset, missing, err := SubsetFont(data, entry.UsedGlyphs)
	if err != nil {
		return "", nil, err
	}
	dir, err := os.MkdirTemp("", "paper-translator-font-")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, filepath.Base(fontPath))
	if err := os.WriteFile(path, subset, 0644); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	logger.Info("overlay font subset for embedding",
		logger.Int("glyphs", entry.GlyphCount()),
		logger.Int("full_bytes", len(data)),
		logger.Int("subset_bytes", len(subset)))
	return path, missing, nil
}

// RecordGlyphs walks the document and charges every translated run's glyphs
// to the substitute font's usage set, and untranslated runs' glyphs to their
// original fonts. The usage sets drive subsetting decisions.
func RecordGlyphs(document *doc.Document, substituteID string) {
	substitute := document.Font(substituteID, substituteID)
	for _, page := range document.Pages {
		for _, run := range page.Runs() {
			if run.HasTranslation {
				substitute.MarkUsed(run.Translation)
				continue
			}
			if run.FontID != "" {
				document.Font(run.FontID, run.FontID).MarkUsed(run.Text)
			}
		}
	}
}

// FinalizeSubsets marks every font's glyph set as complete. After this no
// further glyphs may be recorded; rendering embeds only what was used when
// subsetting is on, or the whole font otherwise.
func FinalizeSubsets(document *doc.Document, subset bool) {
	for _, entry := range document.Fonts {
		entry.Subset = subset
		entry.Finalized = true
	}
	logger.Debug("font subsets finalized",
		logger.Int("fonts", len(document.Fonts)),
		logger.Bool("subset", subset))
}
