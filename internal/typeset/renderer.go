package typeset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"paper-translator/internal/config"
	"paper-translator/internal/doc"
	"paper-translator/internal/logger"
)

// Renderer produces the translated output PDFs from a document whose runs
// carry translations.
type Renderer struct {
	fontName       string
	fontPath       string
	subsetFonts    bool
	overflowPolicy config.OverflowPolicy
	conf           *model.Configuration
}

// NewRenderer builds a renderer. fontPath, when set, points at a TrueType
// font that is installed and used for overlay text; otherwise a built-in
// substitute for the target language is used. Installation happens when the
// mono PDF is rendered, once the document's glyph usage is known.
func NewRenderer(settings *config.Settings) (*Renderer, error) {
	fontName := SubstituteFor(settings.LangOut)
	if settings.FontPath != "" {
		if _, err := os.Stat(settings.FontPath); err != nil {
			return nil, doc.NewErrorWithDetails(doc.ErrRenderFailed,
				"overlay font file not found", settings.FontPath, err)
		}
		name := filepath.Base(settings.FontPath)
		fontName = strings.TrimSuffix(name, filepath.Ext(name))
	}
	policy := settings.OverflowPolicy
	if policy == "" {
		policy = config.OverflowShrink
	}
	return &Renderer{
		fontName:       fontName,
		fontPath:       settings.FontPath,
		subsetFonts:    settings.SubsetFonts,
		overflowPolicy: policy,
		conf:           model.NewDefaultConfiguration(),
	}, nil
}

// FontName returns the name overlay text is set in. Glyph usage must be
// charged against this name for subsetting to see it.
func (r *Renderer) FontName() string {
	return r.fontName
}

// RenderMono writes the translated-only PDF: a copy of the original with
// every translated run covered by a white rectangle and replaced by overlay
// text. Pages whose overlay fails keep their original content and the
// failure is recorded as a warning.
func (r *Renderer) RenderMono(document *doc.Document, outputPath string) error {
	if err := r.prepareOverlayFont(document); err != nil {
		return err
	}
	if err := copyFile(document.Path, outputPath); err != nil {
		return err
	}

	for _, page := range document.Pages {
		if err := r.renderPage(document, page, outputPath); err != nil {
			logger.Warn("page overlay failed, keeping original page",
				logger.Int("page", page.Number), logger.Err(err))
			document.AddWarning(doc.Warning{
				Code:    doc.ErrRenderFailed,
				Message: fmt.Sprintf("overlay failed, page kept untranslated: %v", err),
				Page:    page.Number,
			})
		}
	}

	if err := api.ValidateFile(outputPath, r.conf); err != nil {
		CleanupPartial(outputPath)
		return doc.NewError(doc.ErrRenderFailed, "output PDF failed validation", err)
	}
	logger.Info("mono PDF rendered", logger.String("output", filepath.Base(outputPath)))
	return nil
}

// renderPage applies every translated run of one page to the output file in a
// single rewrite. Pages without translations leave the file untouched.
func (r *Renderer) renderPage(document *doc.Document, page *doc.Page, outputPath string) error {
	wms := r.pageWatermarks(page)
	if len(wms) == 0 {
		return nil
	}
	m := map[int][]*model.Watermark{page.Number: wms}
	if err := api.AddWatermarksSliceMapFile(outputPath, "", m, r.conf); err != nil {
		return doc.NewErrorWithPage(doc.ErrRenderFailed, "failed to overlay page", page.Number, err)
	}
	return nil
}

// pageWatermarks builds the overlay stack for one page: a white cover
// rectangle followed by the replacement text, per translated run. pdfcpu
// applies the slice in order, so each text lands on top of its cover.
func (r *Renderer) pageWatermarks(page *doc.Page) []*model.Watermark {
	var wms []*model.Watermark
	for _, run := range page.Runs() {
		if !run.HasTranslation || strings.TrimSpace(run.Translation) == "" {
			continue
		}
		box := run.Box
		fontSize, fits := FitFontSize(run.Translation, run.FontSize, box.Width, box.Height, r.overflowPolicy)
		if !fits {
			logger.Debug("translation does not fit its box",
				logger.Int("page", page.Number),
				logger.String("run", run.ID),
				logger.Float64("size", fontSize))
		}
		wms = append(wms,
			r.coverWatermark(page, box),
			r.textWatermark(prepareOverlayText(run.Translation), page, box, fontSize))
	}
	return wms
}

// coverWatermark paints a white rectangle over the original text.
func (r *Renderer) coverWatermark(page *doc.Page, box doc.BBox) *model.Watermark {
	bg := color.White
	wm := newWatermark()
	wm.Mode = model.WMText
	wm.TextString = " "
	wm.FontName = "Helvetica"
	wm.FontSize = int(box.Height)
	wm.ScaledFontSize = int(box.Height)
	wm.BgColor = &bg
	wm.Opacity = 1.0
	wm.OnTop = true
	wm.Pos = types.TopLeft
	wm.Dx = box.X
	wm.Dy = -topOffset(page, box)
	wm.Width = int(box.Width)
	wm.Height = int(box.Height)
	return wm
}

func (r *Renderer) textWatermark(text string, page *doc.Page, box doc.BBox, fontSize float64) *model.Watermark {
	wm := newWatermark()
	wm.Mode = model.WMText
	wm.TextString = text
	wm.FontName = r.fontName
	wm.FontSize = int(fontSize)
	wm.ScaledFontSize = int(fontSize)
	wm.Color = color.Black
	wm.Opacity = 1.0
	wm.OnTop = true
	wm.Update = false
	wm.Pos = types.TopLeft
	wm.Dx = box.X
	wm.Dy = -topOffset(page, box)
	wm.Width = int(box.Width)
	wm.Height = int(box.Height)
	return wm
}

// newWatermark returns a zero-valued watermark whose internal caches are
// initialized. pdfcpu's form cache type is unexported, so the caches can only
// be obtained from DefaultWatermarkConfig; every other field is reset to its
// zero value.
func newWatermark() *model.Watermark {
	def := model.DefaultWatermarkConfig()
	wm := &model.Watermark{}
	wm.PdfRes = def.PdfRes
	wm.Objs = def.Objs
	wm.FCache = def.FCache
	wm.TextLines = def.TextLines
	return wm
}

// topOffset converts the bottom-left PDF coordinates of a box into the
// distance from the top of the page, which is what a TopLeft-anchored
// watermark offset expects.
func topOffset(page *doc.Page, box doc.BBox) float64 {
	return page.Height - (box.Y + box.Height)
}

// prepareOverlayText flattens the translation to a single string safe for a
// watermark: newlines collapse to spaces, parentheses and backslashes are
// escaped for the PDF string syntax.
func prepareOverlayText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, ")", "\\)")
	return text
}

// RenderDual builds the side-by-side PDF: original and translated pages
// interleaved, original first, so the result has twice the page count.
func (r *Renderer) RenderDual(originalPath, monoPath, outputPath string) error {
	workDir, err := os.MkdirTemp("", "paper-translator-dual-")
	if err != nil {
		return doc.NewError(doc.ErrRenderFailed, "failed to create work directory", err)
	}
	defer os.RemoveAll(workDir)

	originalPages, err := splitPages(originalPath, filepath.Join(workDir, "original"))
	if err != nil {
		return err
	}
	monoPages, err := splitPages(monoPath, filepath.Join(workDir, "mono"))
	if err != nil {
		return err
	}
	if len(originalPages) != len(monoPages) {
		return doc.NewErrorWithDetails(doc.ErrRenderFailed,
			"page count mismatch between original and translated PDFs",
			fmt.Sprintf("original %d, translated %d", len(originalPages), len(monoPages)), nil)
	}

	interleaved := make([]string, 0, len(originalPages)*2)
	for i := range originalPages {
		interleaved = append(interleaved, originalPages[i], monoPages[i])
	}

	if err := api.MergeCreateFile(interleaved, outputPath, false, r.conf); err != nil {
		CleanupPartial(outputPath)
		return doc.NewError(doc.ErrRenderFailed, "failed to merge dual PDF", err)
	}
	if err := api.ValidateFile(outputPath, r.conf); err != nil {
		CleanupPartial(outputPath)
		return doc.NewError(doc.ErrRenderFailed, "dual PDF failed validation", err)
	}
	logger.Info("dual PDF rendered", logger.String("output", filepath.Base(outputPath)))
	return nil
}

// splitPages splits a PDF into single-page files and returns them in page
// order.
func splitPages(inputPath, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, doc.NewError(doc.ErrRenderFailed, "failed to create split directory", err)
	}
	if err := api.SplitFile(inputPath, outputDir, 1, nil); err != nil {
		return nil, doc.NewError(doc.ErrRenderFailed, "failed to split PDF", err)
	}
	files, err := filepath.Glob(filepath.Join(outputDir, "*.pdf"))
	if err != nil {
		return nil, doc.NewError(doc.ErrRenderFailed, "failed to list split pages", err)
	}
	sort.Slice(files, func(i, j int) bool {
		return pageIndex(files[i]) < pageIndex(files[j])
	})
	return files, nil
}

// pageIndex extracts the trailing page number pdfcpu appends to split files.
func pageIndex(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), ".pdf")
	idx := strings.LastIndexAny(name, "_-")
	if idx < 0 {
		return 0
	}
	n := 0
	for _, r := range name[idx+1:] {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
