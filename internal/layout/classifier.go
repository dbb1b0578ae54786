package layout

import (
	"fmt"
	"regexp"
	"sort"

	"paper-translator/internal/config"
	"paper-translator/internal/doc"
	"paper-translator/internal/logger"
)

// Classifier assigns a Kind to every region of a document. Detection results
// from the layout model drive the primary assignment; font-name and
// character-set regexes override the result for formula content. When the
// model cannot be loaded the classifier degrades to regex-only operation and
// records a warning on the document.
type Classifier struct {
	detector   Detector
	rasterizer *Rasterizer
	fontRe     *regexp.Regexp
	charRe     *regexp.Regexp
	degraded   bool
}

// NewClassifier builds a classifier from the given settings. A nil or failed
// detector is not an error: the classifier still works on regexes alone.
func NewClassifier(settings *config.Settings) (*Classifier, error) {
	fontPattern := settings.FormulaFontPattern
	if fontPattern == "" {
		fontPattern = config.DefaultFormulaFontPattern
	}
	charPattern := settings.FormulaCharPattern
	if charPattern == "" {
		charPattern = config.DefaultFormulaCharPattern
	}

	fontRe, err := regexp.Compile(fontPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid formula font pattern: %w", err)
	}
	charRe, err := regexp.Compile(charPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid formula char pattern: %w", err)
	}

	c := &Classifier{fontRe: fontRe, charRe: charRe}

	detector, err := NewONNXDetector(settings.LayoutModelPath)
	if err != nil {
		logger.Warn("layout model unavailable, using regex-only classification",
			logger.Err(err))
		c.degraded = true
	} else {
		c.detector = detector
		rasterizer, err := NewRasterizer(renderDPI)
		if err != nil {
			logger.Warn("page rasterizer unavailable, using regex-only classification",
				logger.Err(err))
			detector.Close()
			c.detector = nil
			c.degraded = true
		} else {
			c.rasterizer = rasterizer
		}
	}
	return c, nil
}

// NewRegexClassifier builds a classifier that never consults a layout model.
func NewRegexClassifier(fontPattern, charPattern string) (*Classifier, error) {
	if fontPattern == "" {
		fontPattern = config.DefaultFormulaFontPattern
	}
	if charPattern == "" {
		charPattern = config.DefaultFormulaCharPattern
	}
	fontRe, err := regexp.Compile(fontPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid formula font pattern: %w", err)
	}
	charRe, err := regexp.Compile(charPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid formula char pattern: %w", err)
	}
	return &Classifier{fontRe: fontRe, charRe: charRe, degraded: true}, nil
}

// Degraded reports whether the classifier is running without the layout model.
func (c *Classifier) Degraded() bool {
	return c.degraded
}

// Classify assigns kinds to all regions of the document in place.
func (c *Classifier) Classify(document *doc.Document) error {
	if c.degraded {
		document.AddWarning(doc.Warning{
			Code:    doc.ErrLayoutModelUnavailable,
			Message: "layout model unavailable, classification degraded to font and character heuristics",
		})
	}

	for _, page := range document.Pages {
		if c.detector != nil && c.rasterizer != nil {
			elements, err := c.detectPage(document.Path, page)
			if err != nil {
				logger.Warn("layout detection failed for page, using regex-only classification",
					logger.Int("page", page.Number), logger.Err(err))
				document.AddWarning(doc.Warning{
					Code:    doc.ErrLayoutModelUnavailable,
					Message: fmt.Sprintf("layout detection failed: %v", err),
					Page:    page.Number,
				})
			} else {
				c.assignRegions(page, elements)
			}
		}
		syncTranslatability(page)
		c.applyOverrides(page)
	}
	return nil
}

func (c *Classifier) detectPage(pdfPath string, page *doc.Page) ([]Element, error) {
	img, err := c.rasterizer.RenderPage(pdfPath, page.Number)
	if err != nil {
		return nil, err
	}
	return c.detector.Detect(img, page.Number, page.Width, page.Height)
}

// assignRegions regroups the page's runs according to the detected layout
// elements. Runs whose center falls inside a detection share a region of the
// detected kind. Runs no detection covers default to body text, which keeps
// them translatable rather than silently dropped.
func (c *Classifier) assignRegions(page *doc.Page, elements []Element) {
	if len(elements) == 0 {
		return
	}

	grouped := make(map[int][]*doc.TextRun)
	var uncovered []*doc.TextRun

	for _, run := range page.Runs() {
		idx := coveringElement(run, elements)
		if idx < 0 {
			uncovered = append(uncovered, run)
			continue
		}
		grouped[idx] = append(grouped[idx], run)
	}

	var regions []*doc.Region
	indices := make([]int, 0, len(grouped))
	for idx := range grouped {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		el := elements[idx]
		region := &doc.Region{
			Kind:       el.Kind,
			Box:        el.Box,
			Confidence: el.Confidence,
			Runs:       grouped[idx],
		}
		translatable := el.Kind.Translatable()
		for _, run := range region.Runs {
			run.IsTranslatable = translatable
		}
		regions = append(regions, region)
	}
	for _, run := range uncovered {
		run.IsTranslatable = true
		regions = append(regions, &doc.Region{
			Kind: doc.KindBody,
			Box:  run.Box,
			Runs: []*doc.TextRun{run},
		})
	}
	page.Regions = regions
}

// syncTranslatability derives each run's translatability from its region's
// kind. In degraded mode this is the only source; with the model it settles
// regions the detection pass did not touch.
func syncTranslatability(page *doc.Page) {
	for _, region := range page.Regions {
		translatable := region.Kind.Translatable()
		for _, run := range region.Runs {
			run.IsTranslatable = translatable
		}
	}
}

// coveringElement returns the index of the highest-confidence element whose
// box contains the run's center, or -1.
func coveringElement(run *doc.TextRun, elements []Element) int {
	cx := run.Box.X + run.Box.Width/2
	cy := run.Box.Y + run.Box.Height/2
	best := -1
	for i, el := range elements {
		if !el.Box.Contains(cx, cy) {
			continue
		}
		if best < 0 || el.Confidence > elements[best].Confidence {
			best = i
		}
	}
	return best
}

// applyOverrides forces formula classification for runs set in known math
// fonts or consisting of math-leading character sequences. Overrides always
// win over model output.
func (c *Classifier) applyOverrides(page *doc.Page) {
	for _, region := range page.Regions {
		for _, run := range region.Runs {
			if !run.IsTranslatable {
				continue
			}
			if c.isFormulaRun(run) {
				run.IsTranslatable = false
				if len(region.Runs) == 1 {
					region.Kind = doc.KindFormula
				}
			}
		}
	}
}

func (c *Classifier) isFormulaRun(run *doc.TextRun) bool {
	if run.FontID != "" && c.fontRe.MatchString(run.FontID) {
		return true
	}
	if run.Text != "" && c.charRe.MatchString(run.Text) {
		return true
	}
	return false
}

// Close releases detector resources.
func (c *Classifier) Close() error {
	if c.rasterizer != nil {
		c.rasterizer.Cleanup()
	}
	if d, ok := c.detector.(*ONNXDetector); ok && d != nil {
		return d.Close()
	}
	return nil
}
