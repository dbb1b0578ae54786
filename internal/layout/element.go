// Package layout classifies document regions. The primary signal is a
// DocLayout-YOLO detection model run over rasterized pages; configurable
// font-name and character-set regexes refine translatability per run, and
// the classifier degrades to regex-only when the model is unavailable.
package layout

import "paper-translator/internal/doc"

// Element is one detection: a bounding box with a region kind and model
// confidence, in page coordinates.
type Element struct {
	Box        doc.BBox
	Kind       doc.Kind
	Confidence float64
	Page       int
}

// Detector produces layout elements for a rasterized page.
type Detector interface {
	// Detect runs detection on a page image. The returned boxes are scaled
	// to the given page size in PDF points.
	Detect(img PageImage, pageNum int, pageWidth, pageHeight float64) ([]Element, error)
}

// docLayoutClasses maps DocLayout-YOLO class ids to region kinds, in model
// output order.
var docLayoutClasses = []doc.Kind{
	doc.KindBody,      // 0: plain text
	doc.KindHeading,   // 1: title
	doc.KindFigure,    // 2: picture
	doc.KindCaption,   // 3: caption
	doc.KindHeading,   // 4: section header
	doc.KindFootnote,  // 5: footnote
	doc.KindFormula,   // 6: formula
	doc.KindTable,     // 7: table
	doc.KindBody,      // 8: list item
	doc.KindUnknown,   // 9: page header
	doc.KindUnknown,   // 10: page footer
}

// kindForClass maps a class id to a kind, defaulting to Unknown.
func kindForClass(classID int) doc.Kind {
	if classID >= 0 && classID < len(docLayoutClasses) {
		return docLayoutClasses[classID]
	}
	return doc.KindUnknown
}
