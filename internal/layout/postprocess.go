package layout

import (
	"sort"

	"paper-translator/internal/doc"
)

// detection is one raw model output box before filtering.
type detection struct {
	Box        doc.BBox
	ClassID    int
	Confidence float64
}

// postProcessor filters raw model output into layout elements.
type postProcessor struct {
	confThreshold float64
	nmsThreshold  float64
}

func newPostProcessor(confThreshold, nmsThreshold float64) *postProcessor {
	return &postProcessor{confThreshold: confThreshold, nmsThreshold: nmsThreshold}
}

// run parses raw output (flat [x, y, w, h, confidence, class] records in
// normalized top-origin image coordinates), filters by confidence, applies
// per-class NMS and scales boxes to bottom-origin page coordinates.
func (p *postProcessor) run(output []float32, pageWidth, pageHeight float64, pageNum int) []Element {
	detections := parseDetections(output, pageWidth, pageHeight)

	var kept []detection
	for _, d := range detections {
		if d.Confidence >= p.confThreshold {
			kept = append(kept, d)
		}
	}

	kept = p.nmsPerClass(kept)

	elements := make([]Element, 0, len(kept))
	for _, d := range kept {
		elements = append(elements, Element{
			Box:        d.Box,
			Kind:       kindForClass(d.ClassID),
			Confidence: d.Confidence,
			Page:       pageNum,
		})
	}
	return elements
}

// parseDetections scales normalized boxes to page points. The model reports
// boxes in image coordinates with Y growing downward from the top edge; text
// runs live in PDF coordinates with Y growing upward from the bottom edge, so
// the vertical axis is flipped here.
func parseDetections(output []float32, pageWidth, pageHeight float64) []detection {
	var detections []detection
	for i := 0; i+5 < len(output); i += 6 {
		top := float64(output[i+1]) * pageHeight
		height := float64(output[i+3]) * pageHeight
		detections = append(detections, detection{
			Box: doc.BBox{
				X:      float64(output[i]) * pageWidth,
				Y:      pageHeight - top - height,
				Width:  float64(output[i+2]) * pageWidth,
				Height: height,
			},
			Confidence: float64(output[i+4]),
			ClassID:    int(output[i+5]),
		})
	}
	return detections
}

// nmsPerClass applies non-maximum suppression independently per class.
func (p *postProcessor) nmsPerClass(detections []detection) []detection {
	byClass := make(map[int][]detection)
	for _, d := range detections {
		byClass[d.ClassID] = append(byClass[d.ClassID], d)
	}

	var result []detection
	for _, class := range sortedKeys(byClass) {
		result = append(result, p.nms(byClass[class])...)
	}
	return result
}

func (p *postProcessor) nms(detections []detection) []detection {
	sort.Slice(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})

	var kept []detection
	suppressed := make([]bool, len(detections))
	for i := range detections {
		if suppressed[i] {
			continue
		}
		kept = append(kept, detections[i])
		for j := i + 1; j < len(detections); j++ {
			if suppressed[j] {
				continue
			}
			if iou(detections[i].Box, detections[j].Box) > p.nmsThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// iou computes intersection-over-union of two boxes.
func iou(a, b doc.BBox) float64 {
	inter := a.Overlap(b)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func sortedKeys(m map[int][]detection) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
