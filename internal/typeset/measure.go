// Package typeset renders translated text back into PDF pages while
// preserving the original layout. Text is covered with white rectangles and
// replaced with overlay text sized to fit the original bounding boxes.
package typeset

import (
	"strings"
	"unicode"

	"paper-translator/internal/config"
)

const (
	// MinFontSize is the smallest size shrink-to-fit will go before
	// accepting overflow.
	MinFontSize = 6.0
	// lineHeightRatio converts a font size to a line advance.
	lineHeightRatio = 1.2
)

// charWidthFactor estimates the advance width of a rune as a fraction of the
// font size. CJK glyphs occupy a full em, spaces a quarter, Latin roughly
// half. Good enough for fitting text into boxes without font metrics.
func charWidthFactor(r rune) float64 {
	switch {
	case isCJK(r):
		return 1.0
	case r == ' ' || r == '\t':
		return 0.25
	case unicode.IsPunct(r):
		return 0.35
	default:
		return 0.5
	}
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK punctuation
		return true
	case r >= 0x3040 && r <= 0x30FF: // Hiragana, Katakana
		return true
	case r >= 0xAC00 && r <= 0xD7AF: // Hangul syllables
		return true
	case r >= 0x1100 && r <= 0x11FF: // Hangul jamo
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // Fullwidth forms
		return true
	}
	return false
}

// StringWidth estimates the rendered width of text at fontSize in points.
func StringWidth(text string, fontSize float64) float64 {
	var width float64
	for _, r := range text {
		width += charWidthFactor(r) * fontSize
	}
	return width
}

// WrapText breaks text into lines no wider than maxWidth at fontSize. Words
// are kept whole where possible; a single word wider than the box is split
// at the rune that crosses the limit.
func WrapText(text string, fontSize, maxWidth float64) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var lines []string
	var current strings.Builder
	currentWidth := 0.0

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			currentWidth = 0
		}
	}

	for _, word := range strings.Fields(text) {
		wordWidth := StringWidth(word, fontSize)
		spaceWidth := charWidthFactor(' ') * fontSize

		if currentWidth > 0 && currentWidth+spaceWidth+wordWidth > maxWidth {
			flush()
		}
		if wordWidth > maxWidth {
			// Split the oversized word rune by rune.
			for _, r := range word {
				rw := charWidthFactor(r) * fontSize
				if currentWidth > 0 && currentWidth+rw > maxWidth {
					flush()
				}
				current.WriteRune(r)
				currentWidth += rw
			}
			continue
		}
		if currentWidth > 0 {
			current.WriteByte(' ')
			currentWidth += spaceWidth
		}
		current.WriteString(word)
		currentWidth += wordWidth
	}
	flush()
	return lines
}

// textFits reports whether text fits in a width x height box at fontSize.
func textFits(text string, fontSize, width, height float64) bool {
	lines := WrapText(text, fontSize, width)
	if len(lines) == 0 {
		return true
	}
	return float64(len(lines))*fontSize*lineHeightRatio <= height
}

// FitFontSize finds the font size at which text fits the box, starting from
// originalSize and shrinking. With the overflow policy the original size is
// kept and text is allowed to spill past the box. The returned bool reports
// whether the text fits at the returned size.
func FitFontSize(text string, originalSize, width, height float64, policy config.OverflowPolicy) (float64, bool) {
	if originalSize <= 0 {
		originalSize = 10
	}
	if width <= 0 || height <= 0 {
		return originalSize, false
	}
	if policy == config.OverflowAllow {
		return originalSize, textFits(text, originalSize, width, height)
	}

	if textFits(text, originalSize, width, height) {
		return originalSize, true
	}

	// Binary search between the floor and the original size.
	low, high := MinFontSize, originalSize
	best := MinFontSize
	for high-low >= 0.5 {
		mid := (low + high) / 2
		if textFits(text, mid, width, height) {
			best = mid
			low = mid + 0.5
		} else {
			high = mid - 0.5
		}
	}
	return best, textFits(text, best, width, height)
}
