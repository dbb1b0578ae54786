package parser

import (
	"strings"
	"unicode"

	"paper-translator/internal/doc"
)

// kindForRun assigns a first-pass region kind from text shape and font
// metrics. The layout classifier refines this with the detection model and
// the configured regex overrides.
func kindForRun(text string, fontSize float64, isBold bool) doc.Kind {
	text = strings.TrimSpace(text)
	if text == "" {
		return doc.KindBody
	}

	if looksLikeFormula(text) {
		return doc.KindFormula
	}

	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "figure") || strings.HasPrefix(lower, "fig.") ||
		strings.HasPrefix(lower, "table") || strings.HasPrefix(lower, "tab.") {
		return doc.KindCaption
	}
	if strings.HasPrefix(lower, "references") || strings.HasPrefix(lower, "bibliography") {
		return doc.KindReference
	}

	isShort := len(text) < 100
	if isNumberedHeading(text) {
		return doc.KindHeading
	}
	if isBold && isShort && (fontSize > 12 || isAllUpperCase(text)) {
		return doc.KindHeading
	}
	if fontSize > 12 && isShort && !strings.Contains(text, ".") {
		return doc.KindHeading
	}

	// Short numbered lines that contain but don't end with a period read
	// like footnotes.
	if len(text) > 0 && text[0] >= '0' && text[0] <= '9' && len(text) < 200 {
		if strings.Contains(text, ".") && !strings.HasSuffix(text, ".") {
			return doc.KindFootnote
		}
	}

	return doc.KindBody
}

// looksLikeFormula reports whether text is dominated by mathematical symbols.
func looksLikeFormula(text string) bool {
	if len(text) == 0 {
		return false
	}

	const mathSymbols = "∫∑∏√∂∇±×÷≤≥≠≈∞∈∉⊂⊃∪∩∧∨¬∀∃αβγδεζηθικλμνξοπρστυφχψω"

	symbolCount := 0
	total := 0
	for _, r := range text {
		total++
		switch {
		case strings.ContainsRune("+-*/=<>^_~()[]{}", r):
			symbolCount++
		case strings.ContainsRune(mathSymbols, r):
			symbolCount++
		}
	}
	if total > 0 && float64(symbolCount)/float64(total) > 0.3 {
		return true
	}

	if strings.ContainsAny(text, "∫∑∏√∂∇") {
		return true
	}

	// "x = y + z" style with few words.
	if strings.Contains(text, "=") &&
		(strings.Contains(text, "(") || strings.Contains(text, "+") || strings.Contains(text, "-")) {
		if len(strings.Fields(text)) <= 5 && len(text) < 100 {
			return true
		}
	}

	// Heavy sub/superscript markers.
	if strings.Count(text, "_")+strings.Count(text, "^") > 2 && len(text) < 100 {
		return true
	}
	return false
}

// isNumberedHeading matches "1.", "1.1 Title", "Section 2" and similar.
func isNumberedHeading(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return false
	}

	lower := strings.ToLower(text)
	for _, prefix := range []string{
		"chapter", "section", "appendix", "abstract", "introduction",
		"conclusion", "references", "bibliography", "acknowledgment",
	} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	if len(text) < 2 {
		return false
	}
	if !(text[0] >= '0' && text[0] <= '9') && !(text[0] >= 'A' && text[0] <= 'Z') {
		return false
	}

	i := 0
	for i < len(text) && i < 15 {
		ch := text[i]
		if (ch >= '0' && ch <= '9') || ch == '.' || (ch >= 'A' && ch <= 'Z') {
			i++
		} else {
			break
		}
	}
	if i == 0 || i >= len(text) {
		return false
	}

	numberPart := text[:i]
	hasDot := strings.Contains(numberPart, ".")
	next := text[i]

	if hasDot && (next == ' ' || next == '\t') {
		return len(strings.TrimSpace(text[i:])) < 80
	}
	if !hasDot && (next == '.' || next == ')') {
		if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
			return len(strings.TrimSpace(text[i+1:])) < 80
		}
	}
	return false
}

func isAllUpperCase(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
