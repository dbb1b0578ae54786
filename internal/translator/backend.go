// Package translator provides pluggable translation backends. The primary
// backend drives an OpenAI-compatible chat model; a scraping backend against
// Google Translate serves as a zero-credential fallback.
package translator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"paper-translator/internal/config"
	"paper-translator/internal/doc"
)

// Separator delimits text blocks inside a batched request. Backends must
// return exactly as many blocks as they were given, in order.
const Separator = "\n---BLOCK_SEPARATOR---\n"

// Backend translates a slice of texts from langIn to langOut. The returned
// slice has the same length and order as the input.
type Backend interface {
	// Name identifies the backend in logs and cache entries.
	Name() string
	Translate(ctx context.Context, texts []string, langIn, langOut string) ([]string, error)
}

// New constructs the backend named by service.
func New(service string, settings *config.Settings) (Backend, error) {
	switch strings.ToLower(service) {
	case "openai", "":
		return NewLLMBackend(settings)
	case "google":
		return NewGoogleBackend(), nil
	default:
		return nil, doc.NewErrorWithDetails(doc.ErrBackendUnavailable,
			"unknown translation service", service, nil)
	}
}

// ValidatePair checks that both language codes are well formed. "auto" is
// accepted for the source language only.
func ValidatePair(langIn, langOut string) error {
	if langIn != "auto" {
		if _, err := language.Parse(langIn); err != nil {
			return doc.NewErrorWithDetails(doc.ErrInvalidLanguagePair,
				"invalid source language", langIn, err)
		}
	}
	if langOut == "" || langOut == "auto" {
		return doc.NewErrorWithDetails(doc.ErrInvalidLanguagePair,
			"target language must be a concrete language code", langOut, nil)
	}
	if _, err := language.Parse(langOut); err != nil {
		return doc.NewErrorWithDetails(doc.ErrInvalidLanguagePair,
			"invalid target language", langOut, err)
	}
	return nil
}

// languageName maps common codes to English display names for prompts.
// Unknown codes fall through as the raw tag, which models handle fine.
func languageName(code string) string {
	switch strings.ToLower(code) {
	case "auto":
		return "the source language"
	case "en":
		return "English"
	case "ko":
		return "Korean"
	case "zh", "zh-cn":
		return "Simplified Chinese"
	case "zh-tw":
		return "Traditional Chinese"
	case "ja":
		return "Japanese"
	case "de":
		return "German"
	case "fr":
		return "French"
	case "es":
		return "Spanish"
	case "ru":
		return "Russian"
	case "it":
		return "Italian"
	case "pt":
		return "Portuguese"
	default:
		return code
	}
}

// repairSplit splits translated text on Separator and coerces the result to
// expectedCount blocks. Extra splits are folded back into the final block;
// missing blocks become empty strings so positional mapping never breaks.
func repairSplit(translated string, expectedCount int) []string {
	parts := strings.Split(translated, Separator)
	if len(parts) == expectedCount {
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}

	result := make([]string, expectedCount)
	if len(parts) > expectedCount {
		for i := 0; i < expectedCount-1; i++ {
			result[i] = strings.TrimSpace(parts[i])
		}
		result[expectedCount-1] = strings.TrimSpace(strings.Join(parts[expectedCount-1:], Separator))
		return result
	}
	for i := 0; i < len(parts); i++ {
		result[i] = strings.TrimSpace(parts[i])
	}
	return result
}

// batchText joins texts with the separator for a single model call.
func batchText(texts []string) string {
	return strings.Join(texts, Separator)
}

func describeCount(n int) string {
	if n == 1 {
		return "1 text block"
	}
	return fmt.Sprintf("%d text blocks", n)
}
