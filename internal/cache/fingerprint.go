package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fingerprint derives a stable cache key from the source text and the
// translation parameters. Text is NFKC-normalized and whitespace-trimmed
// first so trivially different extractions of the same content share a key.
func Fingerprint(text, langIn, langOut, model string) string {
	normalized := norm.NFKC.String(strings.TrimSpace(text))

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(langIn))
	h.Write([]byte{0})
	h.Write([]byte(langOut))
	h.Write([]byte{0})
	h.Write([]byte(model))
	return hex.EncodeToString(h.Sum(nil))
}
