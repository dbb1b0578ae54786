package cache

import "testing"

func TestFingerprintConsistency(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"simple text", "Hello, World!"},
		{"korean text", "안녕하세요"},
		{"whitespace heavy", "   spaced   out   "},
		{"mixed content", "Hello 안녕 123 !@#"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fp1 := Fingerprint(tc.text, "en", "ko", "gpt-4o-mini")
			fp2 := Fingerprint(tc.text, "en", "ko", "gpt-4o-mini")
			if fp1 != fp2 {
				t.Errorf("Fingerprint not stable for %q: %s vs %s", tc.text, fp1, fp2)
			}
			if len(fp1) != 64 {
				t.Errorf("Expected 64-char SHA-256 hex, got %d chars", len(fp1))
			}
		})
	}
}

func TestFingerprintNormalization(t *testing.T) {
	// Leading and trailing whitespace never changes the key.
	if Fingerprint("Hello", "en", "ko", "m") != Fingerprint("  Hello  ", "en", "ko", "m") {
		t.Error("Expected trimmed text to share a fingerprint")
	}
	// NFKC folds compatibility forms, here a fullwidth A.
	if Fingerprint("A", "en", "ko", "m") != Fingerprint("Ａ", "en", "ko", "m") {
		t.Error("Expected NFKC-equivalent text to share a fingerprint")
	}
}

func TestFingerprintParameterSensitivity(t *testing.T) {
	base := Fingerprint("Hello", "en", "ko", "gpt-4o-mini")

	variants := []struct {
		name              string
		langIn, langOut   string
		model             string
	}{
		{"different source", "de", "ko", "gpt-4o-mini"},
		{"different target", "en", "ja", "gpt-4o-mini"},
		{"different model", "en", "ko", "gpt-4o"},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			if Fingerprint("Hello", v.langIn, v.langOut, v.model) == base {
				t.Error("Expected a different fingerprint")
			}
		})
	}
}
