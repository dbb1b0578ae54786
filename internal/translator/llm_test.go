package translator

import (
	"errors"
	"strings"
	"testing"

	"paper-translator/internal/config"
	"paper-translator/internal/doc"
)

func TestNewLLMBackendRequiresAPIKey(t *testing.T) {
	s := config.Default()
	s.APIKey = ""
	_, err := NewLLMBackend(s)
	if err == nil {
		t.Fatal("Expected an error without an API key")
	}
	if doc.CodeOf(err) != doc.ErrBackendUnavailable {
		t.Errorf("Expected ErrBackendUnavailable, got %v", doc.CodeOf(err))
	}
}

func TestLLMBackendName(t *testing.T) {
	s := config.Default()
	s.APIKey = "sk-test"
	s.Model = "gpt-4o-mini"
	b, err := NewLLMBackend(s)
	if err != nil {
		t.Fatalf("NewLLMBackend failed: %v", err)
	}
	if b.Name() != "openai/gpt-4o-mini" {
		t.Errorf("Unexpected name %q", b.Name())
	}
}

func TestLLMPromptsCarrySeparatorProtocol(t *testing.T) {
	s := config.Default()
	s.APIKey = "sk-test"
	b, err := NewLLMBackend(s)
	if err != nil {
		t.Fatalf("NewLLMBackend failed: %v", err)
	}

	system := b.systemPrompt("en", "ko")
	if !strings.Contains(system, Separator) {
		t.Error("Expected the system prompt to spell out the separator")
	}
	if !strings.Contains(system, "English") || !strings.Contains(system, "Korean") {
		t.Error("Expected language names in the system prompt")
	}

	user := b.userPrompt([]string{"one", "two"}, "en", "ko")
	if !strings.Contains(user, "one"+Separator+"two") {
		t.Error("Expected the batch joined with the separator in the user prompt")
	}
}

func TestClassifyModelError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want doc.ErrorCode
	}{
		{"rate limit", errors.New("API returned 429 Too Many Requests"), doc.ErrRateLimited},
		{"server error", errors.New("status 503 service unavailable"), doc.ErrBackendUnavailable},
		{"timeout", errors.New("request timeout exceeded"), doc.ErrBackendUnavailable},
		{"auth", errors.New("401 unauthorized"), doc.ErrTranslateFailed},
		{"other", errors.New("model produced nonsense"), doc.ErrTranslateFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := doc.CodeOf(classifyModelError(tc.err)); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}
