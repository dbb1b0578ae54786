package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"paper-translator/internal/config"
	"paper-translator/internal/doc"
	"paper-translator/internal/logger"
)

// translationTemperature keeps model output close to literal.
const translationTemperature float32 = 0.3

// LLMBackend translates through an OpenAI-compatible chat completion API.
type LLMBackend struct {
	model   string
	apiKey  string
	baseURL string

	mu        sync.Mutex
	chatModel *openai.ChatModel
}

// NewLLMBackend builds the backend from settings. The chat model itself is
// created lazily on first use because construction requires a context.
func NewLLMBackend(settings *config.Settings) (*LLMBackend, error) {
	if settings == nil {
		settings = config.Default()
	}
	if settings.APIKey == "" {
		return nil, doc.NewError(doc.ErrBackendUnavailable,
			"API key not configured", nil)
	}
	model := settings.Model
	if model == "" {
		model = config.DefaultModel
	}
	return &LLMBackend{
		model:   model,
		apiKey:  settings.APIKey,
		baseURL: settings.BaseURL,
	}, nil
}

// Name implements Backend.
func (b *LLMBackend) Name() string {
	return "openai/" + b.model
}

func (b *LLMBackend) client(ctx context.Context) (*openai.ChatModel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.chatModel != nil {
		return b.chatModel, nil
	}

	temp := translationTemperature
	cfg := &openai.ChatModelConfig{
		Model:       b.model,
		APIKey:      b.apiKey,
		Temperature: &temp,
	}
	if b.baseURL != "" {
		cfg.BaseURL = b.baseURL
	}

	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, doc.NewError(doc.ErrBackendUnavailable,
			"failed to create chat model", err)
	}
	b.chatModel = chatModel
	return chatModel, nil
}

// Translate implements Backend. All texts go out in one request, joined by
// Separator, and the response is split back positionally.
func (b *LLMBackend) Translate(ctx context.Context, texts []string, langIn, langOut string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	chatModel, err := b.client(ctx)
	if err != nil {
		return nil, err
	}

	response, err := chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(b.systemPrompt(langIn, langOut)),
		schema.UserMessage(b.userPrompt(texts, langIn, langOut)),
	})
	if err != nil {
		return nil, classifyModelError(err)
	}
	if response == nil || response.Content == "" {
		return nil, doc.NewError(doc.ErrTranslateFailed,
			"model returned empty response", nil)
	}

	parts := repairSplit(response.Content, len(texts))
	logger.Debug("batch translated",
		logger.String("backend", b.Name()),
		logger.Int("blocks", len(texts)))
	return parts, nil
}

func (b *LLMBackend) systemPrompt(langIn, langOut string) string {
	return fmt.Sprintf(`You are a professional translator specializing in academic and scientific documents.
Your task is to translate text extracted from PDF documents from %s to %s.

CRITICAL RULES:
1. Translate the text content from %s to %s accurately.
2. Preserve any mathematical formulas, symbols, or special characters exactly as they are.
3. Preserve citation markers such as [12] or (Smith et al., 2020) unchanged.
4. Do not add any explanations or notes - output only the translated text.
5. IMPORTANT: The input may contain multiple text blocks separated by "%s".
6. You MUST preserve these separators in your output exactly as they appear.
7. Each block should be translated independently but the separators must remain intact.
8. Do not merge blocks or remove separators.`,
		languageName(langIn), languageName(langOut),
		languageName(langIn), languageName(langOut),
		Separator)
}

func (b *LLMBackend) userPrompt(texts []string, langIn, langOut string) string {
	return fmt.Sprintf(`Translate the following %s from %s to %s.
If there are multiple blocks separated by "%s", translate each block separately and keep the separators in your output.

%s`,
		describeCount(len(texts)), languageName(langIn), languageName(langOut),
		Separator, batchText(texts))
}

// classifyModelError maps API failures onto error codes the retry logic
// understands. Rate limiting and server-side failures are transient.
func classifyModelError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests"):
		return doc.NewError(doc.ErrRateLimited, "API rate limit exceeded", err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return doc.NewError(doc.ErrBackendUnavailable, "API request failed", err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key"):
		return doc.NewErrorWithDetails(doc.ErrTranslateFailed,
			"API authentication failed", "invalid API key or unauthorized access", err)
	default:
		return doc.NewError(doc.ErrTranslateFailed, "translation request failed", err)
	}
}
