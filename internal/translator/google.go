package translator

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"paper-translator/internal/doc"
	"paper-translator/internal/logger"
)

const (
	googleEndpoint = "https://translate.google.com/m"
	// googleMaxChars is the request size limit of the mobile endpoint.
	googleMaxChars = 5000
	googleUA       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// googleResultRe extracts the translated text from the mobile endpoint's HTML.
var googleResultRe = regexp.MustCompile(`(?s)class="(?:t0|result-container)">(.*?)<`)

// GoogleBackend scrapes the Google Translate mobile endpoint. It requires no
// credentials, which makes it the default fallback service.
type GoogleBackend struct {
	endpoint string
	client   *http.Client
}

// NewGoogleBackend creates the fallback backend.
func NewGoogleBackend() *GoogleBackend {
	return &GoogleBackend{
		endpoint: googleEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Backend.
func (g *GoogleBackend) Name() string {
	return "google"
}

// Translate implements Backend. The endpoint handles one text per request,
// so blocks are translated sequentially.
func (g *GoogleBackend) Translate(ctx context.Context, texts []string, langIn, langOut string) ([]string, error) {
	results := make([]string, len(texts))
	for i, text := range texts {
		translated, err := g.translateOne(ctx, text, langIn, langOut)
		if err != nil {
			return nil, err
		}
		results[i] = translated
	}
	return results, nil
}

func (g *GoogleBackend) translateOne(ctx context.Context, text, langIn, langOut string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if len(text) > googleMaxChars {
		text = text[:googleMaxChars]
		logger.Warn("text truncated for fallback translation",
			logger.Int("limit", googleMaxChars))
	}

	query := url.Values{}
	query.Set("sl", langIn)
	query.Set("tl", langOut)
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", doc.NewError(doc.ErrBackendUnavailable,
			"failed to build fallback request", err)
	}
	req.Header.Set("User-Agent", googleUA)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", doc.NewError(doc.ErrBackendUnavailable,
			"fallback translation request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", doc.NewError(doc.ErrRateLimited,
			"fallback translation rate limited", nil)
	case resp.StatusCode != http.StatusOK:
		return "", doc.NewErrorWithDetails(doc.ErrBackendUnavailable,
			"fallback translation failed",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", doc.NewError(doc.ErrBackendUnavailable,
			"failed to read fallback response", err)
	}

	match := googleResultRe.FindSubmatch(body)
	if match == nil {
		return "", doc.NewError(doc.ErrTranslateFailed,
			"could not extract translation from fallback response", nil)
	}
	return html.UnescapeString(string(match[1])), nil
}
