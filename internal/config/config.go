// Package config manages the translation settings consumed by the engine.
// Settings load from a JSON file with environment-variable overrides for
// credentials; the CLI and GUI surfaces that produce richer configuration
// live outside this module.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"paper-translator/internal/logger"
)

const (
	// DefaultConfigFileName is the default configuration file name.
	DefaultConfigFileName = "config.json"
	// EnvAPIKey is the environment variable holding the backend API key.
	EnvAPIKey = "OPENAI_API_KEY"
	// EnvBaseURL is the environment variable holding the backend base URL.
	EnvBaseURL = "OPENAI_BASE_URL"
	// DefaultService is the default translation service.
	DefaultService = "openai"
	// DefaultModel is the default model identifier.
	DefaultModel = "gpt-4o-mini"
	// DefaultThreads is the default dispatcher worker count.
	DefaultThreads = 4
	// DefaultMaxRetries is the default retry budget per translation unit.
	DefaultMaxRetries = 3
	// DefaultRequestsPerSecond bounds the shared backend rate limiter.
	DefaultRequestsPerSecond = 5
	// DefaultFallbackThreshold is the number of consecutive backend failures
	// after which the configured fallback service takes over.
	DefaultFallbackThreshold = 5
	// DefaultContextWindow caps the character budget of one batched request.
	DefaultContextWindow = 4000
)

// DefaultFormulaFontPattern matches LaTeX math and symbol fonts. Runs set in
// a matching font are treated as formula content regardless of the region
// the layout model assigned them to.
const DefaultFormulaFontPattern = `(CM[^R]|MS.M|XY|MT|BL|RM|EU|LA|RS|LINE|LCIRCLE|TeX-|rsfs|txsy|wasy|stmary|.*Mono|.*Code|.*Ital|.*Sym|.*Math)`

// DefaultFormulaCharPattern matches runs that start with a modifier letter,
// combining mark, math symbol, separator or Greek letter.
const DefaultFormulaCharPattern = `^[\p{Lm}\p{Mn}\p{Sk}\p{Sm}\p{Zl}\p{Zp}\p{Zs}\x{0370}-\x{03FF}]`

// OverflowPolicy controls what happens when translated text does not fit the
// original bounding box.
type OverflowPolicy string

const (
	// OverflowShrink shrinks the font (down to a readable floor) until the
	// text fits.
	OverflowShrink OverflowPolicy = "shrink"
	// OverflowAllow keeps the floor font size and lets text spill below the
	// box, recorded as a warning.
	OverflowAllow OverflowPolicy = "overflow"
)

// Settings is the configuration surface consumed by the core.
type Settings struct {
	Service  string `json:"service"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	LangIn   string `json:"lang_in"`
	LangOut  string `json:"lang_out"`
	Threads  int    `json:"threads"`
	PageRange string `json:"page_range,omitempty"`

	FormulaFontPattern string `json:"formula_font_pattern,omitempty"`
	FormulaCharPattern string `json:"formula_char_pattern,omitempty"`
	LayoutModelPath    string `json:"layout_model_path,omitempty"`

	CacheEnabled bool   `json:"cache_enabled"`
	CachePath    string `json:"cache_path,omitempty"`
	IgnoreCache  bool   `json:"ignore_cache"`

	OutputDir string `json:"output_dir,omitempty"`

	SubsetFonts    bool           `json:"subset_fonts"`
	FontPath       string         `json:"font_path,omitempty"`
	OverflowPolicy OverflowPolicy `json:"overflow_policy"`

	MaxRetries        int     `json:"max_retries"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	ContextWindow     int     `json:"context_window"`
	FallbackService   string  `json:"fallback_service,omitempty"`
	FallbackThreshold int     `json:"fallback_threshold"`
}

// DefaultCachePath returns the default location of the translation cache.
func DefaultCachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "paper-translator", "cache.db")
	}
	return filepath.Join(homeDir, ".cache", "paper-translator", "cache.db")
}

// Default returns settings with all defaults applied.
func Default() *Settings {
	return &Settings{
		Service:            DefaultService,
		Model:              DefaultModel,
		LangIn:             "auto",
		LangOut:            "ko",
		Threads:            DefaultThreads,
		FormulaFontPattern: DefaultFormulaFontPattern,
		FormulaCharPattern: DefaultFormulaCharPattern,
		CacheEnabled:       true,
		SubsetFonts:        true,
		OverflowPolicy:     OverflowShrink,
		MaxRetries:         DefaultMaxRetries,
		RequestsPerSecond:  DefaultRequestsPerSecond,
		ContextWindow:      DefaultContextWindow,
		FallbackThreshold:  DefaultFallbackThreshold,
	}
}

// Validate checks the settings for values the engine cannot work with.
func (s *Settings) Validate() error {
	if s.Service == "" {
		return fmt.Errorf("service must not be empty")
	}
	if s.LangOut == "" {
		return fmt.Errorf("target language must not be empty")
	}
	if s.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", s.Threads)
	}
	if s.FormulaFontPattern != "" {
		if _, err := regexp.Compile(s.FormulaFontPattern); err != nil {
			return fmt.Errorf("invalid formula font pattern: %w", err)
		}
	}
	if s.FormulaCharPattern != "" {
		if _, err := regexp.Compile(s.FormulaCharPattern); err != nil {
			return fmt.Errorf("invalid formula char pattern: %w", err)
		}
	}
	switch s.OverflowPolicy {
	case OverflowShrink, OverflowAllow:
	default:
		return fmt.Errorf("unknown overflow policy %q", s.OverflowPolicy)
	}
	return nil
}

// Manager loads and persists settings.
type Manager struct {
	configPath string
	settings   *Settings
}

// NewManager creates a Manager for the given config path. An empty path uses
// the default location under the user's config directory.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".config", "paper-translator", DefaultConfigFileName)
	}
	return &Manager{configPath: configPath, settings: Default()}, nil
}

// Load reads settings from the config file. A missing file keeps defaults;
// environment variables override credentials either way.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.settings = Default()
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		settings := Default()
		if err := json.Unmarshal(data, settings); err != nil {
			logger.Warn("invalid config file, using defaults",
				logger.String("path", m.configPath), logger.Err(err))
			m.settings = Default()
		} else {
			m.settings = settings
		}
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		m.settings.APIKey = key
	}
	if url := os.Getenv(EnvBaseURL); url != "" {
		m.settings.BaseURL = url
	}
	return m.settings.Validate()
}

// Save writes the current settings back to the config file.
func (m *Manager) Save() error {
	if dir := filepath.Dir(m.configPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Settings returns the managed settings.
func (m *Manager) Settings() *Settings {
	return m.settings
}

// ConfigPath returns the path of the backing config file.
func (m *Manager) ConfigPath() string {
	return m.configPath
}
