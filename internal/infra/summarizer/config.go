package summarizer

import (
	"fmt"
	"time"

	"feed-digest/internal/pkg/config"
	"feed-digest/internal/usecase/pipeline"
)

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderNoOp   = "noop"

	// DefaultBaseURL is the OpenAI-compatible DashScope endpoint serving qwen.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultModel   = "qwen-plus"

	DefaultCharacterLimit = 100
	DefaultLanguage       = "Chinese"

	minCharLimit = 50
	maxCharLimit = 5000
)

// Config is shared by every provider.
type Config struct {
	Provider string `yaml:"provider"`
	// CharacterLimit is the requested maximum summary length in runes.
	CharacterLimit int `yaml:"char_limit"`
	// Language is the single output language, named in English.
	Language string `yaml:"language"`
	Model    string `yaml:"model"`
	// BaseURL points the OpenAI provider at any compatible endpoint.
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"`
	// MaxTokens caps the response.
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
	// MaxInputChars truncates article text before prompting.
	MaxInputChars int `yaml:"max_input_chars"`
}

// DefaultConfig targets qwen-plus over the OpenAI-compatible API.
func DefaultConfig() Config {
	return Config{
		Provider:       ProviderOpenAI,
		CharacterLimit: DefaultCharacterLimit,
		Language:       DefaultLanguage,
		Model:          DefaultModel,
		BaseURL:        DefaultBaseURL,
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
		MaxInputChars:  10000,
	}
}

// ValidateCharacterLimit checks the supported summary length range.
func ValidateCharacterLimit(limit int) error {
	if limit < minCharLimit {
		return fmt.Errorf("character limit %d is below minimum %d", limit, minCharLimit)
	}
	if limit > maxCharLimit {
		return fmt.Errorf("character limit %d exceeds maximum %d", limit, maxCharLimit)
	}
	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := ValidateCharacterLimit(c.CharacterLimit); err != nil {
		return fmt.Errorf("invalid character limit: %w", err)
	}
	if c.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}
	if c.Provider == ProviderNoOp {
		return nil
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required for provider %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// LoadConfig overlays SUMMARIZER_* variables on base. The API key comes from
// SUMMARIZER_API_KEY, falling back to the provider's conventional variable.
func LoadConfig(l *config.Loader, base Config) Config {
	cfg := base
	cfg.Provider = l.String("SUMMARIZER_TYPE", base.Provider,
		config.OneOf(ProviderOpenAI, ProviderClaude, ProviderNoOp))
	cfg.CharacterLimit = l.Int("SUMMARIZER_CHAR_LIMIT", base.CharacterLimit, ValidateCharacterLimit)
	cfg.Language = config.LoadEnvString("SUMMARIZER_LANGUAGE", base.Language)
	cfg.Model = config.LoadEnvString("SUMMARIZER_MODEL", base.Model)
	cfg.BaseURL = l.String("SUMMARIZER_BASE_URL", base.BaseURL, config.ValidateHTTPURL)
	cfg.Timeout = l.Duration("SUMMARIZER_TIMEOUT", base.Timeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 10*time.Minute)
	})

	key := config.LoadEnvString("SUMMARIZER_API_KEY", base.APIKey)
	if key == "" {
		switch cfg.Provider {
		case ProviderClaude:
			key = config.LoadEnvString("ANTHROPIC_API_KEY", "")
		case ProviderOpenAI:
			key = config.LoadEnvString("DASHSCOPE_API_KEY", config.LoadEnvString("OPENAI_API_KEY", ""))
		}
	}
	cfg.APIKey = key

	// Claude のデフォルトモデルは OpenAI 互換のものと異なる
	if cfg.Provider == ProviderClaude && cfg.Model == DefaultModel {
		cfg.Model = DefaultClaudeModel
	}
	return cfg
}

// New builds the configured provider.
func New(cfg Config) (pipeline.Summarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("summarizer config: %w", err)
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderClaude:
		return NewClaude(cfg), nil
	case ProviderNoOp:
		return NewNoOp(cfg.CharacterLimit), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}
