package profile

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is configuration to start the routing service.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	// All providers (deepseek, openai, siliconflow, ollama) use the same config
	LLMProvider string // Provider identifier: deepseek, openai, siliconflow, ollama
	LLMAPIKey   string // Unified LLM API key
	LLMBaseURL  string // Unified LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: deepseek-chat, gpt-4o, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 30)

	// Routing policy
	DefaultDomain            string  // Domain used when no layer produces a confident answer
	KeywordThreshold         float64 // Keyword confidence above which no AI call is made
	AIConfirmationThreshold  float64 // Lower bound of the AI confirmation band
	UseAIConfirmation        bool    // Whether the confirmation band consults the classifier
	ClassifierTimeoutSeconds int     // Per-call classifier deadline
	ClassifierRateLimit      float64 // Classifier calls per second (0 disables limiting)
	CacheSize                int     // Decision cache capacity (0 disables caching)
	CacheTTLSeconds          int     // Decision cache entry lifetime

	// Storage
	Driver string // "postgres" or "memory"
	DSN    string

	// Other configurations
	Mode        string
	Addr        string
	MetricsAddr string
	Version     string
	AIEnabled   bool
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-7B-Instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("AYNUX_AI_LLM_PROVIDER", "deepseek")
	p.LLMAPIKey = getEnvOrDefault("AYNUX_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("AYNUX_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("AYNUX_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("AYNUX_AI_LLM_TIMEOUT_SECONDS", 30)

	// AI is enabled if API key is configured
	p.AIEnabled = p.LLMAPIKey != ""

	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("Unknown LLM provider, using default: deepseek", "provider", p.LLMProvider)
			p.LLMProvider = "deepseek"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Routing policy
	p.DefaultDomain = getEnvOrDefault("AYNUX_ROUTER_DEFAULT_DOMAIN", "general")
	p.KeywordThreshold = getEnvOrDefaultFloat("AYNUX_ROUTER_KEYWORD_THRESHOLD", 0.5)
	p.AIConfirmationThreshold = getEnvOrDefaultFloat("AYNUX_ROUTER_AI_CONFIRMATION_THRESHOLD", 0.3)
	p.UseAIConfirmation = getEnvOrDefault("AYNUX_ROUTER_USE_AI_CONFIRMATION", "false") == "true"
	p.ClassifierTimeoutSeconds = getEnvOrDefaultInt("AYNUX_ROUTER_CLASSIFIER_TIMEOUT_SECONDS", 5)
	p.ClassifierRateLimit = getEnvOrDefaultFloat("AYNUX_ROUTER_CLASSIFIER_RATE_LIMIT", 10)
	p.CacheSize = getEnvOrDefaultInt("AYNUX_ROUTER_CACHE_SIZE", 1000)
	p.CacheTTLSeconds = getEnvOrDefaultInt("AYNUX_ROUTER_CACHE_TTL_SECONDS", 300)

	// Storage
	p.Driver = getEnvOrDefault("AYNUX_DRIVER", "memory")
	p.DSN = getEnvOrDefault("AYNUX_DSN", "")
}

// Validate normalizes the profile and rejects configurations the service
// cannot start with.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	switch p.Driver {
	case "memory":
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires a DSN")
		}
	default:
		return errors.Errorf("unsupported driver %q", p.Driver)
	}

	if p.KeywordThreshold <= 0 || p.KeywordThreshold > 1 {
		return errors.Errorf("keyword threshold %.2f out of range (0, 1]", p.KeywordThreshold)
	}
	if p.AIConfirmationThreshold < 0 || p.AIConfirmationThreshold > p.KeywordThreshold {
		return errors.Errorf("ai confirmation threshold %.2f must be in [0, %.2f]",
			p.AIConfirmationThreshold, p.KeywordThreshold)
	}
	if p.DefaultDomain == "" {
		return errors.New("default domain must not be empty")
	}
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = 30
	}
	if p.ClassifierTimeoutSeconds <= 0 {
		p.ClassifierTimeoutSeconds = 5
	}
	return nil
}
