package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"workflow_server/core/domain"

	"github.com/go-playground/validator/v10"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	mockSpreadsheetID = "mock-spreadsheet-id"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Mode
	MockMode bool

	// LLM
	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	LLMModel        string
	LLMMaxTokens    int
	LLMTemperature  float64
	LLMJSONMode     bool

	// Google Sheets
	GoogleSheetsCreds  string
	SpreadsheetID      string
	SheetName          string
	SheetVerifyOnStart bool
	SheetsEndpoint     string // API root override; unauthenticated, for local fakes

	// Pipeline
	StageTimeout          time.Duration
	OriginalEmailMaxChars int

	// HTTP
	RateLimitPerMin int
	AllowedOrigins  []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("ENV", "development"),

		MockMode: getEnvBool("MOCK_MODE", false),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMMaxTokens:    getEnvInt("LLM_MAX_TOKENS", 300),
		LLMTemperature:  getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMJSONMode:     getEnvBool("LLM_JSON_MODE", true),

		GoogleSheetsCreds:  getEnv("GOOGLE_SHEETS_CREDS", ""),
		SpreadsheetID:      getEnv("SPREADSHEET_ID", mockSpreadsheetID),
		SheetName:          getEnv("SHEET_NAME", "Sheet1"),
		SheetVerifyOnStart: getEnvBool("SHEET_VERIFY_ON_START", true),
		SheetsEndpoint:     getEnv("SHEETS_ENDPOINT", ""),

		StageTimeout:          time.Duration(getEnvInt("STAGE_TIMEOUT_SEC", 10)) * time.Second,
		OriginalEmailMaxChars: getEnvInt("ORIGINAL_EMAIL_MAX_CHARS", 500),

		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 60),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5000",
		}),
	}

	defaultLevel := "info"
	if cfg.IsDevelopment() {
		defaultLevel = "debug"
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", defaultLevel)

	if cfg.StageTimeout <= 0 {
		return nil, fmt.Errorf("STAGE_TIMEOUT_SEC must be positive")
	}
	if cfg.LLMMaxTokens <= 0 {
		return nil, fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}

	return cfg, nil
}

// liveSettings are the values live mode cannot run without. The env tag names the variable in reports.
type liveSettings struct {
	LLMProvider     string `env:"LLM_PROVIDER" validate:"oneof=openai anthropic"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY" validate:"required_if=LLMProvider openai"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" validate:"required_if=LLMProvider anthropic"`
	SheetsCreds     string `env:"GOOGLE_SHEETS_CREDS" validate:"required,json"`
	SpreadsheetID   string `env:"SPREADSHEET_ID" validate:"required,ne=mock-spreadsheet-id"`
}

var liveValidator = newLiveValidator()

func newLiveValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

func (c *Config) liveSettings() liveSettings {
	return liveSettings{
		LLMProvider:     c.LLMProvider,
		OpenAIAPIKey:    c.OpenAIAPIKey,
		AnthropicAPIKey: c.AnthropicAPIKey,
		SheetsCreds:     c.GoogleSheetsCreds,
		SpreadsheetID:   c.SpreadsheetID,
	}
}

// ValidateLive lists every live setting that is missing or malformed, as "VAR: problem".
func (c *Config) ValidateLive() []string {
	err := liveValidator.Struct(c.liveSettings())
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s: %s", fe.Field(), describeTag(fe)))
	}
	return problems
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "not set"
	case "json":
		return "not valid JSON"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "ne":
		return "still the placeholder value"
	default:
		return "invalid (" + fe.Tag() + ")"
	}
}

// ModeDecision is the outcome of mode resolution.
type ModeDecision struct {
	Mode    domain.Mode
	Forced  bool     // MOCK_MODE=true
	Reasons []string // why live mode was not possible
}

// ResolveMode picks one mode for both stages. Incomplete live configuration falls back to mock.
func (c *Config) ResolveMode() ModeDecision {
	if c.MockMode {
		return ModeDecision{Mode: domain.ModeMock, Forced: true}
	}
	if problems := c.ValidateLive(); len(problems) > 0 {
		return ModeDecision{Mode: domain.ModeMock, Reasons: problems}
	}
	return ModeDecision{Mode: domain.ModeLive}
}

// LLMConfigured reports whether credentials exist for the selected provider.
func (c *Config) LLMConfigured() bool {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderAnthropic:
		return c.AnthropicAPIKey != ""
	}
	return false
}

// SheetsConfigured reports whether credentials and a real spreadsheet id are present.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleSheetsCreds != "" && c.SpreadsheetID != "" && c.SpreadsheetID != mockSpreadsheetID
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
