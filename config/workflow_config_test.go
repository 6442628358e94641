package config

import (
	"strings"
	"testing"
	"time"

	"workflow_server/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeCreds = `{"type":"service_account","client_email":"bot@example.iam.gserviceaccount.com"}`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "MOCK_MODE", "LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"ANTHROPIC_API_KEY", "LLM_MODEL", "LLM_MAX_TOKENS", "LLM_TEMPERATURE", "GOOGLE_SHEETS_CREDS",
		"SPREADSHEET_ID", "SHEET_NAME", "SHEET_VERIFY_ON_START", "STAGE_TIMEOUT_SEC",
		"ORIGINAL_EMAIL_MAX_CHARS", "RATE_LIMIT_PER_MIN", "ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, 300, cfg.LLMMaxTokens)
	assert.InDelta(t, 0.3, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, "mock-spreadsheet-id", cfg.SpreadsheetID)
	assert.Equal(t, "Sheet1", cfg.SheetName)
	assert.True(t, cfg.SheetVerifyOnStart)
	assert.Equal(t, 10*time.Second, cfg.StageTimeout)
	assert.Equal(t, 500, cfg.OriginalEmailMaxChars)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("STAGE_TIMEOUT_SEC", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, 3*time.Second, cfg.StageTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("STAGE_TIMEOUT_SEC", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestResolveMode(t *testing.T) {
	live := func() *Config {
		return &Config{
			LLMProvider:       ProviderOpenAI,
			OpenAIAPIKey:      "sk-test",
			GoogleSheetsCreds: fakeCreds,
			SpreadsheetID:     "1AbC",
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantMode    domain.Mode
		wantForced  bool
		wantReasons []string
	}{
		{
			name:     "complete live settings",
			mutate:   func(c *Config) {},
			wantMode: domain.ModeLive,
		},
		{
			name:       "forced mock",
			mutate:     func(c *Config) { c.MockMode = true },
			wantMode:   domain.ModeMock,
			wantForced: true,
		},
		{
			name:        "missing openai key",
			mutate:      func(c *Config) { c.OpenAIAPIKey = "" },
			wantMode:    domain.ModeMock,
			wantReasons: []string{"OPENAI_API_KEY"},
		},
		{
			name:        "anthropic needs its own key",
			mutate:      func(c *Config) { c.LLMProvider = ProviderAnthropic },
			wantMode:    domain.ModeMock,
			wantReasons: []string{"ANTHROPIC_API_KEY"},
		},
		{
			name:        "credentials not json",
			mutate:      func(c *Config) { c.GoogleSheetsCreds = "not-json" },
			wantMode:    domain.ModeMock,
			wantReasons: []string{"GOOGLE_SHEETS_CREDS"},
		},
		{
			name:        "placeholder spreadsheet",
			mutate:      func(c *Config) { c.SpreadsheetID = mockSpreadsheetID },
			wantMode:    domain.ModeMock,
			wantReasons: []string{"SPREADSHEET_ID"},
		},
		{
			name:        "unknown provider",
			mutate:      func(c *Config) { c.LLMProvider = "llama" },
			wantMode:    domain.ModeMock,
			wantReasons: []string{"LLM_PROVIDER"},
		},
		{
			name: "nothing configured",
			mutate: func(c *Config) {
				*c = Config{LLMProvider: ProviderOpenAI, SpreadsheetID: mockSpreadsheetID}
			},
			wantMode:    domain.ModeMock,
			wantReasons: []string{"OPENAI_API_KEY", "GOOGLE_SHEETS_CREDS", "SPREADSHEET_ID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := live()
			tt.mutate(cfg)

			got := cfg.ResolveMode()

			assert.Equal(t, tt.wantMode, got.Mode)
			assert.Equal(t, tt.wantForced, got.Forced)
			require.Len(t, got.Reasons, len(tt.wantReasons), "reasons: %v", got.Reasons)
			for i, want := range tt.wantReasons {
				assert.True(t, strings.HasPrefix(got.Reasons[i], want+":"), "reason %q should name %s", got.Reasons[i], want)
			}
		})
	}
}

func TestConfiguredFlags(t *testing.T) {
	cfg := &Config{LLMProvider: ProviderAnthropic, AnthropicAPIKey: "k", SpreadsheetID: mockSpreadsheetID, GoogleSheetsCreds: fakeCreds}

	assert.True(t, cfg.LLMConfigured())
	assert.False(t, cfg.SheetsConfigured())

	cfg.SpreadsheetID = "real"
	assert.True(t, cfg.SheetsConfigured())
}
