package llm

import (
	"context"
	"net/http"
	"strings"

	"workflow_server/core/domain"
	"workflow_server/pkg/apperr"
	"workflow_server/pkg/resilience"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicConfig configures the Anthropic extraction client.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature *float64 // nil selects DefaultTemperature; zero is sent as zero
	HTTPClient  *http.Client
	Breaker     *resilience.Breaker
}

// AnthropicExtractor asks a Claude model for the four extraction fields.
type AnthropicExtractor struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	breaker     *resilience.Breaker
}

// NewAnthropicExtractor creates a live extractor backed by the Anthropic Messages API.
func NewAnthropicExtractor(cfg AnthropicConfig) *AnthropicExtractor {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// One attempt per request; the SDK would otherwise retry on its own.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	return &AnthropicExtractor{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
		breaker:     cfg.Breaker,
	}
}

func (e *AnthropicExtractor) Mode() domain.Mode { return domain.ModeLive }

func (e *AnthropicExtractor) Provider() string { return "anthropic" }

// Extract sends one Messages request and returns the concatenated text blocks.
func (e *AnthropicExtractor) Extract(ctx context.Context, emailText string) (string, error) {
	content, err := resilience.Execute(e.breaker, func() (string, error) {
		return e.complete(ctx, emailText)
	})
	if err != nil {
		return "", apperr.ExtractionUnavailable(e.Provider(), err)
	}
	return content, nil
}

func (e *AnthropicExtractor) complete(ctx context.Context, emailText string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(e.model),
		MaxTokens:   e.maxTokens,
		Temperature: anthropic.Float(e.temperature),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(emailText))),
		},
	}

	resp, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errNoChoices
	}
	return sb.String(), nil
}
