package llm

import (
	"context"
	"errors"
	"math"
	"net/http"

	"workflow_server/core/domain"
	"workflow_server/pkg/apperr"
	"workflow_server/pkg/resilience"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-3.5-turbo"

var errNoChoices = errors.New("no completion choices returned")

// OpenAIConfig configures the OpenAI extraction client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // optional, for proxies and tests
	Model       string
	MaxTokens   int
	Temperature *float64 // nil selects DefaultTemperature; zero is sent as zero
	// JSONMode requests response_format=json_object; disable for models that reject it.
	JSONMode   bool
	HTTPClient *http.Client
	Breaker    *resilience.Breaker
}

// OpenAIExtractor asks an OpenAI chat model for the four extraction fields.
type OpenAIExtractor struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	jsonMode    bool
	breaker     *resilience.Breaker
}

// NewOpenAIExtractor creates a live extractor backed by the OpenAI API.
func NewOpenAIExtractor(cfg OpenAIConfig) *OpenAIExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := float32(DefaultTemperature)
	if cfg.Temperature != nil {
		temperature = float32(*cfg.Temperature)
	}
	if temperature == 0 {
		// go-openai omits a zero temperature, which the API reads as 1.
		temperature = math.SmallestNonzeroFloat32
	}

	return &OpenAIExtractor{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		jsonMode:    cfg.JSONMode,
		breaker:     cfg.Breaker,
	}
}

func (e *OpenAIExtractor) Mode() domain.Mode { return domain.ModeLive }

func (e *OpenAIExtractor) Provider() string { return "openai" }

// Extract issues one chat completion and returns the first choice's text.
func (e *OpenAIExtractor) Extract(ctx context.Context, emailText string) (string, error) {
	content, err := resilience.Execute(e.breaker, func() (string, error) {
		return e.complete(ctx, emailText)
	})
	if err != nil {
		return "", apperr.ExtractionUnavailable(e.Provider(), err)
	}
	return content, nil
}

func (e *OpenAIExtractor) complete(ctx context.Context, emailText string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(emailText),
			},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	}
	if e.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
