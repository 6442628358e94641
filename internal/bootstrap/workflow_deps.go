package bootstrap

import (
	"context"
	"strings"

	"workflow_server/adapter/out/llm"
	"workflow_server/adapter/out/sheets"
	"workflow_server/config"
	"workflow_server/core/domain"
	"workflow_server/core/port/out"
	"workflow_server/core/service/extraction"
	"workflow_server/core/service/pipeline"
	"workflow_server/pkg/apperr"
	"workflow_server/pkg/httputil"
	"workflow_server/pkg/logger"
	"workflow_server/pkg/metrics"
	"workflow_server/pkg/resilience"
)

const latencyWindow = 1000

type Dependencies struct {
	Config   *config.Config
	Decision config.ModeDecision

	Pipeline *pipeline.Pipeline
	Breakers []*resilience.Breaker
	Latency  *metrics.LatencyRegistry
	Outcomes *metrics.OutcomeCounters
}

// liveBackends is the result of building the live stages.
type liveBackends struct {
	extractor out.Extractor
	sink      out.RecordSink
	breakers  []*resilience.Breaker
}

// NewDependencies resolves the mode once and wires both stages in it.
// A live setup that cannot be completed degrades to mock for both stages.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{
		Config:   cfg,
		Decision: cfg.ResolveMode(),
		Latency:  metrics.NewLatencyRegistry(latencyWindow),
		Outcomes: &metrics.OutcomeCounters{},
	}

	var extractor out.Extractor
	var sink out.RecordSink

	if deps.Decision.Mode == domain.ModeLive {
		live, err := buildLive(ctx, cfg)
		if err != nil {
			deps.Decision = config.ModeDecision{Mode: domain.ModeMock, Reasons: []string{err.Error()}}
		} else {
			extractor, sink, deps.Breakers = live.extractor, live.sink, live.breakers
		}
	}

	switch {
	case deps.Decision.Forced:
		logger.Info("MOCK_MODE enabled, no external calls will be made")
	case deps.Decision.Mode == domain.ModeMock:
		logger.WithFields(map[string]any{
			"reasons":           deps.Decision.Reasons,
			"llm_credentials":   cfg.LLMConfigured(),
			"sheet_credentials": cfg.SheetsConfigured(),
		}).Warn("live configuration incomplete, falling back to mock mode: %s", strings.Join(deps.Decision.Reasons, "; "))
	}

	if deps.Decision.Mode == domain.ModeMock {
		extractor = llm.NewMockExtractor()
		sink = sheets.NewMockSink(cfg.SpreadsheetID, sheets.NewRowCounter())
	}

	isLive := deps.Decision.Mode == domain.ModeLive
	p, err := pipeline.NewPipeline(&pipeline.PipelineDeps{
		Extractor: extractor,
		Sink:      sink,
		Parser:    extraction.NewParser(),
		Latency:   deps.Latency,
		Outcomes:  deps.Outcomes,
	}, &pipeline.PipelineConfig{
		StageTimeout:     cfg.StageTimeout,
		LLMConfigured:    isLive,
		SheetsConfigured: isLive,
	})
	if err != nil {
		return nil, nil, err
	}
	deps.Pipeline = p

	logger.WithFields(map[string]any{
		"mode":         p.Mode(),
		"llm_provider": extractor.Provider(),
		"sink":         sink.Name(),
	}).Info("pipeline ready")

	cleanup := func() {}
	return deps, cleanup, nil
}

func buildLive(ctx context.Context, cfg *config.Config) (*liveBackends, error) {
	llmBreaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("llm-" + cfg.LLMProvider))
	llmClient := httputil.NewClient(httputil.LLMClientConfig(cfg.StageTimeout))

	var extractor out.Extractor
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		extractor = llm.NewOpenAIExtractor(llm.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: &cfg.LLMTemperature,
			JSONMode:    cfg.LLMJSONMode,
			HTTPClient:  llmClient,
			Breaker:     llmBreaker,
		})
	case config.ProviderAnthropic:
		extractor = llm.NewAnthropicExtractor(llm.AnthropicConfig{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: &cfg.LLMTemperature,
			HTTPClient:  llmClient,
			Breaker:     llmBreaker,
		})
	default:
		return nil, apperr.ConfigError("unsupported LLM_PROVIDER " + cfg.LLMProvider)
	}

	sheetsBreaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("google-sheets"))
	sink, err := sheets.NewSheetsSink(ctx, sheets.Config{
		CredentialsJSON:  []byte(cfg.GoogleSheetsCreds),
		SpreadsheetID:    cfg.SpreadsheetID,
		SheetName:        cfg.SheetName,
		OriginalMaxChars: cfg.OriginalEmailMaxChars,
		HTTPClient:       httputil.NewClient(httputil.SheetsClientConfig(cfg.StageTimeout)),
		Breaker:          sheetsBreaker,
		Endpoint:         cfg.SheetsEndpoint,
	})
	if err != nil {
		return nil, err
	}

	if cfg.SheetVerifyOnStart {
		verifyCtx, cancel := context.WithTimeout(ctx, cfg.StageTimeout)
		defer cancel()
		if err := sink.Verify(verifyCtx); err != nil {
			return nil, err
		}
	}

	return &liveBackends{
		extractor: extractor,
		sink:      sink,
		breakers:  []*resilience.Breaker{llmBreaker, sheetsBreaker},
	}, nil
}
