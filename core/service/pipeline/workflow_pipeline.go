// Package pipeline sequences extraction, parsing and recording for one support email.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"workflow_server/core/domain"
	"workflow_server/core/port/in"
	"workflow_server/core/port/out"
	"workflow_server/core/service/extraction"
	"workflow_server/pkg/apperr"
	"workflow_server/pkg/logger"
	"workflow_server/pkg/metrics"
)

// =============================================================================
// Pipeline Orchestrator
// =============================================================================

// Stage names used in logs and latency stats.
const (
	StageExtract = "extract"
	StageParse   = "parse"
	StageRecord  = "record"
	StageTotal   = "total"
)

const (
	MessageProcessed     = "Email processed successfully!"
	MessagePartialRecord = "Email processed, but the task could not be recorded"
)

// PipelineConfig holds tunables for the orchestrator.
type PipelineConfig struct {
	// StageTimeout bounds Extract and Record individually.
	StageTimeout time.Duration

	// Reported by Health; do not affect processing.
	LLMConfigured    bool
	SheetsConfigured bool
}

// DefaultPipelineConfig returns the default configuration.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{StageTimeout: 10 * time.Second}
}

// PipelineDeps holds the collaborators of a Pipeline.
type PipelineDeps struct {
	Extractor out.Extractor
	Sink      out.RecordSink
	Parser    *extraction.Parser       // optional
	Latency   *metrics.LatencyRegistry // optional
	Outcomes  *metrics.OutcomeCounters // optional
}

// Pipeline runs Validate Input → Extract → Parse → Record → Compose Envelope.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	config    *PipelineConfig
	mode      domain.Mode
	extractor out.Extractor
	sink      out.RecordSink
	parser    *extraction.Parser
	latency   *metrics.LatencyRegistry
	outcomes  *metrics.OutcomeCounters
}

var _ in.PipelineService = (*Pipeline)(nil)

// NewPipeline creates an orchestrator. Extractor and sink must run in the same mode.
func NewPipeline(deps *PipelineDeps, config *PipelineConfig) (*Pipeline, error) {
	if deps == nil || deps.Extractor == nil || deps.Sink == nil {
		return nil, apperr.ConfigError("pipeline requires an extractor and a record sink")
	}
	if deps.Extractor.Mode() != deps.Sink.Mode() {
		return nil, apperr.ConfigError(fmt.Sprintf(
			"mixed modes: extractor %q is %s, sink %q is %s",
			deps.Extractor.Provider(), deps.Extractor.Mode(), deps.Sink.Name(), deps.Sink.Mode()))
	}
	cfg := *DefaultPipelineConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultPipelineConfig().StageTimeout
	}

	p := &Pipeline{
		config:    &cfg,
		mode:      deps.Extractor.Mode(),
		extractor: deps.Extractor,
		sink:      deps.Sink,
		parser:    deps.Parser,
		latency:   deps.Latency,
		outcomes:  deps.Outcomes,
	}
	if p.parser == nil {
		p.parser = extraction.NewParser()
	}
	if p.latency == nil {
		p.latency = metrics.NewLatencyRegistry(0)
	}
	if p.outcomes == nil {
		p.outcomes = &metrics.OutcomeCounters{}
	}
	return p, nil
}

// Mode returns the mode shared by both stages.
func (p *Pipeline) Mode() domain.Mode { return p.mode }

// Latency exposes per-stage latency stats.
func (p *Pipeline) Latency() *metrics.LatencyRegistry { return p.latency }

// Outcomes exposes outcome counters.
func (p *Pipeline) Outcomes() *metrics.OutcomeCounters { return p.outcomes }

// Process never returns nil and never panics on upstream failures.
func (p *Pipeline) Process(ctx context.Context, emailText string) *domain.PipelineEnvelope {
	start := time.Now()
	log := logger.WithContext(ctx).WithFields(map[string]any{
		"mode":         p.mode,
		"email_length": len(emailText),
	})
	defer func() { p.latency.Record(StageTotal, time.Since(start)) }()

	// Stage 1: Validate Input
	if strings.TrimSpace(emailText) == "" {
		p.outcomes.Inc(metrics.OutcomeInvalidInput)
		log.WithField("stage", "validate").Info("rejected empty email")
		return domain.FailedEnvelope(p.mode, apperr.CodeInvalidInput, apperr.ErrEmptyInput.Message)
	}

	// Stage 2: Extract
	raw, err := p.extract(ctx, emailText)
	if err != nil {
		appErr := apperr.AsAppError(err)
		if appErr.Code == apperr.CodeInternalError {
			appErr = apperr.ExtractionUnavailable(p.extractor.Provider(), err)
		}
		p.outcomes.Inc(metrics.OutcomeExtractionFailed)
		log.WithError(err).WithFields(map[string]any{
			"stage":      StageExtract,
			"error_code": appErr.Code,
		}).Warn("extraction failed")
		return domain.FailedEnvelope(p.mode, appErr.Code, appErr.Cause())
	}

	// Stage 3: Parse
	parseStart := time.Now()
	parsed := p.parser.Parse(raw)
	p.latency.Record(StageParse, time.Since(parseStart))
	if parsed.Degraded {
		p.outcomes.Inc(metrics.OutcomeDegraded)
		log.WithFields(map[string]any{
			"stage":            StageParse,
			"unparseable":      parsed.Unparseable,
			"defaulted_fields": parsed.DefaultedFields,
		}).Warn("model output degraded, defaults applied")
	}
	record := parsed.Record

	// Stage 4: Record
	task := p.record(ctx, record, emailText)
	if task.Success {
		log.WithFields(map[string]any{"stage": StageRecord, "sink": p.sink.Name()}).Debug("task recorded")
	} else {
		p.outcomes.Inc(metrics.OutcomeSinkFailed)
		log.WithFields(map[string]any{
			"stage": StageRecord,
			"sink":  p.sink.Name(),
			"cause": task.Message,
		}).Warn("record sink failed")
	}

	// Stage 5: Compose Envelope
	env := &domain.PipelineEnvelope{
		Success:         true,
		ExtractedData:   &record,
		TaskCreated:     &task,
		Message:         MessageProcessed,
		Mode:            p.mode,
		Degraded:        parsed.Degraded,
		DefaultedFields: parsed.DefaultedFields,
	}
	if !task.Success {
		env.Message = MessagePartialRecord
		env.ErrorCode = apperr.CodeSinkUnavailable
	} else if !parsed.Degraded {
		p.outcomes.Inc(metrics.OutcomeSuccess)
	}

	log.WithDuration(time.Since(start)).WithField("urgency", record.Urgency).Info("email processed")
	return env
}

func (p *Pipeline) extract(ctx context.Context, emailText string) (raw string, err error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.config.StageTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		p.latency.Record(StageExtract, time.Since(start))
		if r := recover(); r != nil {
			raw, err = "", apperr.ExtractionUnavailable(p.extractor.Provider(), fmt.Errorf("extractor panic: %v", r))
		}
	}()

	raw, err = p.extractor.Extract(stageCtx, emailText)
	if err == nil && stageCtx.Err() != nil {
		err = stageCtx.Err()
	}
	return raw, err
}

func (p *Pipeline) record(ctx context.Context, rec domain.ExtractedRecord, emailText string) (res domain.SinkResult) {
	stageCtx, cancel := context.WithTimeout(ctx, p.config.StageTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		p.latency.Record(StageRecord, time.Since(start))
		if r := recover(); r != nil {
			res = domain.SinkFailure(fmt.Sprintf("%s: %v", apperr.SinkUnavailable(p.sink.Name(), nil).Message, r))
		}
	}()

	res = p.sink.Append(stageCtx, rec, emailText)
	if !res.Success {
		res.RowNumber = nil
		if res.Message == "" {
			res.Message = apperr.SinkUnavailable(p.sink.Name(), nil).Message
		}
	}
	return res
}

// Health reports how the pipeline is configured.
func (p *Pipeline) Health() domain.HealthStatus {
	return domain.HealthStatus{
		Status:           "healthy",
		Mode:             p.mode,
		MockMode:         p.mode == domain.ModeMock,
		LLMProvider:      p.extractor.Provider(),
		LLMConfigured:    p.config.LLMConfigured,
		SheetsConfigured: p.config.SheetsConfigured,
	}
}
