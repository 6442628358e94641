package metrics

import "sync/atomic"

// Outcome labels one finished pipeline run.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeDegraded         Outcome = "degraded"
	OutcomeInvalidInput     Outcome = "invalid_input"
	OutcomeExtractionFailed Outcome = "extraction_failed"
	OutcomeSinkFailed       Outcome = "sink_failed"
)

// OutcomeCounters counts pipeline outcomes. A degraded run whose append also failed
// increments both degraded and sink_failed.
type OutcomeCounters struct {
	success          atomic.Int64
	degraded         atomic.Int64
	invalidInput     atomic.Int64
	extractionFailed atomic.Int64
	sinkFailed       atomic.Int64
}

// Inc increments the counter for o.
func (c *OutcomeCounters) Inc(o Outcome) {
	switch o {
	case OutcomeSuccess:
		c.success.Add(1)
	case OutcomeDegraded:
		c.degraded.Add(1)
	case OutcomeInvalidInput:
		c.invalidInput.Add(1)
	case OutcomeExtractionFailed:
		c.extractionFailed.Add(1)
	case OutcomeSinkFailed:
		c.sinkFailed.Add(1)
	}
}

// Snapshot returns the current counts keyed by outcome label.
func (c *OutcomeCounters) Snapshot() map[Outcome]int64 {
	return map[Outcome]int64{
		OutcomeSuccess:          c.success.Load(),
		OutcomeDegraded:         c.degraded.Load(),
		OutcomeInvalidInput:     c.invalidInput.Load(),
		OutcomeExtractionFailed: c.extractionFailed.Load(),
		OutcomeSinkFailed:       c.sinkFailed.Load(),
	}
}
