package out

import (
	"context"

	"workflow_server/core/domain"
)

// RecordSink appends one row per processed email to the tracking sheet.
// Append never returns an error: failures are reported through SinkResult.
type RecordSink interface {
	Append(ctx context.Context, record domain.ExtractedRecord, originalText string) domain.SinkResult
	Mode() domain.Mode
	Name() string
}
