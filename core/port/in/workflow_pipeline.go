package in

import (
	"context"

	"workflow_server/core/domain"
)

// PipelineService turns a raw support email into a recorded, structured task.
type PipelineService interface {
	Process(ctx context.Context, emailText string) *domain.PipelineEnvelope
	Health() domain.HealthStatus
}
