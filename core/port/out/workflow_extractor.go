package out

import (
	"context"

	"workflow_server/core/domain"
)

// Extractor calls a language model (or a deterministic substitute) and returns its raw text.
// Implementations make at most one outbound call per Extract and never retry.
type Extractor interface {
	Extract(ctx context.Context, emailText string) (string, error)
	Mode() domain.Mode
	Provider() string
}
