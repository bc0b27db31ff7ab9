package llm

import (
	"context"

	"github.com/svtalent/candidate-intake/internal/candidate"
)

type ExtractRequest struct {
	Text         string
	FilenameHint string
}

// FieldExtractor is the interface the pipeline depends on. The generative
// backend is a capability, not required infrastructure: callers check
// Available and treat an unavailable extractor as an optional strategy that
// is simply not in play.
type FieldExtractor interface {
	Available() bool
	ExtractFields(ctx context.Context, req ExtractRequest) (candidate.Record, []byte /*rawJSON*/, error)
}
