// Package sink delivers finished candidate records to their downstream
// destinations: a Google Sheet, the admin portal, a local workbook.
package sink

import (
	"context"

	"github.com/svtalent/candidate-intake/internal/candidate"
)

// A Sink accepts one candidate record. Errors are coded for the dispatcher:
// SINK_UNREACHABLE is transient and retried with backoff, SINK_REJECTED means
// the destination refused the payload and retrying cannot help.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, rec candidate.Record) error
}
