// Package ledger persists which inputs the pipeline has already fully
// processed: local files keyed by full-file content hash, Drive files keyed
// by their Drive file ID.
package ledger

import "context"

// Store is the dedup gate consulted before any extraction work and written
// after a commit. Recording an already present key is a no-op, never an
// error. Implementations serialize check-then-record so two near-simultaneous
// events for the same content cannot both pass the gate.
type Store interface {
	Has(ctx context.Context, hash string) (bool, error)
	Record(ctx context.Context, hash, path string) error

	HasDriveFile(ctx context.Context, id string) (bool, error)
	RecordDriveFile(ctx context.Context, id string) error

	Close() error
}
