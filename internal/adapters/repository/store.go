// Package repository defines the analysis store interface and errors.
package repository

import (
	"context"

	"github.com/okian/vitae/internal/domain/model"
)

// Store provides read/write access to the durable analysis state.
//
// Mutations (Append, Delete) are serialized by implementations so two
// submissions can never race on the underlying document. Reads always
// observe either the pre- or post-mutation snapshot, never a partially
// written one.
type Store interface {
	// Append durably persists a new record and makes it visible to
	// subsequent reads. Returns ErrConflict if the id already exists.
	Append(ctx context.Context, rec *model.AnalysisRecord) error

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.AnalysisRecord, error)

	// List returns records ordered by timestamp descending, skipping
	// the first offset records and truncating to limit. A non-positive
	// limit returns every remaining record; a non-positive offset skips
	// nothing.
	List(ctx context.Context, limit, offset int) ([]*model.AnalysisRecord, error)

	// Delete removes the record with the given id, or ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Snapshot returns every record ordered by timestamp ascending.
	// Read-side computations derive their views from this.
	Snapshot(ctx context.Context) ([]*model.AnalysisRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Close flushes nothing (every mutation is already durable) but
	// rejects further use of the store.
	Close() error
}
