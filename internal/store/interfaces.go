package store

import (
	"context"

	"medrisk.app/console/internal/model"
)

// HistoryStore is the contract for the append-only prediction history log.
// The store exclusively owns HistoryEntry lifecycle: create, list, bulk
// delete. Entries are never updated.
type HistoryStore interface {
	// Append durably records one entry and fills in the server-assigned
	// CreatedAt. A rejected write surfaces as a PersistenceError.
	Append(ctx context.Context, entry *model.HistoryEntry) error

	// ListBySubject returns the subject's full current snapshot, ordered
	// by creation time. The order is presentation-only.
	ListBySubject(ctx context.Context, subjectID string) (model.HistorySnapshot, error)

	// ListIDsBySubject returns the identities of the subject's current
	// entries. First phase of the two-phase clear.
	ListIDsBySubject(ctx context.Context, subjectID string) ([]int64, error)

	// DeleteByIDs removes exactly the given entries. Entries appended
	// after the id read are untouched.
	DeleteByIDs(ctx context.Context, subjectID string, ids []int64) error
}
