// Package store defines the persistence collaborator of the savings engine.
//
// A store holds collections of documents. Every collection supports
// lookups by ID, filtered and ordered queries, inserts with store-assigned
// IDs and creation timestamps, partial updates, batch deletes and
// subscriptions that push a full snapshot of the query result on every
// change of the collection.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/models"
)

// Collection names.
const (
	CollectionPlans        = "plans"
	CollectionAllocations  = "allocations"
	CollectionTransactions = "transactions"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidQuery is returned for queries and updates naming unknown
	// fields or operators.
	ErrInvalidQuery = errors.New("invalid query")
)

// Error is a failure of the underlying store, e.g. a lost connection.
type Error struct {
	Op         string // The operation that failed, e.g. "query"
	Collection string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unsubscribe stops a subscription. It is safe to call it more than once.
type Unsubscribe func()

// Collection is a typed collection of documents.
type Collection[T any] interface {
	// Get returns the document with the ID. If there is none, the
	// returned error wraps ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (T, error)

	// Query returns all documents matching the query.
	Query(ctx context.Context, q Query) ([]T, error)

	// Add inserts the document. The store assigns the ID unless it is
	// already set, as well as the creation and update timestamps.
	Add(ctx context.Context, doc *T) (uuid.UUID, error)

	// Update sets the fields of the document with the ID. Keys are
	// document field names.
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error

	// BatchDelete deletes all documents with the IDs.
	BatchDelete(ctx context.Context, ids []uuid.UUID) error

	// Subscribe calls fn with the current result of the query and again
	// with the full refreshed result after every change of the collection,
	// until the returned Unsubscribe is called or ctx is done.
	//
	// fn is never called concurrently for one subscription.
	Subscribe(ctx context.Context, q Query, fn func([]T)) (Unsubscribe, error)
}

// Store bundles the collections the savings engine works with.
type Store interface {
	Plans() Collection[models.Plan]
	Allocations() Collection[models.Allocation]
	Transactions() Collection[models.Transaction]
	Close() error
}
