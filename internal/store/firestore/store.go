// Package firestore implements the store on Cloud Firestore.
//
// Every user's documents live in the top level collections "plans",
// "allocations" and "transactions". Amounts are stored as numbers,
// identifiers as strings and createdAt / updatedAt as server timestamps.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
	"google.golang.org/api/option"
)

// Store is a store.Store backed by Firestore.
type Store struct {
	client *firestore.Client

	plans        *collection[models.Plan, *models.Plan]
	allocations  *collection[models.Allocation, *models.Allocation]
	transactions *collection[models.Transaction, *models.Transaction]
}

var _ store.Store = &Store{}

// Open connects to the Firestore database of the project.
//
// With an empty credentials path, the application default credentials
// are used. Setting FIRESTORE_EMULATOR_HOST connects to the emulator.
func Open(ctx context.Context, projectID, credentials string) (*Store, error) {
	var opts []option.ClientOption
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to firestore: %w", err)
	}

	return New(client), nil
}

// New returns a store using the client.
func New(client *firestore.Client) *Store {
	return &Store{
		client:       client,
		plans:        newCollection(client, store.CollectionPlans, planCodec),
		allocations:  newCollection(client, store.CollectionAllocations, allocationCodec),
		transactions: newCollection(client, store.CollectionTransactions, transactionCodec),
	}
}

func (s *Store) Plans() store.Collection[models.Plan] {
	return s.plans
}

func (s *Store) Allocations() store.Collection[models.Allocation] {
	return s.allocations
}

func (s *Store) Transactions() store.Collection[models.Transaction] {
	return s.transactions
}

func (s *Store) Close() error {
	return s.client.Close()
}
