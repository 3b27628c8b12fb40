// Package gormstore implements the store on top of gorm.
//
// Changes are published to subscribers through gorm callbacks, so only
// writes made through the same *gorm.DB reach them.
package gormstore

import (
	"fmt"

	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
	"gorm.io/gorm"
)

// Store is a store.Store backed by a SQL database.
type Store struct {
	db   *gorm.DB
	feed *feed

	plans        *collection[models.Plan, *models.Plan]
	allocations  *collection[models.Allocation, *models.Allocation]
	transactions *collection[models.Transaction, *models.Transaction]
}

var _ store.Store = &Store{}

// Open connects to the database and returns a store for it.
func Open(driver, dsn string) (*Store, error) {
	db, err := models.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}

	return New(db)
}

// New returns a store for an already connected and migrated database.
//
// New must only be called once per database since it registers the
// change feed callbacks.
func New(db *gorm.DB) (*Store, error) {
	f := newFeed()

	err := f.register(db)
	if err != nil {
		return nil, fmt.Errorf("registering change feed: %w", err)
	}

	s := &Store{db: db, feed: f}

	s.plans, err = newCollection[models.Plan](db, f, store.CollectionPlans)
	if err != nil {
		return nil, err
	}

	s.allocations, err = newCollection[models.Allocation](db, f, store.CollectionAllocations)
	if err != nil {
		return nil, err
	}

	s.transactions, err = newCollection[models.Transaction](db, f, store.CollectionTransactions)
	if err != nil {
		return nil, err
	}

	return s, nil
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

// DB returns the underlying database.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
