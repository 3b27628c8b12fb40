package savings

import (
	"context"
	"fmt"

	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
)

// IncomeReader reads the shared expense ledger. It never writes to it.
type IncomeReader struct {
	store store.Store
}

func NewIncomeReader(s store.Store) *IncomeReader {
	return &IncomeReader{store: s}
}

// ListTransactions returns all ledger entries of the user, newest first.
//
// Entries are classified by the callers instead of in the query since
// document stores can not combine inequality filters with ordering by
// another field.
func (r *IncomeReader) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	transactions, err := r.store.Transactions().Query(ctx, store.Where("userId", store.Equal, userID).Desc("date"))
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}

	return transactions, nil
}

// ListIncome returns all ledger entries of the user with a positive
// inbound amount, newest first.
func (r *IncomeReader) ListIncome(ctx context.Context, userID string) ([]models.Income, error) {
	transactions, err := r.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	incomes := make([]models.Income, 0, len(transactions))
	for _, t := range transactions {
		if income, ok := models.IncomeOf(t); ok {
			incomes = append(incomes, income)
		}
	}

	return incomes, nil
}
