package savings

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/nestegg-finance/backend/internal/types"
	"github.com/shopspring/decimal"
)

// Ledger is the append-only record of allocations.
type Ledger struct {
	store store.Store
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// MonthlyTotal sums the allocations of one plan in one month.
type MonthlyTotal struct {
	Month     types.Month     `json:"month" swaggertype:"string" example:"2024-03"`
	Allocated decimal.Decimal `json:"allocated" example:"450"`
	Count     int             `json:"count" example:"2"`
}

func (l *Ledger) allocations() store.Collection[models.Allocation] {
	return l.store.Allocations()
}

// Append stores a new allocation.
//
// If the plan already has an allocation for the income transaction, the
// returned error wraps models.ErrAllocationExists.
func (l *Ledger) Append(ctx context.Context, a models.Allocation) (models.Allocation, error) {
	if err := a.Validate(); err != nil {
		return models.Allocation{}, invalid(err)
	}

	_, err := l.allocations().Add(ctx, &a)
	if err != nil {
		return models.Allocation{}, fmt.Errorf("appending allocation of %s to plan %s: %w", a.SourceTransactionID, a.PlanID, invalid(err))
	}

	return a, nil
}

// ListByUser returns all allocations of the user, newest first.
func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]models.Allocation, error) {
	allocations, err := l.allocations().Query(ctx, store.Where("userId", store.Equal, userID).Desc("date"))
	if err != nil {
		return nil, fmt.Errorf("loading allocations: %w", err)
	}

	return allocations, nil
}

// ListByPlan returns all allocations of the plan, newest first.
func (l *Ledger) ListByPlan(ctx context.Context, planID uuid.UUID) ([]models.Allocation, error) {
	allocations, err := l.allocations().Query(ctx, store.Where("planId", store.Equal, planID).Desc("date"))
	if err != nil {
		return nil, fmt.Errorf("loading allocations of plan %s: %w", planID, err)
	}

	return allocations, nil
}

// SumForPlan rebuilds the cumulative total of the plan from its allocations.
func (l *Ledger) SumForPlan(ctx context.Context, planID uuid.UUID) (decimal.Decimal, error) {
	allocations, err := l.ListByPlan(ctx, planID)
	if err != nil {
		return decimal.Zero, err
	}

	return models.SumAllocated(allocations, planID), nil
}

// Subscribe calls fn with all allocations of the user, newest first, every
// time an allocation changes.
func (l *Ledger) Subscribe(ctx context.Context, userID string, fn func([]models.Allocation)) (store.Unsubscribe, error) {
	return l.allocations().Subscribe(ctx, store.Where("userId", store.Equal, userID).Desc("date"), fn)
}

// MonthlySummary groups the allocations of the plan by month, newest first.
func (l *Ledger) MonthlySummary(ctx context.Context, planID uuid.UUID) ([]MonthlyTotal, error) {
	allocations, err := l.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[types.Month]*MonthlyTotal)
	for _, a := range allocations {
		month := types.MonthOf(a.Date)

		total, ok := byMonth[month]
		if !ok {
			total = &MonthlyTotal{Month: month, Allocated: decimal.Zero}
			byMonth[month] = total
		}

		total.Allocated = total.Allocated.Add(a.AllocatedAmount)
		total.Count++
	}

	summary := make([]MonthlyTotal, 0, len(byMonth))
	for _, total := range byMonth {
		summary = append(summary, *total)
	}

	sort.Slice(summary, func(i, j int) bool {
		return summary[i].Month.After(summary[j].Month)
	})

	return summary, nil
}

// Purge deletes all allocations of the plan and returns how many there were.
//
// This destroys history and is only meant for removing plans for good.
func (l *Ledger) Purge(ctx context.Context, planID uuid.UUID) (int, error) {
	allocations, err := l.ListByPlan(ctx, planID)
	if err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, 0, len(allocations))
	for _, a := range allocations {
		ids = append(ids, a.ID)
	}

	err = l.allocations().BatchDelete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("purging allocations of plan %s: %w", planID, err)
	}

	return len(ids), nil
}

// IsDuplicate reports if err is caused by an allocation that already exists.
func IsDuplicate(err error) bool {
	return errors.Is(err, models.ErrAllocationExists)
}
