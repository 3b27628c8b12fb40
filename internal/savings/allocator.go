package savings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"
)

// Result counts what an allocation run did.
type Result struct {
	Processed int `json:"processed" example:"2"` // Income transactions that had no allocation yet
	Created   int `json:"created" example:"6"`   // Allocations appended to the ledger
	Skipped   int `json:"skipped" example:"0"`   // Plan and income pairs that failed
}

// Allocator routes unallocated income to the active plans.
//
// Runs are idempotent: every plan receives at most one allocation per
// income transaction, so they can be repeated at any time.
type Allocator struct {
	registry *Registry
	income   *IncomeReader
	ledger   *Ledger

	// runs deduplicates concurrent runs for the same user
	runs singleflight.Group
}

func NewAllocator(registry *Registry, income *IncomeReader, ledger *Ledger) *Allocator {
	return &Allocator{
		registry: registry,
		income:   income,
		ledger:   ledger,
	}
}

// Process allocates all income of the user that has not been allocated to
// any plan yet.
//
// Failures to load plans, income or allocations abort the run. Failures
// of single allocations are counted as skipped and do not.
//
// A call while a run for the same user is in progress waits for that run
// and returns its result. The run is shared, so it does not end when the
// context of the caller that started it is canceled.
func (a *Allocator) Process(ctx context.Context, userID string) (Result, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := a.runs.Do(userID, func() (any, error) {
		return a.process(shared, userID)
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	allocationRuns.WithLabelValues(outcome).Inc()

	result, _ := v.(Result)
	return result, err
}

func (a *Allocator) process(ctx context.Context, userID string) (Result, error) {
	logger := log.With().Str("user", userID).Logger()

	plans, err := a.registry.ListActive(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("loading active plans: %w", err)
	}

	if len(plans) == 0 {
		logger.Debug().Msg("no active plans, nothing to allocate")
		return Result{}, nil
	}

	incomes, err := a.income.ListIncome(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	allocations, err := a.ledger.ListByUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	// Income is allocated as soon as any plan has an allocation for it
	allocated := make(map[uuid.UUID]bool, len(allocations))
	for _, allocation := range allocations {
		allocated[allocation.SourceTransactionID] = true
	}

	unallocated := make([]models.Income, 0, len(incomes))
	for _, income := range incomes {
		if !allocated[income.ID] {
			unallocated = append(unallocated, income)
		}
	}

	// Oldest first so that the running totals grow chronologically
	slices.SortStableFunc(unallocated, func(a, b models.Income) int {
		return a.Date.Compare(b.Date)
	})

	running := make(map[uuid.UUID]decimal.Decimal, len(plans))
	for _, plan := range plans {
		running[plan.ID] = models.SumAllocated(allocations, plan.ID)
	}

	result := Result{Processed: len(unallocated)}
	for _, income := range unallocated {
		for _, plan := range plans {
			allocation, err := a.ledger.Append(ctx, models.NewAllocation(plan, income, running[plan.ID]))
			if err != nil {
				logger.Warn().Err(err).Str("plan", plan.ID.String()).Str("income", income.ID.String()).Msg("skipping allocation")
				result.Skipped++
				continue
			}

			running[plan.ID] = allocation.CumulativeTotalForPlan
			result.Created++
		}
	}

	allocationsCreated.Add(float64(result.Created))
	allocationsSkipped.Add(float64(result.Skipped))

	if err := a.refresh(ctx, userID, plans); err != nil {
		return result, err
	}

	logger.Info().
		Int("processed", result.Processed).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("allocated income")

	return result, nil
}

// refresh rebuilds the cumulative totals of the plans from the ledger.
func (a *Allocator) refresh(ctx context.Context, userID string, plans []models.Plan) error {
	allocations, err := a.ledger.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, plan := range plans {
		total := models.SumAllocated(allocations, plan.ID)
		if err := a.registry.UpdateCumulativeTotal(ctx, plan.ID, total); err != nil {
			return fmt.Errorf("updating cumulative total of plan %s: %w", plan.ID, err)
		}
	}

	return nil
}

// RecalculatePlan rebuilds the cumulative total of the plan from its
// allocations and stores it. Allocations are never changed: they keep the
// percentage that was in effect when they were created.
func (a *Allocator) RecalculatePlan(ctx context.Context, planID uuid.UUID) (decimal.Decimal, error) {
	if _, err := a.registry.Get(ctx, planID); err != nil {
		return decimal.Zero, err
	}

	total, err := a.ledger.SumForPlan(ctx, planID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := a.registry.UpdateCumulativeTotal(ctx, planID, total); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}
