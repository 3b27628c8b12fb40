package savings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/clock"
	"github.com/nestegg-finance/backend/internal/forecast"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/shopspring/decimal"
)

// Engine wires all components of the savings engine to one store.
type Engine struct {
	Store     store.Store
	Registry  *Registry
	Income    *IncomeReader
	Ledger    *Ledger
	Allocator *Allocator
	Advisor   *Advisor
}

func NewEngine(s store.Store, c clock.Clock) *Engine {
	registry := NewRegistry(s)
	income := NewIncomeReader(s)
	ledger := NewLedger(s)

	return &Engine{
		Store:     s,
		Registry:  registry,
		Income:    income,
		Ledger:    ledger,
		Allocator: NewAllocator(registry, income, ledger),
		Advisor:   NewAdvisor(registry, income, forecast.New(c)),
	}
}

// PurgePlan removes a plan for good: it is deactivated, its allocations are
// deleted and its cumulative total is reset. It returns the number of
// deleted allocations.
//
// Income that was allocated to the plan is not allocated again, it stays
// processed for the other plans.
func (e *Engine) PurgePlan(ctx context.Context, id uuid.UUID) (int, error) {
	if err := e.Registry.SoftDelete(ctx, id); err != nil {
		return 0, err
	}

	deleted, err := e.Ledger.Purge(ctx, id)
	if err != nil {
		return 0, err
	}

	if err := e.Registry.UpdateCumulativeTotal(ctx, id, decimal.Zero); err != nil {
		return deleted, fmt.Errorf("resetting cumulative total: %w", err)
	}

	return deleted, nil
}
