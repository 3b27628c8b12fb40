package savings_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/clock"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/savings"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestProcessWithoutPlans() {
	suite.createIncome(1000, now)

	result, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{}, result)
}

func (suite *TestSuiteStandard) TestProcessAllocationMath() {
	p := suite.createPlan("Emergency fund", 20)
	income := suite.createIncome(1000, now)

	result, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{Processed: 1, Created: 1}, result)

	allocations, err := suite.ledger.ListByPlan(context.Background(), p.ID)
	suite.Require().Nil(err)
	suite.Require().Len(allocations, 1)

	a := allocations[0]
	suite.Assert().Equal("200.00", a.AllocatedAmount.StringFixed(2))
	suite.Assert().True(decimal.NewFromInt(1000).Equal(a.IncomeAmount))
	suite.Assert().Equal(income.ID, a.SourceTransactionID)
	suite.Assert().Equal("Emergency fund", a.PlanName)
	suite.Assert().Equal(user, a.UserID)
	suite.Assert().True(income.Date.Equal(a.Date))
	suite.Assert().True(decimal.NewFromInt(200).Equal(a.CumulativeTotalForPlan))
}

func (suite *TestSuiteStandard) TestProcessIsIdempotent() {
	emergency := suite.createPlan("Emergency fund", 10)
	vacation := suite.createPlan("Vacation", 20)
	suite.createIncome(1000, now.AddDate(0, -1, 0))
	suite.createIncome(2000, now)

	// Expenses are never allocated
	suite.createExpense("Groceries", 50, now)

	result, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{Processed: 2, Created: 4}, result)
	suite.assertCumulative(emergency, 300)
	suite.assertCumulative(vacation, 600)

	result, err = suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{}, result, "a second run must not allocate anything")
	suite.assertCumulative(emergency, 300)
	suite.assertCumulative(vacation, 600)

	allocations, err := suite.ledger.ListByUser(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Len(allocations, 4)
}

func (suite *TestSuiteStandard) TestProcessNewIncome() {
	p := suite.createPlan("Emergency fund", 10)
	suite.createIncome(1000, now.AddDate(0, -1, 0))

	_, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)

	suite.createIncome(500, now)
	result, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{Processed: 1, Created: 1}, result)
	suite.assertCumulative(p, 150)
}

func (suite *TestSuiteStandard) TestProcessRunningTotalsAreChronological() {
	p := suite.createPlan("Emergency fund", 10)

	// Created newest first
	suite.createIncome(3000, now)
	suite.createIncome(2000, now.AddDate(0, -1, 0))
	suite.createIncome(1000, now.AddDate(0, -2, 0))

	_, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)

	// Newest first
	allocations, err := suite.ledger.ListByPlan(context.Background(), p.ID)
	suite.Require().Nil(err)
	suite.Require().Len(allocations, 3)

	for i, expected := range []int64{600, 300, 100} {
		suite.Assert().True(decimal.NewFromInt(expected).Equal(allocations[i].CumulativeTotalForPlan), "allocation %d: expected %d, got %s", i, expected, allocations[i].CumulativeTotalForPlan)
	}
}

// Income that is allocated to any plan is not allocated to plans created
// later.
func (suite *TestSuiteStandard) TestProcessLaterPlansSkipAllocatedIncome() {
	suite.createPlan("Emergency fund", 10)
	suite.createIncome(1000, now.AddDate(0, -1, 0))

	_, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)

	vacation := suite.createPlan("Vacation", 10)
	result, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{}, result)
	suite.assertCumulative(vacation, 0)
}

func (suite *TestSuiteStandard) TestProcessIgnoresInactivePlans() {
	active := suite.createPlan("Emergency fund", 10)
	inactive := suite.createPlan("Vacation", 10)
	suite.Require().Nil(suite.registry.SoftDelete(context.Background(), inactive.ID))
	suite.createIncome(1000, now)

	result, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{Processed: 1, Created: 1}, result)
	suite.assertCumulative(active, 100)
	suite.assertCumulative(inactive, 0)
}

func (suite *TestSuiteStandard) TestProcessOnlyAllocatesOwnIncome() {
	suite.createPlan("Emergency fund", 10)

	other := models.Transaction{UserID: "user-2", Date: now, Inbound: decimal.NewFromInt(1000)}
	_, err := suite.store.Transactions().Add(context.Background(), &other)
	suite.Require().Nil(err)

	result, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{}, result)
}

func (suite *TestSuiteStandard) TestProcessConcurrently() {
	p := suite.createPlan("Emergency fund", 10)
	suite.createIncome(1000, now.AddDate(0, -1, 0))
	suite.createIncome(1000, now)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.allocator.Process(context.Background(), user)
			suite.Assert().Nil(err)
		}()
	}
	wg.Wait()

	allocations, err := suite.ledger.ListByPlan(context.Background(), p.ID)
	suite.Require().Nil(err)
	suite.Assert().Len(allocations, 2)
	suite.assertCumulative(p, 200)
}

func (suite *TestSuiteStandard) TestProcessStoreError() {
	suite.createPlan("Emergency fund", 10)
	suite.createIncome(1000, now)
	suite.CloseDB()

	_, err := suite.allocator.Process(context.Background(), user)

	var storeErr *store.Error
	suite.Assert().True(errors.As(err, &storeErr), "store errors while loading are fatal")
}

func (suite *TestSuiteStandard) TestRecalculatePlanKeepsAllocations() {
	p := suite.createPlan("Emergency fund", 10)
	suite.createIncome(1000, now.AddDate(0, -1, 0))
	suite.createIncome(1000, now)

	_, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)

	before, err := suite.ledger.ListByPlan(context.Background(), p.ID)
	suite.Require().Nil(err)

	_, err = suite.registry.Update(context.Background(), p.ID, savings.PlanPatch{PercentageOfIncome: ptr(decimal.NewFromInt(50))})
	suite.Require().Nil(err)

	// Drift the cache to verify it is rebuilt from the ledger
	suite.Require().Nil(suite.registry.UpdateCumulativeTotal(context.Background(), p.ID, decimal.NewFromInt(12345)))

	total, err := suite.allocator.RecalculatePlan(context.Background(), p.ID)
	suite.Require().Nil(err)
	suite.Assert().True(decimal.NewFromInt(200).Equal(total), "got %s", total)
	suite.assertCumulative(p, 200)

	after, err := suite.ledger.ListByPlan(context.Background(), p.ID)
	suite.Require().Nil(err)
	suite.Assert().Equal(before, after, "recalculation must not rewrite allocations")
}

func (suite *TestSuiteStandard) TestRecalculatePlanNotFound() {
	_, err := suite.allocator.RecalculatePlan(context.Background(), uuid.New())
	suite.Assert().ErrorIs(err, savings.ErrPlanNotFound)
}

// failingStore lets the allocation of one plan and income pair fail.
type failingStore struct {
	store.Store
	plan, income uuid.UUID

	// concurrent stores the allocation through the wrapped store right
	// before it is added, as a concurrent run for the same user would.
	// Otherwise, adding it fails with errAppend.
	concurrent bool
}

var errAppend = errors.New("write failed")

func (s failingStore) Allocations() store.Collection[models.Allocation] {
	return failingAllocations{Collection: s.Store.Allocations(), store: s}
}

type failingAllocations struct {
	store.Collection[models.Allocation]
	store failingStore
}

func (c failingAllocations) Add(ctx context.Context, doc *models.Allocation) (uuid.UUID, error) {
	if doc.PlanID != c.store.plan || doc.SourceTransactionID != c.store.income {
		return c.Collection.Add(ctx, doc)
	}

	if !c.store.concurrent {
		return uuid.Nil, errAppend
	}

	competing := *doc
	if _, err := c.Collection.Add(ctx, &competing); err != nil {
		return uuid.Nil, err
	}

	return c.Collection.Add(ctx, doc)
}

func (suite *TestSuiteStandard) TestProcessIsolatesFailedPairs() {
	emergency := suite.createPlan("Emergency fund", 10)
	vacation := suite.createPlan("Vacation", 20)
	older := suite.createIncome(1000, now.AddDate(0, -1, 0))
	newer := suite.createIncome(2000, now)

	tests := []struct {
		name       string
		plan       models.Plan
		income     models.Transaction
		concurrent bool
		emergency  int64
		vacation   int64
		count      int
	}{
		{"Write fails for the first pair", emergency, older, false, 200, 600, 3},
		{"Concurrent run created the last pair", vacation, newer, true, 300, 600, 4},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			// Start with an empty ledger and fresh totals
			allocations, err := suite.ledger.ListByUser(context.Background(), user)
			require.Nil(t, err)
			ids := make([]uuid.UUID, 0, len(allocations))
			for _, a := range allocations {
				ids = append(ids, a.ID)
			}
			require.Nil(t, suite.store.Allocations().BatchDelete(context.Background(), ids))

			e := savings.NewEngine(failingStore{
				Store:      suite.store,
				plan:       tt.plan.ID,
				income:     tt.income.ID,
				concurrent: tt.concurrent,
			}, clock.Fixed(now))

			result, err := e.Allocator.Process(context.Background(), user)
			require.Nil(t, err, "failures of single allocations do not abort the run")
			assert.Equal(t, savings.Result{Processed: 2, Created: 3, Skipped: 1}, result)

			suite.assertCumulative(emergency, tt.emergency)
			suite.assertCumulative(vacation, tt.vacation)

			allocations, err = suite.ledger.ListByUser(context.Background(), user)
			require.Nil(t, err)
			assert.Len(t, allocations, tt.count)
		})
	}
}

func (suite *TestSuiteStandard) TestProcessIgnoresCanceledCaller() {
	p := suite.createPlan("Emergency fund", 10)
	suite.createIncome(1000, now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := suite.allocator.Process(ctx, user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{Processed: 1, Created: 1}, result)
	suite.assertCumulative(p, 100)
}
