package savings_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/savings"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestCreate() {
	target := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	p, err := suite.registry.Create(context.Background(), savings.PlanDraft{
		UserID:             user,
		Name:               "  Vacation ",
		TargetCategory:     "Travel",
		PercentageOfIncome: decimal.NewFromInt(15),
		TargetAmount:       decimal.NewNullDecimal(decimal.NewFromInt(3000)),
		TargetDate:         &target,
	})
	suite.Require().Nil(err)

	stored := suite.getPlan(p)
	suite.Assert().Equal("Vacation", stored.Name)
	suite.Assert().True(stored.Active)
	suite.Assert().Equal(models.DefaultHealthScore, stored.HealthScore)
	suite.Assert().True(stored.CumulativeTotal.IsZero())
	suite.Assert().True(stored.TargetAmount.Valid)
	suite.Require().NotNil(stored.TargetDate)
	suite.Assert().True(target.Equal(*stored.TargetDate))
}

func (suite *TestSuiteStandard) TestCreateInvalid() {
	tests := []struct {
		name  string
		draft savings.PlanDraft
		field string
	}{
		{"Negative percentage", savings.PlanDraft{UserID: user, Name: "Plan", PercentageOfIncome: decimal.NewFromInt(-1)}, "percentageOfIncome"},
		{"Percentage above 100", savings.PlanDraft{UserID: user, Name: "Plan", PercentageOfIncome: decimal.NewFromInt(101)}, "percentageOfIncome"},
		{"No name", savings.PlanDraft{UserID: user, PercentageOfIncome: decimal.NewFromInt(10)}, "name"},
		{"No user", savings.PlanDraft{Name: "Plan", PercentageOfIncome: decimal.NewFromInt(10)}, "userId"},
		{"Zero target", savings.PlanDraft{UserID: user, Name: "Plan", PercentageOfIncome: decimal.NewFromInt(10), TargetAmount: decimal.NewNullDecimal(decimal.Zero)}, "targetAmount"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			_, err := suite.registry.Create(context.Background(), tt.draft)

			var v *savings.ValidationError
			if assert.True(t, errors.As(err, &v), "error is %v", err) {
				assert.Equal(t, tt.field, v.Field)
			}
		})
	}

	plans, err := suite.registry.List(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Len(plans, 0, "no plan must be written")
}

func (suite *TestSuiteStandard) TestCreateExceedsLimit() {
	suite.createPlan("Emergency fund", 60)

	_, err := suite.registry.Create(context.Background(), savings.PlanDraft{
		UserID:             user,
		Name:               "Vacation",
		PercentageOfIncome: decimal.NewFromInt(50),
	})
	suite.Assert().True(savings.IsValidation(err))
	suite.Assert().ErrorIs(err, savings.ErrAllocationLimitExceeded)
	suite.Assert().Contains(err.Error(), "would be 110%")

	plans, err := suite.registry.List(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Len(plans, 1, "no plan must be written")
}

func (suite *TestSuiteStandard) TestCreateLimitIsPerUser() {
	suite.createPlan("Emergency fund", 80)

	_, err := suite.registry.Create(context.Background(), savings.PlanDraft{
		UserID:             "user-2",
		Name:               "Vacation",
		PercentageOfIncome: decimal.NewFromInt(80),
	})
	suite.Assert().Nil(err)
}

func (suite *TestSuiteStandard) TestCreateIgnoresInactivePlans() {
	p := suite.createPlan("Emergency fund", 80)
	suite.Require().Nil(suite.registry.SoftDelete(context.Background(), p.ID))

	suite.createPlan("Vacation", 80)
}

func (suite *TestSuiteStandard) TestUpdate() {
	p := suite.createPlan("Emergency fund", 10)
	target := sql.NullTime{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true}

	updated, err := suite.registry.Update(context.Background(), p.ID, savings.PlanPatch{
		Name:               ptr("Rainy days"),
		PercentageOfIncome: ptr(decimal.NewFromInt(25)),
		TargetAmount:       ptr(decimal.NewNullDecimal(decimal.NewFromInt(1000))),
		TargetDate:         &target,
	})
	suite.Require().Nil(err)
	suite.Assert().Equal("Rainy days", updated.Name)
	suite.Assert().True(decimal.NewFromInt(25).Equal(updated.PercentageOfIncome))
	suite.Assert().True(updated.HasGoal())

	// Removing the goal
	updated, err = suite.registry.Update(context.Background(), p.ID, savings.PlanPatch{
		TargetAmount: ptr(decimal.NullDecimal{}),
		TargetDate:   &sql.NullTime{},
	})
	suite.Require().Nil(err)
	suite.Assert().False(updated.TargetAmount.Valid)
	suite.Assert().Nil(updated.TargetDate)
}

func (suite *TestSuiteStandard) TestUpdateExceedsLimit() {
	suite.createPlan("Emergency fund", 60)
	p := suite.createPlan("Vacation", 30)

	// The plan itself is not counted twice
	_, err := suite.registry.Update(context.Background(), p.ID, savings.PlanPatch{PercentageOfIncome: ptr(decimal.NewFromInt(40))})
	suite.Require().Nil(err)

	_, err = suite.registry.Update(context.Background(), p.ID, savings.PlanPatch{PercentageOfIncome: ptr(decimal.NewFromInt(41))})
	suite.Assert().ErrorIs(err, savings.ErrAllocationLimitExceeded)
	suite.Assert().Contains(err.Error(), "would be 101%")

	stored := suite.getPlan(p)
	suite.Assert().True(decimal.NewFromInt(40).Equal(stored.PercentageOfIncome), "the failed update must not be written")
}

func (suite *TestSuiteStandard) TestUpdateReactivationChecksLimit() {
	p := suite.createPlan("Emergency fund", 60)
	suite.Require().Nil(suite.registry.SoftDelete(context.Background(), p.ID))
	suite.createPlan("Vacation", 60)

	_, err := suite.registry.Update(context.Background(), p.ID, savings.PlanPatch{Active: ptr(true)})
	suite.Assert().ErrorIs(err, savings.ErrAllocationLimitExceeded)
	suite.Assert().False(suite.getPlan(p).Active)
}

func (suite *TestSuiteStandard) TestUpdateNotFound() {
	_, err := suite.registry.Update(context.Background(), uuid.New(), savings.PlanPatch{Name: ptr("Nothing")})
	suite.Assert().ErrorIs(err, savings.ErrPlanNotFound)
}

func (suite *TestSuiteStandard) TestGetNotFound() {
	_, err := suite.registry.Get(context.Background(), uuid.New())
	suite.Assert().ErrorIs(err, savings.ErrPlanNotFound)
	suite.Assert().ErrorIs(err, store.ErrNotFound)

	var storeErr *store.Error
	suite.Assert().False(errors.As(err, &storeErr), "not found must be distinct from store errors")
}

func (suite *TestSuiteStandard) TestGetStoreError() {
	suite.CloseDB()

	_, err := suite.registry.Get(context.Background(), uuid.New())
	suite.Assert().NotErrorIs(err, savings.ErrPlanNotFound)

	var storeErr *store.Error
	suite.Assert().True(errors.As(err, &storeErr))
}

func (suite *TestSuiteStandard) TestSoftDeletePreservesHistory() {
	p := suite.createPlan("Emergency fund", 10)
	for i := 0; i < 3; i++ {
		suite.createIncome(1000, now.AddDate(0, -i, 0))
	}

	_, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)

	before, err := suite.ledger.ListByPlan(context.Background(), p.ID)
	suite.Require().Nil(err)
	suite.Require().Len(before, 3)

	suite.Require().Nil(suite.registry.SoftDelete(context.Background(), p.ID))
	suite.Assert().False(suite.getPlan(p).Active)

	after, err := suite.ledger.ListByPlan(context.Background(), p.ID)
	suite.Require().Nil(err)
	suite.Assert().Equal(before, after)

	active, err := suite.registry.ListActive(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Len(active, 0)

	all, err := suite.registry.List(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Len(all, 1)
}

func (suite *TestSuiteStandard) TestSoftDeleteNotFound() {
	suite.Assert().ErrorIs(suite.registry.SoftDelete(context.Background(), uuid.New()), savings.ErrPlanNotFound)
}

func (suite *TestSuiteStandard) TestUpdateCumulativeTotalNegative() {
	p := suite.createPlan("Emergency fund", 10)

	err := suite.registry.UpdateCumulativeTotal(context.Background(), p.ID, decimal.NewFromInt(-1))
	suite.Assert().True(savings.IsValidation(err))
}

func (suite *TestSuiteStandard) TestUpdateHealthScore() {
	p := suite.createPlan("Emergency fund", 10)

	suite.Require().Nil(suite.registry.UpdateHealthScore(context.Background(), p.ID, 42))
	suite.Assert().Equal(42, suite.getPlan(p).HealthScore)

	for _, score := range []int{-1, 101} {
		err := suite.registry.UpdateHealthScore(context.Background(), p.ID, score)
		suite.Assert().ErrorIs(err, models.ErrHealthScoreOutOfRange)
		suite.Assert().True(savings.IsValidation(err))
	}
	suite.Assert().Equal(42, suite.getPlan(p).HealthScore)
}

func (suite *TestSuiteStandard) TestListActiveOrder() {
	first := suite.createPlan("First", 10)
	second := suite.createPlan("Second", 10)

	plans, err := suite.registry.ListActive(context.Background(), user)
	suite.Require().Nil(err)
	suite.Require().Len(plans, 2)
	suite.Assert().Equal(first.ID, plans[0].ID)
	suite.Assert().Equal(second.ID, plans[1].ID)
}

func (suite *TestSuiteStandard) TestSubscribe() {
	updates := make(chan []models.Plan, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	unsubscribe, err := suite.registry.Subscribe(ctx, user, func(plans []models.Plan) {
		updates <- plans
	})
	suite.Require().Nil(err)
	defer unsubscribe()

	suite.Assert().Len(suite.receive(updates), 0)

	p := suite.createPlan("Emergency fund", 10)
	suite.Assert().Len(suite.receive(updates), 1)

	suite.Require().Nil(suite.registry.SoftDelete(context.Background(), p.ID))
	suite.Assert().Eventually(func() bool {
		select {
		case plans := <-updates:
			return len(plans) == 1 && !plans[0].Active
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "inactive plans are part of the snapshot")
}

func (suite *TestSuiteStandard) receive(updates chan []models.Plan) []models.Plan {
	select {
	case plans := <-updates:
		return plans
	case <-time.After(time.Second):
		suite.FailNow("no snapshot received")
		return nil
	}
}

func ptr[T any](v T) *T {
	return &v
}
