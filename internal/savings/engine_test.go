package savings_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/clock"
	"github.com/nestegg-finance/backend/internal/savings"
)

func (suite *TestSuiteStandard) TestPurgePlan() {
	emergency := suite.createPlan("Emergency fund", 10)
	vacation := suite.createPlan("Vacation", 10)
	suite.createIncome(1000, now)
	suite.createIncome(2000, now.AddDate(0, -1, 0))

	_, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)

	e := savings.NewEngine(suite.store, clock.Fixed(now))
	deleted, err := e.PurgePlan(context.Background(), emergency.ID)
	suite.Require().Nil(err)
	suite.Assert().Equal(2, deleted)

	purged := suite.getPlan(emergency)
	suite.Assert().False(purged.Active)
	suite.assertCumulative(emergency, 0)
	suite.assertCumulative(vacation, 300)

	// Processing again does not give the income to the purged plan
	result, err := suite.allocator.Process(context.Background(), user)
	suite.Require().Nil(err)
	suite.Assert().Equal(savings.Result{}, result)
}

func (suite *TestSuiteStandard) TestPurgePlanNotFound() {
	e := savings.NewEngine(suite.store, clock.Fixed(now))
	_, err := e.PurgePlan(context.Background(), uuid.New())
	suite.Assert().ErrorIs(err, savings.ErrPlanNotFound)
}
