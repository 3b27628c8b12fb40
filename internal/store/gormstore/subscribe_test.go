package gormstore_test

import (
	"context"
	"time"

	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/shopspring/decimal"
)

// receive waits for the next snapshot.
func (suite *TestSuiteStandard) receive(snapshots <-chan []models.Plan) []models.Plan {
	select {
	case s := <-snapshots:
		return s
	case <-time.After(5 * time.Second):
		suite.FailNow("no snapshot delivered")
		return nil
	}
}

// eventually waits until a snapshot satisfies the condition. Changes can
// be coalesced, so intermediate snapshots may be skipped.
func (suite *TestSuiteStandard) eventually(snapshots <-chan []models.Plan, condition func([]models.Plan) bool) {
	for {
		if condition(suite.receive(snapshots)) {
			return
		}
	}
}

func (suite *TestSuiteStandard) TestSubscribe() {
	suite.createPlan("user-1", "Existing", 10)

	snapshots := make(chan []models.Plan, 16)
	unsubscribe, err := suite.store.Plans().Subscribe(context.Background(), store.Where("userId", store.Equal, "user-1"), func(plans []models.Plan) {
		snapshots <- plans
	})
	suite.Require().Nil(err)
	defer unsubscribe()

	suite.Assert().Len(suite.receive(snapshots), 1, "the current state is delivered first")

	p := suite.createPlan("user-1", "New", 20)
	suite.eventually(snapshots, func(plans []models.Plan) bool { return len(plans) == 2 })

	suite.Require().Nil(suite.store.Plans().Update(context.Background(), p.ID, map[string]any{"active": false}))
	suite.eventually(snapshots, func(plans []models.Plan) bool {
		for _, plan := range plans {
			if plan.ID == p.ID {
				return !plan.Active
			}
		}
		return false
	})
}

func (suite *TestSuiteStandard) TestUnsubscribe() {
	calls := make(chan []models.Plan, 16)
	unsubscribe, err := suite.store.Plans().Subscribe(context.Background(), store.Query{}, func(plans []models.Plan) {
		calls <- plans
	})
	suite.Require().Nil(err)

	suite.receive(calls)
	unsubscribe()
	unsubscribe()

	suite.createPlan("user-1", "After", 10)

	select {
	case plans := <-calls:
		suite.Failf("delivery after unsubscribe", "got %d plans", len(plans))
	case <-time.After(200 * time.Millisecond):
	}
}

func (suite *TestSuiteStandard) TestSubscribeContextCancelled() {
	ctx, cancel := context.WithCancel(context.Background())

	calls := make(chan []models.Plan, 16)
	_, err := suite.store.Plans().Subscribe(ctx, store.Query{}, func(plans []models.Plan) {
		calls <- plans
	})
	suite.Require().Nil(err)
	suite.receive(calls)

	cancel()
	time.Sleep(50 * time.Millisecond)
	suite.createPlan("user-1", "After", 10)

	select {
	case <-calls:
		suite.Fail("delivery after the context was cancelled")
	case <-time.After(200 * time.Millisecond):
	}
}

func (suite *TestSuiteStandard) TestSubscribeInvalidQuery() {
	_, err := suite.store.Plans().Subscribe(context.Background(), store.Where("owner", store.Equal, "x"), func([]models.Plan) {})
	suite.Assert().ErrorIs(err, store.ErrInvalidQuery)
}

func (suite *TestSuiteStandard) TestSubscriptionsAreScopedToTheirCollection() {
	calls := make(chan []models.Plan, 16)
	unsubscribe, err := suite.store.Plans().Subscribe(context.Background(), store.Query{}, func(plans []models.Plan) {
		calls <- plans
	})
	suite.Require().Nil(err)
	defer unsubscribe()
	suite.receive(calls)

	tx := models.Transaction{UserID: "user-1", Category: "Food", Outbound: decimal.NewFromInt(10)}
	_, err = suite.store.Transactions().Add(context.Background(), &tx)
	suite.Require().Nil(err)

	select {
	case <-calls:
		suite.Fail("plans subscription notified about a transaction")
	case <-time.After(200 * time.Millisecond):
	}
}
