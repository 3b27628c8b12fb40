package savings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/forecast"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Advisor feeds plans and the expense ledger into the forecasting engine.
type Advisor struct {
	registry *Registry
	income   *IncomeReader
	engine   *forecast.Engine
}

func NewAdvisor(registry *Registry, income *IncomeReader, engine *forecast.Engine) *Advisor {
	return &Advisor{
		registry: registry,
		income:   income,
		engine:   engine,
	}
}

// Report is everything the advisor knows about a plan.
type Report struct {
	Plan            models.Plan               `json:"plan"`
	Projection      forecast.Result           `json:"projection"`
	Health          forecast.Health           `json:"health"`
	Recommendations []forecast.Recommendation `json:"recommendations"`
}

// load reads the plan, the user's income, ledger entries and plans.
func (a *Advisor) load(ctx context.Context, planID uuid.UUID) (forecast.Input, error) {
	plan, err := a.registry.Get(ctx, planID)
	if err != nil {
		return forecast.Input{}, err
	}

	in := forecast.Input{Plan: plan}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		in.Income, err = a.income.ListIncome(gctx, plan.UserID)
		return
	})

	g.Go(func() (err error) {
		in.Transactions, err = a.income.ListTransactions(gctx, plan.UserID)
		return
	})

	g.Go(func() (err error) {
		in.Plans, err = a.registry.List(gctx, plan.UserID)
		return
	})

	return in, g.Wait()
}

// Projections projects the plan over the next income events.
func (a *Advisor) Projections(ctx context.Context, planID uuid.UUID) (forecast.Result, error) {
	in, err := a.load(ctx, planID)
	if err != nil {
		return forecast.Result{}, err
	}

	return a.engine.GenerateProjections(in.Plan, in.Income), nil
}

// Simulate projects the plan with a different percentage of income.
// Nothing is stored.
func (a *Advisor) Simulate(ctx context.Context, planID uuid.UUID, percentage decimal.Decimal) (forecast.Result, error) {
	in, err := a.load(ctx, planID)
	if err != nil {
		return forecast.Result{}, err
	}

	result, err := a.engine.Simulate(in.Plan, in.Income, percentage)
	if err != nil {
		return forecast.Result{}, invalid(err)
	}

	return result, nil
}

// Health scores the plan and stores the score.
//
// Only a missing plan is an error. If anything else fails, the score is
// forecast.NeutralHealthScore.
func (a *Advisor) Health(ctx context.Context, planID uuid.UUID) (forecast.Health, error) {
	in, err := a.load(ctx, planID)
	if errors.Is(err, ErrPlanNotFound) {
		return forecast.Health{}, err
	}

	if err != nil {
		log.Warn().Err(err).Str("plan", planID.String()).Msg("using neutral health score")
		return forecast.Health{Score: forecast.NeutralHealthScore}, nil
	}

	return a.score(ctx, in), nil
}

func (a *Advisor) score(ctx context.Context, in forecast.Input) forecast.Health {
	health := a.engine.HealthScore(in)

	if err := a.registry.UpdateHealthScore(ctx, in.Plan.ID, health.Score); err != nil {
		log.Warn().Err(err).Str("plan", in.Plan.ID.String()).Msg("storing health score")
	}

	return health
}

// Recommendations returns hints for the plan.
//
// Only a missing plan is an error. If anything else fails, there are no
// recommendations.
func (a *Advisor) Recommendations(ctx context.Context, planID uuid.UUID) ([]forecast.Recommendation, error) {
	in, err := a.load(ctx, planID)
	if errors.Is(err, ErrPlanNotFound) {
		return nil, err
	}

	if err != nil {
		log.Warn().Err(err).Str("plan", planID.String()).Msg("skipping recommendations")
		return []forecast.Recommendation{}, nil
	}

	return a.engine.Recommendations(in, a.engine.HealthScore(in).Score), nil
}

// Report projects, scores and advises on the plan at once.
func (a *Advisor) Report(ctx context.Context, planID uuid.UUID) (Report, error) {
	in, err := a.load(ctx, planID)
	if err != nil {
		return Report{}, err
	}

	health := a.score(ctx, in)
	in.Plan.HealthScore = health.Score

	return Report{
		Plan:            in.Plan,
		Projection:      a.engine.GenerateProjections(in.Plan, in.Income),
		Health:          health,
		Recommendations: a.engine.Recommendations(in, health.Score),
	}, nil
}
