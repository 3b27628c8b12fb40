package forecast

import (
	"math"
	"time"

	"github.com/nestegg-finance/backend/internal/models"
	"github.com/rs/zerolog/log"
)

// NeutralHealthScore is used when the health of a plan can not be computed.
const NeutralHealthScore = 50

// Input is everything known about a plan and its user.
type Input struct {
	Plan         models.Plan
	Income       []models.Income
	Transactions []models.Transaction // All ledger entries of the user, income included
	Plans        []models.Plan        // All plans of the user, including Plan
}

// HealthBreakdown lists the points subtracted from the perfect score.
type HealthBreakdown struct {
	IncomeConsistency  float64 `json:"incomeConsistency" example:"12.5"`
	SpendingVolatility float64 `json:"spendingVolatility" example:"0"`
	OverAllocation     float64 `json:"overAllocation" example:"4"`
	GoalTimeline       float64 `json:"goalTimeline" example:"5"`
}

// Health is the health of a plan.
type Health struct {
	Score     int             `json:"score" example:"79"`
	Breakdown HealthBreakdown `json:"breakdown"`
}

// HealthScore rates the plan between 0 and 100. It never fails: if the
// score can not be computed, it is NeutralHealthScore.
func (e *Engine) HealthScore(in Input) (health Health) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("plan", in.Plan.ID.String()).Interface("panic", r).Msg("calculating health score")
			health = Health{Score: NeutralHealthScore}
		}
	}()

	now := e.clock.Now()
	b := HealthBreakdown{
		IncomeConsistency:  incomeConsistencyPenalty(in.Income),
		SpendingVolatility: spendingVolatilityPenalty(in.Transactions, now),
		OverAllocation:     overAllocationPenalty(in.Plans),
		GoalTimeline:       e.goalTimelinePenalty(in.Plan, in.Income),
	}

	score := 100 - b.IncomeConsistency - b.SpendingVolatility - b.OverAllocation - b.GoalTimeline
	if math.IsNaN(score) {
		return Health{Score: NeutralHealthScore}
	}

	return Health{
		Score:     int(math.Round(math.Max(0, math.Min(100, score)))),
		Breakdown: b,
	}
}

// incomeConsistencyPenalty is up to 40 points for income amounts varying by
// more than 30% of their mean over the last six income events.
func incomeConsistencyPenalty(incomes []models.Income) float64 {
	if len(incomes) < 3 {
		return 10
	}

	recent := descending(incomes)
	if len(recent) > 6 {
		recent = recent[:6]
	}

	amounts := make([]float64, 0, len(recent))
	for _, income := range recent {
		amounts = append(amounts, income.Amount.InexactFloat64())
	}

	mean, stddev := meanStddev(amounts)
	if mean == 0 {
		return 0
	}

	cv := stddev / mean
	if cv <= 0.3 {
		return 0
	}

	return math.Min(40, (cv-0.3)*100)
}

// spendingVolatilityPenalty is up to 30 points for daily spending in the
// last 30 days varying by more than half of its mean. It needs at least 10
// ledger entries, only outbound ones within the 30 days are counted.
func spendingVolatilityPenalty(transactions []models.Transaction, now time.Time) float64 {
	if len(transactions) < 10 {
		return 0
	}

	since := now.AddDate(0, 0, -30)
	daily := make(map[string]float64)
	for _, expense := range transactions {
		if !expense.IsExpense() || expense.Date.Before(since) {
			continue
		}

		daily[expense.Date.UTC().Format(time.DateOnly)] += expense.Outbound.InexactFloat64()
	}

	totals := make([]float64, 0, len(daily))
	for _, total := range daily {
		totals = append(totals, total)
	}

	mean, stddev := meanStddev(totals)
	if mean == 0 || stddev <= 0.5*mean {
		return 0
	}

	return math.Min(30, (stddev/mean-0.5)*50)
}

// overAllocationPenalty is up to 20 points for more than half of the
// income being allocated over all active plans.
func overAllocationPenalty(plans []models.Plan) float64 {
	total := models.SumPercentages(plans).InexactFloat64()
	if total <= 50 {
		return 0
	}

	return math.Min(20, (total-50)*0.4)
}

// goalTimelinePenalty is 10 points if the goal is not reached within the
// projection and 5 points if it is reached after the target date.
func (e *Engine) goalTimelinePenalty(plan models.Plan, incomes []models.Income) float64 {
	if !plan.HasGoal() {
		return 0
	}

	result := e.GenerateProjections(plan, incomes)
	switch {
	case result.GoalAchievementDate == nil:
		return 10
	case result.GoalAchievementDate.After(*plan.TargetDate):
		return 5
	}

	return 0
}
