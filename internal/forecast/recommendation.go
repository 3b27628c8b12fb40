package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/nestegg-finance/backend/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RecommendationType is the severity of a recommendation.
type RecommendationType string

const (
	Warning RecommendationType = "warning"
	Alert   RecommendationType = "alert"
	Info    RecommendationType = "info"
	Success RecommendationType = "success"
)

// Recommendation is an actionable hint for a plan.
type Recommendation struct {
	Type    RecommendationType `json:"type" example:"warning"`
	Title   string             `json:"title" example:"Plan health is low"`
	Message string             `json:"message"`

	// Suggested percentage of income for the plan, total allocation or
	// weekly spending, depending on the recommendation
	SuggestedValue *decimal.Decimal `json:"suggestedValue,omitempty" example:"7.5"`
}

const (
	lowHealthThreshold     = 50
	healthyThreshold       = 80
	overCommitmentLimit    = 80
	suggestedCommitment    = 70
	categorySpendingRatio  = 0.05
	maxStepsUntilTargetDay = 1000
)

// Recommendations evaluates all checks for the plan. Checks do not exclude
// each other. If recommendations can not be computed, none are returned.
func (e *Engine) Recommendations(in Input, healthScore int) (recommendations []Recommendation) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("plan", in.Plan.ID.String()).Interface("panic", r).Msg("generating recommendations")
			recommendations = []Recommendation{}
		}
	}()

	recommendations = []Recommendation{}
	plan := in.Plan

	if healthScore < lowHealthThreshold {
		suggested := plan.PercentageOfIncome.Mul(decimal.NewFromFloat(0.75)).Round(2)
		recommendations = append(recommendations, Recommendation{
			Type:           Warning,
			Title:          "Plan health is low",
			Message:        fmt.Sprintf("Consider lowering the allocation from %s%% to %s%% until your income and spending are more stable.", plan.PercentageOfIncome.String(), suggested.String()),
			SuggestedValue: &suggested,
		})
	}

	total := models.SumPercentages(in.Plans)
	if total.GreaterThan(decimal.NewFromInt(overCommitmentLimit)) {
		suggested := decimal.NewFromInt(suggestedCommitment)
		recommendations = append(recommendations, Recommendation{
			Type:           Alert,
			Title:          "Income is over-committed",
			Message:        fmt.Sprintf("Your active plans allocate %s%% of your income. Keep the total at or below %s%% to leave room for expenses.", total.String(), suggested.String()),
			SuggestedValue: &suggested,
		})
	}

	projection := e.GenerateProjections(plan, in.Income)
	onTrack := plan.HasGoal() && projection.GoalAchievementDate != nil && !projection.GoalAchievementDate.After(*plan.TargetDate)

	if plan.HasGoal() && !onTrack {
		recommendations = append(recommendations, e.goalRecommendation(plan, projection))
	}

	if r, ok := e.categoryRecommendation(plan, in.Transactions); ok {
		recommendations = append(recommendations, r)
	}

	if healthScore >= healthyThreshold && onTrack {
		recommendations = append(recommendations, Recommendation{
			Type:    Success,
			Title:   "On track",
			Message: fmt.Sprintf("%s is healthy and on track to reach its goal by %s. Keep it up!", plan.Name, plan.TargetDate.Format(time.DateOnly)),
		})
	}

	return recommendations
}

// goalRecommendation computes the percentage needed to reach the target
// amount with the income events left until the target date.
func (e *Engine) goalRecommendation(plan models.Plan, projection Result) Recommendation {
	relax := Recommendation{
		Type:    Alert,
		Title:   "Goal is out of reach",
		Message: fmt.Sprintf("Even allocating all income will not reach %s by %s. Consider extending the target date or lowering the target amount.", plan.TargetAmount.Decimal.StringFixed(2), plan.TargetDate.Format(time.DateOnly)),
	}

	remaining := plan.TargetAmount.Decimal.Sub(plan.CumulativeTotal)
	if projection.IncomePattern == nil || projection.MovingAverage.IsZero() {
		return relax
	}

	steps := 0
	now := e.clock.Now()
	for step := 1; step <= maxStepsUntilTargetDay; step++ {
		if IncomeDate(now, step, *projection.IncomePattern).After(*plan.TargetDate) {
			break
		}
		steps++
	}

	if steps == 0 {
		return relax
	}

	needed := remaining.
		Div(decimal.NewFromInt(int64(steps))).
		Div(projection.MovingAverage).
		Mul(decimal.NewFromInt(100)).
		RoundCeil(1)

	if needed.GreaterThan(decimal.NewFromInt(100)) {
		return relax
	}

	return Recommendation{
		Type:           Info,
		Title:          "Increase the allocation to stay on track",
		Message:        fmt.Sprintf("Allocating %s%% of your income instead of %s%% reaches %s by %s.", needed.String(), plan.PercentageOfIncome.String(), plan.TargetAmount.Decimal.StringFixed(2), plan.TargetDate.Format(time.DateOnly)),
		SuggestedValue: &needed,
	}
}

// categoryRecommendation checks the weekly spending in the target category
// of the plan over the last 30 days against its cumulative total.
func (e *Engine) categoryRecommendation(plan models.Plan, transactions []models.Transaction) (Recommendation, bool) {
	if plan.TargetCategory == "" {
		return Recommendation{}, false
	}

	since := e.clock.Now().AddDate(0, 0, -30)
	spent := decimal.Zero
	for _, expense := range transactions {
		if expense.IsExpense() && !expense.Date.Before(since) && strings.EqualFold(expense.Category, plan.TargetCategory) {
			spent = spent.Add(expense.Outbound)
		}
	}

	weekly := spent.Div(decimal.NewFromInt(30)).Mul(decimal.NewFromInt(7))
	if !weekly.GreaterThan(plan.CumulativeTotal.Mul(decimal.NewFromFloat(categorySpendingRatio))) {
		return Recommendation{}, false
	}

	suggested := weekly.Mul(decimal.NewFromFloat(0.85)).Round(2)
	return Recommendation{
		Type:           Warning,
		Title:          fmt.Sprintf("High spending on %s", plan.TargetCategory),
		Message:        fmt.Sprintf("You spend about %s per week on %s. Cutting it by 15%% to %s per week frees up money for %s.", weekly.StringFixed(2), plan.TargetCategory, suggested.StringFixed(2), plan.Name),
		SuggestedValue: &suggested,
	}, true
}
