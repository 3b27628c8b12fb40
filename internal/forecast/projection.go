// Package forecast projects savings plans into the future.
//
// Everything in this package is pure: it works on the values passed in and
// reads the current time from the injected clock only.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/nestegg-finance/backend/internal/clock"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/shopspring/decimal"
)

// MaxSteps is the maximum number of income events a projection covers.
const MaxSteps = 12

// Engine computes projections, health scores and recommendations.
type Engine struct {
	clock clock.Clock
}

// New returns an engine using the clock for "now".
func New(c clock.Clock) *Engine {
	return &Engine{clock: c}
}

// Projection is one projected income event.
type Projection struct {
	Step            int             `json:"step" example:"1"`
	Date            time.Time       `json:"date" example:"2024-04-01T00:00:00Z"`
	Allocation      decimal.Decimal `json:"allocation" example:"200"`       // Projected allocation for this income event
	CumulativeTotal decimal.Decimal `json:"cumulativeTotal" example:"1200"` // Projected total of the plan after this income event
}

// Result is a projection of a plan.
type Result struct {
	Projections         []Projection     `json:"projections"`
	GoalAchievementDate *time.Time       `json:"goalAchievementDate"`          // Date of the first projected income event reaching the target amount
	IncomePattern       *IncomePattern   `json:"incomePattern"`                // Detected income pattern, nil without income
	MovingAverage       decimal.Decimal  `json:"movingAverage" example:"2000"` // Projected amount of every income event
	Message             string           `json:"message" example:"At this rate, you will reach your goal of 1000.00 in 5 month(s)."`
	SimulatedPercentage *decimal.Decimal `json:"simulatedPercentage,omitempty" example:"20"` // Only set for what-if simulations
}

// MessageNoIncome explains empty projections.
const MessageNoIncome = "No income found yet. Projections will be available once income has been recorded."

// GenerateProjections projects the plan over the next income events.
func (e *Engine) GenerateProjections(plan models.Plan, incomes []models.Income) Result {
	return e.project(plan, incomes, plan.PercentageOfIncome)
}

// Simulate projects the plan as if it had a different percentage. Nothing
// is persisted.
func (e *Engine) Simulate(plan models.Plan, incomes []models.Income, percentage decimal.Decimal) (Result, error) {
	if err := models.ValidatePercentage(percentage); err != nil {
		return Result{}, err
	}

	result := e.project(plan, incomes, percentage)
	result.SimulatedPercentage = &percentage

	return result, nil
}

// project advances from now over up to MaxSteps income events until the
// target date, or one year from now if the plan has none.
func (e *Engine) project(plan models.Plan, incomes []models.Income, percentage decimal.Decimal) Result {
	if len(incomes) == 0 {
		return Result{
			Projections:   []Projection{},
			MovingAverage: decimal.Zero,
			Message:       MessageNoIncome,
		}
	}

	now := e.clock.Now()
	average := MovingAverage(incomes, DefaultPeriods)
	pattern := DetectIncomeFrequency(incomes)
	perStep := average.Mul(percentage).Div(decimal.NewFromInt(100))

	horizon := now.AddDate(1, 0, 0)
	if plan.TargetDate != nil {
		horizon = *plan.TargetDate
	}

	result := Result{
		Projections:   make([]Projection, 0, MaxSteps),
		IncomePattern: &pattern,
		MovingAverage: average,
	}

	cumulative := plan.CumulativeTotal
	reachedStep := 0
	for step := 1; step <= MaxSteps; step++ {
		date := IncomeDate(now, step, pattern)
		if date.After(horizon) {
			break
		}

		cumulative = cumulative.Add(perStep)
		result.Projections = append(result.Projections, Projection{
			Step:            step,
			Date:            date,
			Allocation:      perStep,
			CumulativeTotal: cumulative,
		})

		if result.GoalAchievementDate == nil && plan.TargetAmount.Valid && cumulative.GreaterThanOrEqual(plan.TargetAmount.Decimal) {
			result.GoalAchievementDate = &date
			reachedStep = step
		}
	}

	result.Message = message(plan, result, now, cumulative, reachedStep)
	return result
}

func message(plan models.Plan, result Result, now time.Time, total decimal.Decimal, reachedStep int) string {
	switch {
	case plan.TargetAmount.Valid && result.GoalAchievementDate != nil:
		months := reachedStep
		if result.IncomePattern.Frequency != Monthly {
			months = monthsUntil(now, *result.GoalAchievementDate)
		}
		return fmt.Sprintf("At this rate, you will reach your goal of %s in %d month(s).", plan.TargetAmount.Decimal.StringFixed(2), months)
	case plan.TargetDate != nil:
		return fmt.Sprintf("You are projected to have %s by %s.", total.StringFixed(2), plan.TargetDate.Format(time.DateOnly))
	}

	return fmt.Sprintf("You are projected to have %s after %d more income event(s).", total.StringFixed(2), len(result.Projections))
}

// daysPerMonth is the mean length of a month in the Gregorian calendar.
const daysPerMonth = 365.2425 / 12

// monthsUntil returns the number of months from one point in time to
// another, rounded to whole months but at least one.
func monthsUntil(from, to time.Time) int {
	days := to.Sub(from).Hours() / 24
	return max(1, int(math.Round(days/daysPerMonth)))
}
