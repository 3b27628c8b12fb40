package cli

import (
	"fmt"
	"strings"

	"github.com/nestegg-finance/backend/internal/forecast"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/savings"
)

// PlanTable lists plans with their allocation state.
func PlanTable(plans []models.Plan) Table {
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		target := "-"
		if p.TargetAmount.Valid {
			target = FormatMoney(p.TargetAmount.Decimal)
		}

		active := "yes"
		if !p.Active {
			active = "no"
		}

		rows = append(rows, []string{p.Name, FormatPercent(p.PercentageOfIncome), FormatMoney(p.CumulativeTotal), target, FormatHealth(p.HealthScore), active})
	}

	return Table{
		Title:   "Plans",
		Headers: []string{"Plan", "Share", "Saved", "Target", "Health", "Active"},
		Rows:    rows,
	}
}

// ProcessTable shows the counts of an allocation run.
func ProcessTable(user string, r savings.Result) Table {
	return Table{
		Title:   fmt.Sprintf("Allocation run for %s", user),
		Headers: []string{"Processed", "Created", "Skipped"},
		Rows:    [][]string{{fmt.Sprintf("%d", r.Processed), fmt.Sprintf("%d", r.Created), fmt.Sprintf("%d", r.Skipped)}},
	}
}

// ProjectionTable lists the projected income events of a plan.
func ProjectionTable(r forecast.Result) Table {
	rows := make([][]string, 0, len(r.Projections)+2)
	for _, p := range r.Projections {
		date := p.Date
		rows = append(rows, []string{fmt.Sprintf("%d", p.Step), FormatDate(&date), FormatMoney(p.Allocation), FormatMoney(p.CumulativeTotal)})
	}

	title := "Projection"
	if r.SimulatedPercentage != nil {
		title = fmt.Sprintf("Projection at %s", FormatPercent(*r.SimulatedPercentage))
	}

	if r.IncomePattern != nil {
		rows = append(rows, []string{separator})
		rows = append(rows, []string{string(r.IncomePattern.Frequency), fmt.Sprintf("every %dd", r.IncomePattern.AverageDaysBetween), FormatMoney(r.MovingAverage), FormatDate(r.GoalAchievementDate)})
	}

	return Table{
		Title:   title,
		Headers: []string{"Step", "Date", "Allocation", "Total"},
		Rows:    rows,
	}
}

// HealthTable shows the score of a plan and what it lost points for.
func HealthTable(h forecast.Health) Table {
	penalty := func(f float64) string {
		return fmt.Sprintf("-%.1f", f)
	}

	return Table{
		Title:   "Health",
		Headers: []string{"Factor", "Points"},
		Rows: [][]string{
			{"Income consistency", penalty(h.Breakdown.IncomeConsistency)},
			{"Spending volatility", penalty(h.Breakdown.SpendingVolatility)},
			{"Over-allocation", penalty(h.Breakdown.OverAllocation)},
			{"Goal timeline", penalty(h.Breakdown.GoalTimeline)},
			{separator},
			{"Score", FormatHealth(h.Score)},
		},
	}
}

// RenderRecommendations renders recommendations as a list.
func RenderRecommendations(recommendations []forecast.Recommendation) string {
	if len(recommendations) == 0 {
		return "  No recommendations.\n"
	}

	var b strings.Builder
	for _, r := range recommendations {
		fmt.Fprintf(&b, "  %s  %s\n", FormatRecommendationType(r.Type), headerStyle.Render(r.Title))
		fmt.Fprintf(&b, "      %s\n", r.Message)
		if r.SuggestedValue != nil {
			fmt.Fprintf(&b, "      Suggested: %s\n", r.SuggestedValue.String())
		}
	}

	return b.String()
}
