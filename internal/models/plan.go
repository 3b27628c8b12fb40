package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultHealthScore is the health of a plan that has not been scored yet.
const DefaultHealthScore = 100

// Plan is a savings rule routing a percentage of every income event
// into a virtual goal.
type Plan struct {
	DefaultModel
	UserID             string              `json:"userId" gorm:"index" example:"user-42"`                                         // Owning user, also the database the plan lives in
	Name               string              `json:"name" example:"Emergency fund"`                                                 // Name of the plan
	TargetCategory     string              `json:"targetCategory" example:"Travel"`                                               // Optional expense category the plan saves for
	PercentageOfIncome decimal.Decimal     `json:"percentageOfIncome" gorm:"type:DECIMAL(20,8)" example:"15"`                     // Share of every income event routed to the plan
	TargetAmount       decimal.NullDecimal `json:"targetAmount" gorm:"type:DECIMAL(20,8)" swaggertype:"number" example:"5000"`    // Optional goal amount
	TargetDate         *time.Time          `json:"targetDate" example:"2027-06-01T00:00:00Z"`                                     // Optional date by which the goal should be reached
	CumulativeTotal    decimal.Decimal     `json:"cumulativeTotal" gorm:"type:DECIMAL(20,8)" example:"1250.5"`                    // Sum of all allocations of the plan. Cached, the allocations are the source of truth
	HealthScore        int                 `json:"healthScore" example:"87"`                                                      // Heuristic between 0 and 100
	Active             bool                `json:"active" gorm:"index" example:"true"`                                            // Inactive plans do not receive allocations
}

// NewPlan returns a validated, active plan with no allocations.
func NewPlan(userID, name string, percentage decimal.Decimal) (Plan, error) {
	p := Plan{
		UserID:             userID,
		Name:               name,
		PercentageOfIncome: percentage,
		CumulativeTotal:    decimal.Zero,
		HealthScore:        DefaultHealthScore,
		Active:             true,
	}

	return p, p.Validate()
}

// Validate checks the invariants every plan must satisfy on its own.
//
// The invariant over all active plans of a user is enforced by the registry.
func (p Plan) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrUserEmpty
	}

	if strings.TrimSpace(p.Name) == "" {
		return ErrPlanNameEmpty
	}

	if err := ValidatePercentage(p.PercentageOfIncome); err != nil {
		return err
	}

	if err := ValidateHealthScore(p.HealthScore); err != nil {
		return err
	}

	if p.CumulativeTotal.IsNegative() {
		return ErrCumulativeTotalNegative
	}

	if p.TargetAmount.Valid && !p.TargetAmount.Decimal.IsPositive() {
		return ErrTargetAmountNotPositive
	}

	return nil
}

// ValidatePercentage verifies that 0 <= percentage <= 100.
func ValidatePercentage(percentage decimal.Decimal) error {
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrPercentageOutOfRange
	}

	return nil
}

// ValidateHealthScore verifies that 0 <= score <= 100.
func ValidateHealthScore(score int) error {
	if score < 0 || score > 100 {
		return ErrHealthScoreOutOfRange
	}

	return nil
}

// HasGoal reports if the plan has both a target amount and a target date.
func (p Plan) HasGoal() bool {
	return p.TargetAmount.Valid && p.TargetDate != nil
}

func (p *Plan) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	p.TargetCategory = strings.TrimSpace(p.TargetCategory)

	if p.TargetDate != nil {
		t := p.TargetDate.In(time.UTC)
		p.TargetDate = &t
	}

	return p.Validate()
}

func (p *Plan) AfterFind(tx *gorm.DB) (err error) {
	err = p.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	if p.TargetDate != nil {
		t := p.TargetDate.In(time.UTC)
		p.TargetDate = &t
	}
	return nil
}

// SumPercentages returns the sum of the allocation percentages of all
// active plans in the list.
func SumPercentages(plans []Plan) decimal.Decimal {
	total := decimal.Zero
	for _, p := range plans {
		if p.Active {
			total = total.Add(p.PercentageOfIncome)
		}
	}

	return total
}
