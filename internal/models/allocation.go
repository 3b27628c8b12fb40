package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Allocation is the immutable record of one plan receiving its share
// of one income transaction.
//
// The pair (PlanID, SourceTransactionID) is unique. Processing income
// repeatedly therefore never allocates the same income twice to a plan.
type Allocation struct {
	DefaultModel
	PlanID                 uuid.UUID       `json:"planId" gorm:"uniqueIndex:allocation_plan_transaction" example:"2e6a3d1c-64a1-4c35-8b4f-5b0a8c2d37a1"`              // The plan receiving the allocation
	PlanName               string          `json:"planName" example:"Emergency fund"`                                                                                  // Name of the plan when the allocation was created
	SourceTransactionID    uuid.UUID       `json:"sourceTransactionId" gorm:"uniqueIndex:allocation_plan_transaction" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"` // The income transaction the allocation was taken from
	Date                   time.Time       `json:"date" example:"2024-03-01T00:00:00Z"`                                                                                // Date of the income transaction
	IncomeAmount           decimal.Decimal `json:"incomeAmount" gorm:"type:DECIMAL(20,8)" example:"2000"`                                                              // Full amount of the income transaction
	AllocatedAmount        decimal.Decimal `json:"allocatedAmount" gorm:"type:DECIMAL(20,8)" example:"300"`                                                            // Share of the income routed to the plan
	TargetCategory         string          `json:"targetCategory" example:"Travel"`                                                                                    // Target category of the plan when the allocation was created
	CumulativeTotalForPlan decimal.Decimal `json:"cumulativeTotalForPlan" gorm:"type:DECIMAL(20,8)" example:"1250.5"`                                                  // Running total of the plan including this allocation
	UserID                 string          `json:"userId" gorm:"index" example:"user-42"`                                                                              // Owning user
}

// NewAllocation computes the share of income that the plan receives.
//
// currentCumulative is the sum of all allocations the plan already has.
func NewAllocation(plan Plan, income Income, currentCumulative decimal.Decimal) Allocation {
	allocated := income.Amount.Mul(plan.PercentageOfIncome).Div(decimal.NewFromInt(100))

	return Allocation{
		PlanID:                 plan.ID,
		PlanName:               plan.Name,
		SourceTransactionID:    income.ID,
		Date:                   income.Date,
		IncomeAmount:           income.Amount,
		AllocatedAmount:        allocated,
		TargetCategory:         plan.TargetCategory,
		CumulativeTotalForPlan: currentCumulative.Add(allocated),
		UserID:                 plan.UserID,
	}
}

// Validate checks that the allocation references a plan and an income and
// that no amount is negative.
func (a Allocation) Validate() error {
	if a.PlanID == uuid.Nil {
		return ErrAllocationPlanMissing
	}

	if a.SourceTransactionID == uuid.Nil {
		return ErrAllocationIncomeMissing
	}

	if strings.TrimSpace(a.UserID) == "" {
		return ErrUserEmpty
	}

	if a.AllocatedAmount.IsNegative() || a.IncomeAmount.IsNegative() || a.CumulativeTotalForPlan.IsNegative() {
		return ErrAllocationAmountNegative
	}

	return nil
}

func (a *Allocation) BeforeCreate(tx *gorm.DB) error {
	err := a.DefaultModel.BeforeCreate(tx)
	if err != nil {
		return err
	}

	a.Date = a.Date.In(time.UTC)
	return a.Validate()
}

// BeforeUpdate rejects every update. Allocations are historical facts.
func (a *Allocation) BeforeUpdate(_ *gorm.DB) error {
	return ErrAllocationImmutable
}

func (a *Allocation) AfterFind(tx *gorm.DB) (err error) {
	err = a.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	a.Date = a.Date.In(time.UTC)
	return nil
}

// SumAllocated returns the sum of the allocated amounts of all allocations
// for the plan with the given ID.
func SumAllocated(allocations []Allocation, planID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range allocations {
		if a.PlanID == planID {
			sum = sum.Add(a.AllocatedAmount)
		}
	}

	return sum
}
