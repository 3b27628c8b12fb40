package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
)

// Plan errors
var (
	ErrPercentageOutOfRange     = errors.New("the percentage of income must be between 0 and 100")
	ErrHealthScoreOutOfRange    = errors.New("the health score must be between 0 and 100")
	ErrCumulativeTotalNegative  = errors.New("the cumulative total must not be negative")
	ErrTargetAmountNotPositive  = errors.New("the target amount must be positive")
	ErrPlanNameEmpty            = errors.New("the plan name must not be empty")
	ErrUserEmpty                = errors.New("the resource must belong to a user")
	ErrAllocationPlanMissing    = errors.New("the allocation must reference a plan")
	ErrAllocationIncomeMissing  = errors.New("the allocation must reference an income transaction")
	ErrAllocationExists         = errors.New("there already is an allocation for this plan and income transaction")
	ErrAllocationImmutable      = errors.New("allocations can not be changed once they are created")
	ErrAllocationAmountNegative = errors.New("allocated amounts must not be negative")
	ErrTransactionAmountInvalid = errors.New("a transaction must have either a positive inbound or a positive outbound amount")
)

// rejections are the errors with which documents refuse to be written.
var rejections = []error{
	ErrPercentageOutOfRange,
	ErrHealthScoreOutOfRange,
	ErrCumulativeTotalNegative,
	ErrTargetAmountNotPositive,
	ErrPlanNameEmpty,
	ErrUserEmpty,
	ErrAllocationPlanMissing,
	ErrAllocationIncomeMissing,
	ErrAllocationExists,
	ErrAllocationImmutable,
	ErrAllocationAmountNegative,
	ErrTransactionAmountInvalid,
}

// Rejected reports if err is a document refusing to be written, either
// by its validation or by a unique index.
func Rejected(err error) bool {
	for _, rejection := range rejections {
		if errors.Is(err, rejection) {
			return true
		}
	}

	return false
}
