package savings

import (
	"errors"
	"fmt"

	"github.com/nestegg-finance/backend/internal/models"
)

var (
	ErrPlanNotFound            = errors.New("there is no plan with this ID")
	ErrAllocationLimitExceeded = errors.New("the percentages of all active plans must not add up to more than 100%")
)

// ValidationError is returned when an operation is rejected before any
// write because its input is invalid.
type ValidationError struct {
	Field string // The offending field, e.g. "percentageOfIncome"
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// fields maps document validation errors to the field they concern.
var fields = map[error]string{
	models.ErrPercentageOutOfRange:     "percentageOfIncome",
	models.ErrHealthScoreOutOfRange:    "healthScore",
	models.ErrCumulativeTotalNegative:  "cumulativeTotal",
	models.ErrTargetAmountNotPositive:  "targetAmount",
	models.ErrPlanNameEmpty:            "name",
	models.ErrUserEmpty:                "userId",
	models.ErrAllocationPlanMissing:    "planId",
	models.ErrAllocationIncomeMissing:  "sourceTransactionId",
	models.ErrAllocationAmountNegative: "allocatedAmount",
	models.ErrTransactionAmountInvalid: "amount",
}

// invalid wraps document validation errors in a ValidationError. All other
// errors are returned unchanged.
func invalid(err error) error {
	for sentinel, field := range fields {
		if errors.Is(err, sentinel) {
			return &ValidationError{Field: field, Err: err}
		}
	}

	return err
}

// IsValidation reports if err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
