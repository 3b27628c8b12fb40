package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/httputil"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/savings"
	"github.com/nestegg-finance/backend/internal/uuid"
)

type AllocationLinks struct {
	Plan        string `json:"plan" example:"https://example.com/api/v1/plans/2e6a3d1c-64a1-4c35-8b4f-5b0a8c2d37a1"`               // The plan receiving the allocation
	Transaction string `json:"transaction" example:"https://example.com/api/v1/transactions/7c9e6679-7425-40de-944b-e07fc1f90ae7"` // The income transaction
}

type Allocation struct {
	models.Allocation
	Links AllocationLinks `json:"links"`
}

// newAllocation returns the API v1 representation of the resource
func newAllocation(c *gin.Context, model models.Allocation) Allocation {
	return Allocation{
		Allocation: model,
		Links: AllocationLinks{
			Plan:        fmt.Sprintf("%s/v1/plans/%s", httputil.BaseURL(c), model.PlanID),
			Transaction: fmt.Sprintf("%s/v1/transactions/%s", httputil.BaseURL(c), model.SourceTransactionID),
		},
	}
}

type AllocationListResponse struct {
	Error *string      `json:"error" example:"either the user or the plan parameter must be set"` // The error, if any occurred
	Data  []Allocation `json:"data"`                                                              // List of resources, newest first
}

type AllocationQueryFilter struct {
	User string    `form:"user"` // ID of the user
	Plan uuid.UUID `form:"plan"` // ID of the plan
}

type ProcessRequest struct {
	UserID string `json:"userId" binding:"required" example:"user-42"` // The user whose income is allocated
}

type ProcessResponse struct {
	Error *string         `json:"error" example:"the request body must not be empty"` // The error, if any occurred
	Data  *savings.Result `json:"data"`                                               // Counts of the allocation run
}
