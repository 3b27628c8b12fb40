package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/httputil"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/uuid"
)

// RegisterAllocationRoutes registers the routes for allocations with
// the RouterGroup that is passed.
func (co Controller) RegisterAllocationRoutes(r *gin.RouterGroup) {
	{
		r.OPTIONS("", co.OptionsAllocationList)
		r.GET("", co.GetAllocations)
	}
	{
		r.GET("/subscribe", co.SubscribeAllocations)
		r.OPTIONS("/process", co.OptionsAllocationProcess)
		r.POST("/process", co.ProcessAllocations)
	}
}

// OptionsAllocationList returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			Allocations
//	@Success		204
//	@Router			/v1/allocations [options]
func (co Controller) OptionsAllocationList(c *gin.Context) {
	httputil.OptionsGet(c)
}

// OptionsAllocationProcess returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			Allocations
//	@Success		204
//	@Router			/v1/allocations/process [options]
func (co Controller) OptionsAllocationProcess(c *gin.Context) {
	httputil.OptionsPost(c)
}

// GetAllocations returns allocations
//
//	@Summary		Get allocations
//	@Description	Returns the allocations of a user or a plan, newest first. Allocations are immutable.
//	@Tags			Allocations
//	@Produce		json
//	@Success		200		{object}	AllocationListResponse
//	@Failure		400		{object}	AllocationListResponse
//	@Failure		500		{object}	AllocationListResponse
//	@Param			user	query		string	false	"ID of the user"
//	@Param			plan	query		string	false	"ID of the plan"
//	@Router			/v1/allocations [get]
func (co Controller) GetAllocations(c *gin.Context) {
	var filter AllocationQueryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, AllocationListResponse{
			Error: message(c, httputil.ErrInvalidUUID),
		})
		return
	}

	var (
		allocations []models.Allocation
		err         error
	)

	switch {
	case filter.Plan != uuid.Nil:
		allocations, err = co.Engine.Ledger.ListByPlan(c.Request.Context(), filter.Plan.Google())
	case filter.User != "":
		allocations, err = co.Engine.Ledger.ListByUser(c.Request.Context(), filter.User)
	default:
		err = errUserOrPlanNotSet
	}

	if err != nil {
		c.JSON(status(err), AllocationListResponse{
			Error: message(c, err),
		})
		return
	}

	data := make([]Allocation, 0, len(allocations))
	for _, allocation := range allocations {
		if filter.User != "" && allocation.UserID != filter.User {
			continue
		}

		data = append(data, newAllocation(c, allocation))
	}

	c.JSON(http.StatusOK, AllocationListResponse{Data: data})
}

// ProcessAllocations allocates the income of a user
//
//	@Summary		Process income
//	@Description	Allocates all income of the user that has not been allocated yet to the active plans. Safe to repeat at any time.
//	@Tags			Allocations
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	ProcessResponse
//	@Failure		400		{object}	ProcessResponse
//	@Failure		500		{object}	ProcessResponse
//	@Param			request	body		ProcessRequest	true	"User"
//	@Router			/v1/allocations/process [post]
func (co Controller) ProcessAllocations(c *gin.Context) {
	var request ProcessRequest
	if err := httputil.BindData(c, &request); err != nil {
		c.JSON(status(err), ProcessResponse{
			Error: message(c, err),
		})
		return
	}

	result, err := co.Engine.Allocator.Process(c.Request.Context(), request.UserID)
	if err != nil {
		c.JSON(status(err), ProcessResponse{
			Error: message(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, ProcessResponse{Data: &result})
}
