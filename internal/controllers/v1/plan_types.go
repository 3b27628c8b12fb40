package v1

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/forecast"
	"github.com/nestegg-finance/backend/internal/httputil"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/savings"
	"github.com/shopspring/decimal"
)

type PlanEditable struct {
	Name               string              `json:"name" example:"Emergency fund"`                             // Name of the plan
	TargetCategory     string              `json:"targetCategory" example:"Travel"`                           // Expense category the plan saves for
	PercentageOfIncome decimal.Decimal     `json:"percentageOfIncome" example:"15" minimum:"0" maximum:"100"` // Share of every income event routed to the plan
	TargetAmount       decimal.NullDecimal `json:"targetAmount" swaggertype:"number" example:"5000"`          // Goal amount, null for none
	TargetDate         *time.Time          `json:"targetDate" example:"2027-06-01T00:00:00Z"`                 // Date by which the goal should be reached, null for none
	Active             bool                `json:"active" example:"true" default:"true"`                      // Only used for updates. New plans are always active
}

type PlanCreate struct {
	UserID string `json:"userId" binding:"required" example:"user-42"` // Owning user
	PlanEditable
}

// draft returns the registry draft for the API representation
func (p PlanCreate) draft() savings.PlanDraft {
	return savings.PlanDraft{
		UserID:             p.UserID,
		Name:               p.Name,
		TargetCategory:     p.TargetCategory,
		PercentageOfIncome: p.PercentageOfIncome,
		TargetAmount:       p.TargetAmount,
		TargetDate:         p.TargetDate,
	}
}

// patch returns the patch for all fields that are set in the request body
func (p PlanEditable) patch(fields map[string]bool) savings.PlanPatch {
	var patch savings.PlanPatch

	if fields["name"] {
		patch.Name = &p.Name
	}

	if fields["targetCategory"] {
		patch.TargetCategory = &p.TargetCategory
	}

	if fields["percentageOfIncome"] {
		patch.PercentageOfIncome = &p.PercentageOfIncome
	}

	if fields["targetAmount"] {
		patch.TargetAmount = &p.TargetAmount
	}

	if fields["targetDate"] {
		date := sql.NullTime{}
		if p.TargetDate != nil {
			date = sql.NullTime{Time: *p.TargetDate, Valid: true}
		}
		patch.TargetDate = &date
	}

	if fields["active"] {
		patch.Active = &p.Active
	}

	return patch
}

type PlanLinks struct {
	Self            string `json:"self" example:"https://example.com/api/v1/plans/2e6a3d1c-64a1-4c35-8b4f-5b0a8c2d37a1"`                            // The plan itself
	Allocations     string `json:"allocations" example:"https://example.com/api/v1/allocations?plan=2e6a3d1c-64a1-4c35-8b4f-5b0a8c2d37a1"`          // Allocations of the plan
	Projections     string `json:"projections" example:"https://example.com/api/v1/plans/2e6a3d1c-64a1-4c35-8b4f-5b0a8c2d37a1/projections"`         // Projection of the plan
	Health          string `json:"health" example:"https://example.com/api/v1/plans/2e6a3d1c-64a1-4c35-8b4f-5b0a8c2d37a1/health"`                   // Health score of the plan
	Recommendations string `json:"recommendations" example:"https://example.com/api/v1/plans/2e6a3d1c-64a1-4c35-8b4f-5b0a8c2d37a1/recommendations"` // Recommendations for the plan
	Summary         string `json:"summary" example:"https://example.com/api/v1/plans/2e6a3d1c-64a1-4c35-8b4f-5b0a8c2d37a1/summary"`                 // Monthly allocation totals of the plan
}

type Plan struct {
	models.Plan
	Links PlanLinks `json:"links"`
}

// newPlan returns the API v1 representation of the resource
func newPlan(c *gin.Context, model models.Plan) Plan {
	url := fmt.Sprintf("%s/v1/plans/%s", httputil.BaseURL(c), model.ID)

	return Plan{
		Plan: model,
		Links: PlanLinks{
			Self:            url,
			Allocations:     fmt.Sprintf("%s/v1/allocations?plan=%s", httputil.BaseURL(c), model.ID),
			Projections:     url + "/projections",
			Health:          url + "/health",
			Recommendations: url + "/recommendations",
			Summary:         url + "/summary",
		},
	}
}

type PlanResponse struct {
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *Plan   `json:"data"`                                                          // The resource
}

type PlanListResponse struct {
	Error *string `json:"error" example:"the user parameter must be set"` // The error, if any occurred
	Data  []Plan  `json:"data"`                                           // List of resources
}

type PlanCreateResponse struct {
	Error *string        `json:"error" example:"the body of your request contains invalid or un-parseable data. Please check and try again"` // The error, if any occurred
	Data  []PlanResponse `json:"data"`                                                                                                       // List of created resources
}

func (r *PlanCreateResponse) appendError(c *gin.Context, err error, currentStatus int) int {
	r.Data = append(r.Data, PlanResponse{Error: message(c, err)})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type PlanQueryFilter struct {
	User   string `form:"user"`   // ID of the user
	Active *bool  `form:"active"` // Only active or inactive plans
}

type Recalculation struct {
	CumulativeTotal decimal.Decimal `json:"cumulativeTotal" example:"1250.5"` // Sum of all allocations of the plan
}

type RecalculationResponse struct {
	Error *string        `json:"error" example:"there is no plan with this ID"` // The error, if any occurred
	Data  *Recalculation `json:"data"`                                          // The rebuilt total
}

type ProjectionResponse struct {
	Error *string          `json:"error" example:"there is no plan with this ID"` // The error, if any occurred
	Data  *forecast.Result `json:"data"`                                          // The projection
}

type Simulation struct {
	PercentageOfIncome decimal.Decimal `json:"percentageOfIncome" example:"20"` // Percentage of income to simulate
}

type HealthResponse struct {
	Error *string          `json:"error" example:"there is no plan with this ID"` // The error, if any occurred
	Data  *forecast.Health `json:"data"`                                          // Health of the plan
}

type RecommendationListResponse struct {
	Error *string                   `json:"error" example:"there is no plan with this ID"` // The error, if any occurred
	Data  []forecast.Recommendation `json:"data"`                                          // Recommendations for the plan
}

type SummaryResponse struct {
	Error *string                `json:"error" example:"there is no plan with this ID"` // The error, if any occurred
	Data  []savings.MonthlyTotal `json:"data"`                                          // Allocations per month, newest first
}

type ReportResponse struct {
	Error *string         `json:"error" example:"there is no plan with this ID"` // The error, if any occurred
	Data  *savings.Report `json:"data"`                                          // Projection, health and recommendations of the plan
}
