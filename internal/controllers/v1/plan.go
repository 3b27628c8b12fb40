package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/httputil"
	"github.com/nestegg-finance/backend/internal/models"
)

// RegisterPlanRoutes registers the routes for plans with
// the RouterGroup that is passed.
func (co Controller) RegisterPlanRoutes(r *gin.RouterGroup) {
	{
		r.OPTIONS("", co.OptionsPlanList)
		r.GET("", co.GetPlans)
		r.POST("", co.CreatePlans)
	}
	{
		r.GET("/subscribe", co.SubscribePlans)
	}
	{
		r.OPTIONS("/:id", co.OptionsPlanDetail)
		r.GET("/:id", co.GetPlan)
		r.PATCH("/:id", co.UpdatePlan)
		r.DELETE("/:id", co.DeletePlan)
	}
	{
		r.OPTIONS("/:id/recalculate", co.OptionsPlanPost)
		r.POST("/:id/recalculate", co.RecalculatePlan)
		r.OPTIONS("/:id/simulate", co.OptionsPlanPost)
		r.POST("/:id/simulate", co.SimulatePlan)
		r.OPTIONS("/:id/projections", co.OptionsPlanGet)
		r.GET("/:id/projections", co.GetPlanProjections)
		r.OPTIONS("/:id/health", co.OptionsPlanGet)
		r.GET("/:id/health", co.GetPlanHealth)
		r.OPTIONS("/:id/recommendations", co.OptionsPlanGet)
		r.GET("/:id/recommendations", co.GetPlanRecommendations)
		r.OPTIONS("/:id/summary", co.OptionsPlanGet)
		r.GET("/:id/summary", co.GetPlanSummary)
		r.OPTIONS("/:id/report", co.OptionsPlanGet)
		r.GET("/:id/report", co.GetPlanReport)
	}
}

// OptionsPlanList returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			Plans
//	@Success		204
//	@Router			/v1/plans [options]
func (co Controller) OptionsPlanList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// plan binds the plan ID from the URI and reads the plan. If that fails,
// the error response is written and ok is false.
func (co Controller) plan(c *gin.Context) (plan models.Plan, ok bool) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: httputil.ErrInvalidUUID.Error()})
		return models.Plan{}, false
	}

	plan, err := co.Engine.Registry.Get(c.Request.Context(), uri.ID.Google())
	if err != nil {
		c.JSON(status(err), httpError{Error: *message(c, err)})
		return models.Plan{}, false
	}

	return plan, true
}

// OptionsPlanDetail returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			Plans
//	@Success		204
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Failure		500	{object}	httpError
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id} [options]
func (co Controller) OptionsPlanDetail(c *gin.Context) {
	if _, ok := co.plan(c); !ok {
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// OptionsPlanGet returns the allowed HTTP methods for read only plan endpoints
func (co Controller) OptionsPlanGet(c *gin.Context) {
	if _, ok := co.plan(c); !ok {
		return
	}

	httputil.OptionsGet(c)
}

// OptionsPlanPost returns the allowed HTTP methods for plan actions
func (co Controller) OptionsPlanPost(c *gin.Context) {
	if _, ok := co.plan(c); !ok {
		return
	}

	httputil.OptionsPost(c)
}

// CreatePlans creates plans
//
//	@Summary		Create plans
//	@Description	Creates new plans. The percentages of all active plans of a user must not add up to more than 100.
//	@Tags			Plans
//	@Produce		json
//	@Success		201		{object}	PlanCreateResponse
//	@Failure		400		{object}	PlanCreateResponse
//	@Failure		500		{object}	PlanCreateResponse
//	@Param			plans	body		[]PlanCreate	true	"Plans"
//	@Router			/v1/plans [post]
func (co Controller) CreatePlans(c *gin.Context) {
	var plans []PlanCreate

	err := httputil.BindData(c, &plans)
	if err != nil {
		c.JSON(status(err), PlanCreateResponse{
			Error: message(c, err),
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := PlanCreateResponse{Data: []PlanResponse{}}

	for _, create := range plans {
		plan, err := co.Engine.Registry.Create(c.Request.Context(), create.draft())
		if err != nil {
			status = r.appendError(c, err, status)
			continue
		}

		apiResource := newPlan(c, plan)
		r.Data = append(r.Data, PlanResponse{Data: &apiResource})
	}

	c.JSON(status, r)
}

// GetPlans returns the plans of a user
//
//	@Summary		Get plans
//	@Description	Returns the plans of a user, oldest first
//	@Tags			Plans
//	@Produce		json
//	@Success		200		{object}	PlanListResponse
//	@Failure		400		{object}	PlanListResponse
//	@Failure		500		{object}	PlanListResponse
//	@Param			user	query		string	true	"ID of the user"
//	@Param			active	query		bool	false	"Only active or inactive plans"
//	@Router			/v1/plans [get]
func (co Controller) GetPlans(c *gin.Context) {
	var filter PlanQueryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, PlanListResponse{
			Error: &s,
		})
		return
	}

	if filter.User == "" {
		c.JSON(http.StatusBadRequest, PlanListResponse{
			Error: message(c, errUserNotSet),
		})
		return
	}

	plans, err := co.Engine.Registry.List(c.Request.Context(), filter.User)
	if err != nil {
		c.JSON(status(err), PlanListResponse{
			Error: message(c, err),
		})
		return
	}

	data := make([]Plan, 0, len(plans))
	for _, plan := range plans {
		if filter.Active != nil && plan.Active != *filter.Active {
			continue
		}

		data = append(data, newPlan(c, plan))
	}

	c.JSON(http.StatusOK, PlanListResponse{Data: data})
}

// GetPlan returns a specific plan
//
//	@Summary		Get plan
//	@Description	Returns a specific plan
//	@Tags			Plans
//	@Produce		json
//	@Success		200	{object}	PlanResponse
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Failure		500	{object}	httpError
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id} [get]
func (co Controller) GetPlan(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	apiResource := newPlan(c, plan)
	c.JSON(http.StatusOK, PlanResponse{Data: &apiResource})
}

// UpdatePlan updates a specific plan
//
//	@Summary		Update plan
//	@Description	Updates an existing plan. Only values to be updated need to be specified. Setting "active" to true reactivates a plan.
//	@Tags			Plans
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	PlanResponse
//	@Failure		400		{object}	PlanResponse
//	@Failure		404		{object}	PlanResponse
//	@Failure		500		{object}	PlanResponse
//	@Param			id		path		string			true	"ID formatted as string"
//	@Param			plan	body		PlanEditable	true	"Plan"
//	@Router			/v1/plans/{id} [patch]
func (co Controller) UpdatePlan(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	// Get the fields that are set to be updated
	fields, err := httputil.BodyFields(c)
	if err != nil {
		c.JSON(status(err), PlanResponse{
			Error: message(c, err),
		})
		return
	}

	var data PlanEditable
	if err := httputil.BindData(c, &data); err != nil {
		c.JSON(status(err), PlanResponse{
			Error: message(c, err),
		})
		return
	}

	plan, err = co.Engine.Registry.Update(c.Request.Context(), plan.ID, data.patch(fields))
	if err != nil {
		c.JSON(status(err), PlanResponse{
			Error: message(c, err),
		})
		return
	}

	apiResource := newPlan(c, plan)
	c.JSON(http.StatusOK, PlanResponse{Data: &apiResource})
}

// DeletePlan deactivates a plan
//
//	@Summary		Delete plan
//	@Description	Deactivates a plan. Its allocations are kept.
//	@Tags			Plans
//	@Success		204
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Failure		500	{object}	httpError
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id} [delete]
func (co Controller) DeletePlan(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	err := co.Engine.Registry.SoftDelete(c.Request.Context(), plan.ID)
	if err != nil {
		c.JSON(status(err), httpError{Error: *message(c, err)})
		return
	}

	c.Status(http.StatusNoContent)
}

// RecalculatePlan rebuilds the cumulative total of a plan
//
//	@Summary		Recalculate plan
//	@Description	Rebuilds the cumulative total of a plan from its allocations. Allocations are not changed.
//	@Tags			Plans
//	@Produce		json
//	@Success		200	{object}	RecalculationResponse
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Failure		500	{object}	RecalculationResponse
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id}/recalculate [post]
func (co Controller) RecalculatePlan(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	total, err := co.Engine.Allocator.RecalculatePlan(c.Request.Context(), plan.ID)
	if err != nil {
		c.JSON(status(err), RecalculationResponse{
			Error: message(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, RecalculationResponse{Data: &Recalculation{CumulativeTotal: total}})
}

// GetPlanProjections projects a plan
//
//	@Summary		Get projections
//	@Description	Projects the plan over the next income events, based on the recent income of the user
//	@Tags			Plans
//	@Produce		json
//	@Success		200	{object}	ProjectionResponse
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Failure		500	{object}	ProjectionResponse
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id}/projections [get]
func (co Controller) GetPlanProjections(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	result, err := co.Engine.Advisor.Projections(c.Request.Context(), plan.ID)
	if err != nil {
		c.JSON(status(err), ProjectionResponse{
			Error: message(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, ProjectionResponse{Data: &result})
}

// SimulatePlan projects a plan with a different percentage
//
//	@Summary		Simulate plan
//	@Description	Projects the plan as if it had a different percentage of income. Nothing is stored.
//	@Tags			Plans
//	@Accept			json
//	@Produce		json
//	@Success		200			{object}	ProjectionResponse
//	@Failure		400			{object}	ProjectionResponse
//	@Failure		404			{object}	httpError
//	@Failure		500			{object}	ProjectionResponse
//	@Param			id			path		string		true	"ID formatted as string"
//	@Param			simulation	body		Simulation	true	"Simulation"
//	@Router			/v1/plans/{id}/simulate [post]
func (co Controller) SimulatePlan(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	var simulation Simulation
	if err := httputil.BindData(c, &simulation); err != nil {
		c.JSON(status(err), ProjectionResponse{
			Error: message(c, err),
		})
		return
	}

	result, err := co.Engine.Advisor.Simulate(c.Request.Context(), plan.ID, simulation.PercentageOfIncome)
	if err != nil {
		c.JSON(status(err), ProjectionResponse{
			Error: message(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, ProjectionResponse{Data: &result})
}

// GetPlanHealth scores a plan
//
//	@Summary		Get health
//	@Description	Scores the health of the plan between 0 and 100 and stores the score
//	@Tags			Plans
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id}/health [get]
func (co Controller) GetPlanHealth(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	health, err := co.Engine.Advisor.Health(c.Request.Context(), plan.ID)
	if err != nil {
		c.JSON(status(err), HealthResponse{
			Error: message(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{Data: &health})
}

// GetPlanRecommendations returns recommendations for a plan
//
//	@Summary		Get recommendations
//	@Description	Returns actionable recommendations for the plan
//	@Tags			Plans
//	@Produce		json
//	@Success		200	{object}	RecommendationListResponse
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id}/recommendations [get]
func (co Controller) GetPlanRecommendations(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	recommendations, err := co.Engine.Advisor.Recommendations(c.Request.Context(), plan.ID)
	if err != nil {
		c.JSON(status(err), RecommendationListResponse{
			Error: message(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, RecommendationListResponse{Data: recommendations})
}

// GetPlanSummary returns the monthly allocation totals of a plan
//
//	@Summary		Get summary
//	@Description	Returns the allocations of the plan summed up per month, newest first
//	@Tags			Plans
//	@Produce		json
//	@Success		200	{object}	SummaryResponse
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Failure		500	{object}	SummaryResponse
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id}/summary [get]
func (co Controller) GetPlanSummary(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	summary, err := co.Engine.Ledger.MonthlySummary(c.Request.Context(), plan.ID)
	if err != nil {
		c.JSON(status(err), SummaryResponse{
			Error: message(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{Data: summary})
}

// GetPlanReport returns projection, health and recommendations of a plan
//
//	@Summary		Get report
//	@Description	Returns the projection, health and recommendations of the plan at once
//	@Tags			Plans
//	@Produce		json
//	@Success		200	{object}	ReportResponse
//	@Failure		400	{object}	httpError
//	@Failure		404	{object}	httpError
//	@Failure		500	{object}	ReportResponse
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/plans/{id}/report [get]
func (co Controller) GetPlanReport(c *gin.Context) {
	plan, ok := co.plan(c)
	if !ok {
		return
	}

	report, err := co.Engine.Advisor.Report(c.Request.Context(), plan.ID)
	if err != nil {
		c.JSON(status(err), ReportResponse{
			Error: message(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, ReportResponse{Data: &report})
}
