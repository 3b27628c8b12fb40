package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	v1 "github.com/nestegg-finance/backend/internal/controllers/v1"
	"github.com/nestegg-finance/backend/internal/forecast"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func planURL(id uuid.UUID) string {
	return fmt.Sprintf("http://example.com/v1/plans/%s", id)
}

func (suite *TestSuiteStandard) TestPlansCreate() {
	tests := []struct {
		name   string
		body   any
		status int
		errors []string // Expected error per created resource, empty for success
	}{
		{
			"Single",
			[]map[string]any{{"userId": user, "name": "Emergency fund", "percentageOfIncome": 10}},
			http.StatusCreated,
			[]string{""},
		},
		{
			"With goal",
			[]map[string]any{{"userId": user, "name": "Vacation", "percentageOfIncome": 5, "targetAmount": 1500, "targetDate": "2025-06-01T00:00:00Z"}},
			http.StatusCreated,
			[]string{""},
		},
		{
			"Limit exceeded for the second plan",
			[]map[string]any{
				{"userId": user, "name": "Emergency fund", "percentageOfIncome": 60},
				{"userId": user, "name": "Vacation", "percentageOfIncome": 50},
			},
			http.StatusBadRequest,
			[]string{"", "invalid percentageOfIncome: the percentages of all active plans must not add up to more than 100%, would be 110%"},
		},
		{
			"Empty name",
			[]map[string]any{{"userId": user, "name": " ", "percentageOfIncome": 10}},
			http.StatusBadRequest,
			[]string{"invalid name: the plan name must not be empty"},
		},
		{
			"Negative target",
			[]map[string]any{{"userId": user, "name": "Car", "percentageOfIncome": 10, "targetAmount": -5}},
			http.StatusBadRequest,
			[]string{"invalid targetAmount: the target amount must be positive"},
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			// Every case starts without plans
			suite.TearDownTest()
			suite.SetupTest()

			recorder := test.Request(t, suite.controller, http.MethodPost, "http://example.com/v1/plans", tt.body)
			test.AssertHTTPStatus(t, &recorder, tt.status)

			var response v1.PlanCreateResponse
			test.DecodeResponse(t, &recorder, &response)

			assert.Len(t, response.Data, len(tt.errors))
			for i, e := range tt.errors {
				if e == "" {
					assert.Nil(t, response.Data[i].Error)
					assert.NotNil(t, response.Data[i].Data)
					continue
				}

				if assert.NotNil(t, response.Data[i].Error) {
					assert.Equal(t, e, *response.Data[i].Error)
				}
			}
		})
	}
}

func (suite *TestSuiteStandard) TestPlansCreateBrokenBody() {
	tests := []struct {
		name string
		body string
		err  string
	}{
		{"Empty", "", "the request body must not be empty"},
		{"Not JSON", `{ "name": 2`, "the body of your request contains invalid or un-parseable data. Please check and try again"},
		{"Missing user", `[{ "name": "Car", "percentageOfIncome": 10 }]`, "UserID is required"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, suite.controller, http.MethodPost, "http://example.com/v1/plans", tt.body)
			test.AssertHTTPStatus(t, &recorder, http.StatusBadRequest)

			var response v1.PlanCreateResponse
			test.DecodeResponse(t, &recorder, &response)
			if assert.NotNil(t, response.Error) {
				assert.Equal(t, tt.err, *response.Error)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestPlansCreateLinks() {
	recorder := test.Request(suite.T(), suite.controller, http.MethodPost, "http://example.com/v1/plans", []map[string]any{
		{"userId": user, "name": "Emergency fund", "percentageOfIncome": 10},
	})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)

	var response v1.PlanCreateResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	plan := response.Data[0].Data

	suite.Assert().Equal(planURL(plan.ID), plan.Links.Self)
	suite.Assert().Equal(fmt.Sprintf("http://example.com/v1/allocations?plan=%s", plan.ID), plan.Links.Allocations)
	suite.Assert().Equal(planURL(plan.ID)+"/projections", plan.Links.Projections)
	suite.Assert().True(plan.Active)
	suite.Assert().True(plan.CumulativeTotal.IsZero())
}

func (suite *TestSuiteStandard) TestPlansGet() {
	emergency := suite.createPlanTestHelper("Emergency fund", 10)
	vacation := suite.createPlanTestHelper("Vacation", 10)
	suite.Require().Nil(suite.engine.Registry.SoftDelete(suite.T().Context(), vacation.ID))

	tests := []struct {
		name   string
		query  string
		status int
		ids    []uuid.UUID
	}{
		{"All", "?user=user-1", http.StatusOK, []uuid.UUID{emergency.ID, vacation.ID}},
		{"Active", "?user=user-1&active=true", http.StatusOK, []uuid.UUID{emergency.ID}},
		{"Inactive", "?user=user-1&active=false", http.StatusOK, []uuid.UUID{vacation.ID}},
		{"Other user", "?user=user-2", http.StatusOK, []uuid.UUID{}},
		{"No user", "", http.StatusBadRequest, nil},
		{"Broken filter", "?user=user-1&active=maybe", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, suite.controller, http.MethodGet, "http://example.com/v1/plans"+tt.query, "")
			test.AssertHTTPStatus(t, &recorder, tt.status)

			var response v1.PlanListResponse
			test.DecodeResponse(t, &recorder, &response)

			if tt.ids == nil {
				assert.NotNil(t, response.Error)
				return
			}

			ids := make([]uuid.UUID, 0, len(response.Data))
			for _, p := range response.Data {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.ids, ids)
		})
	}
}

func (suite *TestSuiteStandard) TestPlanGet() {
	p := suite.createPlanTestHelper("Emergency fund", 10)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"Existing", planURL(p.ID), http.StatusOK},
		{"Not found", planURL(uuid.New()), http.StatusNotFound},
		{"Invalid ID", "http://example.com/v1/plans/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, suite.controller, http.MethodGet, tt.url, "")
			test.AssertHTTPStatus(t, &recorder, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestPlanUpdate() {
	p := suite.createPlanTestHelper("Emergency fund", 10)

	recorder := test.Request(suite.T(), suite.controller, http.MethodPatch, planURL(p.ID), map[string]any{
		"name":         "Rainy days",
		"targetAmount": 3000,
	})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.PlanResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Assert().Equal("Rainy days", response.Data.Name)
	suite.Assert().True(response.Data.TargetAmount.Valid)
	suite.Assert().True(decimal.NewFromInt(3000).Equal(response.Data.TargetAmount.Decimal))
	suite.Assert().True(decimal.NewFromInt(10).Equal(response.Data.PercentageOfIncome), "fields not in the body are kept")

	// Setting the goal to null removes it
	recorder = test.Request(suite.T(), suite.controller, http.MethodPatch, planURL(p.ID), `{ "targetAmount": null }`)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Assert().False(response.Data.TargetAmount.Valid)
	suite.Assert().Equal("Rainy days", response.Data.Name)
}

func (suite *TestSuiteStandard) TestPlanUpdateFails() {
	p := suite.createPlanTestHelper("Emergency fund", 60)
	suite.createPlanTestHelper("Vacation", 30)

	tests := []struct {
		name   string
		url    string
		body   string
		status int
	}{
		{"Limit exceeded", planURL(p.ID), `{ "percentageOfIncome": 71 }`, http.StatusBadRequest},
		{"Out of range", planURL(p.ID), `{ "percentageOfIncome": -1 }`, http.StatusBadRequest},
		{"Empty body", planURL(p.ID), "", http.StatusBadRequest},
		{"Not an object", planURL(p.ID), `[]`, http.StatusBadRequest},
		{"Broken type", planURL(p.ID), `{ "name": 2 }`, http.StatusBadRequest},
		{"Not found", planURL(uuid.New()), `{ "name": "Car" }`, http.StatusNotFound},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, suite.controller, http.MethodPatch, tt.url, tt.body)
			test.AssertHTTPStatus(t, &recorder, tt.status)
		})
	}

	stored, err := suite.engine.Registry.Get(suite.T().Context(), p.ID)
	suite.Require().Nil(err)
	suite.Assert().True(decimal.NewFromInt(60).Equal(stored.PercentageOfIncome), "failed updates do not write")
}

func (suite *TestSuiteStandard) TestPlanUpdateLimitMessage() {
	p := suite.createPlanTestHelper("Emergency fund", 60)
	suite.createPlanTestHelper("Vacation", 30)

	recorder := test.Request(suite.T(), suite.controller, http.MethodPatch, planURL(p.ID), `{ "percentageOfIncome": 80 }`)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)

	var response v1.PlanResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotNil(response.Error)
	suite.Assert().Contains(*response.Error, "would be 110%")
}

func (suite *TestSuiteStandard) TestPlanDelete() {
	p := suite.createPlanTestHelper("Emergency fund", 10)

	recorder := test.Request(suite.T(), suite.controller, http.MethodDelete, planURL(p.ID), "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNoContent)

	// The plan is kept for its history
	recorder = test.Request(suite.T(), suite.controller, http.MethodGet, planURL(p.ID), "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.PlanResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Assert().False(response.Data.Active)

	recorder = test.Request(suite.T(), suite.controller, http.MethodDelete, planURL(uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestPlanRecalculate() {
	p := suite.createPlanTestHelper("Emergency fund", 10)
	suite.createIncomeTestHelper(2000, now)
	_, err := suite.engine.Allocator.Process(suite.T().Context(), user)
	suite.Require().Nil(err)

	recorder := test.Request(suite.T(), suite.controller, http.MethodPost, planURL(p.ID)+"/recalculate", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.RecalculationResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Assert().True(decimal.NewFromInt(200).Equal(response.Data.CumulativeTotal), "got %s", response.Data.CumulativeTotal)
}

func (suite *TestSuiteStandard) TestPlanProjections() {
	suite.monthlyIncomeTestHelper(6, 2000)
	p := suite.createPlanTestHelper("Emergency fund", 10)

	recorder := test.Request(suite.T(), suite.controller, http.MethodGet, planURL(p.ID)+"/projections", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.ProjectionResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotNil(response.Data.IncomePattern)
	suite.Assert().Equal(forecast.Monthly, response.Data.IncomePattern.Frequency)
	suite.Assert().Len(response.Data.Projections, 12)
	suite.Assert().True(decimal.NewFromInt(200).Equal(response.Data.Projections[0].Allocation))
}

func (suite *TestSuiteStandard) TestPlanSimulate() {
	suite.monthlyIncomeTestHelper(6, 2000)
	p := suite.createPlanTestHelper("Emergency fund", 10)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Valid", `{ "percentageOfIncome": 25 }`, http.StatusOK},
		{"Out of range", `{ "percentageOfIncome": 101 }`, http.StatusBadRequest},
		{"Empty", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, suite.controller, http.MethodPost, planURL(p.ID)+"/simulate", tt.body)
			test.AssertHTTPStatus(t, &recorder, tt.status)
		})
	}

	recorder := test.Request(suite.T(), suite.controller, http.MethodPost, planURL(p.ID)+"/simulate", `{ "percentageOfIncome": 25 }`)
	var response v1.ProjectionResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotEmpty(response.Data.Projections)
	suite.Assert().True(decimal.NewFromInt(500).Equal(response.Data.Projections[0].Allocation))
}

func (suite *TestSuiteStandard) TestPlanHealth() {
	suite.monthlyIncomeTestHelper(6, 2000)
	p := suite.createPlanTestHelper("Emergency fund", 80)

	recorder := test.Request(suite.T(), suite.controller, http.MethodGet, planURL(p.ID)+"/health", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.HealthResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Assert().Equal(88, response.Data.Score)

	stored, err := suite.engine.Registry.Get(suite.T().Context(), p.ID)
	suite.Require().Nil(err)
	suite.Assert().Equal(88, stored.HealthScore)
}

func (suite *TestSuiteStandard) TestPlanRecommendations() {
	p := suite.createPlanTestHelper("Emergency fund", 10)

	recorder := test.Request(suite.T(), suite.controller, http.MethodGet, planURL(p.ID)+"/recommendations", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.RecommendationListResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Assert().NotNil(response.Data)
}

func (suite *TestSuiteStandard) TestPlanSummary() {
	p := suite.createPlanTestHelper("Emergency fund", 10)
	suite.monthlyIncomeTestHelper(2, 1000)
	_, err := suite.engine.Allocator.Process(suite.T().Context(), user)
	suite.Require().Nil(err)

	recorder := test.Request(suite.T(), suite.controller, http.MethodGet, planURL(p.ID)+"/summary", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.SummaryResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().Len(response.Data, 2)
	suite.Assert().True(decimal.NewFromInt(100).Equal(response.Data[0].Allocated))
	suite.Assert().Equal(1, response.Data[0].Count)
}

func (suite *TestSuiteStandard) TestPlanReport() {
	suite.monthlyIncomeTestHelper(6, 2000)
	p := suite.createPlanTestHelper("Emergency fund", 10)

	recorder := test.Request(suite.T(), suite.controller, http.MethodGet, planURL(p.ID)+"/report", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.ReportResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Assert().Equal(p.ID, response.Data.Plan.ID)
	suite.Assert().Equal(response.Data.Health.Score, response.Data.Plan.HealthScore)
	suite.Assert().NotEmpty(response.Data.Projection.Projections)
}

func (suite *TestSuiteStandard) TestPlansDatabaseError() {
	p := suite.createPlanTestHelper("Emergency fund", 10)
	suite.CloseDB()

	tests := []struct {
		name   string
		method string
		url    string
		body   any
	}{
		{"List", http.MethodGet, "http://example.com/v1/plans?user=user-1", ""},
		{"Get", http.MethodGet, planURL(p.ID), ""},
		{"Create", http.MethodPost, "http://example.com/v1/plans", []map[string]any{{"userId": user, "name": "Car", "percentageOfIncome": 10}}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, suite.controller, tt.method, tt.url, tt.body)
			test.AssertHTTPStatus(t, &recorder, http.StatusInternalServerError)
			assert.Contains(t, recorder.Body.String(), models.ErrGeneral.Error())
			assert.NotContains(t, recorder.Body.String(), "sql: database is closed")
		})
	}
}
