package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	v1 "github.com/nestegg-finance/backend/internal/controllers/v1"
	"github.com/nestegg-finance/backend/internal/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestTransactionsCreate() {
	recorder := test.Request(suite.T(), suite.controller, http.MethodPost, "http://example.com/v1/transactions", []map[string]any{
		{"userId": user, "date": "2024-01-01T00:00:00Z", "inbound": 2000, "note": "Salary"},
		{"userId": user, "date": "2024-01-02T00:00:00Z", "outbound": 40, "category": "Groceries"},
		{"userId": user, "inbound": 10, "outbound": 10},
	})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)

	var response v1.TransactionCreateResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().Len(response.Data, 3)

	suite.Assert().Nil(response.Data[0].Error)
	suite.Assert().True(decimal.NewFromInt(2000).Equal(response.Data[0].Data.Inbound))
	suite.Assert().Equal(fmt.Sprintf("http://example.com/v1/transactions/%s", response.Data[0].Data.ID), response.Data[0].Data.Links.Self)

	suite.Assert().Nil(response.Data[1].Error)
	suite.Assert().Equal("Groceries", response.Data[1].Data.Category)

	suite.Require().NotNil(response.Data[2].Error)
	suite.Assert().Nil(response.Data[2].Data)

	// The income is picked up by the allocation engine
	incomes, err := suite.engine.Income.ListIncome(suite.T().Context(), user)
	suite.Require().Nil(err)
	suite.Assert().Len(incomes, 1)
}

func (suite *TestSuiteStandard) TestTransactionsGet() {
	older := suite.createIncomeTestHelper(1000, now.AddDate(0, -1, 0))
	newer := suite.createIncomeTestHelper(2000, now)

	tests := []struct {
		name   string
		query  string
		status int
		ids    []uuid.UUID
	}{
		{"User", "?user=user-1", http.StatusOK, []uuid.UUID{newer.ID, older.ID}},
		{"Other user", "?user=user-2", http.StatusOK, []uuid.UUID{}},
		{"No user", "", http.StatusBadRequest, []uuid.UUID{}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, suite.controller, http.MethodGet, "http://example.com/v1/transactions"+tt.query, "")
			test.AssertHTTPStatus(t, &recorder, tt.status)

			var response v1.TransactionListResponse
			test.DecodeResponse(t, &recorder, &response)

			ids := make([]uuid.UUID, 0, len(response.Data))
			for _, transaction := range response.Data {
				ids = append(ids, transaction.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func (suite *TestSuiteStandard) TestTransactionGet() {
	income := suite.createIncomeTestHelper(1000, now)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"Existing", fmt.Sprintf("http://example.com/v1/transactions/%s", income.ID), http.StatusOK},
		{"Not found", fmt.Sprintf("http://example.com/v1/transactions/%s", uuid.New()), http.StatusNotFound},
		{"Invalid ID", "http://example.com/v1/transactions/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, suite.controller, http.MethodGet, tt.url, "")
			test.AssertHTTPStatus(t, &recorder, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestTransactionsDatabaseError() {
	suite.CloseDB()

	recorder := test.Request(suite.T(), suite.controller, http.MethodGet, "http://example.com/v1/transactions?user=user-1", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusInternalServerError)
}
