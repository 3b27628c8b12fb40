package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/httputil"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/shopspring/decimal"
)

type TransactionEditable struct {
	UserID   string          `json:"userId" binding:"required" example:"user-42"` // Owning user
	Date     time.Time       `json:"date" example:"2024-03-01T00:00:00Z"`         // Date of the transaction. Defaults to now
	Inbound  decimal.Decimal `json:"inbound" example:"2000"`                      // Money received. Either inbound or outbound must be positive
	Outbound decimal.Decimal `json:"outbound" example:"0"`                        // Money spent
	Category string          `json:"category" example:"Groceries"`                // Expense category
	Note     string          `json:"note" example:"Salary March"`                 // A note for the transaction
}

// model returns the database resource for the API representation of the editable fields
func (editable TransactionEditable) model() models.Transaction {
	return models.Transaction{
		UserID:   editable.UserID,
		Date:     editable.Date,
		Inbound:  editable.Inbound,
		Outbound: editable.Outbound,
		Category: editable.Category,
		Note:     editable.Note,
	}
}

type TransactionLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/transactions/7c9e6679-7425-40de-944b-e07fc1f90ae7"` // The transaction itself
}

type Transaction struct {
	models.Transaction
	Links TransactionLinks `json:"links"`
}

// newTransaction returns the API v1 representation of the resource
func newTransaction(c *gin.Context, model models.Transaction) Transaction {
	return Transaction{
		Transaction: model,
		Links: TransactionLinks{
			Self: fmt.Sprintf("%s/v1/transactions/%s", httputil.BaseURL(c), model.ID),
		},
	}
}

type TransactionResponse struct {
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *Transaction `json:"data"`                                                          // The resource
}

type TransactionListResponse struct {
	Error *string       `json:"error" example:"the user parameter must be set"` // The error, if any occurred
	Data  []Transaction `json:"data"`                                           // List of resources, newest first
}

type TransactionCreateResponse struct {
	Error *string               `json:"error" example:"the request body must not be empty"` // The error, if any occurred
	Data  []TransactionResponse `json:"data"`                                               // List of created resources
}

func (r *TransactionCreateResponse) appendError(c *gin.Context, err error, currentStatus int) int {
	r.Data = append(r.Data, TransactionResponse{Error: message(c, err)})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}
