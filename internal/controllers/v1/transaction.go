package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/httputil"
	"github.com/nestegg-finance/backend/internal/store"
)

// RegisterTransactionRoutes registers the routes for transactions with
// the RouterGroup that is passed.
//
// Transactions are entries of the shared expense ledger. The savings engine
// reads them as income and expenses, they can only be created here.
func (co Controller) RegisterTransactionRoutes(r *gin.RouterGroup) {
	{
		r.OPTIONS("", co.OptionsTransactionList)
		r.GET("", co.GetTransactions)
		r.POST("", co.CreateTransactions)
	}
	{
		r.OPTIONS("/:id", co.OptionsTransactionDetail)
		r.GET("/:id", co.GetTransaction)
	}
}

// OptionsTransactionList returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			Transactions
//	@Success		204
//	@Router			/v1/transactions [options]
func (co Controller) OptionsTransactionList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// OptionsTransactionDetail returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			Transactions
//	@Success		204
//	@Param			id	path	string	true	"ID formatted as string"
//	@Router			/v1/transactions/{id} [options]
func (co Controller) OptionsTransactionDetail(c *gin.Context) {
	httputil.OptionsGet(c)
}

// CreateTransactions creates transactions
//
//	@Summary		Create transactions
//	@Description	Creates new ledger entries. Entries with a positive inbound amount are income.
//	@Tags			Transactions
//	@Produce		json
//	@Success		201				{object}	TransactionCreateResponse
//	@Failure		400				{object}	TransactionCreateResponse
//	@Failure		500				{object}	TransactionCreateResponse
//	@Param			transactions	body		[]TransactionEditable	true	"Transactions"
//	@Router			/v1/transactions [post]
func (co Controller) CreateTransactions(c *gin.Context) {
	var transactions []TransactionEditable

	err := httputil.BindData(c, &transactions)
	if err != nil {
		c.JSON(status(err), TransactionCreateResponse{
			Error: message(c, err),
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := TransactionCreateResponse{Data: []TransactionResponse{}}

	for _, create := range transactions {
		transaction := create.model()
		_, err := co.Engine.Store.Transactions().Add(c.Request.Context(), &transaction)
		if err != nil {
			status = r.appendError(c, err, status)
			continue
		}

		apiResource := newTransaction(c, transaction)
		r.Data = append(r.Data, TransactionResponse{Data: &apiResource})
	}

	c.JSON(status, r)
}

// GetTransactions returns the transactions of a user
//
//	@Summary		Get transactions
//	@Description	Returns the ledger entries of a user, newest first
//	@Tags			Transactions
//	@Produce		json
//	@Success		200		{object}	TransactionListResponse
//	@Failure		400		{object}	TransactionListResponse
//	@Failure		500		{object}	TransactionListResponse
//	@Param			user	query		string	true	"ID of the user"
//	@Router			/v1/transactions [get]
func (co Controller) GetTransactions(c *gin.Context) {
	var filter QueryUser
	if err := c.ShouldBindQuery(&filter); err != nil || filter.User == "" {
		c.JSON(http.StatusBadRequest, TransactionListResponse{
			Error: message(c, errUserNotSet),
		})
		return
	}

	transactions, err := co.Engine.Store.Transactions().Query(c.Request.Context(), store.Where("userId", store.Equal, filter.User).Desc("date"))
	if err != nil {
		c.JSON(status(err), TransactionListResponse{
			Error: message(c, err),
		})
		return
	}

	data := make([]Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		data = append(data, newTransaction(c, transaction))
	}

	c.JSON(http.StatusOK, TransactionListResponse{Data: data})
}

// GetTransaction returns a specific transaction
//
//	@Summary		Get transaction
//	@Description	Returns a specific ledger entry
//	@Tags			Transactions
//	@Produce		json
//	@Success		200	{object}	TransactionResponse
//	@Failure		400	{object}	TransactionResponse
//	@Failure		404	{object}	TransactionResponse
//	@Failure		500	{object}	TransactionResponse
//	@Param			id	path		string	true	"ID formatted as string"
//	@Router			/v1/transactions/{id} [get]
func (co Controller) GetTransaction(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, TransactionResponse{
			Error: message(c, httputil.ErrInvalidUUID),
		})
		return
	}

	transaction, err := co.Engine.Store.Transactions().Get(c.Request.Context(), uri.ID.Google())
	if err != nil {
		c.JSON(status(err), TransactionResponse{
			Error: message(c, err),
		})
		return
	}

	apiResource := newTransaction(c, transaction)
	c.JSON(http.StatusOK, TransactionResponse{Data: &apiResource})
}
