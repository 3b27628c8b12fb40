package v1

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/savings"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/rs/zerolog/log"
)

type httpError struct {
	Error string `json:"error" example:"the specified resource ID is not a valid UUID"`
}

var (
	errUserNotSet       = errors.New("the user parameter must be set")
	errUserOrPlanNotSet = errors.New("either the user or the plan parameter must be set")
)

// status returns the appropriate HTTP status for an error
func status(err error) int {
	var storeErr *store.Error

	switch {
	case errors.Is(err, savings.ErrPlanNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case savings.IsDuplicate(err):
		return http.StatusConflict
	case errors.As(err, &storeErr), errors.Is(err, models.ErrGeneral):
		return http.StatusInternalServerError
	}

	return http.StatusBadRequest
}

// message returns the error text for the response. Server errors are
// logged and replaced with a general message.
func message(c *gin.Context, err error) *string {
	s := err.Error()

	if status(err) == http.StatusInternalServerError {
		log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err)
		s = models.ErrGeneral.Error()
	}

	return &s
}
