package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// BindData binds the data from the request to the struct passed in the interface.
func BindData(c *gin.Context, data any) error {
	if err := c.ShouldBindJSON(data); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrRequestBodyEmpty
		}

		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return validationError(validationErrors)
		}

		// Lists are validated per element, the first broken element is reported
		var sliceErrors binding.SliceValidationError
		if errors.As(err, &sliceErrors) {
			for _, e := range sliceErrors {
				if errors.As(e, &validationErrors) {
					return validationError(validationErrors)
				}
			}
		}

		var jsonUnmarshalTypeError *json.UnmarshalTypeError
		if errors.As(err, &jsonUnmarshalTypeError) {
			return err
		}

		log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
		return ErrInvalidBody
	}

	return nil
}

// BodyFields returns the names of the top level JSON fields set in the
// request body.
//
// This reads and copies the request body, it must always be called before
// any of gin's c.*Bind methods.
func BodyFields(c *gin.Context) (map[string]bool, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, ErrInvalidBody
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrRequestBodyEmpty
	}

	var mapBody map[string]json.RawMessage
	if err := json.Unmarshal(body, &mapBody); err != nil {
		log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
		return nil, ErrInvalidBody
	}

	fields := make(map[string]bool, len(mapBody))
	for field := range mapBody {
		fields[field] = true
	}

	return fields, nil
}

// BaseURL returns the API base URL set by the router.
func BaseURL(c *gin.Context) string {
	return c.GetString(ContextURL)
}
