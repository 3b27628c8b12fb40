// Package test contains helpers for HTTP tests against the full router.
package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"

	v1 "github.com/nestegg-finance/backend/internal/controllers/v1"
	"github.com/nestegg-finance/backend/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BaseURL is the API URL the router is configured with.
const BaseURL = "http://example.com"

// Router returns a router with all routes of the controller attached. The
// router is torn down when the test ends, tests using it must not call
// Request.
func Router(t *testing.T, co v1.Controller) http.Handler {
	u, _ := url.Parse(BaseURL)

	r, teardown, err := router.Config(u)
	require.Nil(t, err, "Router could not be initialized")
	t.Cleanup(teardown)

	router.AttachRoutes(co, r.Group("/"))
	return r
}

// Request is a helper method to simplify making a HTTP request for tests.
//
// The body can be a string that is sent verbatim or any value that is
// encoded as JSON.
func Request(t *testing.T, co v1.Controller, method, target string, body any, headers ...map[string]string) httptest.ResponseRecorder {
	var byteBuffer *bytes.Buffer

	switch b := body.(type) {
	case nil:
		byteBuffer = &bytes.Buffer{}
	case string:
		byteBuffer = bytes.NewBufferString(b)
	default:
		byteStr, err := json.Marshal(body)
		if err != nil {
			assert.FailNow(t, "Request body could not be marshalled", err)
		}
		byteBuffer = bytes.NewBuffer(byteStr)
	}

	u, _ := url.Parse(BaseURL)
	r, teardown, err := router.Config(u)
	require.Nil(t, err, "Router could not be initialized")
	defer teardown()
	router.AttachRoutes(co, r.Group("/"))

	recorder := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, byteBuffer)

	for _, headerMap := range headers {
		for header, value := range headerMap {
			req.Header.Set(header, value)
		}
	}

	r.ServeHTTP(recorder, req)

	return *recorder
}

// AssertHTTPStatus checks the status of the response.
func AssertHTTPStatus(t *testing.T, r *httptest.ResponseRecorder, expected int) {
	assert.Equal(t, expected, r.Code, "HTTP status is wrong. Request ID: '%s' Response body: %s", r.Result().Header.Get("x-request-id"), r.Body.String())
}

// DecodeResponse decodes an HTTP response into a target struct.
func DecodeResponse(t *testing.T, r *httptest.ResponseRecorder, target any) {
	err := json.NewDecoder(r.Body).Decode(target)
	if err != nil {
		assert.FailNow(t, "Parsing error", "Unable to parse response from server %q into %v, '%v', Request ID: %s", r.Body, reflect.TypeOf(target), err, r.Result().Header.Get("x-request-id"))
	}
}
