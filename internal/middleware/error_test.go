package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var standardCodes = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
}

func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all error responses carry the failure envelope", prop.ForAll(
		func(message string, pick int) bool {
			statusCode := standardCodes[pick%len(standardCodes)]

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			return response["Status"] == StatusFailed && response["Error"] == message
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{{Field: "City", Message: "This field is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, StatusFailed, response.Status)
	assert.Equal(t, "validation failed", response.Error)
	assert.Contains(t, response.Details, "validation_errors")
}

func TestProperty_OKEnvelopeKeepsFields(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("success responses merge fields with Status OK", prop.ForAll(
		func(data map[string]string) bool {
			fields := make(map[string]interface{}, len(data))
			for k, v := range data {
				fields[k] = v
			}

			w := httptest.NewRecorder()
			RespondWithOK(w, http.StatusCreated, fields)

			var result map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				return false
			}
			if w.Code != http.StatusCreated || result["Status"] != StatusOK {
				return false
			}
			for k, v := range data {
				if k != "Status" && result[k] != v {
					return false
				}
			}
			return true
		},
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"Status":"Failed"`)
}
