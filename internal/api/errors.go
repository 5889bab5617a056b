package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/ingest"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/storage"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeDisambiguation  = "DISAMBIGUATION"
	CodeIngestionFailed = "INGESTION_FAILED"
	CodeCorruptState    = "CORRUPT_STATE"
	CodeInternal        = "INTERNAL"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify maps an error to its HTTP status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ingest.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, ingest.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ingest.ErrDisambiguation):
		return http.StatusNotFound, CodeDisambiguation
	case errors.Is(err, ingest.ErrIngestionFailed):
		return http.StatusInternalServerError, CodeIngestionFailed
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, storage.ErrCorruptState):
		return http.StatusInternalServerError, CodeCorruptState
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}
