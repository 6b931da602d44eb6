package ragapi

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	ErrNoBaseURL = errors.New("ragapi: base url missing")
	ErrNoAPIKey  = errors.New("ragapi: api key missing")

	ErrStoreNotFound     = errors.New("ragapi: store not found")
	ErrOperationNotFound = errors.New("ragapi: operation not found")
)

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error

	// Store errors
	CodeStoreNotFound     = "E_STORE_NOT_FOUND"     // the named store does not exist
	CodeStoreCreateFailed = "E_STORE_CREATE_FAILED" // store creation failed
	CodeStoreDeleteFailed = "E_STORE_DELETE_FAILED" // store deletion failed

	// Ingestion errors
	CodeIngestFailed      = "E_INGEST_FAILED"       // document submission failed
	CodeOperationNotFound = "E_OPERATION_NOT_FOUND" // unknown long-running operation
)

// APIError is the error payload returned by the remote index service.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

// handleAPIError folds the transport error and the API error state of a
// response into a single wrapped error.
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s %w", operation, requestErr)
	}

	// got a response, but the api returned an error
	if resp.IsErrorState() {
		if err, ok := resp.ErrorResult().(*APIError); ok {
			return fmt.Errorf("%s %w", operation, err)
		}
		return fmt.Errorf("api error: %s %s", operation, resp.Dump())
	}

	return nil
}
