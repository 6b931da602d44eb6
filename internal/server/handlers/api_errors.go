package handlers

import (
	"github.com/gin-gonic/gin"
)

const (
	ErrCodeBadRequest     = "ERR_BAD_REQUEST"
	ErrCodeSyncRunning    = "ERR_SYNC_RUNNING"
	ErrCodeSyncFailed     = "ERR_SYNC_FAILED"
	ErrCodeStoreNotFound  = "ERR_STORE_NOT_FOUND"
	ErrCodeStoreOpFailed  = "ERR_STORE_OP_FAILED"
	ErrCodeLedgerOpFailed = "ERR_LEDGER_OP_FAILED"
	ErrCodeQueryFailed    = "ERR_QUERY_FAILED"
)

// ControlError is the error body of every non-2xx response.
type ControlError struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// AbortWithError writes a ControlError and stops the handler chain.
func AbortWithError(c *gin.Context, status int, code string, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(status, ControlError{
		ErrorCode: code,
		Message:   err.Error(),
	})
}
