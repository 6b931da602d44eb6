package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corpuschat/corpuschat/internal/corpus"
)

type LedgerHandler struct {
	ledger *corpus.Ledger
}

func NewLedgerHandler(ledger *corpus.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Show lists the ledger grouped by store, flagging duplicate entries.
func (h *LedgerHandler) Show(c *gin.Context) {
	entries, err := h.ledger.Entries()
	if err != nil {
		AbortWithError(c, http.StatusInternalServerError, ErrCodeLedgerOpFailed, err)
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, gin.H{
			"storeId":       entry.StoreID,
			"uploadedFiles": entry.UploadedFiles,
			"lastUpdate":    entry.LastUpdate,
			"hasDuplicates": entry.HasDuplicates,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

// Dedupe collapses duplicate ledger rows for one store and reports counts.
func (h *LedgerHandler) Dedupe(c *gin.Context) {
	var req struct {
		StoreID string `json:"storeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	report, err := h.ledger.Deduplicate(req.StoreID)
	if err != nil {
		AbortWithError(c, http.StatusInternalServerError, ErrCodeLedgerOpFailed, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
