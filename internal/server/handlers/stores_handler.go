package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corpuschat/corpuschat/internal/corpus"
)

type StoresHandler struct {
	dir *corpus.Directory
}

func NewStoresHandler(dir *corpus.Directory) *StoresHandler {
	return &StoresHandler{dir: dir}
}

// List returns every remote store visible to the configured credential.
func (h *StoresHandler) List(c *gin.Context) {
	stores, err := h.dir.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeStoreOpFailed, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// Inspect groups stores by display name and flags duplicate groups.
func (h *StoresHandler) Inspect(c *gin.Context) {
	groups, err := h.dir.Inspect(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeStoreOpFailed, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// Reconcile collapses duplicate stores for a display name.
func (h *StoresHandler) Reconcile(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	report, err := h.dir.ReconcileDuplicates(c.Request.Context(), req.Name)
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeStoreOpFailed, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Delete removes a store by id, force semantics, and clears its ledger
// entry.
func (h *StoresHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, errors.New("store id is required"))
		return
	}

	if err := h.dir.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeStoreOpFailed, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
