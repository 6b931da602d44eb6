package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corpuschat/corpuschat/internal/corpus"
	"github.com/corpuschat/corpuschat/internal/ragapi"
)

type ChatHandler struct {
	api       *ragapi.Client
	dir       *corpus.Directory
	storeName string
}

func NewChatHandler(api *ragapi.Client, dir *corpus.Directory, storeName string) *ChatHandler {
	return &ChatHandler{api: api, dir: dir, storeName: storeName}
}

// Query relays a natural-language question to the canonical store and
// returns the generated answer with grounding references. Retrieval and
// generation happen remotely; this is a passthrough.
func (h *ChatHandler) Query(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}
	if req.Name == "" {
		req.Name = h.storeName
	}

	ctx := c.Request.Context()
	store, err := h.dir.ResolveCanonical(ctx, req.Name)
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeQueryFailed, err)
		return
	}
	if store == nil {
		AbortWithError(c, http.StatusNotFound, ErrCodeStoreNotFound, errors.New("no store named "+req.Name))
		return
	}

	resp, err := h.api.Query(ctx, &ragapi.QueryParams{StoreID: store.StoreID, Text: req.Text})
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeQueryFailed, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
