package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corpuschat/corpuschat/internal/config"
	"github.com/corpuschat/corpuschat/internal/corpus"
)

// SyncRequest triggers a sync run. Name and dir default to the configured
// store and source directory.
type SyncRequest struct {
	Name        string `json:"name"`
	Dir         string `json:"dir"`
	ForceReload bool   `json:"forceReload"`
	Resume      bool   `json:"resume"`
}

type SyncHandler struct {
	engine *corpus.Engine
	cfg    *config.Config

	// background syncs outlive the triggering request
	baseCtx context.Context
}

func NewSyncHandler(engine *corpus.Engine, cfg *config.Config) *SyncHandler {
	return &SyncHandler{engine: engine, cfg: cfg, baseCtx: context.Background()}
}

// Trigger starts a sync run in the background. A run already in flight for
// the same name yields 409; progress is observable on /sync/events.
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}
	if req.Name == "" {
		req.Name = h.cfg.StoreName
	}
	if req.Dir == "" {
		req.Dir = h.cfg.SourceDir
	}
	if req.Dir == "" {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, errors.New("no source directory configured or given"))
		return
	}

	err := h.engine.StartAsync(h.baseCtx, req.Name, req.Dir, corpus.SyncOptions{
		ForceReload: req.ForceReload,
		Resume:      req.Resume,
	})
	if err != nil {
		if errors.Is(err, corpus.ErrSyncRunning) {
			AbortWithError(c, http.StatusConflict, ErrCodeSyncRunning, err)
			return
		}
		AbortWithError(c, http.StatusInternalServerError, ErrCodeSyncFailed, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "started",
		"name":   req.Name,
	})
}

// Status reports remote vs ledger document counts for a logical name.
func (h *SyncHandler) Status(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		name = h.cfg.StoreName
	}

	status, err := h.engine.Status(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, http.StatusInternalServerError, ErrCodeSyncFailed, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Events streams sync progress as server-sent events until the client
// disconnects.
func (h *SyncHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	eventCh := h.engine.Progress().Subscribe()
	defer h.engine.Progress().Unsubscribe(eventCh)

	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-eventCh:
			if !ok {
				return false
			}
			c.SSEvent("sync", event)
			return true
		}
	})
}
