package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpuschat/corpuschat/internal/config"
	"github.com/corpuschat/corpuschat/internal/corpus"
	"github.com/corpuschat/corpuschat/internal/ragapi"
)

// fakeSyncRemote fulfils uploads instantly except that SubmitDocument can be
// held open, keeping a sync run in flight while the test pokes the handler.
type fakeSyncRemote struct {
	fakeStoreAPI
	started chan string
	release chan struct{}
}

func (f *fakeSyncRemote) SubmitDocument(ctx context.Context, params *ragapi.UploadParams) (*ragapi.UploadResponse, error) {
	if f.started != nil {
		f.started <- params.FileName
		<-f.release
	}
	return &ragapi.UploadResponse{OperationID: "op-" + params.FileName}, nil
}

func (f *fakeSyncRemote) PollOperation(ctx context.Context, operationID string) (*ragapi.Operation, error) {
	return &ragapi.Operation{OperationID: operationID, Done: true}, nil
}

func TestSyncHandler_TriggerConflictWhileRunning(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("x"), 0o644))

	remote := &fakeSyncRemote{
		started: make(chan string),
		release: make(chan struct{}),
	}
	ledger := corpus.NewLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, ledger.Open())
	t.Cleanup(func() { ledger.Close() })

	engine := corpus.NewEngine(remote, ledger, corpus.UploaderConfig{
		MaxAttempts:     1,
		BackoffBase:     time.Millisecond,
		PollInterval:    time.Millisecond,
		MaxPolls:        2,
		PostUploadDelay: time.Millisecond,
	})

	cfg := &config.Config{StoreName: "corpus", SourceDir: srcDir}
	h := NewSyncHandler(engine, cfg)
	r := gin.New()
	r.POST("/sync", h.Trigger)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodPost, "/sync", nil))
	require.Equal(t, http.StatusAccepted, w1.Code)

	// hold the run at its first upload, then trigger again
	<-remote.started
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/sync", nil))
	require.Equal(t, http.StatusConflict, w2.Code)
	assert.Contains(t, w2.Body.String(), ErrCodeSyncRunning)

	close(remote.release)
	engine.Wait()
}
