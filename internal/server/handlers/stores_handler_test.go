package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpuschat/corpuschat/internal/corpus"
	"github.com/corpuschat/corpuschat/internal/ragapi"
)

type fakeStoreAPI struct {
	stores  []*ragapi.RemoteStore
	listErr error
	deleted []string
}

func (f *fakeStoreAPI) CreateStore(ctx context.Context, params *ragapi.CreateStoreParams) (*ragapi.RemoteStore, error) {
	store := &ragapi.RemoteStore{
		StoreID:     fmt.Sprintf("store-%d", len(f.stores)+1),
		DisplayName: params.DisplayName,
	}
	f.stores = append(f.stores, store)
	return store, nil
}

func (f *fakeStoreAPI) ListStores(ctx context.Context) ([]*ragapi.RemoteStore, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.stores, nil
}

func (f *fakeStoreAPI) DeleteStore(ctx context.Context, storeID string, force bool) error {
	f.deleted = append(f.deleted, storeID)
	remaining := f.stores[:0]
	for _, s := range f.stores {
		if s.StoreID != storeID {
			remaining = append(remaining, s)
		}
	}
	f.stores = remaining
	return nil
}

func newStoresRouter(t *testing.T, api *fakeStoreAPI) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := corpus.NewLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, ledger.Open())
	t.Cleanup(func() { ledger.Close() })

	h := NewStoresHandler(corpus.NewDirectory(api, ledger))
	r := gin.New()
	r.GET("/stores", h.List)
	r.POST("/stores/reconcile", h.Reconcile)
	r.DELETE("/stores/:id", h.Delete)
	return r
}

func TestStoresHandler_List(t *testing.T) {
	api := &fakeStoreAPI{stores: []*ragapi.RemoteStore{
		{StoreID: "s1", DisplayName: "corpus", ActiveDocumentCount: 7},
	}}
	r := newStoresRouter(t, api)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stores", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"s1"`)
	assert.Contains(t, w.Body.String(), `"corpus"`)
}

func TestStoresHandler_ReconcileKeepsCanonical(t *testing.T) {
	api := &fakeStoreAPI{stores: []*ragapi.RemoteStore{
		{StoreID: "small", DisplayName: "corpus", ActiveDocumentCount: 2},
		{StoreID: "big", DisplayName: "corpus", ActiveDocumentCount: 9},
	}}
	r := newStoresRouter(t, api)

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"name":"corpus"}`)
	req := httptest.NewRequest(http.MethodPost, "/stores/reconcile", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"keptId":"big"`)
	assert.Equal(t, []string{"small"}, api.deleted)
}

func TestStoresHandler_DeleteRemoteFailure(t *testing.T) {
	api := &fakeStoreAPI{listErr: fmt.Errorf("remote down")}
	r := newStoresRouter(t, api)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stores", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), ErrCodeStoreOpFailed)
}
