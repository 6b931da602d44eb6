package ragapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, "test-key")
	require.NoError(t, err)
	return client
}

func TestListStores_NormalizesBothShapes(t *testing.T) {
	payloads := []string{
		`{"stores":[{"storeId":"s1","displayName":"corpus","activeDocumentCount":3}]}`,
		`{"documentStores":[{"storeId":"s1","displayName":"corpus","activeDocumentCount":3}]}`,
	}

	for _, payload := range payloads {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(payload))
		}))

		stores, err := client.ListStores(context.Background())
		require.NoError(t, err)
		require.Len(t, stores, 1)
		require.Equal(t, "s1", stores[0].StoreID)
		require.Equal(t, "corpus", stores[0].DisplayName)
		require.Equal(t, 3, stores[0].ActiveDocumentCount)
	}
}

func TestListStores_EmptyBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))

	stores, err := client.ListStores(context.Background())
	require.NoError(t, err)
	require.Empty(t, stores)
}

func TestCreateStore_APIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":"E_STORE_CREATE_FAILED","error":"backend unavailable"}`))
	}))

	_, err := client.CreateStore(context.Background(), &CreateStoreParams{DisplayName: "corpus"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "E_STORE_CREATE_FAILED")
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New("", "key")
	require.ErrorIs(t, err, ErrNoBaseURL)

	_, err = New("http://localhost", "")
	require.ErrorIs(t, err, ErrNoAPIKey)
}
