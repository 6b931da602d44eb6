package ragapi

import (
	"context"
	"fmt"
)

// CreateStore creates a new remote store with the given display name.
// Creation is not idempotent at the remote side: two concurrent calls for
// the same name yield two stores.
func (c *Client) CreateStore(ctx context.Context, params *CreateStoreParams) (store *RemoteStore, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&store).
		Post(v1Stores)

	if err := handleAPIError(resp, err, "store create"); err != nil {
		return nil, err
	}

	return store, nil
}

// ListStores returns every store visible to the credential in use. The
// listing endpoint has been observed to nest results under either "stores"
// or "documentStores"; both shapes normalize to one canonical slice here so
// the ambiguity never travels further inward.
func (c *Client) ListStores(ctx context.Context) ([]*RemoteStore, error) {
	var raw listStoresResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetSuccessResult(&raw).
		Get(v1Stores)

	if err := handleAPIError(resp, err, "store list"); err != nil {
		return nil, err
	}

	stores := raw.Stores
	if len(stores) == 0 && len(raw.DocumentStores) > 0 {
		stores = raw.DocumentStores
	}
	if stores == nil {
		stores = []*RemoteStore{}
	}
	return stores, nil
}

// DeleteStore removes a store. force deletes it even when it still holds
// documents.
func (c *Client) DeleteStore(ctx context.Context, storeID string, force bool) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("force", fmt.Sprintf("%t", force)).
		Delete(fmt.Sprintf(v1Store, storeID))

	return handleAPIError(resp, err, "store delete")
}
