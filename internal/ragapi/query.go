package ragapi

import (
	"context"
	"fmt"
)

// Query asks a natural-language question against one store and returns the
// generated answer with its grounding references. Retrieval and generation
// happen entirely on the remote side.
func (c *Client) Query(ctx context.Context, params *QueryParams) (apiResp *QueryResponse, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&apiResp).
		Post(fmt.Sprintf(v1StoreQuery, params.StoreID))

	if err := handleAPIError(resp, err, "store query"); err != nil {
		return nil, err
	}

	return apiResp, nil
}
