package ragapi

import (
	"context"
	"fmt"

	"github.com/corpuschat/corpuschat/internal/utils"
)

// SubmitDocument sends a document's bytes to the store's ingestion endpoint
// and returns the handle of the resulting long-running operation. Ingestion
// is asynchronous: the returned operation must be polled until done.
func (c *Client) SubmitDocument(ctx context.Context, params *UploadParams) (apiResp *UploadResponse, err error) {
	if !utils.FileExists(params.FilePath) {
		return nil, fmt.Errorf("submit %s: file not found", params.FilePath)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("fileName", params.FileName).
		SetQueryParam("contentType", params.ContentType).
		SetFile("file", params.FilePath).
		SetSuccessResult(&apiResp).
		Post(fmt.Sprintf(v1Upload, params.StoreID))

	if err := handleAPIError(resp, err, "document submit"); err != nil {
		return nil, err
	}

	return apiResp, nil
}

// PollOperation fetches the current state of a long-running operation.
func (c *Client) PollOperation(ctx context.Context, operationID string) (op *Operation, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetSuccessResult(&op).
		Get(fmt.Sprintf(v1Operation, operationID))

	if err := handleAPIError(resp, err, "operation poll"); err != nil {
		return nil, err
	}

	return op, nil
}
