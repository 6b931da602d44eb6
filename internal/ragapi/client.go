package ragapi

import (
	"fmt"
	"runtime"
	"time"

	"github.com/imroc/req/v3"

	"github.com/corpuschat/corpuschat/internal/version"
)

const (
	HeaderAPIKey = "X-Api-Key"

	v1Stores     = "/v1/stores"
	v1Store      = "/v1/stores/%s"
	v1Upload     = "/v1/stores/%s/documents"
	v1Operation  = "/v1/operations/%s"
	v1StoreQuery = "/v1/stores/%s/query"
)

var userAgent = fmt.Sprintf("CorpusChat/%s (%s; %s/%s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// Client talks to the remote document-index service. One instance is safe
// for concurrent use.
type Client struct {
	client *req.Client
}

// New creates a Client for the given service endpoint. Transport-level
// retries stay off here: the uploader owns the retry protocol and a hidden
// second retry layer would multiply attempts.
func New(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetUserAgent(userAgent).
		SetCommonHeader(HeaderAPIKey, apiKey).
		SetCommonErrorResult(&APIError{}).
		SetTimeout(2 * time.Minute).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &Client{client: client}, nil
}

// Close releases idle transport resources.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
