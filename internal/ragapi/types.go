package ragapi

import "time"

// RemoteStore is the canonical view of a remote document store. The remote
// system does not enforce displayName uniqueness; callers own that policy.
type RemoteStore struct {
	StoreID             string    `json:"storeId"`
	DisplayName         string    `json:"displayName"`
	ActiveDocumentCount int       `json:"activeDocumentCount"`
	SizeBytes           int64     `json:"sizeBytes"`
	CreateTime          time.Time `json:"createTime"`
}

// CreateStoreParams names a new remote store.
type CreateStoreParams struct {
	DisplayName string `json:"displayName"`
}

// listStoresResponse accepts both shapes the listing endpoint has been
// observed to return; exactly one of the two fields is populated.
type listStoresResponse struct {
	Stores         []*RemoteStore `json:"stores"`
	DocumentStores []*RemoteStore `json:"documentStores"`
}

// UploadParams describes a single document submission.
type UploadParams struct {
	StoreID     string
	FilePath    string
	FileName    string
	ContentType string
}

// UploadResponse carries the handle of the long-running ingestion operation.
type UploadResponse struct {
	OperationID string `json:"operationId"`
}

// Operation is the state of a long-running ingestion operation.
type Operation struct {
	OperationID string `json:"operationId"`
	Done        bool   `json:"done"`
	Error       string `json:"error,omitempty"`
}

// QueryParams is a natural-language question against one store.
type QueryParams struct {
	StoreID string `json:"-"`
	Text    string `json:"query"`
}

// GroundingReference points at the corpus passage an answer was grounded on.
type GroundingReference struct {
	SourceText  string `json:"sourceText"`
	SourceURI   string `json:"sourceUri"`
	SourceTitle string `json:"sourceTitle"`
}

// QueryResponse is a generated answer with its grounding references.
type QueryResponse struct {
	AnswerText string                `json:"answerText"`
	References []*GroundingReference `json:"groundingReferences"`
}
