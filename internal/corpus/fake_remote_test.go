package corpus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corpuschat/corpuschat/internal/ragapi"
)

// fakeRemote implements RemoteAPI in memory for tests.
type fakeRemote struct {
	mu     sync.Mutex
	nextID int

	stores []*ragapi.RemoteStore
	docs   map[string][]string // storeID -> fileNames
	ops    map[string]*fakeOp

	// pollsUntilDone is how many polls an operation stays pending.
	pollsUntilDone int

	// Error simulation
	FailSubmit  map[string]bool   // fileName -> always fail submit
	FailIngest  map[string]string // fileName -> terminal operation error
	ListErr     error
	CreateErr   error
	DeleteErr   error
	SubmitCalls map[string]int // fileName -> submit count
	DeletedIDs  []string

	// When set, SubmitDocument announces the file name on SubmitStarted and
	// blocks until SubmitRelease closes, letting tests hold a run in flight.
	SubmitStarted chan string
	SubmitRelease chan struct{}
}

type fakeOp struct {
	storeID   string
	fileName  string
	remaining int
	failWith  string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		docs:        make(map[string][]string),
		ops:         make(map[string]*fakeOp),
		FailSubmit:  make(map[string]bool),
		FailIngest:  make(map[string]string),
		SubmitCalls: make(map[string]int),
	}
}

// addStore seeds a store with a given document count.
func (f *fakeRemote) addStore(name string, docCount int) *ragapi.RemoteStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	store := &ragapi.RemoteStore{
		StoreID:             fmt.Sprintf("store-%d", f.nextID),
		DisplayName:         name,
		ActiveDocumentCount: docCount,
	}
	f.stores = append(f.stores, store)
	return store
}

func (f *fakeRemote) CreateStore(_ context.Context, params *ragapi.CreateStoreParams) (*ragapi.RemoteStore, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	return f.addStore(params.DisplayName, 0), nil
}

func (f *fakeRemote) ListStores(_ context.Context) ([]*ragapi.RemoteStore, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ragapi.RemoteStore, len(f.stores))
	copy(out, f.stores)
	return out, nil
}

func (f *fakeRemote) DeleteStore(_ context.Context, storeID string, _ bool) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, store := range f.stores {
		if store.StoreID == storeID {
			f.stores = append(f.stores[:i], f.stores[i+1:]...)
			break
		}
	}
	delete(f.docs, storeID)
	f.DeletedIDs = append(f.DeletedIDs, storeID)
	return nil
}

func (f *fakeRemote) SubmitDocument(_ context.Context, params *ragapi.UploadParams) (*ragapi.UploadResponse, error) {
	if f.SubmitStarted != nil {
		f.SubmitStarted <- params.FileName
		<-f.SubmitRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SubmitCalls[params.FileName]++
	if f.FailSubmit[params.FileName] {
		return nil, fmt.Errorf("simulated submit failure for %s", params.FileName)
	}
	opID := fmt.Sprintf("op-%s-%d", params.FileName, f.SubmitCalls[params.FileName])
	f.ops[opID] = &fakeOp{
		storeID:   params.StoreID,
		fileName:  params.FileName,
		remaining: f.pollsUntilDone,
		failWith:  f.FailIngest[params.FileName],
	}
	return &ragapi.UploadResponse{OperationID: opID}, nil
}

func (f *fakeRemote) PollOperation(_ context.Context, operationID string) (*ragapi.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[operationID]
	if !ok {
		return nil, fmt.Errorf("unknown operation %s", operationID)
	}
	if op.remaining > 0 {
		op.remaining--
		return &ragapi.Operation{OperationID: operationID, Done: false}, nil
	}
	if op.failWith != "" {
		return &ragapi.Operation{OperationID: operationID, Done: true, Error: op.failWith}, nil
	}
	f.docs[op.storeID] = append(f.docs[op.storeID], op.fileName)
	for _, store := range f.stores {
		if store.StoreID == op.storeID {
			store.ActiveDocumentCount++
		}
	}
	return &ragapi.Operation{OperationID: operationID, Done: true}, nil
}

// noSleep replaces the uploader's sleep so tests run without real delays.
func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
