package corpus

import (
	"sync"
	"time"
)

// ProgressState is the per-file outcome reported while a sync run is driving
// its upload set.
type ProgressState string

const (
	ProgressUploading ProgressState = "uploading"
	ProgressSucceeded ProgressState = "succeeded"
	ProgressFailed    ProgressState = "failed"
)

// ProgressEvent is emitted around each upload attempt of a sync run.
type ProgressEvent struct {
	RunID     string        `json:"runId"`
	StoreName string        `json:"storeName"`
	FileName  string        `json:"fileName"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	State     ProgressState `json:"state"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ProgressBroker fans progress events out to subscribers. Slow subscribers
// drop events rather than stall the upload loop.
type ProgressBroker struct {
	mu   sync.RWMutex
	subs map[chan ProgressEvent]struct{}
}

func NewProgressBroker() *ProgressBroker {
	return &ProgressBroker{subs: make(map[chan ProgressEvent]struct{})}
}

// Subscribe returns a buffered channel of progress events.
func (b *ProgressBroker) Subscribe() chan ProgressEvent {
	ch := make(chan ProgressEvent, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *ProgressBroker) Unsubscribe(ch chan ProgressEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers ev to every subscriber without blocking.
func (b *ProgressBroker) Publish(ev ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
