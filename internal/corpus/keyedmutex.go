package corpus

import (
	"context"
	"sync"
)

// keyedMutex serializes work per key with FIFO ordering: concurrent callers
// for the same key are served in arrival order rather than rejected, while
// different keys proceed independently.
type keyedMutex struct {
	mu     sync.Mutex
	queues map[string]*lockQueue
}

type lockQueue struct {
	held    bool
	waiters []chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{queues: make(map[string]*lockQueue)}
}

// Lock acquires the mutex for key, waiting behind earlier callers. Returns
// ctx.Err() if the context ends first; in that case the lock is not held.
func (k *keyedMutex) Lock(ctx context.Context, key string) error {
	k.mu.Lock()
	q, ok := k.queues[key]
	if !ok {
		q = &lockQueue{}
		k.queues[key] = q
	}
	if !q.held {
		q.held = true
		k.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	q.waiters = append(q.waiters, ready)
	k.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		defer k.mu.Unlock()
		select {
		case <-ready:
			// handed the lock between ctx.Done and re-acquiring mu;
			// pass it straight on
			k.unlockLocked(key)
			return ctx.Err()
		default:
		}
		for i, w := range q.waiters {
			if w == ready {
				q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
				break
			}
		}
		return ctx.Err()
	}
}

// Unlock releases the mutex for key, handing it to the oldest waiter.
func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.unlockLocked(key)
}

func (k *keyedMutex) unlockLocked(key string) {
	q, ok := k.queues[key]
	if !ok || !q.held {
		panic("keyedMutex: unlock of unheld key " + key)
	}
	if len(q.waiters) > 0 {
		next := q.waiters[0]
		q.waiters = q.waiters[1:]
		close(next)
		return
	}
	q.held = false
	delete(k.queues, key)
}
