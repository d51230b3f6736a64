package connect

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrNotificationsNotStarted is returned for async device operations while
// no notification channel is active. Without a channel the result could
// never be delivered.
var ErrNotificationsNotStarted = errors.New("no active notification channel")

// ErrAsyncEvicted settles pending operations whose response did not arrive
// within the configured AsyncTTL.
var ErrAsyncEvicted = errors.New("async response not received in time")

type pendingEntry struct {
	settle   func(err error, value interface{})
	deadline time.Time
}

// AsyncValue is the pending result of a device resource operation. It
// settles at most once. If the cloud never delivers a matching response,
// Wait blocks until its context is done.
type AsyncValue struct {
	once  sync.Once
	done  chan struct{}
	value interface{}
	err   error
}

func newAsyncValue() *AsyncValue {
	return &AsyncValue{done: make(chan struct{})}
}

func (v *AsyncValue) settle(err error, value interface{}) {
	v.once.Do(func() {
		v.err = err
		v.value = value
		close(v.done)
	})
}

// Wait blocks until the operation result is available or the context is
// done.
func (v *AsyncValue) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-v.done:
		return v.value, v.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolveAsync settles the pending operation for one async response. A
// response with no matching pending operation is dropped silently, ids are
// at-most-once and the cloud may redeliver.
func (c *Coordinator) resolveAsync(response AsyncResponse) {
	c.mu.Lock()
	entry, ok := c.pending[response.ID]
	if ok {
		delete(c.pending, response.ID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if response.Status >= 400 {
		entry.settle(&RemoteError{Status: response.Status, Message: response.Error}, nil)
		return
	}
	value, err := decodePayload(response.Payload, response.ContentType)
	entry.settle(err, value)
}

// evictExpiredAsync settles and drops pending operations past their
// deadline. No-op unless an AsyncTTL is configured.
func (c *Coordinator) evictExpiredAsync() {
	if c.asyncTTL <= 0 {
		return
	}
	now := time.Now()
	var expired []pendingEntry
	c.mu.Lock()
	for id, entry := range c.pending {
		if !entry.deadline.IsZero() && entry.deadline.Before(now) {
			expired = append(expired, entry)
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()
	for _, entry := range expired {
		entry.settle(ErrAsyncEvicted, nil)
	}
}
