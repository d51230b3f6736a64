package connect

import (
	"context"
	"sync"
)

type resourceCall struct {
	op       ResourceOperation
	deviceID string
	path     string
	payload  []byte
}

// fakeTransport is an in-memory Transport which records all calls. Fetch
// blocks until the context is done unless fetchFn is set.
type fakeTransport struct {
	mu            sync.Mutex
	calls         []string
	resourceCalls []resourceCall
	webhook       *Webhook

	fetchFn          func(ctx context.Context) (*NotificationBatch, error)
	deleteWebhookErr error
	resourceErr      error
	resourceQueue    []*OperationResult
}

func (f *fakeTransport) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeTransport) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call == name {
			n++
		}
	}
	return n
}

func (f *fakeTransport) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := make([]string, len(f.calls))
	copy(order, f.calls)
	return order
}

func (f *fakeTransport) queueResult(result *OperationResult) {
	f.mu.Lock()
	f.resourceQueue = append(f.resourceQueue, result)
	f.mu.Unlock()
}

func (f *fakeTransport) FetchPendingNotifications(ctx context.Context) (*NotificationBatch, error) {
	f.record("fetch")
	if f.fetchFn != nil {
		return f.fetchFn(ctx)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeTransport) DeletePullChannel(ctx context.Context) error {
	f.record("delete-pull")
	return nil
}

func (f *fakeTransport) GetWebhook(ctx context.Context) (*Webhook, error) {
	f.record("get-webhook")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.webhook, nil
}

func (f *fakeTransport) PutWebhook(ctx context.Context, webhook Webhook) error {
	f.record("put-webhook")
	f.mu.Lock()
	f.webhook = &webhook
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) DeleteWebhook(ctx context.Context) error {
	f.record("delete-webhook")
	if f.deleteWebhookErr != nil {
		return f.deleteWebhookErr
	}
	f.mu.Lock()
	f.webhook = nil
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) ResourceRequest(ctx context.Context, op ResourceOperation, deviceID, resourcePath string, payload []byte) (*OperationResult, error) {
	f.record("resource")
	f.mu.Lock()
	f.resourceCalls = append(f.resourceCalls, resourceCall{
		op:       op,
		deviceID: deviceID,
		path:     resourcePath,
		payload:  payload,
	})
	var result *OperationResult
	if len(f.resourceQueue) > 0 {
		result = f.resourceQueue[0]
		f.resourceQueue = f.resourceQueue[1:]
	}
	err := f.resourceErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &OperationResult{}
	}
	return result, nil
}
