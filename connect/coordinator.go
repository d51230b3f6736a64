// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package connect

import (
	"context"
	"sync"
	"time"

	"github.com/relabs-tech/wolkenio/core/registry"
)

// Mode is the notification channel the coordinator currently operates.
type Mode string

// The coordinator modes. Idle means no channel is active and async device
// operations cannot complete.
const (
	ModeIdle    Mode = "idle"
	ModePull    Mode = "pull"
	ModeWebhook Mode = "webhook"
)

const defaultPollInterval = 500 * time.Millisecond

// Builder is a builder helper for the notification Coordinator.
type Builder struct {
	// Transport talks to the cloud. This is mandatory.
	Transport Transport

	// PollInterval is the delay between two pull requests, measured from
	// the receipt of a response. The default is 500ms.
	PollInterval time.Duration

	// AsyncTTL evicts pending async operations that received no response
	// within the given duration. The default of zero keeps them forever.
	AsyncTTL time.Duration

	// Registry persists webhook and subscription state across restarts.
	// Optional.
	Registry *registry.Accessor
}

// Coordinator drives the notification channel and dispatches received
// batches. Use New to create one.
//
// All methods are safe for concurrent use. Callbacks and listeners are
// invoked synchronously from the goroutine that delivers the batch; they
// must not call StopNotifications.
type Coordinator struct {
	transport Transport
	interval  time.Duration
	asyncTTL  time.Duration
	registry  *registry.Accessor

	// startMu serializes channel start/stop transitions, so a start racing
	// another start observes and stops the other's loop instead of
	// orphaning it.
	startMu sync.Mutex

	mu            sync.Mutex
	mode          Mode
	loopGen       int
	loopCancel    context.CancelFunc
	loopDone      chan struct{}
	pending       map[string]pendingEntry
	subscriptions map[subscriptionKey]SubscriptionCallback
	listeners     map[EventKind][]Listener
}

// New realizes a notification coordinator. It panics if the transport is
// missing.
func New(b *Builder) *Coordinator {
	if b.Transport == nil {
		panic("Transport is missing")
	}
	interval := b.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Coordinator{
		transport:     b.Transport,
		interval:      interval,
		asyncTTL:      b.AsyncTTL,
		registry:      b.Registry,
		mode:          ModeIdle,
		pending:       map[string]pendingEntry{},
		subscriptions: map[subscriptionKey]SubscriptionCallback{},
		listeners:     map[EventKind][]Listener{},
	}
}

// Mode returns the currently active notification channel mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// stopLoop cancels a running pull loop and waits for it to exit. It is a
// no-op when no loop is running.
func (c *Coordinator) stopLoop() {
	c.mu.Lock()
	cancel := c.loopCancel
	done := c.loopDone
	c.loopCancel = nil
	c.loopDone = nil
	if c.mode == ModePull {
		c.mode = ModeIdle
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
