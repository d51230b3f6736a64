// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package connect

import (
	"context"
	"time"

	"github.com/relabs-tech/wolkenio/core/logger"
)

// PullOptions configures the long-poll loop.
type PullOptions struct {
	// Interval overrides the coordinator's poll interval for this loop.
	Interval time.Duration

	// OnAsyncBatch, when set, receives every batch's async responses in
	// addition to the regular per-operation settlement, and every poll
	// error. Useful for logging and metrics.
	OnAsyncBatch func(err error, responses []AsyncResponse)
}

// StartNotifications switches the coordinator to pull mode and starts the
// long-poll loop. Pull takes precedence over push: a registered webhook is
// torn down first, and a stale server-side pull channel is deleted so the
// loop starts from a clean slate.
//
// A loop started earlier is stopped first. Cancelling ctx stops the loop.
func (c *Coordinator) StartNotifications(ctx context.Context, options PullOptions) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.stopLoop()

	// a webhook and a pull channel cannot coexist; absence of a webhook is
	// not a problem here
	if err := c.transport.DeleteWebhook(ctx); err != nil {
		logger.FromContext(ctx).WithError(err).Debugln("webhook teardown before pull")
	}
	if err := c.transport.DeletePullChannel(ctx); err != nil {
		return err
	}

	interval := options.Interval
	if interval <= 0 {
		interval = c.interval
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.mode = ModePull
	c.loopGen++
	gen := c.loopGen
	c.loopCancel = cancel
	c.loopDone = done
	c.mu.Unlock()

	go c.pullLoop(loopCtx, gen, interval, options, done)
	return nil
}

// StopNotifications stops the pull loop and deletes the server-side pull
// channel. It is idempotent; stopping an idle coordinator only issues the
// channel delete.
func (c *Coordinator) StopNotifications(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.stopLoop()
	return c.transport.DeletePullChannel(ctx)
}

func (c *Coordinator) pullLoop(ctx context.Context, gen int, interval time.Duration, options PullOptions, done chan struct{}) {
	defer close(done)
	rlog := logger.FromContext(ctx)

	for {
		batch, err := c.transport.FetchPendingNotifications(ctx)
		if batch != nil {
			c.Notify(batch)
		}
		if options.OnAsyncBatch != nil {
			if err != nil {
				options.OnAsyncBatch(err, nil)
			} else if len(batch.AsyncResponses) > 0 {
				options.OnAsyncBatch(nil, batch.AsyncResponses)
			}
		}
		if err != nil {
			// transport failure ends the loop, the caller decides whether
			// to start again
			if ctx.Err() == nil {
				rlog.WithError(err).Warningln("pull channel lost")
			}
			c.leaveLoop(gen)
			return
		}

		// the interval is measured from receipt of the response
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.leaveLoop(gen)
			return
		case <-timer.C:
		}
	}
}

// leaveLoop resets the coordinator to idle, unless another loop has been
// started in the meantime.
func (c *Coordinator) leaveLoop(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loopGen == gen && c.mode == ModePull {
		c.mode = ModeIdle
		c.loopCancel = nil
		c.loopDone = nil
	}
}
