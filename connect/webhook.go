// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package connect

import (
	"context"

	"github.com/relabs-tech/wolkenio/core/logger"
)

const webhookRegistryKey = "webhook"

// GetWebhook returns the webhook currently registered with the cloud, or
// nil if none is registered.
func (c *Coordinator) GetWebhook(ctx context.Context) (*Webhook, error) {
	return c.transport.GetWebhook(ctx)
}

// UpdateWebhook registers or replaces the push webhook. The server-side
// pull channel is deleted first, webhook and pull channel cannot coexist.
//
// A running pull loop is not touched: pull takes precedence, and the cloud
// will not push to the webhook while the loop keeps re-creating the pull
// channel. The coordinator only switches to webhook mode when it is idle.
func (c *Coordinator) UpdateWebhook(ctx context.Context, webhook Webhook) error {
	if err := c.transport.DeletePullChannel(ctx); err != nil {
		return err
	}
	if err := c.transport.PutWebhook(ctx, webhook); err != nil {
		return err
	}

	c.mu.Lock()
	if c.mode == ModeIdle {
		c.mode = ModeWebhook
	}
	c.mu.Unlock()

	if c.registry != nil {
		if err := c.registry.Write(webhookRegistryKey, webhook); err != nil {
			logger.FromContext(ctx).WithError(err).Warningln("cannot persist webhook")
		}
	}
	return nil
}

// DeleteWebhook removes the registered webhook from the cloud. Deleting a
// webhook that does not exist is an error, a *RemoteError with status 404.
//
// Local webhook state is cleared regardless of the outcome.
func (c *Coordinator) DeleteWebhook(ctx context.Context) error {
	err := c.transport.DeleteWebhook(ctx)

	c.mu.Lock()
	if c.mode == ModeWebhook {
		c.mode = ModeIdle
	}
	c.mu.Unlock()

	if c.registry != nil {
		if regErr := c.registry.Delete(webhookRegistryKey); regErr != nil {
			logger.FromContext(ctx).WithError(regErr).Warningln("cannot clear persisted webhook")
		}
	}
	return err
}

// LastWebhook returns the most recently registered webhook from the local
// registry, or nil if none was persisted. Requires a registry.
func (c *Coordinator) LastWebhook() (*Webhook, error) {
	if c.registry == nil {
		return nil, nil
	}
	var webhook Webhook
	createdAt, err := c.registry.Read(webhookRegistryKey, &webhook)
	if err != nil || createdAt.IsZero() {
		return nil, err
	}
	return &webhook, nil
}
