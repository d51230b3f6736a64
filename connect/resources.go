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

// GetResourceValue requests the current value of a device resource.
func (c *Coordinator) GetResourceValue(ctx context.Context, deviceID, resourcePath string) (*AsyncValue, error) {
	return c.resourceOperation(ctx, OperationGetValue, deviceID, resourcePath, nil)
}

// SetResourceValue writes a new value to a device resource.
func (c *Coordinator) SetResourceValue(ctx context.Context, deviceID, resourcePath string, value []byte) (*AsyncValue, error) {
	return c.resourceOperation(ctx, OperationSetValue, deviceID, resourcePath, value)
}

// ExecuteResource executes a device resource, optionally with an argument
// payload.
func (c *Coordinator) ExecuteResource(ctx context.Context, deviceID, resourcePath string, payload []byte) (*AsyncValue, error) {
	return c.resourceOperation(ctx, OperationExecute, deviceID, resourcePath, payload)
}

// AddResourceSubscription subscribes to value changes of a device resource.
// Observed values are delivered to the callback; a new subscription for the
// same device and path replaces the previous callback.
//
// The callback is registered before the cloud request goes out, so that no
// early notification is lost. It is rolled back if the request fails. When
// the cloud acknowledges asynchronously while no notification channel is
// active, the remote subscription is undone best-effort and the call fails
// with ErrNotificationsNotStarted.
func (c *Coordinator) AddResourceSubscription(ctx context.Context, deviceID, resourcePath string, callback SubscriptionCallback) (*AsyncValue, error) {
	key := subscriptionKey{deviceID: deviceID, path: resourcePath}

	c.mu.Lock()
	previous, hadPrevious := c.subscriptions[key]
	c.subscriptions[key] = callback
	c.mu.Unlock()

	value, err := c.resourceOperation(ctx, OperationAddSubscription, deviceID, resourcePath, nil)
	if err != nil {
		c.mu.Lock()
		if hadPrevious {
			c.subscriptions[key] = previous
		} else {
			delete(c.subscriptions, key)
		}
		c.mu.Unlock()
		return nil, err
	}

	if c.registry != nil {
		if regErr := c.registry.Write(key.registryKey(), true); regErr != nil {
			logger.FromContext(ctx).WithError(regErr).Warningln("cannot persist subscription")
		}
	}
	return value, nil
}

// DeleteResourceSubscription removes the subscription for a device
// resource. The local callback is removed even when the cloud request
// fails.
func (c *Coordinator) DeleteResourceSubscription(ctx context.Context, deviceID, resourcePath string) (*AsyncValue, error) {
	key := subscriptionKey{deviceID: deviceID, path: resourcePath}

	c.mu.Lock()
	delete(c.subscriptions, key)
	c.mu.Unlock()

	if c.registry != nil {
		if regErr := c.registry.Delete(key.registryKey()); regErr != nil {
			logger.FromContext(ctx).WithError(regErr).Warningln("cannot clear persisted subscription")
		}
	}
	return c.resourceOperation(ctx, OperationDeleteSubscription, deviceID, resourcePath, nil)
}

// RestoreSubscriptions re-subscribes to all resources persisted in the
// registry, with the given callback for every restored subscription. The
// cloud forgets subscriptions over time, a client restart calls this to
// pick up where it left off.
func (c *Coordinator) RestoreSubscriptions(ctx context.Context, callback SubscriptionCallback) error {
	if c.registry == nil {
		return nil
	}
	keys, err := c.registry.Keys()
	if err != nil {
		return err
	}
	for _, registryKey := range keys {
		key, ok := parseSubscriptionRegistryKey(registryKey)
		if !ok {
			continue
		}
		if _, err := c.AddResourceSubscription(ctx, key.deviceID, key.path, callback); err != nil {
			return err
		}
	}
	return nil
}

// resourceOperation issues a resource request and wires the result. A
// synchronous response settles the returned AsyncValue immediately. An
// asynchronous acknowledgement registers a pending operation; this requires
// an active notification channel.
func (c *Coordinator) resourceOperation(ctx context.Context, op ResourceOperation, deviceID, resourcePath string, payload []byte) (*AsyncValue, error) {
	result, err := c.transport.ResourceRequest(ctx, op, deviceID, resourcePath, payload)
	if err != nil {
		return nil, err
	}

	value := newAsyncValue()
	if result.AsyncID == "" {
		decoded, err := decodeValue(result.Payload, result.ContentType)
		value.settle(err, decoded)
		return value, nil
	}

	c.mu.Lock()
	if c.mode == ModeIdle {
		c.mu.Unlock()
		if op == OperationAddSubscription {
			// the cloud accepted a subscription whose values can never be
			// delivered; undo it so no remote state lingers
			if _, err := c.transport.ResourceRequest(ctx, OperationDeleteSubscription, deviceID, resourcePath, nil); err != nil {
				logger.FromContext(ctx).WithError(err).Warningln("cannot undo remote subscription")
			}
		}
		return nil, ErrNotificationsNotStarted
	}
	var deadline time.Time
	if c.asyncTTL > 0 {
		deadline = time.Now().Add(c.asyncTTL)
	}
	// async ids are unique; should the cloud reuse one regardless, the new
	// operation takes over
	c.pending[result.AsyncID] = pendingEntry{settle: value.settle, deadline: deadline}
	c.mu.Unlock()
	return value, nil
}
