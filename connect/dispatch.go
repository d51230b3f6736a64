// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package connect

import (
	"github.com/relabs-tech/wolkenio/core/logger"
)

// Notify dispatches one notification batch. The sections are processed in a
// fixed order: notifications, registrations, re-registrations,
// de-registrations, expirations, async responses. Within a section the wire
// order is preserved.
//
// The webhook receiver calls Notify for pushed batches; it can also be
// called directly when batches arrive over some other channel.
func (c *Coordinator) Notify(batch *NotificationBatch) {
	if batch == nil {
		return
	}
	for _, notification := range batch.Notifications {
		c.dispatchNotification(notification)
	}
	for _, event := range batch.Registrations {
		device := event
		c.emit(Event{Kind: EventRegistration, DeviceID: device.DeviceID, Device: &device})
	}
	for _, event := range batch.ReRegistrations {
		device := event
		c.emit(Event{Kind: EventReRegistration, DeviceID: device.DeviceID, Device: &device})
	}
	for _, deviceID := range batch.DeRegistrations {
		c.emit(Event{Kind: EventDeRegistration, DeviceID: deviceID})
	}
	for _, deviceID := range batch.Expirations {
		c.emit(Event{Kind: EventExpiration, DeviceID: deviceID})
	}
	for _, response := range batch.AsyncResponses {
		c.resolveAsync(response)
	}
	c.evictExpiredAsync()
}

// dispatchNotification decodes the payload once, hands it to the matching
// resource subscription if there is one, and always emits a generic
// notification event.
func (c *Coordinator) dispatchNotification(notification ResourceNotification) {
	value, err := decodePayload(notification.Payload, notification.ContentType)
	if err != nil {
		logger.Default().WithError(err).
			WithField("device_id", notification.DeviceID).
			WithField("resource_path", notification.ResourcePath).
			Warningln("dropping undecodable notification")
		return
	}

	key := subscriptionKey{deviceID: notification.DeviceID, path: notification.ResourcePath}
	c.mu.Lock()
	callback := c.subscriptions[key]
	c.mu.Unlock()
	if callback != nil {
		callback(value)
	}

	c.emit(Event{
		Kind:     EventNotification,
		DeviceID: notification.DeviceID,
		Resource: &ResourceEvent{
			DeviceID: notification.DeviceID,
			Path:     notification.ResourcePath,
			Payload:  value,
		},
	})
}
