// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package connect

import "fmt"

// NotificationBatch is one delivery from the cloud, either pulled from the
// long-poll channel or pushed to the webhook receiver. All sections are
// optional; an empty batch is valid.
type NotificationBatch struct {
	Notifications   []ResourceNotification `json:"notifications,omitempty"`
	Registrations   []DeviceEvent          `json:"registrations,omitempty"`
	ReRegistrations []DeviceEvent          `json:"re_registrations,omitempty"`
	DeRegistrations []string               `json:"de_registrations,omitempty"`
	Expirations     []string               `json:"expirations,omitempty"`
	AsyncResponses  []AsyncResponse        `json:"async_responses,omitempty"`
}

// ResourceNotification is a single observed resource value update. The
// payload is base64 encoded on the wire.
type ResourceNotification struct {
	DeviceID     string `json:"device_id"`
	ResourcePath string `json:"resource_path"`
	Payload      string `json:"payload"`
	ContentType  string `json:"content_type,omitempty"`
}

// DeviceEvent announces a device registration or re-registration together
// with the resources the device exposes.
type DeviceEvent struct {
	DeviceID     string         `json:"device_id"`
	EndpointType string         `json:"endpoint_type,omitempty"`
	QueueMode    bool           `json:"queue_mode,omitempty"`
	Resources    []ResourceInfo `json:"resources,omitempty"`
}

// ResourceInfo describes one resource of a registering device.
type ResourceInfo struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type,omitempty"`
	Observable  bool   `json:"observable,omitempty"`
}

// AsyncResponse carries the deferred result of a device resource operation.
// The payload is base64 encoded on the wire.
type AsyncResponse struct {
	ID          string `json:"id"`
	Status      int    `json:"status"`
	Payload     string `json:"payload,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Webhook is a push notification channel registered with the cloud.
type Webhook struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// RemoteError is returned when the cloud answers a request or an async
// operation with an error status.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cloud returned status %d", e.Status)
	}
	return fmt.Sprintf("cloud returned status %d: %s", e.Status, e.Message)
}
