// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package connect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/relabs-tech/wolkenio/core/client"
)

// ResourceOperation selects what a resource request does on the device.
type ResourceOperation string

// The resource operations understood by the cloud.
const (
	OperationGetValue           ResourceOperation = "get"
	OperationSetValue           ResourceOperation = "set"
	OperationExecute            ResourceOperation = "execute"
	OperationAddSubscription    ResourceOperation = "subscribe"
	OperationDeleteSubscription ResourceOperation = "unsubscribe"
)

// OperationResult is the immediate outcome of a resource request. Either
// AsyncID is set and the actual result arrives later in a notification
// batch, or the request completed synchronously and Payload holds the raw
// result.
type OperationResult struct {
	AsyncID     string
	Payload     []byte
	ContentType string
}

// Transport is the cloud-facing side of the coordinator. The production
// implementation talks REST; tests substitute a fake.
type Transport interface {
	// FetchPendingNotifications performs one long-poll request on the pull
	// channel. An empty batch is a valid result.
	FetchPendingNotifications(ctx context.Context) (*NotificationBatch, error)

	// DeletePullChannel removes the server-side pull channel. Removing a
	// channel that does not exist is not an error.
	DeletePullChannel(ctx context.Context) error

	// GetWebhook returns the currently registered webhook, or nil if none
	// is registered.
	GetWebhook(ctx context.Context) (*Webhook, error)

	// PutWebhook registers or replaces the webhook.
	PutWebhook(ctx context.Context, webhook Webhook) error

	// DeleteWebhook removes the registered webhook. Removing a webhook that
	// does not exist is an error, a *RemoteError with status 404.
	DeleteWebhook(ctx context.Context) error

	// ResourceRequest issues a device resource operation.
	ResourceRequest(ctx context.Context, op ResourceOperation, deviceID, resourcePath string, payload []byte) (*OperationResult, error)
}

type restTransport struct {
	c    client.Client
	pull client.Client
}

// NewHTTPTransport returns a Transport backed by the cloud REST api.
//
// Long-poll requests are sent with the client's timeout disabled, the
// server holds them open until notifications arrive.
func NewHTTPTransport(c client.Client) Transport {
	return &restTransport{
		c:    c,
		pull: c.WithTimeout(0),
	}
}

type asyncAcknowledgement struct {
	AsyncID string `json:"async_response_id"`
}

func (t *restTransport) FetchPendingNotifications(ctx context.Context) (*NotificationBatch, error) {
	var raw []byte
	status, err := t.pull.WithContext(ctx).RawGet("/v2/notification/pull", &raw)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return &NotificationBatch{}, nil
	}
	var batch NotificationBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, errors.Wrap(err, "cannot parse notification batch")
	}
	return &batch, nil
}

func (t *restTransport) DeletePullChannel(ctx context.Context) error {
	status, err := t.c.WithContext(ctx).RawDelete("/v2/notification/pull")
	if status == http.StatusNotFound {
		// there was no pull channel, which is fine
		return nil
	}
	return err
}

func (t *restTransport) GetWebhook(ctx context.Context) (*Webhook, error) {
	var webhook Webhook
	status, err := t.c.WithContext(ctx).RawGet("/v2/notification/callback", &webhook)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &webhook, nil
}

func (t *restTransport) PutWebhook(ctx context.Context, webhook Webhook) error {
	_, err := t.c.WithContext(ctx).RawPut("/v2/notification/callback", &webhook, nil)
	return err
}

func (t *restTransport) DeleteWebhook(ctx context.Context) error {
	status, err := t.c.WithContext(ctx).RawDelete("/v2/notification/callback")
	if status == http.StatusNotFound {
		return &RemoteError{Status: status, Message: "no webhook registered"}
	}
	return err
}

func (t *restTransport) ResourceRequest(ctx context.Context, op ResourceOperation, deviceID, resourcePath string, payload []byte) (*OperationResult, error) {
	if !strings.HasPrefix(resourcePath, "/") {
		resourcePath = "/" + resourcePath
	}
	resourceURL := "/v2/devices/" + url.PathEscape(deviceID) + "/resources" + resourcePath
	subscriptionURL := "/v2/subscriptions/" + url.PathEscape(deviceID) + resourcePath

	c := t.c.WithContext(ctx)
	var (
		status int
		header http.Header
		raw    []byte
		err    error
	)
	switch op {
	case OperationGetValue:
		status, header, err = c.RawGetWithHeader(resourceURL, nil, &raw)
	case OperationSetValue:
		status, err = c.RawPut(resourceURL, payload, &raw)
	case OperationExecute:
		status, err = c.RawPost(resourceURL, payload, &raw)
	case OperationAddSubscription:
		status, err = c.RawPut(subscriptionURL, nil, &raw)
	case OperationDeleteSubscription:
		status, err = c.RawDeleteWithResult(subscriptionURL, &raw)
	default:
		return nil, fmt.Errorf("unknown resource operation '%s'", op)
	}
	if err != nil {
		return nil, err
	}

	if status == http.StatusAccepted {
		var ack asyncAcknowledgement
		if err := json.Unmarshal(raw, &ack); err != nil {
			return nil, errors.Wrap(err, "cannot parse async acknowledgement")
		}
		if ack.AsyncID == "" {
			return nil, errors.New("accepted response carries no async_response_id")
		}
		return &OperationResult{AsyncID: ack.AsyncID}, nil
	}

	result := &OperationResult{Payload: raw}
	if header != nil {
		result.ContentType = header.Get("Content-Type")
	}
	return result, nil
}
