package connect

import (
	"context"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/relabs-tech/wolkenio/core/client"
)

// fakeCloud is a router with just enough handlers to exercise the REST
// transport.
func fakeCloud(t *testing.T) *mux.Router {
	t.Helper()
	router := mux.NewRouter()

	router.HandleFunc("/v2/notification/pull", func(w http.ResponseWriter, r *http.Request) {
		batch := NotificationBatch{
			Notifications: []ResourceNotification{
				{DeviceID: "device-1", ResourcePath: "/3/0/1", Payload: encodePayload("42")},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(batch)
	}).Methods(http.MethodGet)

	router.HandleFunc("/v2/notification/pull", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no pull channel", http.StatusNotFound)
	}).Methods(http.MethodDelete)

	router.HandleFunc("/v2/notification/callback", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no webhook", http.StatusNotFound)
	}).Methods(http.MethodGet, http.MethodDelete)

	router.HandleFunc("/v2/devices/{device}/resources/{path:.*}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("21.5"))
	}).Methods(http.MethodGet)

	router.HandleFunc("/v2/devices/{device}/resources/{path:.*}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(asyncAcknowledgement{AsyncID: "a-1"})
	}).Methods(http.MethodPut, http.MethodPost)

	router.HandleFunc("/v2/subscriptions/{device}/{path:.*}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(asyncAcknowledgement{AsyncID: "a-2"})
	}).Methods(http.MethodPut, http.MethodDelete)

	return router
}

func TestRESTTransport(t *testing.T) {
	transport := NewHTTPTransport(client.NewWithRouter(fakeCloud(t)))
	ctx := context.Background()

	batch, err := transport.FetchPendingNotifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Notifications) != 1 || batch.Notifications[0].DeviceID != "device-1" {
		t.Fatal("got:", batch)
	}

	// absence of the pull channel is swallowed
	if err := transport.DeletePullChannel(ctx); err != nil {
		t.Fatal(err)
	}

	// absence of a webhook is nil on get, but an error on delete
	webhook, err := transport.GetWebhook(ctx)
	if err != nil || webhook != nil {
		t.Fatal("got:", webhook, err)
	}
	err = transport.DeleteWebhook(ctx)
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Status != http.StatusNotFound {
		t.Fatal("expected 404 RemoteError, got:", err)
	}

	// synchronous read carries payload and content type
	result, err := transport.ResourceRequest(ctx, OperationGetValue, "device-1", "/3/0/1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.AsyncID != "" || string(result.Payload) != "21.5" || result.ContentType != "text/plain" {
		t.Fatal("got:", result)
	}

	// writes are acknowledged asynchronously
	result, err = transport.ResourceRequest(ctx, OperationSetValue, "device-1", "/3/0/1", []byte("7"))
	if err != nil {
		t.Fatal(err)
	}
	if result.AsyncID != "a-1" {
		t.Fatal("got:", result)
	}

	// subscriptions use their own endpoint
	result, err = transport.ResourceRequest(ctx, OperationAddSubscription, "device-1", "/3/0/1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.AsyncID != "a-2" {
		t.Fatal("got:", result)
	}
	result, err = transport.ResourceRequest(ctx, OperationDeleteSubscription, "device-1", "/3/0/1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.AsyncID != "a-2" {
		t.Fatal("got:", result)
	}
}
