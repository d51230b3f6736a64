// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package connect

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/xeipuuv/gojsonschema"

	"github.com/relabs-tech/wolkenio/core/access"
	"github.com/relabs-tech/wolkenio/core/logger"
)

//go:generate go run github.com/relabs-tech/wolkenio/tools/embed -type json -package connect

// ReceiverBuilder is a builder helper for the webhook Receiver.
type ReceiverBuilder struct {
	// Coordinator receives the pushed batches. This is mandatory.
	Coordinator *Coordinator

	// Router is a mux router. This is mandatory.
	Router *mux.Router

	// Path is the callback route. The default is "/callback".
	Path string

	// Secret, when set, requires callback requests to carry a bearer token
	// signed with this shared secret.
	Secret string
}

// Receiver accepts notification batches pushed by the cloud to the
// registered webhook and feeds them into the coordinator.
type Receiver struct {
	coordinator *Coordinator
	schema      *gojsonschema.Schema
	path        string
}

// NewReceiver realizes the webhook receiver and installs its route on the
// router. It panics if coordinator or router are missing.
func NewReceiver(b *ReceiverBuilder) *Receiver {
	if b.Coordinator == nil {
		panic("Coordinator is missing")
	}
	if b.Router == nil {
		panic("Router is missing")
	}
	path := b.Path
	if path == "" {
		path = "/callback"
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(err)
	}

	receiver := &Receiver{
		coordinator: b.Coordinator,
		schema:      schema,
		path:        path,
	}

	logger.AddRequestID(b.Router)
	var handler http.Handler = http.HandlerFunc(receiver.handle)
	if b.Secret != "" {
		handler = access.NewCallbackAuthorizer(b.Secret).Middleware()(handler)
	}
	b.Router.Handle(path, handlers.RecoveryHandler()(handler)).Methods(http.MethodPost)
	return receiver
}

// Path returns the callback route the receiver listens on.
func (receiver *Receiver) Path() string {
	return receiver.path
}

func (receiver *Receiver) handle(w http.ResponseWriter, r *http.Request) {
	rlog := logger.FromContext(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}
	validation, err := receiver.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil || !validation.Valid() {
		rlog.Warningln("rejecting malformed notification batch")
		http.Error(w, "invalid notification batch", http.StatusBadRequest)
		return
	}

	var batch NotificationBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		http.Error(w, "invalid notification batch", http.StatusBadRequest)
		return
	}
	receiver.coordinator.Notify(&batch)
	w.WriteHeader(http.StatusNoContent)
}
