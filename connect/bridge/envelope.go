package bridge

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/wolkenio/connect"
)

// Envelope is the wire format for forwarded events.
type Envelope struct {
	Kind      connect.EventKind    `json:"kind"`
	DeviceID  string               `json:"device_id"`
	Timestamp time.Time            `json:"timestamp"`
	Resource  *forwardedResource   `json:"resource,omitempty"`
	Device    *connect.DeviceEvent `json:"device,omitempty"`
}

type forwardedResource struct {
	Path    string      `json:"path"`
	Payload interface{} `json:"payload"`
}

// allKinds lists every event kind the coordinator emits; forwarders attach
// to all of them.
var allKinds = []connect.EventKind{
	connect.EventNotification,
	connect.EventRegistration,
	connect.EventReRegistration,
	connect.EventDeRegistration,
	connect.EventExpiration,
}

func newEnvelope(event connect.Event) Envelope {
	envelope := Envelope{
		Kind:      event.Kind,
		DeviceID:  event.DeviceID,
		Timestamp: time.Now().UTC(),
		Device:    event.Device,
	}
	if event.Resource != nil {
		envelope.Resource = &forwardedResource{
			Path:    event.Resource.Path,
			Payload: event.Resource.Payload,
		}
	}
	return envelope
}

func marshalEnvelope(event connect.Event) ([]byte, error) {
	return json.Marshal(newEnvelope(event))
}
