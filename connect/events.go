package connect

// EventKind classifies the events the coordinator emits.
type EventKind string

// The event kinds.
const (
	EventNotification   EventKind = "notification"
	EventRegistration   EventKind = "registration"
	EventReRegistration EventKind = "re-registration"
	EventDeRegistration EventKind = "de-registration"
	EventExpiration     EventKind = "expiration"
)

// ResourceEvent is the decoded form of a resource value notification.
type ResourceEvent struct {
	DeviceID string
	Path     string
	Payload  interface{}
}

// Event is one dispatched notification. Resource is set for
// EventNotification, Device for EventRegistration and EventReRegistration.
// DeviceID is set for all kinds.
type Event struct {
	Kind     EventKind
	DeviceID string
	Resource *ResourceEvent
	Device   *DeviceEvent
}

// Listener receives dispatched events.
type Listener func(event Event)

// AddListener registers a listener for an event kind. Listeners cannot be
// removed; they live as long as the coordinator.
func (c *Coordinator) AddListener(kind EventKind, listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[kind] = append(c.listeners[kind], listener)
}

func (c *Coordinator) emit(event Event) {
	c.mu.Lock()
	listeners := make([]Listener, len(c.listeners[event.Kind]))
	copy(listeners, c.listeners[event.Kind])
	c.mu.Unlock()
	for _, listener := range listeners {
		listener(event)
	}
}
