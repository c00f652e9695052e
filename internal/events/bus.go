package events

// EventKind represents the type of domain event produced by the link
// workflow.
type EventKind string

const (
	EventLinkRequested    EventKind = "link_requested"
	EventLinkAccepted     EventKind = "link_accepted"
	EventContainersLinked EventKind = "containers_linked"
	EventLinkRemoved      EventKind = "link_removed"
)

// Event carries the minimum data consumers need; full records can be
// loaded from the store by id.
type Event struct {
	Kind        EventKind
	ParentID    string
	ChildID     string
	RequestID   string // present for request lifecycle events
	RequesteeID string // owner being asked, for link_requested
}

// Bus is a lightweight in-process pub-sub implementation backed by a
// buffered channel.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish attempts to enqueue the event without blocking.
// Returns true if published, false if the buffer is full.
func (b *Bus) Publish(evt Event) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns a read-only channel for consumers.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}
