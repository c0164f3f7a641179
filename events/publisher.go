package events

// Publisher is an interface for async event publication.
type Publisher interface {
	Publish(e Event)
	Reconnect() bool
}
