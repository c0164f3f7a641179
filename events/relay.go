package events

import "sync"

// Relay is a Publisher that forwards to a replaceable inner Publisher. The
// audit recorder holds one Publisher reference for its whole life; when broker
// discovery replaces the Kafka connection, the relay is where the new producer
// is swapped in.
type Relay struct {
	m     sync.RWMutex
	inner Publisher
}

// NewRelay wraps an initial Publisher.
func NewRelay(p Publisher) *Relay {
	return &Relay{inner: p}
}

// Publish forwards to the current inner Publisher.
func (r *Relay) Publish(e Event) {
	r.m.RLock()
	p := r.inner
	r.m.RUnlock()
	if p != nil {
		p.Publish(e)
	}
}

// Reconnect reports whether the current inner Publisher wants replacing.
func (r *Relay) Reconnect() bool {
	r.m.RLock()
	p := r.inner
	r.m.RUnlock()
	if p == nil {
		return false
	}
	return p.Reconnect()
}

// Swap installs a new inner Publisher. In-flight Publish calls finish against
// whichever producer they started with.
func (r *Relay) Swap(p Publisher) {
	r.m.Lock()
	r.inner = p
	r.m.Unlock()
}
