package state

import (
	"sync"
	"time"
)

// Entity is the storage representation of one observable entity's display
// metadata, optimized for JSON serialization (used by the diagnostics API
// and SSE).
type Entity struct {
	// ID is the stable unique identifier derived from the endpoint
	// request shape and extraction expression.
	ID string `json:"id"`

	// Name is the entity's display name.
	Name string `json:"name"`

	// Kind is the host platform entity kind (sensor, binary_sensor, ...).
	Kind string `json:"kind"`

	// Unit is the unit of measurement. Empty if not set.
	Unit string `json:"unit,omitempty"`

	// DeviceClass is the host platform device class. Empty if not set.
	DeviceClass string `json:"device_class,omitempty"`

	// Icon is the display icon. Empty if not set.
	Icon string `json:"icon,omitempty"`
}

// EntityState is the last-known observation for one entity.
//
// State retains the most recent successfully published value even while
// Available is false, so availability decisions never lose the last-known
// reading.
type EntityState struct {
	Entity Entity `json:"entity"`

	// State is the last successfully published value. Retained across
	// transient failures.
	State string `json:"state"`

	// Available reports whether the most recent tick produced a valid
	// value for this entity.
	Available bool `json:"available"`

	// ErrorKind records why the entity is unavailable. Empty when
	// Available is true.
	ErrorKind string `json:"error_kind,omitempty"`

	// Attributes carries extra published values (e.g. tracker
	// coordinates). May be nil.
	Attributes map[string]string `json:"attributes,omitempty"`

	// UpdatedAt is the timestamp of the tick that produced this state.
	UpdatedAt time.Time `json:"updated_at"`
}

// Registry holds the last-known value and availability per unique
// identifier, with a publish-subscribe mechanism for the diagnostics API.
//
// Registry is the only cross-tick shared state in the engine. Identifier
// spaces of unrelated endpoints are disjoint by construction, but ticks of
// unrelated endpoints complete concurrently, so all access goes through a
// single RWMutex.
//
// Subscribers receive updates via buffered channels (buffer size 100).
// Updates are sent non-blocking; a slow subscriber misses updates rather
// than stalling the publish path.
type Registry struct {
	mu     sync.RWMutex
	states map[string]EntityState

	subMu       sync.RWMutex
	subscribers map[chan EntityState]struct{}
}

// NewRegistry creates an empty [Registry], immediately ready for use.
func NewRegistry() *Registry {
	return &Registry{
		states:      make(map[string]EntityState),
		subscribers: make(map[chan EntityState]struct{}),
	}
}

// Set stores a successful observation and notifies subscribers.
func (r *Registry) Set(s EntityState) {
	r.mu.Lock()
	r.states[s.Entity.ID] = s
	r.mu.Unlock()

	r.notify(s)
}

// MarkUnavailable flags an entity as unavailable while retaining its
// last-known value and metadata. If the entity has never produced a value,
// a state record is still created so the entity remains visible.
func (r *Registry) MarkUnavailable(entity Entity, errorKind string, at time.Time) {
	r.mu.Lock()
	s, ok := r.states[entity.ID]
	if !ok {
		s = EntityState{Entity: entity}
	}
	s.Available = false
	s.ErrorKind = errorKind
	s.UpdatedAt = at
	r.states[entity.ID] = s
	r.mu.Unlock()

	r.notify(s)
}

// Get returns the state for one identifier.
func (r *Registry) Get(id string) (EntityState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[id]
	return s, ok
}

// Remove deletes an entity's state. Called only when a configuration entry
// is replaced or torn down, never on a transient failure.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.states, id)
	r.mu.Unlock()
}

// All returns a snapshot of all stored states. The returned slice is a
// copy; order is not guaranteed.
func (r *Registry) All() []EntityState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EntityState, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s)
	}
	return out
}

// Subscribe creates a subscription and returns a channel for receiving
// updates. Caller must call [Registry.Unsubscribe] when done.
func (r *Registry) Subscribe() <-chan EntityState {
	ch := make(chan EntityState, 100)

	r.subMu.Lock()
	r.subscribers[ch] = struct{}{}
	r.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// multiple times or with an unknown channel.
func (r *Registry) Unsubscribe(ch <-chan EntityState) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for subCh := range r.subscribers {
		if subCh == ch {
			delete(r.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notify sends the state to all active subscribers without blocking.
func (r *Registry) notify(s EntityState) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()

	for ch := range r.subscribers {
		select {
		case ch <- s:
		default:
			// subscriber is slow, drop the update
		}
	}
}
