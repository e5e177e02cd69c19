package httpagent

import (
	"context"
	"log/slog"
	"time"
)

// Entity is the display identity of one observable value on the host
// platform. Metadata fields (unit, device class, icon) are opaque
// passthrough; the engine attaches no meaning to them.
type Entity struct {
	// ID is the stable unique identifier (see [SensorID]).
	ID string

	// Name is the display name.
	Name string

	Kind        Kind
	Unit        string
	DeviceClass string
	Icon        string
}

// Update is one value-or-unavailable publication for an entity.
type Update struct {
	Entity Entity

	// State is the value to publish. Ignored when Available is false.
	State string

	// Available is false when the entity produced no valid value this
	// tick. The entity itself is NOT removed; unavailability is a
	// published state, distinct from unregistration.
	Available bool

	// ErrorKind records why the entity is unavailable, for diagnostics.
	// ErrorNone when Available is true.
	ErrorKind ErrorKind

	// Attributes carries extra published values, e.g. device tracker
	// coordinates. May be nil.
	Attributes map[string]string

	// At is the timestamp of the tick that produced this update.
	At time.Time
}

// Publisher is the host platform contract consumed by the engine.
//
// The engine registers entities when a configuration entry is applied,
// pushes a value-or-unavailable update per entity per tick, and
// unregisters exactly the entities it created when the entry is replaced
// or torn down, never entities belonging to other entries.
//
// Implementations must tolerate repeated Register calls for the same
// identifier (re-apply with an unchanged ID is an update, not a new
// entity).
type Publisher interface {
	// Register announces an entity to the host platform.
	Register(ctx context.Context, e Entity) error

	// Push publishes a value-or-unavailable update for a registered
	// entity.
	Push(ctx context.Context, u Update) error

	// Unregister removes an entity from the host platform.
	Unregister(ctx context.Context, id string) error
}

// LogPublisher is a [Publisher] that writes updates to a structured logger
// instead of a host platform. Useful as a default for local runs and
// demos.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a [LogPublisher]. If logger is nil,
// [slog.Default] is used.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Register logs the entity registration.
func (p *LogPublisher) Register(_ context.Context, e Entity) error {
	p.logger.Info("entity registered", "id", e.ID, "name", e.Name, "kind", string(e.Kind))
	return nil
}

// Push logs the update.
func (p *LogPublisher) Push(_ context.Context, u Update) error {
	if !u.Available {
		p.logger.Warn("entity unavailable",
			"id", u.Entity.ID,
			"name", u.Entity.Name,
			"error_kind", string(u.ErrorKind),
		)
		return nil
	}
	p.logger.Info("entity updated",
		"id", u.Entity.ID,
		"name", u.Entity.Name,
		"state", u.State,
	)
	return nil
}

// Unregister logs the removal.
func (p *LogPublisher) Unregister(_ context.Context, id string) error {
	p.logger.Info("entity unregistered", "id", id)
	return nil
}
