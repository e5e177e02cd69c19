package httpagent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/httpagent/httpagent/internal/poller"
	"github.com/httpagent/httpagent/internal/render"
	"github.com/httpagent/httpagent/internal/state"
)

// EntryState is the observable phase of an entry's poll cycle.
type EntryState string

const (
	// StateIdle means the entry has not ticked yet, or was stopped.
	StateIdle EntryState = "idle"

	// StateFetching means the tick is rendering templates and performing
	// the HTTP request.
	StateFetching EntryState = "fetching"

	// StateExtracting means the response arrived and sensor values are
	// being extracted and coerced.
	StateExtracting EntryState = "extracting"

	// StatePublished means the last tick published every sensor
	// successfully. The entry rests here until the next tick.
	StatePublished EntryState = "published"

	// StateFailed means the last tick left at least one sensor
	// unavailable. The entry rests here until the next tick; there is no
	// backoff, the next scheduled tick is the retry.
	StateFailed EntryState = "failed"
)

// Entry binds one endpoint to its sensors and drives the poll cycle for
// them: render, fetch, extract, coerce, publish, at a fixed interval.
//
// An Entry owns exactly the entities derived from its own sensors.
// Teardown and reconfiguration touch only those; entities belonging to
// other entries are never affected.
//
// Entries are created with [NewEntry] and usually run under an [Agent],
// which supplies the shared publisher, HTTP client, and state registry. An
// Entry can also run standalone: Start fills in working defaults for
// anything not configured.
type Entry struct {
	name string

	logger    *slog.Logger
	registry  *state.Registry
	publisher Publisher
	client    *poller.Client

	mu         sync.Mutex
	endpoint   Endpoint
	sensors    []Sensor
	entities   []Entity
	phase      EntryState
	lastBody   string
	lastStatus int

	// lifecycleMu serializes Start, Stop, Apply, and Teardown. It is never
	// held while a tick runs, only while the coordinator is swapped.
	lifecycleMu sync.Mutex
	coordinator *poller.Coordinator
	runCtx      context.Context
	torndown    bool
}

// EntryOption configures an [Entry] for standalone use. Entries run by an
// [Agent] inherit the agent's publisher and logger instead.
type EntryOption func(*Entry)

// WithEntryLogger sets the logger used for the entry's poll loop.
func WithEntryLogger(logger *slog.Logger) EntryOption {
	return func(e *Entry) { e.logger = logger }
}

// WithEntryPublisher sets the publisher that receives this entry's
// registrations and updates.
func WithEntryPublisher(p Publisher) EntryOption {
	return func(e *Entry) { e.publisher = p }
}

// NewEntry creates an [Entry] for one endpoint and its sensors.
//
// Unique identifiers are derived here, once, from the endpoint's URL
// template, its static variables, and each sensor's expression. Two
// sensors that would collide on the same identifier are a configuration
// error.
func NewEntry(name string, endpoint Endpoint, sensors []Sensor, opts ...EntryOption) (*Entry, error) {
	if name == "" {
		return nil, errors.New("entry name cannot be empty")
	}
	if len(sensors) == 0 {
		return nil, errors.New("entry requires at least one sensor")
	}

	entities, err := buildEntities(endpoint, sensors)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		name:     name,
		endpoint: endpoint,
		sensors:  sensors,
		entities: entities,
		phase:    StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// buildEntities derives the entity list for a sensor set, rejecting
// identifier collisions.
func buildEntities(endpoint Endpoint, sensors []Sensor) ([]Entity, error) {
	entities := make([]Entity, 0, len(sensors))
	seen := make(map[string]string, len(sensors))

	for _, s := range sensors {
		id, err := SensorID(endpoint.URLTemplate(), s.Expression(), endpoint.Vars())
		if err != nil {
			return nil, errors.New("sensor " + s.Name() + ": " + err.Error())
		}
		if other, ok := seen[id]; ok {
			return nil, errors.New("sensors " + other + " and " + s.Name() + " derive the same identifier")
		}
		seen[id] = s.Name()

		entities = append(entities, Entity{
			ID:          id,
			Name:        s.Name(),
			Kind:        s.Kind(),
			Unit:        s.Unit(),
			DeviceClass: s.DeviceClass(),
			Icon:        s.Icon(),
		})
	}
	return entities, nil
}

// bind wires the entry to the agent's shared infrastructure. Must be called
// before Start.
func (e *Entry) bind(registry *state.Registry, publisher Publisher, client *poller.Client, logger *slog.Logger) {
	e.registry = registry
	e.publisher = publisher
	e.client = client
	e.logger = logger
}

// Name returns the entry's configured name.
func (e *Entry) Name() string { return e.name }

// State returns the current phase of the entry's poll cycle.
func (e *Entry) State() EntryState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// IDs returns the unique identifiers of the entities this entry owns.
func (e *Entry) IDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, len(e.entities))
	for i, ent := range e.entities {
		ids[i] = ent.ID
	}
	return ids
}

// Start registers the entry's entities and begins the poll loop.
//
// The first tick runs immediately, then at the endpoint's fixed interval.
// Start is non-blocking and idempotent; the loop runs until Stop, Teardown,
// or context cancellation.
func (e *Entry) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.torndown {
		return errors.New("entry has been torn down")
	}
	if e.coordinator != nil {
		return nil
	}

	e.fillDefaults()
	e.runCtx = ctx

	e.mu.Lock()
	entities := e.entities
	interval := e.endpoint.Interval()
	e.mu.Unlock()

	for _, ent := range entities {
		if err := e.publisher.Register(ctx, ent); err != nil {
			e.logger.Warn("entity registration failed",
				"entry", e.name, "id", ent.ID, "error", err)
		}
	}

	e.coordinator = poller.NewCoordinator(e.name, interval, e.tick, e.logger)
	e.coordinator.Start(ctx)
	return nil
}

// Stop halts the poll loop without unregistering entities. The last
// published states remain on the host platform.
func (e *Entry) Stop() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	e.stopLocked()
}

func (e *Entry) stopLocked() {
	if e.coordinator != nil {
		e.coordinator.Stop()
		e.coordinator = nil
		e.setPhase(StateIdle)
	}
}

// Apply replaces the entry's endpoint and sensor set atomically.
//
// The in-flight tick (if any) completes against the old configuration, then
// the sets are reconciled: entities whose identifiers survive are kept
// (their metadata re-registered in place), new ones are created, and only
// identifiers that disappeared from the desired set are unregistered. A
// running entry resumes polling with the new configuration and interval.
func (e *Entry) Apply(ctx context.Context, endpoint Endpoint, sensors []Sensor) error {
	if len(sensors) == 0 {
		return errors.New("entry requires at least one sensor")
	}

	desired, err := buildEntities(endpoint, sensors)
	if err != nil {
		return err
	}

	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.torndown {
		return errors.New("entry has been torn down")
	}

	running := e.coordinator != nil
	e.stopLocked()

	e.mu.Lock()
	previous := make([]string, len(e.entities))
	for i, ent := range e.entities {
		previous[i] = ent.ID
	}
	e.endpoint = endpoint
	e.sensors = sensors
	e.entities = desired
	// request shape changed, previous response no longer applies
	e.lastBody = ""
	e.lastStatus = 0
	e.mu.Unlock()

	e.fillDefaults()

	rec := Reconcile(previous, desired)
	for _, ent := range append(rec.Keep, rec.Create...) {
		if err := e.publisher.Register(ctx, ent); err != nil {
			e.logger.Warn("entity registration failed",
				"entry", e.name, "id", ent.ID, "error", err)
		}
	}
	for _, id := range rec.Remove {
		e.registry.Remove(id)
		if err := e.publisher.Unregister(ctx, id); err != nil {
			e.logger.Warn("entity unregistration failed",
				"entry", e.name, "id", id, "error", err)
		}
	}

	if running {
		e.coordinator = poller.NewCoordinator(e.name, endpoint.Interval(), e.tick, e.logger)
		e.coordinator.Start(e.runCtx)
	}
	return nil
}

// Teardown stops the poll loop and unregisters every entity the entry
// owns. The entry cannot be restarted afterwards.
func (e *Entry) Teardown(ctx context.Context) {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.torndown {
		return
	}
	e.torndown = true
	e.stopLocked()
	e.fillDefaults()

	e.mu.Lock()
	entities := e.entities
	e.mu.Unlock()

	for _, ent := range entities {
		e.registry.Remove(ent.ID)
		if err := e.publisher.Unregister(ctx, ent.ID); err != nil {
			e.logger.Warn("entity unregistration failed",
				"entry", e.name, "id", ent.ID, "error", err)
		}
	}
}

// fillDefaults supplies working infrastructure for standalone entries.
func (e *Entry) fillDefaults() {
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.publisher == nil {
		e.publisher = NewLogPublisher(e.logger)
	}
	if e.client == nil {
		e.client = poller.NewClient()
	}
	if e.registry == nil {
		e.registry = state.NewRegistry()
	}
}

// tick runs one complete poll cycle: render, fetch, extract, publish.
//
// Failure scoping: a render or transport failure affects the whole
// endpoint, so every sensor goes unavailable for the tick. A non-2xx
// status is recorded but the body is still handed to extraction, because
// some services put usable data in error payloads. Extraction and coercion
// failures affect only the failing sensor.
func (e *Entry) tick(ctx context.Context) error {
	e.mu.Lock()
	endpoint := e.endpoint
	sensors := e.sensors
	entities := e.entities
	rctx := render.Context{
		Now:        time.Now().UTC(),
		LastBody:   e.lastBody,
		LastStatus: e.lastStatus,
		Vars:       endpoint.Vars(),
	}
	e.phase = StateFetching
	e.mu.Unlock()

	req, err := e.renderRequest(endpoint, rctx)
	if err != nil {
		e.failAll(ctx, entities, KindOf(err), rctx.Now)
		e.setPhase(StateFailed)
		return err
	}

	resp := e.client.Do(ctx, req)
	if resp.Err != nil {
		kind := ErrorConnection
		if resp.TimedOut() {
			kind = ErrorTimeout
		}
		fetchErr := &FetchError{Kind: kind, Err: resp.Err}
		e.failAll(ctx, entities, kind, rctx.Now)
		e.setPhase(StateFailed)
		return fetchErr
	}

	e.mu.Lock()
	e.lastBody = string(resp.Body)
	e.lastStatus = resp.StatusCode
	e.phase = StateExtracting
	e.mu.Unlock()

	var tickErr error
	if !resp.OK() {
		tickErr = &FetchError{Kind: ErrorHTTPStatus, StatusCode: resp.StatusCode}
		e.logger.Warn("endpoint returned non-2xx status",
			"entry", e.name, "status", resp.StatusCode)
	}

	failed := 0
	for i, s := range sensors {
		if err := e.publishSensor(ctx, s, entities[i], resp.Body, endpoint.ContentType(), rctx); err != nil {
			failed++
			e.logger.Warn("sensor update failed",
				"entry", e.name,
				"sensor", s.Name(),
				"error_kind", string(KindOf(err)),
				"error", err,
			)
			if tickErr == nil {
				tickErr = err
			}
		}
	}

	e.logger.Debug("tick complete",
		"entry", e.name,
		"status", resp.StatusCode,
		"latency", resp.Latency,
		"sensors", len(sensors),
		"failed", failed,
	)

	if tickErr != nil {
		e.setPhase(StateFailed)
	} else {
		e.setPhase(StatePublished)
	}
	return tickErr
}

// renderRequest evaluates the endpoint's URL, header, and body templates
// against the tick context.
func (e *Entry) renderRequest(endpoint Endpoint, rctx render.Context) (poller.Request, error) {
	urlStr, err := render.Render("url", endpoint.URLTemplate(), rctx)
	if err != nil {
		return poller.Request{}, &TemplateError{Field: "url", Err: err}
	}

	headers := make(map[string]string)
	for name, tmpl := range endpoint.Headers() {
		v, err := render.Render("header", tmpl, rctx)
		if err != nil {
			return poller.Request{}, &TemplateError{Field: "header " + name, Err: err}
		}
		headers[name] = v
	}

	var body string
	if endpoint.BodyTemplate() != "" {
		body, err = render.Render("body", endpoint.BodyTemplate(), rctx)
		if err != nil {
			return poller.Request{}, &TemplateError{Field: "body", Err: err}
		}
	}

	return poller.Request{
		Method:      endpoint.Method(),
		URL:         urlStr,
		Headers:     headers,
		Body:        body,
		ContentType: endpoint.ContentType().MIME(),
		InsecureTLS: endpoint.InsecureTLS(),
		Timeout:     endpoint.Timeout(),
	}, nil
}

// publishSensor extracts, coerces, and publishes a single sensor's value.
func (e *Entry) publishSensor(ctx context.Context, s Sensor, ent Entity, body []byte, ct ContentType, rctx render.Context) error {
	stateStr, attrs, err := e.observe(s, body, ct, rctx)
	if err != nil {
		e.registry.MarkUnavailable(toStateEntity(ent), string(KindOf(err)), rctx.Now)
		pushErr := e.publisher.Push(ctx, Update{
			Entity:    ent,
			Available: false,
			ErrorKind: KindOf(err),
			At:        rctx.Now,
		})
		if pushErr != nil {
			e.logger.Warn("publish failed", "entry", e.name, "id", ent.ID, "error", pushErr)
		}
		return err
	}

	e.registry.Set(state.EntityState{
		Entity:     toStateEntity(ent),
		State:      stateStr,
		Available:  true,
		Attributes: attrs,
		UpdatedAt:  rctx.Now,
	})
	if pushErr := e.publisher.Push(ctx, Update{
		Entity:     ent,
		State:      stateStr,
		Available:  true,
		Attributes: attrs,
		At:         rctx.Now,
	}); pushErr != nil {
		e.logger.Warn("publish failed", "entry", e.name, "id", ent.ID, "error", pushErr)
	}
	return nil
}

// observe produces a sensor's published state and attributes from a
// response body.
func (e *Entry) observe(s Sensor, body []byte, ct ContentType, rctx render.Context) (string, map[string]string, error) {
	raw, err := Extract(body, ct, s.Expression())
	if err != nil {
		return "", nil, err
	}

	val, err := Coerce(raw, s.ValueType())
	if err != nil {
		return "", nil, err
	}

	stateStr := val.State
	if tmpl := s.ValueTemplate(); tmpl != "" {
		rendered, err := render.Value(tmpl, val.State, rctx)
		if err != nil {
			return "", nil, &TemplateError{Field: "value_template", Err: err}
		}
		stateStr = rendered
	}

	var attrs map[string]string
	if s.Kind() == KindTracker {
		latExpr, lngExpr := s.LocationExpressions()
		lat, err := Extract(body, ct, latExpr)
		if err != nil {
			return "", nil, err
		}
		lng, err := Extract(body, ct, lngExpr)
		if err != nil {
			return "", nil, err
		}
		attrs = map[string]string{"latitude": lat, "longitude": lng}
	}

	return stateStr, attrs, nil
}

// failAll marks every entity of the endpoint unavailable for this tick.
// The registry retains each entity's last-known value; a transient failure
// never removes anything.
func (e *Entry) failAll(ctx context.Context, entities []Entity, kind ErrorKind, at time.Time) {
	for _, ent := range entities {
		e.registry.MarkUnavailable(toStateEntity(ent), string(kind), at)
		if err := e.publisher.Push(ctx, Update{
			Entity:    ent,
			Available: false,
			ErrorKind: kind,
			At:        at,
		}); err != nil {
			e.logger.Warn("publish failed", "entry", e.name, "id", ent.ID, "error", err)
		}
	}
}

func (e *Entry) setPhase(p EntryState) {
	e.mu.Lock()
	e.phase = p
	e.mu.Unlock()
}

// toStateEntity converts a public entity record to its storage form.
func toStateEntity(ent Entity) state.Entity {
	return state.Entity{
		ID:          ent.ID,
		Name:        ent.Name,
		Kind:        string(ent.Kind),
		Unit:        ent.Unit,
		DeviceClass: ent.DeviceClass,
		Icon:        ent.Icon,
	}
}
