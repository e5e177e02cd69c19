package hass

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/httpagent/httpagent"
)

// unavailableState is the state Home Assistant displays for entities whose
// last poll produced no valid value.
const unavailableState = "unavailable"

// attributes is the attribute payload attached to every state update.
// Display metadata rides along with each update because the REST state API
// has no separate registration call.
type attributes struct {
	FriendlyName      string `json:"friendly_name"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
	Icon              string `json:"icon,omitempty"`
	ErrorKind         string `json:"error_kind,omitempty"`
	Latitude          string `json:"latitude,omitempty"`
	Longitude         string `json:"longitude,omitempty"`
}

// stateUpdate is the request body for POST /api/states/<entity_id>.
type stateUpdate struct {
	State      string     `json:"state"`
	Attributes attributes `json:"attributes"`
}

// Publisher pushes entity states to a Home Assistant instance over its REST
// API. It implements [httpagent.Publisher].
//
// Home Assistant's REST state API creates entities implicitly on first
// POST, so Register publishes an initial unavailable state rather than
// performing a separate registration call.
type Publisher struct {
	client *resty.Client
	logger *slog.Logger

	// entityIDs remembers the entity_id chosen per unique identifier so
	// Unregister can address the same entity. Guarded by mu because the
	// publisher is shared across concurrently polling entries.
	mu        sync.Mutex
	entityIDs map[string]string
}

// New creates a Home Assistant [Publisher] for the given base URL
// (e.g. "http://homeassistant.local:8123") and long-lived access token.
func New(baseURL, token string, logger *slog.Logger) (*Publisher, error) {
	if baseURL == "" {
		return nil, errors.New("home assistant base URL cannot be empty")
	}
	if token == "" {
		return nil, errors.New("home assistant token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetAuthToken(token)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(10 * time.Second)

	return &Publisher{
		client:    client,
		logger:    logger,
		entityIDs: make(map[string]string),
	}, nil
}

// Register announces an entity by publishing an initial unavailable state.
// The entity shows up in Home Assistant immediately, before the first poll
// completes.
func (p *Publisher) Register(ctx context.Context, e httpagent.Entity) error {
	p.mu.Lock()
	p.entityIDs[e.ID] = entityID(e)
	p.mu.Unlock()
	return p.post(ctx, e, stateUpdate{
		State:      unavailableState,
		Attributes: baseAttributes(e),
	})
}

// Push publishes a value-or-unavailable update.
func (p *Publisher) Push(ctx context.Context, u httpagent.Update) error {
	upd := stateUpdate{
		State:      u.State,
		Attributes: baseAttributes(u.Entity),
	}
	if !u.Available {
		upd.State = unavailableState
		upd.Attributes.ErrorKind = string(u.ErrorKind)
	}
	if u.Attributes != nil {
		upd.Attributes.Latitude = u.Attributes["latitude"]
		upd.Attributes.Longitude = u.Attributes["longitude"]
	}
	return p.post(ctx, u.Entity, upd)
}

// Unregister deletes the entity's state from Home Assistant.
func (p *Publisher) Unregister(ctx context.Context, id string) error {
	p.mu.Lock()
	eid, ok := p.entityIDs[id]
	delete(p.entityIDs, id)
	p.mu.Unlock()
	if !ok {
		return nil
	}

	res, err := p.client.R().
		SetContext(ctx).
		Delete("/api/states/" + eid)
	if err != nil {
		return fmt.Errorf("delete %s: %w", eid, err)
	}
	// 404 means the entity never reported a state; nothing to remove
	if res.IsError() && res.StatusCode() != 404 {
		return fmt.Errorf("delete %s: unexpected HTTP status %d", eid, res.StatusCode())
	}

	p.logger.Info("home assistant entity removed", "entity_id", eid)
	return nil
}

func (p *Publisher) post(ctx context.Context, e httpagent.Entity, upd stateUpdate) error {
	p.mu.Lock()
	eid := p.entityIDs[e.ID]
	if eid == "" {
		eid = entityID(e)
		p.entityIDs[e.ID] = eid
	}
	p.mu.Unlock()

	res, err := p.client.R().
		SetContext(ctx).
		SetBody(upd).
		Post("/api/states/" + eid)
	if err != nil {
		return fmt.Errorf("post %s: %w", eid, err)
	}
	if res.IsError() {
		return fmt.Errorf("post %s: unexpected HTTP status %d", eid, res.StatusCode())
	}
	return nil
}

// baseAttributes maps entity display metadata to Home Assistant attribute
// names.
func baseAttributes(e httpagent.Entity) attributes {
	return attributes{
		FriendlyName:      e.Name,
		UnitOfMeasurement: e.Unit,
		DeviceClass:       e.DeviceClass,
		Icon:              e.Icon,
	}
}

// entityID builds a Home Assistant entity_id: the kind as domain, then the
// slugged display name suffixed with a fragment of the unique identifier so
// same-named sensors on different endpoints stay distinct.
func entityID(e httpagent.Entity) string {
	suffix := strings.ReplaceAll(e.ID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return string(e.Kind) + "." + slug(e.Name) + "_" + suffix
}

// slug lowercases a display name and collapses anything outside [a-z0-9]
// into single underscores.
func slug(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
