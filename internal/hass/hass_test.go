package hass

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/httpagent/httpagent"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]interface{}
}

func newTestServer(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		mu.Lock()
		requests = append(requests, rec)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest{}, requests...)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEntity() httpagent.Entity {
	return httpagent.Entity{
		ID:          "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Name:        "Outside Temperature",
		Kind:        httpagent.KindSensor,
		Unit:        "°C",
		DeviceClass: "temperature",
		Icon:        "mdi:thermometer",
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New("", "token", testLogger())
	require.Error(t, err)

	_, err = New("http://ha.local:8123", "", testLogger())
	require.Error(t, err)

	p, err := New("http://ha.local:8123/", "token", testLogger())
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestRegisterPostsInitialUnavailableState(t *testing.T) {
	srv, recorded := newTestServer(t)
	p, err := New(srv.URL, "test-token", testLogger())
	require.NoError(t, err)

	require.NoError(t, p.Register(context.Background(), testEntity()))

	reqs := recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPost, reqs[0].method)
	require.Equal(t, "/api/states/sensor.outside_temperature_6ba7b810", reqs[0].path)
	require.Equal(t, "Bearer test-token", reqs[0].auth)
	require.Equal(t, "unavailable", reqs[0].body["state"])

	attrs := reqs[0].body["attributes"].(map[string]interface{})
	require.Equal(t, "Outside Temperature", attrs["friendly_name"])
	require.Equal(t, "°C", attrs["unit_of_measurement"])
	require.Equal(t, "temperature", attrs["device_class"])
	require.Equal(t, "mdi:thermometer", attrs["icon"])
}

func TestPushAvailable(t *testing.T) {
	srv, recorded := newTestServer(t)
	p, err := New(srv.URL, "test-token", testLogger())
	require.NoError(t, err)

	err = p.Push(context.Background(), httpagent.Update{
		Entity:    testEntity(),
		State:     "21.5",
		Available: true,
		At:        time.Now().UTC(),
	})
	require.NoError(t, err)

	reqs := recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, "21.5", reqs[0].body["state"])

	attrs := reqs[0].body["attributes"].(map[string]interface{})
	require.NotContains(t, attrs, "error_kind")
}

func TestPushUnavailableCarriesErrorKind(t *testing.T) {
	srv, recorded := newTestServer(t)
	p, err := New(srv.URL, "test-token", testLogger())
	require.NoError(t, err)

	err = p.Push(context.Background(), httpagent.Update{
		Entity:    testEntity(),
		Available: false,
		ErrorKind: httpagent.ErrorTimeout,
	})
	require.NoError(t, err)

	reqs := recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, "unavailable", reqs[0].body["state"])

	attrs := reqs[0].body["attributes"].(map[string]interface{})
	require.Equal(t, "timeout", attrs["error_kind"])
}

func TestPushTrackerCoordinates(t *testing.T) {
	srv, recorded := newTestServer(t)
	p, err := New(srv.URL, "test-token", testLogger())
	require.NoError(t, err)

	entity := testEntity()
	entity.Kind = httpagent.KindTracker

	err = p.Push(context.Background(), httpagent.Update{
		Entity:     entity,
		State:      "home",
		Available:  true,
		Attributes: map[string]string{"latitude": "47.61", "longitude": "-122.33"},
	})
	require.NoError(t, err)

	reqs := recorded()
	require.Len(t, reqs, 1)
	attrs := reqs[0].body["attributes"].(map[string]interface{})
	require.Equal(t, "47.61", attrs["latitude"])
	require.Equal(t, "-122.33", attrs["longitude"])
}

func TestUnregisterDeletesState(t *testing.T) {
	srv, recorded := newTestServer(t)
	p, err := New(srv.URL, "test-token", testLogger())
	require.NoError(t, err)

	entity := testEntity()
	require.NoError(t, p.Register(context.Background(), entity))
	require.NoError(t, p.Unregister(context.Background(), entity.ID))

	reqs := recorded()
	require.Len(t, reqs, 2)
	require.Equal(t, http.MethodDelete, reqs[1].method)
	require.Equal(t, reqs[0].path, reqs[1].path)

	// unknown identifiers are a no-op
	require.NoError(t, p.Unregister(context.Background(), "never-registered"))
	require.Len(t, recorded(), 2)
}

func TestPushErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := New(srv.URL, "bad-token", testLogger())
	require.NoError(t, err)

	err = p.Push(context.Background(), httpagent.Update{Entity: testEntity(), State: "1", Available: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestEntityIDSlugging(t *testing.T) {
	tests := []struct {
		name   string
		entity httpagent.Entity
		want   string
	}{
		{
			name: "spaces and case",
			entity: httpagent.Entity{
				ID: "abcd1234-0000-0000-0000-000000000000", Name: "Outside Temperature", Kind: httpagent.KindSensor,
			},
			want: "sensor.outside_temperature_abcd1234",
		},
		{
			name: "punctuation collapsed",
			entity: httpagent.Entity{
				ID: "abcd1234-0000-0000-0000-000000000000", Name: "Wind (gusts) km/h", Kind: httpagent.KindNumber,
			},
			want: "number.wind_gusts_km_h_abcd1234",
		},
		{
			name: "binary sensor domain",
			entity: httpagent.Entity{
				ID: "abcd1234-0000-0000-0000-000000000000", Name: "Raining", Kind: httpagent.KindBinarySensor,
			},
			want: "binary_sensor.raining_abcd1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, entityID(tt.entity))
		})
	}
}
