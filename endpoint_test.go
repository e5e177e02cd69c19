package httpagent

import (
	"testing"
	"time"
)

func TestNewEndpointDefaults(t *testing.T) {
	ep, err := NewEndpoint("https://api.example.com/data")
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}

	if ep.Method() != "GET" {
		t.Errorf("Method = %q, want GET", ep.Method())
	}
	if ep.Timeout() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", ep.Timeout())
	}
	if ep.Interval() != 60*time.Second {
		t.Errorf("Interval = %v, want 60s", ep.Interval())
	}
	if ep.ContentType() != ContentJSON {
		t.Errorf("ContentType = %v, want json", ep.ContentType())
	}
	if ep.InsecureTLS() {
		t.Error("InsecureTLS = true, want verification on by default")
	}
}

func TestNewEndpointInsecureTLS(t *testing.T) {
	ep, err := NewEndpoint("https://device.local/status", WithInsecureTLS())
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}
	if !ep.InsecureTLS() {
		t.Error("InsecureTLS = false after WithInsecureTLS")
	}
}

func TestNewEndpointValidation(t *testing.T) {
	tests := []struct {
		name string
		url  string
		opts []EndpointOption
	}{
		{"empty url", "", nil},
		{"unparseable template", "https://example.com/{{.Vars.x", nil},
		{"literal url without scheme", "example.com/data", nil},
		{"ftp scheme", "ftp://example.com/data", nil},
		{"unknown method", "https://example.com", []EndpointOption{WithMethod("FETCH")}},
		{"body on GET", "https://example.com", []EndpointOption{WithBody(`{"q":1}`)}},
		{"zero timeout", "https://example.com", []EndpointOption{WithTimeout(0)}},
		{"sub-second interval", "https://example.com", []EndpointOption{WithInterval(100 * time.Millisecond)}},
		{"interval over a day", "https://example.com", []EndpointOption{WithInterval(25 * time.Hour)}},
		{"empty header name", "https://example.com", []EndpointOption{WithHeader("", "x")}},
		{"bad header template", "https://example.com", []EndpointOption{WithHeader("X-Ts", "{{.Now")}},
		{"bad body template", "https://example.com", []EndpointOption{WithMethod("POST"), WithBody("{{.Vars")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEndpoint(tt.url, tt.opts...); err == nil {
				t.Error("NewEndpoint() expected error, got nil")
			}
		})
	}
}

func TestNewEndpointTemplatedURL(t *testing.T) {
	// a templated URL cannot be parsed as a literal, so only template
	// syntax is validated up front
	ep, err := NewEndpoint("https://api.example.com/metar?station={{.Vars.station}}",
		WithVars(map[string]string{"station": "KSEA"}),
	)
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}

	if ep.Vars()["station"] != "KSEA" {
		t.Errorf("Vars = %v, want station=KSEA", ep.Vars())
	}
}

func TestNewEndpointWithBody(t *testing.T) {
	ep, err := NewEndpoint("https://api.example.com/query",
		WithMethod("POST"),
		WithBody(`{"station": "{{.Vars.station}}"}`),
		WithContentType(ContentJSON),
		WithVars(map[string]string{"station": "KSEA"}),
	)
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}

	if ep.BodyTemplate() == "" {
		t.Error("BodyTemplate is empty")
	}
}

func TestEndpointImmutability(t *testing.T) {
	ep, err := NewEndpoint("https://example.com",
		WithHeader("X-Key", "abc"),
		WithVars(map[string]string{"a": "1"}),
	)
	if err != nil {
		t.Fatalf("NewEndpoint() error = %v", err)
	}

	// mutating returned maps must not affect the endpoint
	ep.Headers()["X-Key"] = "changed"
	ep.Vars()["a"] = "changed"

	if ep.Headers()["X-Key"] != "abc" {
		t.Error("Headers() did not return a defensive copy")
	}
	if ep.Vars()["a"] != "1" {
		t.Error("Vars() did not return a defensive copy")
	}
}
