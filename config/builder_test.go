package config

import (
	"testing"
	"time"

	"github.com/httpagent/httpagent"
)

func TestBuildEntries(t *testing.T) {
	cfg, err := Parse([]byte(`
entries:
  - name: weather
    url: "https://api.example/weather?station={{.Vars.station}}"
    method: GET
    timeout: 5s
    interval: 2m
    vars:
      station: KSEA
    sensors:
      - name: Temperature
        expression: current.temp_c
        kind: number
        unit: "°C"
        icon: thermometer
      - name: Raining
        expression: current.raining
        kind: binary_sensor
  - name: tracker
    url: https://api.example/car
    sensors:
      - name: Car
        expression: zone
        kind: device_tracker
        latitude: position.lat
        longitude: position.lng
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	entries, err := BuildEntries(cfg)
	if err != nil {
		t.Fatalf("BuildEntries() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name() != "weather" {
		t.Errorf("entry name = %q, want weather", entries[0].Name())
	}
	if len(entries[0].IDs()) != 2 {
		t.Errorf("weather entry has %d entities, want 2", len(entries[0].IDs()))
	}
	if len(entries[1].IDs()) != 1 {
		t.Errorf("tracker entry has %d entities, want 1", len(entries[1].IDs()))
	}
}

func TestBuildEntryAppliesEndpointFields(t *testing.T) {
	ec := EntryConfig{
		Name:        "q",
		URL:         "https://api.example/query",
		Method:      "POST",
		Timeout:     Duration(5 * time.Second),
		Interval:    Duration(90 * time.Second),
		ContentType: "xml",
		Body:        `<query station="{{.Vars.station}}"/>`,
		Vars:        map[string]string{"station": "KSEA"},
		Sensors: []SensorConfig{
			{Name: "Temp", Expression: "temperature"},
		},
	}

	entry, err := BuildEntry(ec)
	if err != nil {
		t.Fatalf("BuildEntry() error = %v", err)
	}
	if entry.Name() != "q" {
		t.Errorf("Name = %q", entry.Name())
	}
}

func TestBuildEndpointInsecureTLS(t *testing.T) {
	ec := EntryConfig{
		Name:        "device",
		URL:         "https://device.local/status",
		InsecureTLS: true,
		Sensors: []SensorConfig{
			{Name: "S", Expression: "a"},
		},
	}

	ep, err := buildEndpoint(ec)
	if err != nil {
		t.Fatalf("buildEndpoint() error = %v", err)
	}
	if !ep.InsecureTLS() {
		t.Error("InsecureTLS not carried through from config")
	}
}

func TestBuildEntryPropagatesSDKErrors(t *testing.T) {
	tests := []struct {
		name string
		ec   EntryConfig
	}{
		{
			name: "bad url template",
			ec: EntryConfig{
				Name: "x",
				URL:  "https://example.com/{{.Vars.x",
				Sensors: []SensorConfig{
					{Name: "S", Expression: "a"},
				},
			},
		},
		{
			name: "unknown sensor kind",
			ec: EntryConfig{
				Name: "x",
				URL:  "https://example.com",
				Sensors: []SensorConfig{
					{Name: "S", Expression: "a", Kind: "thermostat"},
				},
			},
		},
		{
			name: "tracker without coordinates",
			ec: EntryConfig{
				Name: "x",
				URL:  "https://example.com",
				Sensors: []SensorConfig{
					{Name: "S", Expression: "a", Kind: "device_tracker"},
				},
			},
		},
		{
			name: "body on GET",
			ec: EntryConfig{
				Name: "x",
				URL:  "https://example.com",
				Body: "payload",
				Sensors: []SensorConfig{
					{Name: "S", Expression: "a"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildEntry(tt.ec); err == nil {
				t.Error("BuildEntry() expected error, got nil")
			}
		})
	}
}

func TestContentTypeMapping(t *testing.T) {
	tests := []struct {
		in   string
		want httpagent.ContentType
	}{
		{"json", httpagent.ContentJSON},
		{"xml", httpagent.ContentXML},
		{"form", httpagent.ContentForm},
		{"text", httpagent.ContentText},
		{"", httpagent.ContentJSON},
	}

	for _, tt := range tests {
		if got := contentType(tt.in); got != tt.want {
			t.Errorf("contentType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
