package config

import (
	"fmt"
	"sort"

	"github.com/httpagent/httpagent"
)

// BuildEntries converts parsed configuration into SDK Entry objects.
func BuildEntries(cfg *Config) ([]*httpagent.Entry, error) {
	entries := make([]*httpagent.Entry, 0, len(cfg.Entries))
	for _, ec := range cfg.Entries {
		entry, err := BuildEntry(ec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// BuildEntry converts a single EntryConfig to an SDK Entry.
func BuildEntry(ec EntryConfig) (*httpagent.Entry, error) {
	endpoint, err := buildEndpoint(ec)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", ec.Name, err)
	}

	sensors := make([]httpagent.Sensor, 0, len(ec.Sensors))
	for _, sc := range ec.Sensors {
		s, err := buildSensor(sc)
		if err != nil {
			return nil, fmt.Errorf("entry %s: sensor %s: %w", ec.Name, sc.Name, err)
		}
		sensors = append(sensors, s)
	}

	entry, err := httpagent.NewEntry(ec.Name, endpoint, sensors)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", ec.Name, err)
	}
	return entry, nil
}

// buildEndpoint converts an EntryConfig's endpoint fields to an SDK Endpoint.
func buildEndpoint(ec EntryConfig) (httpagent.Endpoint, error) {
	var opts []httpagent.EndpointOption

	if ec.Method != "" {
		opts = append(opts, httpagent.WithMethod(ec.Method))
	}

	if ec.Timeout != 0 {
		opts = append(opts, httpagent.WithTimeout(ec.Timeout.Duration()))
	}

	if ec.Interval != 0 {
		opts = append(opts, httpagent.WithInterval(ec.Interval.Duration()))
	}

	if ec.ContentType != "" {
		opts = append(opts, httpagent.WithContentType(contentType(ec.ContentType)))
	}

	// sort keys so option application order is deterministic
	headerNames := make([]string, 0, len(ec.Headers))
	for name := range ec.Headers {
		headerNames = append(headerNames, name)
	}
	sort.Strings(headerNames)
	for _, name := range headerNames {
		opts = append(opts, httpagent.WithHeader(name, ec.Headers[name]))
	}

	if ec.Body != "" {
		opts = append(opts, httpagent.WithBody(ec.Body))
	}

	if len(ec.Vars) > 0 {
		opts = append(opts, httpagent.WithVars(ec.Vars))
	}

	if ec.InsecureTLS {
		opts = append(opts, httpagent.WithInsecureTLS())
	}

	return httpagent.NewEndpoint(ec.URL, opts...)
}

// buildSensor converts a SensorConfig to an SDK Sensor.
func buildSensor(sc SensorConfig) (httpagent.Sensor, error) {
	var opts []httpagent.SensorOption

	if sc.Kind != "" {
		opts = append(opts, httpagent.WithSensorKind(httpagent.Kind(sc.Kind)))
	}

	if sc.Type != "" {
		opts = append(opts, httpagent.WithSensorType(httpagent.ValueType(sc.Type)))
	}

	if sc.Unit != "" {
		opts = append(opts, httpagent.WithUnit(sc.Unit))
	}

	if sc.DeviceClass != "" {
		opts = append(opts, httpagent.WithDeviceClass(sc.DeviceClass))
	}

	if sc.Icon != "" {
		opts = append(opts, httpagent.WithIcon(sc.Icon))
	}

	if sc.ValueTemplate != "" {
		opts = append(opts, httpagent.WithValueTemplate(sc.ValueTemplate))
	}

	if sc.Latitude != "" || sc.Longitude != "" {
		opts = append(opts, httpagent.WithLocation(sc.Latitude, sc.Longitude))
	}

	return httpagent.NewSensor(sc.Name, sc.Expression, opts...)
}

// contentType maps config file content type names to SDK constants.
func contentType(s string) httpagent.ContentType {
	switch s {
	case "xml":
		return httpagent.ContentXML
	case "form":
		return httpagent.ContentForm
	case "text":
		return httpagent.ContentText
	default:
		return httpagent.ContentJSON
	}
}
