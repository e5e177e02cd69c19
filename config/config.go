// Package config provides YAML configuration parsing for the polling
// agent.
//
// This package enables running the agent as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	api_port: 8844
//
//	publisher:
//	  type: home_assistant
//	  url: ${HASS_URL}
//	  token: ${HASS_TOKEN}
//
//	entries:
//	  - name: weather
//	    url: "https://wttr.in/{{.Vars.city}}?format=j1"
//	    interval: 5m
//	    vars:
//	      city: Seattle
//	    sensors:
//	      - name: Seattle Temperature
//	        expression: current_condition.0.temp_C
//	        kind: number
//	        unit: "°C"
//	        device_class: temperature
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minInterval is the minimum allowed polling interval. This prevents
// accidental DoS of endpoints with overly aggressive polling.
const minInterval = 1 * time.Second

// maxInterval bounds the polling interval; anything longer is almost
// certainly a unit mistake in the config file.
const maxInterval = 24 * time.Hour

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// APIPort enables the diagnostics HTTP API on the given port.
	// Zero disables it.
	APIPort int `yaml:"api_port"`

	// Publisher selects where entity states are published.
	Publisher PublisherConfig `yaml:"publisher"`

	// Entries defines the polled endpoints and their sensors.
	Entries []EntryConfig `yaml:"entries"`
}

// PublisherConfig selects and configures the host platform publisher.
type PublisherConfig struct {
	// Type is "home_assistant" or "log". Defaults to "log".
	Type string `yaml:"type"`

	// URL is the Home Assistant base URL (for type: home_assistant).
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Token is the Home Assistant long-lived access token.
	// Supports environment variable substitution.
	Token string `yaml:"token"`
}

// EntryConfig defines one polled endpoint and its sensors.
type EntryConfig struct {
	// Name identifies the entry in logs and the diagnostics API.
	Name string `yaml:"name"`

	// URL is the endpoint URL template. Supports environment variable
	// substitution and per-tick template actions ({{.Now}}, {{.Vars.x}}).
	URL string `yaml:"url"`

	// Method is the HTTP method. Defaults to GET.
	Method string `yaml:"method"`

	// Timeout is the request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Interval is the polling interval. Defaults to 60s.
	// Must be between 1s and 24h.
	Interval Duration `yaml:"interval"`

	// ContentType selects the extraction strategy: "json", "xml",
	// "form", or "text". Defaults to json.
	ContentType string `yaml:"content_type"`

	// Headers are header value templates sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Body is the request body template, for POST/PUT/PATCH.
	Body string `yaml:"body"`

	// Vars are static variables available to the entry's templates as
	// {{.Vars.name}}. Values support environment variable substitution.
	Vars map[string]string `yaml:"vars"`

	// InsecureTLS disables TLS certificate verification for this entry's
	// endpoint, for local devices with self-signed certificates.
	InsecureTLS bool `yaml:"insecure_tls"`

	// Sensors defines the values extracted from each response.
	Sensors []SensorConfig `yaml:"sensors"`
}

// SensorConfig defines one value extracted from an entry's responses.
type SensorConfig struct {
	// Name is the display name on the host platform.
	Name string `yaml:"name"`

	// Expression selects the value in the response: a dot path for JSON,
	// a CSS selector (optionally "selector@attr") for XML/HTML. Ignored
	// for text and form content, where the whole body is the value.
	Expression string `yaml:"expression"`

	// Kind is the entity kind: "sensor", "binary_sensor", "number", or
	// "device_tracker". Defaults to sensor.
	Kind string `yaml:"kind"`

	// Type overrides the value type implied by the kind: "text",
	// "numeric", "boolean", or "enum".
	Type string `yaml:"type"`

	// Unit is the unit of measurement, passed through unmodified.
	Unit string `yaml:"unit"`

	// DeviceClass is the host platform device class.
	DeviceClass string `yaml:"device_class"`

	// Icon is the display icon; a bare name gets an "mdi:" prefix.
	Icon string `yaml:"icon"`

	// ValueTemplate post-processes the coerced value before publishing.
	// The value is available as {{.Value}}.
	ValueTemplate string `yaml:"value_template"`

	// Latitude and Longitude are extraction expressions for device
	// trackers.
	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in publisher credentials, URLs,
// header values, and vars. Structural validation happens here; template
// syntax and sensor semantics are validated when SDK objects are built.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Publisher.Type == "" {
		cfg.Publisher.Type = "log"
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("api_port must be between 0 and 65535, got %d", c.APIPort)
	}

	switch c.Publisher.Type {
	case "log":
	case "home_assistant":
		for _, field := range []struct {
			name  string
			value *string
		}{
			{"url", &c.Publisher.URL},
			{"token", &c.Publisher.Token},
		} {
			expanded, err := expandEnvVars(*field.value)
			if err != nil {
				return fmt.Errorf("publisher: %s: %w", field.name, err)
			}
			*field.value = expanded
			if *field.value == "" {
				return fmt.Errorf("publisher: %s is required for type home_assistant", field.name)
			}
		}
	default:
		return fmt.Errorf("publisher: type must be \"log\" or \"home_assistant\", got %q", c.Publisher.Type)
	}

	if len(c.Entries) == 0 {
		return fmt.Errorf("at least one entry is required")
	}

	for i := range c.Entries {
		if err := c.Entries[i].expandAndValidate(i); err != nil {
			return err
		}
	}

	return nil
}

func (e *EntryConfig) expandAndValidate(i int) error {
	if e.Name == "" {
		return fmt.Errorf("entries[%d]: name is required", i)
	}

	if e.URL == "" {
		return fmt.Errorf("entries[%d] (%s): url is required", i, e.Name)
	}
	expanded, err := expandEnvVars(e.URL)
	if err != nil {
		return fmt.Errorf("entries[%d] (%s): url: %w", i, e.Name, err)
	}
	e.URL = expanded

	switch e.Method {
	case "", "GET", "POST", "PUT", "DELETE", "PATCH":
	default:
		return fmt.Errorf("entries[%d] (%s): method must be GET, POST, PUT, DELETE, or PATCH", i, e.Name)
	}

	switch e.ContentType {
	case "", "json", "xml", "form", "text":
	default:
		return fmt.Errorf("entries[%d] (%s): content_type must be json, xml, form, or text", i, e.Name)
	}

	for k, v := range e.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("entries[%d] (%s): headers[%s]: %w", i, e.Name, k, err)
		}
		e.Headers[k] = expanded
	}

	for k, v := range e.Vars {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("entries[%d] (%s): vars[%s]: %w", i, e.Name, k, err)
		}
		e.Vars[k] = expanded
	}

	if e.Timeout != 0 && e.Timeout.Duration() < time.Second {
		return fmt.Errorf("entries[%d] (%s): timeout must be at least 1s if specified, got %s",
			i, e.Name, e.Timeout.Duration())
	}

	if e.Interval != 0 {
		if e.Interval.Duration() < minInterval {
			return fmt.Errorf("entries[%d] (%s): interval must be at least %s, got %s",
				i, e.Name, minInterval, e.Interval.Duration())
		}
		if e.Interval.Duration() > maxInterval {
			return fmt.Errorf("entries[%d] (%s): interval must not exceed %s, got %s",
				i, e.Name, maxInterval, e.Interval.Duration())
		}
	}

	if len(e.Sensors) == 0 {
		return fmt.Errorf("entries[%d] (%s): at least one sensor is required", i, e.Name)
	}

	for j, s := range e.Sensors {
		if s.Name == "" {
			return fmt.Errorf("entries[%d] (%s): sensors[%d]: name is required", i, e.Name, j)
		}
		// text and form responses take the whole body, no expression needed
		if s.Expression == "" && e.ContentType != "text" && e.ContentType != "form" {
			return fmt.Errorf("entries[%d] (%s): sensors[%d] (%s): expression is required",
				i, e.Name, j, s.Name)
		}
	}

	return nil
}
