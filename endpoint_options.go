package httpagent

import (
	"errors"
	"net/http"
	"time"

	"github.com/httpagent/httpagent/internal/render"
)

// endpointConfig holds mutable state during endpoint construction.
type endpointConfig struct {
	method      string
	headers     map[string]string
	body        string
	contentType ContentType
	timeout     time.Duration
	interval    time.Duration
	vars        map[string]string
	insecureTLS bool
}

// EndpointOption is a function that configures an [Endpoint] during
// construction.
//
// EndpointOption implements the functional options pattern. Options return
// an error if validation fails.
type EndpointOption func(*endpointConfig) error

// WithMethod sets the HTTP method for poll requests.
//
// Supported methods are GET (default), POST, PUT, DELETE, and PATCH.
// POST, PUT, and PATCH may carry a body set via [WithBody].
func WithMethod(method string) EndpointOption {
	return func(cfg *endpointConfig) error {
		switch method {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET, POST, PUT, DELETE, or PATCH")
		}
	}
}

// WithHeader adds a header template sent with every poll request.
//
// The value is a template rendered per tick, so dynamic headers like
// signatures over the timestamp are possible. Template syntax is validated
// immediately.
//
// Example:
//
//	httpagent.WithHeader("Authorization", "Bearer {{.Vars.token}}"),
func WithHeader(name, valueTemplate string) EndpointOption {
	return func(cfg *endpointConfig) error {
		if name == "" {
			return errors.New("header name cannot be empty")
		}
		if err := render.Validate(valueTemplate); err != nil {
			return errors.New("invalid template for header " + name + ": " + err.Error())
		}
		cfg.headers[name] = valueTemplate
		return nil
	}
}

// WithBody sets the request body template for methods that carry a payload.
// Template syntax is validated immediately. The Content-Type header is
// derived from [WithContentType].
func WithBody(bodyTemplate string) EndpointOption {
	return func(cfg *endpointConfig) error {
		if err := render.Validate(bodyTemplate); err != nil {
			return errors.New("invalid body template: " + err.Error())
		}
		cfg.body = bodyTemplate
		return nil
	}
}

// WithContentType declares the endpoint's content type.
//
// The content type selects the Content-Type header on payload requests and
// the extraction strategy for responses: [ContentJSON] uses structured path
// queries, [ContentXML] uses markup selectors, [ContentForm] and
// [ContentText] return the raw body. Defaults to [ContentJSON].
func WithContentType(ct ContentType) EndpointOption {
	return func(cfg *endpointConfig) error {
		if !ct.valid() {
			return errors.New("content type must be json, xml, form, or text")
		}
		cfg.contentType = ct
		return nil
	}
}

// WithTimeout sets the HTTP request timeout for this endpoint.
//
// If the endpoint does not respond within this duration, the poll tick
// fails and all of the endpoint's sensors are published unavailable.
// Defaults to 10 seconds.
func WithTimeout(d time.Duration) EndpointOption {
	return func(cfg *endpointConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithInterval sets the poll interval for this endpoint.
//
// The interval is fixed: there is no backoff, and a failed tick is retried
// on the next scheduled tick. Must be at least 1 second and at most 24
// hours. Defaults to 60 seconds.
func WithInterval(d time.Duration) EndpointOption {
	return func(cfg *endpointConfig) error {
		if d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		if d > 24*time.Hour {
			return errors.New("interval must not exceed 24 hours")
		}
		cfg.interval = d
		return nil
	}
}

// WithInsecureTLS disables TLS certificate verification for this endpoint.
//
// Intended for local devices serving self-signed certificates. Leave
// verification on for anything reachable from an untrusted network.
func WithInsecureTLS() EndpointOption {
	return func(cfg *endpointConfig) error {
		cfg.insecureTLS = true
		return nil
	}
}

// WithVars sets static variables available to the endpoint's URL, header,
// and body templates as {{.Vars.name}}.
func WithVars(vars map[string]string) EndpointOption {
	return func(cfg *endpointConfig) error {
		if cfg.vars == nil {
			cfg.vars = make(map[string]string, len(vars))
		}
		for k, v := range vars {
			cfg.vars[k] = v
		}
		return nil
	}
}
