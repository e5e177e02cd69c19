package httpagent

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/httpagent/httpagent/internal/render"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultInterval    = 60 * time.Second
	defaultContentType = ContentJSON
)

// Endpoint is one configured HTTP source.
//
// Endpoint is immutable after creation via [NewEndpoint] and is replaced
// wholesale on reconfiguration; there is no partial field patching. The
// URL, header values, and body are templates rendered against the current
// tick's context (UTC timestamp, previous response, static variables).
//
// Endpoints are configured using the functional options pattern with
// [EndpointOption] functions such as [WithMethod], [WithHeader],
// [WithBody], [WithTimeout], [WithInterval], and [WithVars].
type Endpoint struct {
	urlTemplate  string
	method       string
	headers      map[string]string
	bodyTemplate string
	contentType  ContentType
	timeout      time.Duration
	interval     time.Duration
	vars         map[string]string
	insecureTLS  bool
}

// URLTemplate returns the endpoint's URL template string.
func (e Endpoint) URLTemplate() string { return e.urlTemplate }

// Method returns the HTTP method used for poll requests.
func (e Endpoint) Method() string { return e.method }

// Headers returns a copy of the endpoint's header templates.
// Returns nil if no custom headers are set.
func (e Endpoint) Headers() map[string]string { return copyMap(e.headers) }

// BodyTemplate returns the request body template. Empty for methods that
// carry no payload.
func (e Endpoint) BodyTemplate() string { return e.bodyTemplate }

// ContentType returns the declared content type, which selects both the
// request Content-Type header and the response extraction strategy.
func (e Endpoint) ContentType() ContentType { return e.contentType }

// Timeout returns the HTTP request timeout. Defaults to 10 seconds.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// Interval returns the poll interval. Defaults to 60 seconds.
func (e Endpoint) Interval() time.Duration { return e.interval }

// Vars returns a copy of the static variables available to this endpoint's
// templates as {{.Vars.name}}. Returns nil if none are set.
func (e Endpoint) Vars() map[string]string { return copyMap(e.vars) }

// InsecureTLS reports whether TLS certificate verification is disabled for
// this endpoint (see [WithInsecureTLS]).
func (e Endpoint) InsecureTLS() bool { return e.insecureTLS }

// methodHasPayload reports whether the method carries a request body.
func methodHasPayload(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// NewEndpoint creates an [Endpoint] with the given URL template and options.
//
// The URL may contain template actions ({{.Vars.station}}, {{.Now}}, ...);
// template syntax is validated at construction time so configuration
// mistakes surface before the first poll. If the URL contains no template
// actions it must parse as an absolute http(s) URL.
//
// Example:
//
//	ep, err := httpagent.NewEndpoint("https://api.example/metar?station={{.Vars.station}}",
//	    httpagent.WithVars(map[string]string{"station": "KSEA"}),
//	    httpagent.WithTimeout(5 * time.Second),
//	    httpagent.WithInterval(60 * time.Second),
//	)
func NewEndpoint(urlTemplate string, opts ...EndpointOption) (Endpoint, error) {
	if urlTemplate == "" {
		return Endpoint{}, errors.New("endpoint URL cannot be empty")
	}

	if err := render.Validate(urlTemplate); err != nil {
		return Endpoint{}, errors.New("invalid URL template: " + err.Error())
	}

	// literal URLs can be fully validated up front
	if !strings.Contains(urlTemplate, "{{") {
		parsed, err := url.Parse(urlTemplate)
		if err != nil {
			return Endpoint{}, errors.New("invalid URL: " + err.Error())
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return Endpoint{}, errors.New("URL scheme must be http or https")
		}
	}

	cfg := &endpointConfig{
		method:      "GET",
		headers:     make(map[string]string),
		contentType: defaultContentType,
		timeout:     defaultTimeout,
		interval:    defaultInterval,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Endpoint{}, err
		}
	}

	if cfg.body != "" && !methodHasPayload(cfg.method) {
		return Endpoint{}, errors.New("body requires method POST, PUT, or PATCH")
	}

	return Endpoint{
		urlTemplate:  urlTemplate,
		method:       cfg.method,
		headers:      cfg.headers,
		bodyTemplate: cfg.body,
		contentType:  cfg.contentType,
		timeout:      cfg.timeout,
		interval:     cfg.interval,
		vars:         cfg.vars,
		insecureTLS:  cfg.insecureTLS,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
