// Package httpagent turns arbitrary HTTP endpoints into published sensor
// entities for a home automation host.
//
// The engine polls each configured endpoint on a fixed interval, extracts
// one or more values from every response, coerces them to declared value
// types, and publishes them through a pluggable [Publisher]. It is designed
// as an SDK-first library with immutable configuration types and composable
// setup via the functional options pattern.
//
// # Quick Start
//
// Define an endpoint, its sensors, and run an agent with graceful shutdown:
//
//	ep, _ := httpagent.NewEndpoint("https://wttr.in/Seattle?format=j1")
//	temp, _ := httpagent.NewSensor("Seattle Temperature", "current_condition.0.temp_C",
//	    httpagent.WithSensorKind(httpagent.KindNumber),
//	    httpagent.WithUnit("°C"),
//	)
//
//	entry, _ := httpagent.NewEntry("weather", ep, []httpagent.Sensor{temp})
//	agent, _ := httpagent.New(httpagent.WithEntry(entry))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	agent.Start(ctx) // blocks until context is cancelled
//
// # Templates
//
// The endpoint URL, header values, and request body are text/template
// strings rendered per tick against a closed context: the current UTC time
// ({{.Now}}), the previous response ({{.LastBody}}, {{.LastStatus}}), and
// the endpoint's static variables ({{.Vars.name}}).
//
// # Extraction
//
// A sensor's expression is interpreted according to the endpoint's content
// type: a dot-notation path for JSON, a CSS selector with optional "@attr"
// suffix for XML/HTML, and ignored for raw text (the trimmed body is the
// value). When a selector matches multiple nodes the first match wins.
//
// # Failure scoping
//
// A template or transport failure marks every sensor of the endpoint
// unavailable for that tick; an extraction or coercion failure affects only
// the failing sensor. A non-2xx response is recorded but its body is still
// offered to extraction. Failures never remove entities; removal happens
// only through reconfiguration ([Entry.Apply]) or [Entry.Teardown], and
// only for identifiers the entry itself owns.
//
// # Architecture
//
// The engine consists of several internal packages (under internal/):
//
//   - internal/render: request template evaluation
//   - internal/poller: HTTP client and per-endpoint tick coordinator
//   - internal/state: last-known entity state registry with pub/sub
//   - internal/server: diagnostics HTTP API (JSON snapshot + SSE stream)
//   - internal/hass: Home Assistant REST publisher
//
// The public API lives entirely in this package; the config package builds
// entries from YAML for the command line front end.
package httpagent
