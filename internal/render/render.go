// Package render evaluates the request templates (URL, headers, body) that
// turn a static endpoint definition into a concrete HTTP request per tick.
//
// Rendering is side-effect-free and deterministic: everything dynamic
// (current time, previous response) enters through the explicit [Context]
// record, never through template functions that read ambient state.
package render

import (
	"bytes"
	"text/template"
	"time"
)

// Context is the enumerated set of values a request template may reference.
//
// Keeping the context a closed record, rather than an open variable lookup,
// makes unknown references a parse/render-time error instead of a silent
// empty string.
type Context struct {
	// Now is the current UTC timestamp at the start of the tick.
	Now time.Time

	// LastBody is the body of the previous successful fetch for the same
	// endpoint. Empty on the first tick, so templates referencing it
	// render as empty rather than failing.
	LastBody string

	// LastStatus is the HTTP status code of the previous fetch.
	// Zero on the first tick.
	LastStatus int

	// Vars holds the endpoint's static variables, referenced as
	// {{.Vars.name}}. A reference to an absent variable is a render
	// error.
	Vars map[string]string
}

// Validate parses a template without executing it, surfacing syntax errors
// at configuration time.
func Validate(tmpl string) error {
	_, err := template.New("").Option("missingkey=error").Parse(tmpl)
	return err
}

// Render evaluates a template against the tick context.
//
// missingkey=error makes references to undefined Vars entries fail the
// render rather than producing "<no value>". Optional values can be
// expressed with the template's own constructs, e.g.
// {{with index .Vars "token"}}{{.}}{{end}}.
func Render(name, tmpl string, rctx Context) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, rctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Value renders a sensor value template. The coerced state is available as
// {{.Value}} alongside the regular tick context.
func Value(tmpl, value string, rctx Context) (string, error) {
	t, err := template.New("value").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}

	data := struct {
		Value string
		Context
	}{Value: value, Context: rctx}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
