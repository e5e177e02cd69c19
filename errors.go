package httpagent

import "fmt"

// ErrorKind classifies a poll failure for diagnostics.
//
// Every unavailable update published to the host platform carries the kind
// of the error that caused it, so a misbehaving endpoint can be diagnosed
// without digging through logs.
type ErrorKind string

const (
	// ErrorNone means no error occurred.
	ErrorNone ErrorKind = ""

	// ErrorTemplate indicates a URL, header, or body template failed to
	// render. This is a configuration-authoring mistake.
	ErrorTemplate ErrorKind = "template"

	// ErrorTimeout indicates the request exceeded the endpoint's timeout.
	ErrorTimeout ErrorKind = "timeout"

	// ErrorConnection indicates the request failed before a response was
	// received (DNS failure, refused connection, TLS error).
	ErrorConnection ErrorKind = "connection"

	// ErrorHTTPStatus indicates the endpoint returned a non-2xx response.
	// The response body is still available for extraction.
	ErrorHTTPStatus ErrorKind = "http_status"

	// ErrorParseFailed indicates the response body could not be parsed
	// in the endpoint's declared content type.
	ErrorParseFailed ErrorKind = "parse_failed"

	// ErrorNotFound indicates the extraction expression resolved to nothing.
	ErrorNotFound ErrorKind = "not_found"

	// ErrorCoercion indicates an extracted value could not be converted to
	// the sensor's declared value type. Distinct from ErrorNotFound: the
	// value was present but had the wrong shape.
	ErrorCoercion ErrorKind = "coercion"

	// ErrorInternal is the fallback kind for errors the engine does not
	// produce itself, such as a publisher failure surfaced to a caller.
	ErrorInternal ErrorKind = "internal"
)

// TemplateError is returned when a request template fails to render.
//
// Template errors are endpoint-scoped: all sensors of the endpoint go
// unavailable for the tick, but other endpoints are unaffected.
type TemplateError struct {
	// Field names the template that failed: "url", "body", or "header <name>".
	Field string
	Err   error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Field, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// FetchError is returned when an HTTP request fails or returns a non-2xx
// status. For ErrorHTTPStatus the response body is preserved so extraction
// can still be attempted against error payloads.
type FetchError struct {
	Kind ErrorKind // ErrorTimeout, ErrorConnection, or ErrorHTTPStatus

	// StatusCode is set for ErrorHTTPStatus, zero otherwise.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == ErrorHTTPStatus {
		return fmt.Sprintf("fetch: unexpected HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError is returned when a sensor's expression cannot be applied
// to the response body. Extraction errors are sensor-scoped: only the
// failing sensor goes unavailable.
type ExtractionError struct {
	Kind       ErrorKind // ErrorParseFailed or ErrorNotFound
	Expression string
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %q: %s: %v", e.Expression, e.Kind, e.Err)
	}
	return fmt.Sprintf("extract %q: %s", e.Expression, e.Kind)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// CoercionError is returned when an extracted value cannot be converted to
// the sensor's declared value type.
type CoercionError struct {
	Type ValueType
	Raw  string
	Err  error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coerce %q to %s: %v", e.Raw, e.Type, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// KindOf returns the [ErrorKind] for any error produced by the engine.
// Errors that are none of the engine's own types map to ErrorInternal
// rather than being mislabeled as a transport failure.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}
	switch e := err.(type) {
	case *TemplateError:
		return ErrorTemplate
	case *FetchError:
		return e.Kind
	case *ExtractionError:
		return e.Kind
	case *CoercionError:
		return ErrorCoercion
	default:
		return ErrorInternal
	}
}
