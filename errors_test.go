package httpagent

import (
	"errors"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ErrorNone},
		{"template", &TemplateError{Field: "url", Err: errors.New("x")}, ErrorTemplate},
		{"fetch timeout", &FetchError{Kind: ErrorTimeout, Err: errors.New("x")}, ErrorTimeout},
		{"fetch status", &FetchError{Kind: ErrorHTTPStatus, StatusCode: 503}, ErrorHTTPStatus},
		{"extraction not found", &ExtractionError{Kind: ErrorNotFound, Expression: "a.b"}, ErrorNotFound},
		{"coercion", &CoercionError{Type: TypeNumeric, Raw: "x", Err: errors.New("x")}, ErrorCoercion},
		{"unrecognized error is internal, not connection", errors.New("publisher broke"), ErrorInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}
