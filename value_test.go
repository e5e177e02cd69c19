package httpagent

import (
	"errors"
	"testing"
)

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       string
		wantNumber float64
	}{
		{"integer", "21", "21", 21},
		{"decimal", "21.5", "21.5", 21.5},
		{"canonicalized trailing zero", "21.50", "21.5", 21.5},
		{"negative", "-3.2", "-3.2", -3.2},
		{"whitespace trimmed", "  14 \n", "14", 14},
		{"scientific notation", "1e3", "1000", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, TypeNumeric)
			if err != nil {
				t.Fatalf("Coerce(%q, numeric) error = %v", tt.raw, err)
			}
			if got.State != tt.want {
				t.Errorf("Coerce(%q).State = %q, want %q", tt.raw, got.State, tt.want)
			}
			if got.Number != tt.wantNumber {
				t.Errorf("Coerce(%q).Number = %v, want %v", tt.raw, got.Number, tt.wantNumber)
			}
		})
	}
}

func TestCoerceBoolean(t *testing.T) {
	trueCases := []string{"true", "True", "TRUE", "on", "yes", "1", "active", "open", " on "}
	falseCases := []string{"false", "off", "no", "0", "inactive", "closed", "OFF"}

	for _, raw := range trueCases {
		t.Run("true/"+raw, func(t *testing.T) {
			got, err := Coerce(raw, TypeBoolean)
			if err != nil {
				t.Fatalf("Coerce(%q, boolean) error = %v", raw, err)
			}
			if got.State != "true" || !got.Bool {
				t.Errorf("Coerce(%q) = %+v, want true", raw, got)
			}
		})
	}

	for _, raw := range falseCases {
		t.Run("false/"+raw, func(t *testing.T) {
			got, err := Coerce(raw, TypeBoolean)
			if err != nil {
				t.Fatalf("Coerce(%q, boolean) error = %v", raw, err)
			}
			if got.State != "false" || got.Bool {
				t.Errorf("Coerce(%q) = %+v, want false", raw, got)
			}
		})
	}
}

func TestCoerceText(t *testing.T) {
	got, err := Coerce("  Partly cloudy \n", TypeText)
	if err != nil {
		t.Fatalf("Coerce(text) error = %v", err)
	}
	if got.State != "Partly cloudy" {
		t.Errorf("Coerce(text).State = %q, want trimmed passthrough", got.State)
	}
}

func TestCoerceFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		typ  ValueType
	}{
		{"not a number", "twenty-one", TypeNumeric},
		{"empty numeric", "", TypeNumeric},
		{"unrecognized boolean token", "maybe", TypeBoolean},
		{"numeric-ish boolean", "2", TypeBoolean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce(tt.raw, tt.typ)
			if err == nil {
				t.Fatalf("Coerce(%q, %s) expected error, got nil", tt.raw, tt.typ)
			}

			// a present-but-wrong value is a coercion error, never "not found"
			var cerr *CoercionError
			if !errors.As(err, &cerr) {
				t.Fatalf("error type = %T, want *CoercionError", err)
			}
			if KindOf(err) != ErrorCoercion {
				t.Errorf("KindOf = %v, want %v", KindOf(err), ErrorCoercion)
			}
		})
	}
}
