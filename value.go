package httpagent

import (
	"errors"
	"strconv"
	"strings"
)

// ValueType declares how an extracted string is interpreted before being
// published to the host platform.
type ValueType string

const (
	// TypeText publishes the extracted string unchanged.
	TypeText ValueType = "text"

	// TypeNumeric parses the extracted string as a floating point number.
	TypeNumeric ValueType = "numeric"

	// TypeBoolean parses the extracted string against fixed true/false
	// token sets (see Coerce).
	TypeBoolean ValueType = "boolean"

	// TypeEnum publishes the extracted string unchanged; the host platform
	// interprets the allowed set. Behaves like TypeText at coercion time.
	TypeEnum ValueType = "enum"
)

// String returns the string representation of the value type.
func (t ValueType) String() string {
	return string(t)
}

// valid reports whether t is a known value type.
func (t ValueType) valid() bool {
	switch t {
	case TypeText, TypeNumeric, TypeBoolean, TypeEnum:
		return true
	}
	return false
}

// Value is a coerced sensor reading. State holds the canonical string form
// published to the host platform; Number and Bool are populated according
// to Type.
type Value struct {
	Type   ValueType
	State  string
	Number float64
	Bool   bool
}

// Token sets for boolean coercion. "on"/"open"/"active" style tokens match
// what home automation platforms emit for binary states.
var (
	trueTokens  = []string{"true", "on", "yes", "1", "active", "open"}
	falseTokens = []string{"false", "off", "no", "0", "inactive", "closed"}
)

// Coerce converts a raw extracted string to the declared value type.
//
// Numeric values are parsed with strconv.ParseFloat and canonicalized
// (e.g. "21.50" becomes "21.5"). Boolean values are matched
// case-insensitively against fixed token sets and canonicalized to
// "true"/"false". Text and enum values pass through with surrounding
// whitespace trimmed.
//
// A failure returns a [CoercionError]; it is never reported as "not found",
// which is reserved for expressions that resolve to nothing.
func Coerce(raw string, t ValueType) (Value, error) {
	trimmed := strings.TrimSpace(raw)

	switch t {
	case TypeText, TypeEnum, "":
		return Value{Type: TypeText, State: trimmed}, nil

	case TypeNumeric:
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Value{}, &CoercionError{Type: t, Raw: raw, Err: err}
		}
		return Value{
			Type:   TypeNumeric,
			State:  strconv.FormatFloat(n, 'f', -1, 64),
			Number: n,
		}, nil

	case TypeBoolean:
		lower := strings.ToLower(trimmed)
		for _, tok := range trueTokens {
			if lower == tok {
				return Value{Type: TypeBoolean, State: "true", Bool: true}, nil
			}
		}
		for _, tok := range falseTokens {
			if lower == tok {
				return Value{Type: TypeBoolean, State: "false"}, nil
			}
		}
		return Value{}, &CoercionError{Type: t, Raw: raw, Err: errors.New("not a recognized boolean token")}

	default:
		return Value{}, &CoercionError{Type: t, Raw: raw, Err: errors.New("unknown value type")}
	}
}
