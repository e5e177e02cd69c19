package httpagent

import (
	"errors"
	"strings"
)

// Kind selects the host platform entity type a sensor maps to.
//
// The kinds mirror the platforms a home automation host typically offers
// for observed values. A kind implies a default value type: binary sensors
// coerce to boolean, numbers to numeric, everything else to text.
type Kind string

const (
	// KindSensor is a general observable value (text or numeric).
	KindSensor Kind = "sensor"

	// KindBinarySensor is an on/off value coerced to boolean.
	KindBinarySensor Kind = "binary_sensor"

	// KindNumber is a numeric value.
	KindNumber Kind = "number"

	// KindTracker is a location entity with latitude/longitude extracted
	// from the same response via dedicated expressions.
	KindTracker Kind = "device_tracker"
)

// valid reports whether k is a known kind.
func (k Kind) valid() bool {
	switch k {
	case KindSensor, KindBinarySensor, KindNumber, KindTracker:
		return true
	}
	return false
}

// defaultValueType returns the value type implied by the kind when the
// sensor does not declare one explicitly.
func (k Kind) defaultValueType() ValueType {
	switch k {
	case KindBinarySensor:
		return TypeBoolean
	case KindNumber:
		return TypeNumeric
	default:
		return TypeText
	}
}

// Sensor is one named value extracted from an endpoint's response.
//
// Sensor is immutable after creation via [NewSensor]. It belongs to exactly
// one endpoint configuration; its unique identifier is derived from the
// endpoint's request shape plus the extraction expression (see [SensorID]).
type Sensor struct {
	name          string
	expression    string
	kind          Kind
	valueType     ValueType
	unit          string
	deviceClass   string
	icon          string
	valueTemplate string
	latExpr       string
	lngExpr       string
}

// Name returns the sensor's display name.
func (s Sensor) Name() string { return s.name }

// Expression returns the extraction expression applied to responses.
func (s Sensor) Expression() string { return s.expression }

// Kind returns the host platform entity kind.
func (s Sensor) Kind() Kind { return s.kind }

// ValueType returns the declared value type. If none was declared, the
// kind's default applies (boolean for binary sensors, numeric for numbers,
// text otherwise).
func (s Sensor) ValueType() ValueType { return s.valueType }

// Unit returns the unit of measurement, passed through to the host
// platform unmodified. Empty if not set.
func (s Sensor) Unit() string { return s.unit }

// DeviceClass returns the host platform device class. Empty if not set.
func (s Sensor) DeviceClass() string { return s.deviceClass }

// Icon returns the display icon, normalized to an "mdi:" prefix.
// Empty if not set.
func (s Sensor) Icon() string { return s.icon }

// ValueTemplate returns the optional post-processing template applied to
// the coerced value before publishing. Empty if not set.
func (s Sensor) ValueTemplate() string { return s.valueTemplate }

// LocationExpressions returns the latitude and longitude extraction
// expressions for device trackers. Both empty for other kinds.
func (s Sensor) LocationExpressions() (lat, lng string) {
	return s.latExpr, s.lngExpr
}

// NewSensor creates a [Sensor] with the given name, extraction expression,
// and options.
//
// The expression's meaning depends on the owning endpoint's content type:
// a dot-notation path for JSON, a CSS selector (with optional "@attr") for
// markup, ignored for raw text.
//
// Example:
//
//	temp, err := httpagent.NewSensor("Outside Temperature", "current.temp_c",
//	    httpagent.WithSensorKind(httpagent.KindSensor),
//	    httpagent.WithSensorType(httpagent.TypeNumeric),
//	    httpagent.WithUnit("°C"),
//	    httpagent.WithDeviceClass("temperature"),
//	)
func NewSensor(name, expression string, opts ...SensorOption) (Sensor, error) {
	if name == "" {
		return Sensor{}, errors.New("sensor name cannot be empty")
	}

	cfg := &sensorConfig{kind: KindSensor}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Sensor{}, err
		}
	}

	if cfg.kind == KindTracker && (cfg.latExpr == "" || cfg.lngExpr == "") {
		return Sensor{}, errors.New("device trackers require latitude and longitude expressions")
	}

	valueType := cfg.valueType
	if valueType == "" {
		valueType = cfg.kind.defaultValueType()
	}

	icon := cfg.icon
	if icon != "" && !strings.HasPrefix(icon, "mdi:") {
		icon = "mdi:" + icon
	}

	return Sensor{
		name:          name,
		expression:    expression,
		kind:          cfg.kind,
		valueType:     valueType,
		unit:          cfg.unit,
		deviceClass:   cfg.deviceClass,
		icon:          icon,
		valueTemplate: cfg.valueTemplate,
		latExpr:       cfg.latExpr,
		lngExpr:       cfg.lngExpr,
	}, nil
}
