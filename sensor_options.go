package httpagent

import "errors"

// sensorConfig holds mutable state during sensor construction.
type sensorConfig struct {
	kind          Kind
	valueType     ValueType
	unit          string
	deviceClass   string
	icon          string
	valueTemplate string
	latExpr       string
	lngExpr       string
}

// SensorOption is a function that configures a [Sensor] during construction.
//
// SensorOption implements the functional options pattern. Options return an
// error if validation fails.
//
// Built-in options: [WithSensorKind], [WithSensorType], [WithUnit],
// [WithDeviceClass], [WithIcon], [WithValueTemplate], [WithLocation].
type SensorOption func(*sensorConfig) error

// WithSensorKind sets the host platform entity kind.
//
// Defaults to [KindSensor]. Binary sensors coerce extracted values to
// boolean and numbers to numeric unless [WithSensorType] overrides it.
// Device trackers additionally require [WithLocation].
func WithSensorKind(k Kind) SensorOption {
	return func(cfg *sensorConfig) error {
		if !k.valid() {
			return errors.New("kind must be sensor, binary_sensor, number, or device_tracker")
		}
		cfg.kind = k
		return nil
	}
}

// WithSensorType declares the value type extracted values are coerced to.
//
// If not specified, the kind's default applies. A coercion failure at poll
// time marks only this sensor unavailable; it is reported as a coercion
// error, never as "not found".
func WithSensorType(t ValueType) SensorOption {
	return func(cfg *sensorConfig) error {
		if !t.valid() {
			return errors.New("value type must be text, numeric, boolean, or enum")
		}
		cfg.valueType = t
		return nil
	}
}

// WithUnit sets the unit of measurement passed through to the host
// platform (e.g. "°C", "hPa", "%").
func WithUnit(unit string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.unit = unit
		return nil
	}
}

// WithDeviceClass sets the host platform device class (e.g. "temperature",
// "humidity"). The value is opaque to the engine.
func WithDeviceClass(class string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.deviceClass = class
		return nil
	}
}

// WithIcon sets the display icon. Icons without an "mdi:" prefix are
// normalized to one.
func WithIcon(icon string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.icon = icon
		return nil
	}
}

// WithValueTemplate sets a post-processing template applied to the coerced
// value before publishing. The coerced state is available as {{.Value}}.
//
// Example:
//
//	httpagent.WithValueTemplate(`{{.Value}} kt`)
func WithValueTemplate(tmpl string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.valueTemplate = tmpl
		return nil
	}
}

// WithLocation sets the latitude and longitude extraction expressions for
// a device tracker. Both expressions are evaluated against the same
// response as the main expression.
//
// Example:
//
//	httpagent.WithSensorKind(httpagent.KindTracker),
//	httpagent.WithLocation("position.lat", "position.lng"),
func WithLocation(latExpr, lngExpr string) SensorOption {
	return func(cfg *sensorConfig) error {
		if latExpr == "" || lngExpr == "" {
			return errors.New("WithLocation requires both latitude and longitude expressions")
		}
		cfg.latExpr = latExpr
		cfg.lngExpr = lngExpr
		return nil
	}
}
