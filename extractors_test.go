package httpagent

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	body := `{
		"station": "KSEA",
		"current": {
			"temp_c": 21.5,
			"humidity": 60,
			"raining": false,
			"summary": "Partly cloudy",
			"wind": {"speed_kt": 8, "gusts": null}
		},
		"forecast": [
			{"day": "mon", "high": 24},
			{"day": "tue", "high": 19}
		]
	}`

	tests := []struct {
		name       string
		expression string
		want       string
	}{
		{"top-level string", "station", "KSEA"},
		{"nested float", "current.temp_c", "21.5"},
		{"nested int-valued float", "current.humidity", "60"},
		{"nested bool", "current.raining", "false"},
		{"nested string", "current.summary", "Partly cloudy"},
		{"deep nesting", "current.wind.speed_kt", "8"},
		{"array index", "forecast.0.day", "mon"},
		{"array index then field", "forecast.1.high", "19"},
		{"subtree re-encoded", "current.wind", `{"gusts":null,"speed_kt":8}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract([]byte(body), ContentJSON, tt.expression)
			if err != nil {
				t.Fatalf("Extract(%q) error = %v", tt.expression, err)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.expression, got, tt.want)
			}
		})
	}
}

func TestExtractJSONErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		expression string
		wantKind   ErrorKind
	}{
		{"invalid json", `{"temp":`, "temp", ErrorParseFailed},
		{"html error page", `<html><body>502</body></html>`, "temp", ErrorParseFailed},
		{"missing key", `{"current": {}}`, "current.temp_c", ErrorNotFound},
		{"missing top-level key", `{"current": {}}`, "forecast", ErrorNotFound},
		{"index out of range", `{"days": [1, 2]}`, "days.5", ErrorNotFound},
		{"negative index", `{"days": [1, 2]}`, "days.-1", ErrorNotFound},
		{"non-numeric index into array", `{"days": [1, 2]}`, "days.first", ErrorNotFound},
		{"path into scalar", `{"temp": 21}`, "temp.value", ErrorNotFound},
		{"null leaf", `{"temp": null}`, "temp", ErrorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.body), ContentJSON, tt.expression)
			if err == nil {
				t.Fatalf("Extract(%q) expected error, got nil", tt.expression)
			}

			var extErr *ExtractionError
			if !errors.As(err, &extErr) {
				t.Fatalf("Extract(%q) error type = %T, want *ExtractionError", tt.expression, err)
			}
			if extErr.Kind != tt.wantKind {
				t.Errorf("Extract(%q) error kind = %v, want %v", tt.expression, extErr.Kind, tt.wantKind)
			}
		})
	}
}

func TestExtractSelector(t *testing.T) {
	body := `<response>
		<station id="KSEA" name="Seattle-Tacoma">
			<temperature unit="c">21.5</temperature>
			<sky>overcast</sky>
		</station>
		<station id="KJFK" name="JFK">
			<temperature unit="c">28.0</temperature>
			<sky>clear</sky>
		</station>
	</response>`

	tests := []struct {
		name       string
		expression string
		want       string
	}{
		{"element text", "sky", "overcast"},
		{"nested selector", "station temperature", "21.5"},
		{"attribute", "station@id", "KSEA"},
		{"attribute with selector", "station temperature@unit", "c"},
		{"first match wins on multiple", "temperature", "21.5"},
		{"id-qualified selector", `station[id="KJFK"] sky`, "clear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract([]byte(body), ContentXML, tt.expression)
			if err != nil {
				t.Fatalf("Extract(%q) error = %v", tt.expression, err)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.expression, got, tt.want)
			}
		})
	}
}

func TestExtractSelectorErrors(t *testing.T) {
	body := `<station id="KSEA"><sky>overcast</sky></station>`

	tests := []struct {
		name       string
		expression string
		wantKind   ErrorKind
	}{
		{"no match", "temperature", ErrorNotFound},
		{"missing attribute", "station@missing", ErrorNotFound},
		{"empty selector before attr", "@id", ErrorParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(body), ContentXML, tt.expression)
			if err == nil {
				t.Fatalf("Extract(%q) expected error, got nil", tt.expression)
			}

			var extErr *ExtractionError
			if !errors.As(err, &extErr) {
				t.Fatalf("Extract(%q) error type = %T, want *ExtractionError", tt.expression, err)
			}
			if extErr.Kind != tt.wantKind {
				t.Errorf("Extract(%q) error kind = %v, want %v", tt.expression, extErr.Kind, tt.wantKind)
			}
		})
	}
}

func TestExtractRawContentTypes(t *testing.T) {
	body := "KSEA 251653Z 24008KT 10SM FEW035 21/12 A3012"

	for _, ct := range []ContentType{ContentText, ContentForm} {
		t.Run(string(ct), func(t *testing.T) {
			got, err := Extract([]byte(body), ct, "ignored.expression")
			if err != nil {
				t.Fatalf("Extract error = %v", err)
			}
			if got != body {
				t.Errorf("Extract = %q, want whole body", got)
			}
		})
	}
}

func TestContentTypeMIME(t *testing.T) {
	tests := []struct {
		ct   ContentType
		want string
	}{
		{ContentJSON, "application/json"},
		{ContentXML, "application/xml"},
		{ContentForm, "application/x-www-form-urlencoded"},
		{ContentText, "text/plain"},
	}

	for _, tt := range tests {
		if got := tt.ct.MIME(); got != tt.want {
			t.Errorf("%s.MIME() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}
