package httpagent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContentType declares how an endpoint's payload and responses are encoded.
// It selects both the Content-Type request header and the extraction
// strategy applied to responses.
type ContentType string

const (
	// ContentJSON treats responses as hierarchical JSON; expressions are
	// dot-notation paths with numeric array indices ("data.items.0.temp").
	ContentJSON ContentType = "json"

	// ContentXML treats responses as a markup tag tree; expressions are
	// CSS-style selectors with an optional trailing "@attribute"
	// ("current temperature", "station@id").
	ContentXML ContentType = "xml"

	// ContentForm sends form-encoded request bodies. Responses are
	// extracted with the raw strategy.
	ContentForm ContentType = "form"

	// ContentText sends plain text bodies and returns the whole response
	// body as the extracted value; the expression is ignored.
	ContentText ContentType = "text"
)

// MIME returns the Content-Type header value sent with request payloads.
func (c ContentType) MIME() string {
	switch c {
	case ContentJSON:
		return "application/json"
	case ContentXML:
		return "application/xml"
	case ContentForm:
		return "application/x-www-form-urlencoded"
	default:
		return "text/plain"
	}
}

// valid reports whether c is a known content type.
func (c ContentType) valid() bool {
	switch c {
	case ContentJSON, ContentXML, ContentForm, ContentText:
		return true
	}
	return false
}

// Extract applies a sensor's extraction expression to a raw response body.
//
// The strategy is selected by the declared content type. This is a closed
// set: adding a strategy means extending the switch here, not subclassing.
//
//   - ContentJSON: dot-notation path into parsed JSON. Returns an
//     [ExtractionError] of kind ErrorParseFailed if the body is not valid
//     JSON, ErrorNotFound if the path resolves to nothing.
//   - ContentXML: CSS selector, optionally followed by "@attr" to read an
//     attribute instead of text content. When the selector matches more
//     than one element the first in document order wins; multiple matches
//     are never an error. ErrorNotFound if nothing matches.
//   - ContentForm, ContentText: the whole body is returned as text and the
//     expression is ignored.
//
// Extract is a pure function of its inputs.
func Extract(body []byte, contentType ContentType, expression string) (string, error) {
	switch contentType {
	case ContentJSON:
		return extractJSONPath(body, expression)
	case ContentXML:
		return extractSelector(body, expression)
	case ContentForm, ContentText:
		return string(body), nil
	default:
		return "", &ExtractionError{
			Kind:       ErrorParseFailed,
			Expression: expression,
			Err:        fmt.Errorf("unknown content type %q", contentType),
		}
	}
}

// extractJSONPath walks parsed JSON using dot notation, with numeric
// segments indexing into arrays.
func extractJSONPath(body []byte, expression string) (string, error) {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", &ExtractionError{Kind: ErrorParseFailed, Expression: expression, Err: err}
	}

	current := data
	for _, part := range strings.Split(expression, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return "", &ExtractionError{Kind: ErrorNotFound, Expression: expression}
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return "", &ExtractionError{Kind: ErrorNotFound, Expression: expression}
			}
			current = node[idx]
		default:
			return "", &ExtractionError{Kind: ErrorNotFound, Expression: expression}
		}
	}

	return formatJSONLeaf(current, expression)
}

// formatJSONLeaf renders the value at the end of a path as a string.
// Scalars use their canonical text form; objects and arrays are re-encoded
// as compact JSON so attribute-style sensors can capture subtrees.
func formatJSONLeaf(v interface{}, expression string) (string, error) {
	switch leaf := v.(type) {
	case string:
		return leaf, nil
	case bool:
		if leaf {
			return "true", nil
		}
		return "false", nil
	case float64:
		return strconv.FormatFloat(leaf, 'f', -1, 64), nil
	case nil:
		// JSON null resolves to nothing, same as an absent path
		return "", &ExtractionError{Kind: ErrorNotFound, Expression: expression}
	default:
		encoded, err := json.Marshal(leaf)
		if err != nil {
			return "", &ExtractionError{Kind: ErrorParseFailed, Expression: expression, Err: err}
		}
		return string(encoded), nil
	}
}

// extractSelector applies a CSS selector to a markup document.
// An optional "@attr" suffix selects a named attribute instead of the
// element's text content.
func extractSelector(body []byte, expression string) (string, error) {
	selector := expression
	attr := ""
	if idx := strings.LastIndex(expression, "@"); idx != -1 {
		selector = expression[:idx]
		attr = expression[idx+1:]
	}
	if strings.TrimSpace(selector) == "" {
		return "", &ExtractionError{
			Kind:       ErrorParseFailed,
			Expression: expression,
			Err:        errors.New("empty selector"),
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", &ExtractionError{Kind: ErrorParseFailed, Expression: expression, Err: err}
	}

	// first match in document order wins; multiple matches are not an error
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", &ExtractionError{Kind: ErrorNotFound, Expression: expression}
	}

	if attr != "" {
		val, exists := sel.Attr(attr)
		if !exists {
			return "", &ExtractionError{Kind: ErrorNotFound, Expression: expression}
		}
		return val, nil
	}

	return strings.TrimSpace(sel.Text()), nil
}
