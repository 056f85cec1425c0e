package practicum

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const (
	keyHomeworks   = "homeworks"
	keyCurrentDate = "current_date"
	keyName        = "homework_name"
	keyStatus      = "status"
)

// denialFields are checked in order; the first present one wins.
var denialFields = []string{"error", "code"}

// Payload is a decoded response body.
//
// It keeps the raw JSON value so that shape checks happen explicitly in
// Validate rather than implicitly during decoding.
type Payload struct {
	v any
}

// NewPayload wraps an already decoded JSON value. Numbers should be json.Number.
func NewPayload(v any) Payload { return Payload{v: v} }

// DecodePayload parses a JSON document, keeping numbers exact.
func DecodePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Payload{}, err
	}
	return Payload{v: v}, nil
}

func (p Payload) object() (map[string]any, bool) {
	m, ok := p.v.(map[string]any)
	return m, ok
}

// Field returns a top-level field. It reports false for non-mapping payloads.
func (p Payload) Field(name string) (any, bool) {
	m, ok := p.object()
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

// Denial returns the first server-side denial field present in the payload.
func (p Payload) Denial() (field string, value any, ok bool) {
	for _, f := range denialFields {
		if v, present := p.Field(f); present {
			return f, v, true
		}
	}
	return "", nil, false
}

// CurrentDate returns the server-reported cursor. It reports false when the
// field is absent or not an integer.
func (p Payload) CurrentDate() (int64, bool) {
	v, ok := p.Field(keyCurrentDate)
	if !ok {
		return 0, false
	}
	return asInt64(v)
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// WorkItem is one entry of the "homeworks" list, kept as decoded.
type WorkItem struct {
	v any
}

// NewWorkItem wraps a decoded list element.
func NewWorkItem(v any) WorkItem { return WorkItem{v: v} }

func (w WorkItem) str(field string) (string, error) {
	m, ok := w.v.(map[string]any)
	if !ok {
		return "", &MissingFieldError{Field: field}
	}
	s, ok := m[field].(string)
	if !ok {
		return "", &MissingFieldError{Field: field}
	}
	return s, nil
}

// Name returns homework_name.
func (w WorkItem) Name() (string, error) { return w.str(keyName) }

// Status returns the raw status code.
func (w WorkItem) Status() (string, error) { return w.str(keyStatus) }

// Validate checks the payload shape and returns the work items in server order.
// An empty list is valid.
func Validate(p Payload) ([]WorkItem, error) {
	m, ok := p.object()
	if !ok {
		return nil, &ShapeError{Kind: NotAMapping, Got: jsonType(p.v)}
	}
	raw, ok := m[keyHomeworks]
	if !ok {
		return nil, &ShapeError{Kind: MissingKey, Key: keyHomeworks}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &ShapeError{Kind: NotAList, Key: keyHomeworks, Got: jsonType(raw)}
	}
	items := make([]WorkItem, len(list))
	for i, v := range list {
		items[i] = WorkItem{v: v}
	}
	return items, nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return "unknown"
	}
}
