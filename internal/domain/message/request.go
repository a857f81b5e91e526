package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformed is returned when a payload is not a JSON object.
var ErrMalformed = errors.New("malformed message payload")

// Request is a structured message issued by embedded content.
// Fields holds every action-specific field except the action tag and the
// requested handler.
type Request struct {
	Action           Action
	RequestedHandler string
	Fields           map[string]any
}

// NewRequest creates a request for the given action.
func NewRequest(action Action, fields map[string]any) *Request {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Request{Action: action, Fields: fields}
}

// ParseRequest decodes a JSON object into a Request. Numbers are kept in
// their textual form so they can be placed into URLs unchanged.
func ParseRequest(data []byte) (*Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, ErrMalformed
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return FromMap(fields), nil
}

// FromMap builds a Request from an already decoded object.
func FromMap(fields map[string]any) *Request {
	req := &Request{Fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		switch k {
		case "action":
			if s, ok := v.(string); ok {
				req.Action = Action(s)
			}
		case "requestedHandler":
			if s, ok := v.(string); ok {
				req.RequestedHandler = s
			}
		default:
			req.Fields[k] = v
		}
	}
	return req
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Request) UnmarshalJSON(data []byte) error {
	parsed, err := ParseRequest(data)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// Map flattens the request back into its wire object.
func (r *Request) Map() map[string]any {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	if r.Action != "" {
		out["action"] = string(r.Action)
	}
	if r.RequestedHandler != "" {
		out["requestedHandler"] = r.RequestedHandler
	}
	return out
}

// IsEmpty reports whether the request carries nothing at all.
func (r *Request) IsEmpty() bool {
	return r == nil || (r.Action == "" && r.RequestedHandler == "" && len(r.Fields) == 0)
}

// ForUI returns a copy of the request re-targeted at the privileged UI layer.
func (r *Request) ForUI() *Request {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return &Request{Action: r.Action, RequestedHandler: HandlerUI, Fields: fields}
}

// TargetsUI reports whether the request was addressed to the UI layer.
func (r *Request) TargetsUI() bool {
	return r.RequestedHandler == HandlerUI
}

// Has reports whether a non-null field is present.
func (r *Request) Has(key string) bool {
	v, ok := r.Fields[key]
	return ok && v != nil
}

// Param returns the textual form of a scalar field.
func (r *Request) Param(key string) (string, bool) {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return "", false
	}
	return formatScalar(v)
}

// Text returns a field as a string, or "" when absent.
func (r *Request) Text(key string) string {
	s, _ := r.Param(key)
	return s
}

// Bool returns the truthiness of a field and whether it was present.
func (r *Request) Bool(key string) (bool, bool) {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return false, false
	}
	return truthy(v), true
}

// Strings returns a list field as strings. Scalars become a single element.
func (r *Request) Strings(key string) []string {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return nil
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []string:
		return append([]string(nil), t...)
	default:
		items = []any{t}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := formatScalar(item); ok {
			out = append(out, s)
		}
	}
	return out
}

// Set stores a field value.
func (r *Request) Set(key string, value any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[key] = value
}

func formatScalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// truthy mirrors how the embedded scripts coerce values to booleans.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return v != nil
	}
}
