package dispatch

import (
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
)

// EmptyResponse is the error reported for an empty node response.
const EmptyResponse = "Empty response"

// Shape turns a node response body into an envelope. JSON bodies are
// decoded, anything else is passed through as text. A decoded object with a
// non-null "error" member is a failure whose error is the whole object.
func Shape(body string) message.Envelope {
	if strings.TrimSpace(body) == "" {
		return message.Fail(EmptyResponse)
	}

	var v any
	if err := sonic.UnmarshalString(body, &v); err != nil {
		return message.Success(body)
	}
	return ShapeValue(v)
}

// ShapeValue applies the error-member rule to an already decoded value.
func ShapeValue(v any) message.Envelope {
	if v == nil {
		return message.Fail(EmptyResponse)
	}
	if obj, ok := v.(map[string]any); ok {
		if e, has := obj["error"]; has && e != nil {
			return message.Failure(obj)
		}
	}
	return message.Success(v)
}
