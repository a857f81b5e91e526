package message

// Envelope is the single reply delivered for a request.
// By convention exactly one of Result and Error is non-null.
type Envelope struct {
	Result any `json:"result"`
	Error  any `json:"error"`
}

// Success wraps a result value.
func Success(result any) Envelope {
	return Envelope{Result: result}
}

// Failure wraps an error value. A nil value still yields a failed envelope.
func Failure(err any) Envelope {
	if err == nil {
		err = "Unknown error"
	}
	return Envelope{Error: err}
}

// Fail wraps text as an {"error": text} object, the shape every
// failure produced inside the bridge takes.
func Fail(text string) Envelope {
	return Failure(map[string]any{"error": text})
}

// Failed reports whether the envelope carries an error.
func (e Envelope) Failed() bool {
	return e.Error != nil
}
