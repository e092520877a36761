package types

// Envelope is embedded by every response body so clients can branch on the
// success flag. Payload fields sit beside it at the top level.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func OK(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

// APIError is the machine-readable part of a failed response. Retryable
// tells clients the same request may succeed later.
type APIError struct {
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Envelope
	Error APIError `json:"error"`
}
