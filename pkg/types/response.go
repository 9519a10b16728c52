// Package types holds the JSON envelopes every API response is wrapped in.
package types

// SuccessEnvelope wraps a payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public side of a typed error. Retryable tells the client a
// repeat may succeed, e.g. after a store id race; RequestID matches the
// server log entry for the failure.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
