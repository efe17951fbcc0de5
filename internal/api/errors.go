package api

import "fmt"

// ErrorKind classifies a request failure.
type ErrorKind int

const (
	// KindTransport means no response was received (DNS, connection
	// refused, timeout before headers).
	KindTransport ErrorKind = iota
	// KindHTTPStatus means a response was received with a status outside
	// the success range.
	KindHTTPStatus
	// KindPayload means the response arrived but its body could not be
	// decoded.
	KindPayload
)

// String returns a string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "Transport"
	case KindHTTPStatus:
		return "HTTPStatus"
	case KindPayload:
		return "Payload"
	default:
		return "Unknown"
	}
}

// RequestError is the single error shape every request failure collapses
// into. Text is always populated with the most specific message available.
// StatusCode and Status are zero/empty for transport failures.
type RequestError struct {
	Kind       ErrorKind
	Method     string
	Path       string
	StatusCode int
	Status     string
	Text       string
}

// Error implements the error interface
func (e *RequestError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Status, e.Text)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Text)
}

func newTransportError(method, path string) *RequestError {
	return &RequestError{
		Kind:   KindTransport,
		Method: method,
		Path:   path,
		Text:   "network error",
	}
}
