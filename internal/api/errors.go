package api

import "fmt"

// ValidationError reports a local precondition failure. No request is
// dispatched when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// AuthError is returned for any 401 response, regardless of endpoint.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "unauthorized"
	}
	return fmt.Sprintf("unauthorized: %s", e.Detail)
}

// ServerError is any non-2xx response other than 401. Detail carries the
// server-supplied message when one was present in the body.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server error: status %d", e.Status)
	}
	return fmt.Sprintf("server error: status %d: %s", e.Status, e.Detail)
}

// TransportError is a network-level failure before any response arrived.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TemplateError reports an endpoint template whose placeholders were not
// fully covered by the supplied URL parameters.
type TemplateError struct {
	Template string
	Missing  []string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("unresolved placeholders %v in template %q", e.Missing, e.Template)
}
