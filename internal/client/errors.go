package client

import (
	"errors"
	"fmt"
)

// TransportError covers network and HTTP-level failures against an
// external service.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure calling %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ShapeError covers responses that parsed but did not match any
// recognized shape.
type ShapeError struct {
	Endpoint string
	Detail   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unrecognized response shape from %s: %s", e.Endpoint, e.Detail)
}

// FailureReason classifies an error for metric labels
func FailureReason(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return "transport"
	}
	var se *ShapeError
	if errors.As(err, &se) {
		return "shape"
	}
	return "unknown"
}
