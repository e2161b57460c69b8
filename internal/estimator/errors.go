package estimator

import (
	"errors"
	"fmt"
)

// ErrNoCredential means no API credential is configured. It selects the
// simulation path and is not treated as a failure.
var ErrNoCredential = errors.New("ANTHROPIC_API_KEY not configured")

// TransportFailure wraps errors that happened before an HTTP status was
// received: DNS, connection, TLS, cancellation.
type TransportFailure struct {
	Err error
}

func (e *TransportFailure) Error() string { return "transport failure: " + e.Err.Error() }
func (e *TransportFailure) Unwrap() error { return e.Err }

// HTTPStatusFailure is a non-2xx response from the API.
type HTTPStatusFailure struct {
	Code int
	Body string
}

func (e *HTTPStatusFailure) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api returned status %d", e.Code)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Code, e.Body)
}

// DecodeFailure means the response lacked a leading text content block.
type DecodeFailure struct {
	Reason string
}

func (e *DecodeFailure) Error() string { return "decode failure: " + e.Reason }

// ExtractionFailure means the model text held no parseable JSON object.
type ExtractionFailure struct {
	Err error
}

func (e *ExtractionFailure) Error() string { return "extraction failure: " + e.Err.Error() }
func (e *ExtractionFailure) Unwrap() error { return e.Err }
