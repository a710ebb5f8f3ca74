package worldbank

import "fmt"

// ErrorKind classifies upstream fetch failures so callers can tell
// "service unreachable" from "bad payload" if they want to, even though
// the fetcher coalesces both into an empty series at the boundary.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindParse     ErrorKind = "parse"
)

// FetchError is a typed upstream failure.
type FetchError struct {
	Kind   ErrorKind
	Status int // HTTP status for KindStatus, 0 otherwise
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("worldbank: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("worldbank: %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
