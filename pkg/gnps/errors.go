package gnps

import (
	"errors"
	"fmt"
)

// ErrRemoteFetch matches every *RemoteFetchError with errors.Is.
var ErrRemoteFetch = errors.New("gnps: remote fetch failed")

var (
	errStatus      = errors.New("unexpected status")
	errNotTabular  = errors.New("response is not tab separated text")
	errUnknownKind = errors.New("unknown result kind")
)

// RemoteFetchError is returned when a result file cannot be downloaded or parsed.
type RemoteFetchError struct {
	Task string
	Kind ResultKind

	// StatusCode is the HTTP status of the response, or 0 when no response was received.
	StatusCode int

	Cause error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf(
			"gnps: cannot fetch %s of task %s (status %d): %s",
			e.Kind.Name(), e.Task, e.StatusCode, e.Cause,
		)
	}
	return fmt.Sprintf("gnps: cannot fetch %s of task %s: %s", e.Kind.Name(), e.Task, e.Cause)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Cause
}

func (e *RemoteFetchError) Is(target error) bool {
	return target == ErrRemoteFetch
}
