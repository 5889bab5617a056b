package wikipedia

import (
	"errors"
	"fmt"
)

// Fetch error kinds. A *FetchError always unwraps to exactly one of these.
var (
	ErrNotFound            = errors.New("article not found")
	ErrDisambiguation      = errors.New("ambiguous title")
	ErrUpstreamUnavailable = errors.New("summary service unavailable")
)

// FetchError describes a failed summary lookup.
type FetchError struct {
	Kind   error  // ErrNotFound, ErrDisambiguation or ErrUpstreamUnavailable
	Title  string // title as requested
	Status int    // upstream HTTP status, 0 when no response was received
	Err    error  // underlying transport or decode error, if any
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case ErrNotFound:
		return fmt.Sprintf("no article found for %q", e.Title)
	case ErrDisambiguation:
		return fmt.Sprintf("%q is ambiguous, please use a more specific title", e.Title)
	}
	if e.Status != 0 {
		return fmt.Sprintf("summary service returned status %d for %q", e.Status, e.Title)
	}
	if e.Err != nil {
		return fmt.Sprintf("summary service request for %q failed: %v", e.Title, e.Err)
	}
	return fmt.Sprintf("summary service request for %q failed", e.Title)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
