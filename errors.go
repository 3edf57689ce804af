package texgo

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when the cache has been closed.
	ErrClosed = errors.New("texture cache closed")
	// ErrNoFetcher is returned when a URL needs fetching but no fetcher
	// was configured.
	ErrNoFetcher = errors.New("no fetcher configured")
)

// DecodeError indicates malformed, unsupported or zero-dimension image
// bytes. The owning resource moves to StateFailed and consumers fall back
// to the constant texture for the resource's type; there is no automatic
// retry.
//
// The underlying error (if any) is available via errors.Unwrap.
type DecodeError struct {
	URL   string
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// FetchError indicates that content bytes could not be obtained for a URL.
//
// The underlying error (if any) is available via errors.Unwrap.
type FetchError struct {
	URL   string
	cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.cause)
}

func (e *FetchError) Unwrap() error { return e.cause }
