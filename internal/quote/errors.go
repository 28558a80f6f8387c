package quote

import (
	"errors"
	"fmt"
)

// Kind classifies why a lookup failed.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindTransport
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed response"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a *LookupError.
var (
	ErrNotFound  = errors.New("not found")
	ErrTransport = errors.New("transport failure")
	ErrMalformed = errors.New("malformed response")
)

// LookupError is the typed failure of every provider lookup.
type LookupError struct {
	Kind   Kind
	Source string
	Query  string
	Err    error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Kind)
	if e.Query != "" {
		msg += fmt.Sprintf(" (%q)", e.Query)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LookupError) Unwrap() error { return e.Err }

// Is lets callers match on the kind without caring about the cause.
func (e *LookupError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}

// NotFound reports that the upstream has no instrument matching query.
func NotFound(source, query string) *LookupError {
	return &LookupError{Kind: KindNotFound, Source: source, Query: query}
}

// Transport wraps a network, timeout or unexpected-status failure.
func Transport(source, query string, err error) *LookupError {
	return &LookupError{Kind: KindTransport, Source: source, Query: query, Err: err}
}

// Malformed wraps a payload that could not be decoded or mapped.
func Malformed(source, query string, err error) *LookupError {
	return &LookupError{Kind: KindMalformed, Source: source, Query: query, Err: err}
}

// AsLookupError returns err as a *LookupError, classifying anything
// else (context deadline, dial errors) as a transport failure.
func AsLookupError(source, query string, err error) *LookupError {
	if err == nil {
		return nil
	}
	var le *LookupError
	if errors.As(err, &le) {
		return le
	}
	return Transport(source, query, err)
}
