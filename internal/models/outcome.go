// internal/models/outcome.go
package models

import "errors"

var errUnknownFailure = errors.New("unknown failure")

// FetchOutcome is the terminal state of one fetch: either a value or the
// reason it could not be produced.
type FetchOutcome[T any] struct {
	value T
	err   error
}

func Success[T any](value T) FetchOutcome[T] {
	return FetchOutcome[T]{value: value}
}

// Failure records reason as the cause. A nil reason is replaced so that a
// failed outcome can never be mistaken for a success.
func Failure[T any](reason error) FetchOutcome[T] {
	if reason == nil {
		reason = errUnknownFailure
	}
	return FetchOutcome[T]{err: reason}
}

func (o FetchOutcome[T]) Ok() bool { return o.err == nil }

func (o FetchOutcome[T]) Value() T { return o.value }

func (o FetchOutcome[T]) Err() error { return o.err }

func (o FetchOutcome[T]) Get() (T, error) { return o.value, o.err }
