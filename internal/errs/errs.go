package errs

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so the loop driver can branch on the
// failure class instead of matching message strings.
type Kind string

const (
	// KindFetch covers platform search/read failures.
	KindFetch Kind = "fetch"
	// KindDecision covers completion-backend failures inside the decision gate.
	KindDecision Kind = "decision"
	// KindDispatch covers posting failures while sending a reply chain.
	KindDispatch Kind = "dispatch"
	// KindPersistence covers cursor, memory and transcript write failures.
	// These are logged but never abort the pipeline.
	KindPersistence Kind = "persistence"
)

// Error wraps an underlying failure with its pipeline kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Fetch wraps err as a fetch-kind error. Wrapping nil returns nil.
func Fetch(err error) error { return wrap(KindFetch, err) }

// Decision wraps err as a decision-kind error.
func Decision(err error) error { return wrap(KindDecision, err) }

// Dispatch wraps err as a dispatch-kind error.
func Dispatch(err error) error { return wrap(KindDispatch, err) }

// Persistence wraps err as a persistence-kind error.
func Persistence(err error) error { return wrap(KindPersistence, err) }

func wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of err, or an empty kind when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is classified with the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }
