package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind enumerates the Transport failure taxonomy.
type ErrorKind string

const (
	KindTransportUnavailable ErrorKind = "transport_unavailable"
	KindRejected             ErrorKind = "rejected"
	KindTimeout              ErrorKind = "timeout"
	KindUnknownOrder         ErrorKind = "unknown_order"
	KindInterrupted          ErrorKind = "interrupted"
)

// TransportError is the single typed error every Transport method
// fails with. It wraps an underlying cause (if any) with
// github.com/pkg/errors so log sites retain a stack trace.
type TransportError struct {
	Kind   ErrorKind
	Reason string
	cause  error
}

func (e *TransportError) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
// github.com/pkg/errors.Cause does not follow Unwrap, so it stops at the
// *TransportError itself (which IsTemporary relies on).
func (e *TransportError) Unwrap() error { return e.cause }

// Temporary reports whether the fallback transport should consider
// retrying the call on a secondary transport. Only unavailability is
// temporary. A timeout leaves the caller unsure whether the primary
// transport ultimately accepted the order, so retrying it on the
// secondary could resubmit a live order; the caller observes the
// timeout instead. A rejection is a terminal exchange-side refusal and
// must never be retried either (retrying would replay a rejected order
// on the secondary).
func (e *TransportError) Temporary() bool {
	return e.Kind == KindTransportUnavailable
}

func newTransportError(kind ErrorKind, reason string, cause error) *TransportError {
	te := &TransportError{Kind: kind, Reason: reason, cause: cause}
	if cause != nil {
		te.cause = errors.WithStack(cause)
	}
	return te
}

func ErrTransportUnavailable(reason string, cause error) *TransportError {
	return newTransportError(KindTransportUnavailable, reason, cause)
}

func ErrRejected(reason string) *TransportError {
	return newTransportError(KindRejected, reason, nil)
}

func ErrTimeout() *TransportError {
	return newTransportError(KindTimeout, "", nil)
}

func ErrUnknownOrder(exchangeOrderID string) *TransportError {
	return newTransportError(KindUnknownOrder, "no local correlation for "+exchangeOrderID, nil)
}

func ErrInterrupted(cause error) *TransportError {
	return newTransportError(KindInterrupted, "", cause)
}

// IsTemporary classifies any error (not just *TransportError) via the
// Temporary() interface, using errors.Cause to see through wrapping.
func IsTemporary(err error) bool {
	type temporary interface{ Temporary() bool }
	te, ok := errors.Cause(err).(temporary)
	return ok && te.Temporary()
}
