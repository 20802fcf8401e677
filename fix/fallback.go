package fix

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ljm2ya/quickex-go/core"
)

// FallbackTransport composes a FIX transport with a secondary
// core.Transport (normally rest.Transport) under a "FIX first, HTTP
// fallback" policy: retry on the secondary only when the primary call
// failed with a Temporary error (transport unavailable), never on a
// Timeout or a terminal Rejected — a timeout leaves the order's fate on
// the primary transport uncertain, and retrying a rejection onto a
// different transport would resubmit an order the exchange already
// refused.
//
// Grounded on the composition pattern in examples/basic_usage.go,
// where a single PrivateClient is selected by config; generalized here
// into an actual runtime composite that fails over automatically
// rather than choosing once at startup.
type FallbackTransport struct {
	primary   core.Transport
	secondary core.Transport
	log       *logrus.Entry
}

// NewFallbackTransport composes primary (normally FIX) with secondary
// (normally REST).
func NewFallbackTransport(primary, secondary core.Transport) *FallbackTransport {
	return &FallbackTransport{
		primary:   primary,
		secondary: secondary,
		log:       logrus.WithField("component", "fix.fallback"),
	}
}

// Kind reports whichever transport would currently be used for a new
// call.
func (f *FallbackTransport) Kind() core.Kind {
	if f.primary.IsAvailable() {
		return f.primary.Kind()
	}
	return f.secondary.Kind()
}

// IsAvailable is the OR of both legs: the composite can accept a call
// as long as either leg could serve it.
func (f *FallbackTransport) IsAvailable() bool {
	return f.primary.IsAvailable() || f.secondary.IsAvailable()
}

func (f *FallbackTransport) shouldFallback(err error) bool {
	return err != nil && core.IsTemporary(err)
}

// CreateOrder tries primary first, falling back to secondary only on a
// temporary primary failure.
func (f *FallbackTransport) CreateOrder(ctx context.Context, req core.CreateOrderRequest) (core.Order, error) {
	order, err := f.primary.CreateOrder(ctx, req)
	if err == nil {
		return order, nil
	}
	if !f.shouldFallback(err) {
		return core.Order{}, err
	}
	f.log.WithError(err).Warn("primary transport unavailable, falling back to secondary for CreateOrder")
	return f.secondary.CreateOrder(ctx, req)
}

// CancelOrder tries primary first, falling back on a temporary failure.
// A secondary UnknownOrder on fallback is expected whenever the order
// was never seen over that leg and is returned as-is.
func (f *FallbackTransport) CancelOrder(ctx context.Context, exchangeOrderID string) (core.Order, error) {
	order, err := f.primary.CancelOrder(ctx, exchangeOrderID)
	if err == nil {
		return order, nil
	}
	if !f.shouldFallback(err) {
		return core.Order{}, err
	}
	f.log.WithError(err).Warn("primary transport unavailable, falling back to secondary for CancelOrder")
	return f.secondary.CancelOrder(ctx, exchangeOrderID)
}

// CancelOrders sends the whole batch to the primary when it reports
// available, otherwise to the secondary. An error from the primary's
// batch is returned as-is; the batch is not retried on the secondary.
func (f *FallbackTransport) CancelOrders(ctx context.Context, exchangeOrderIDs []string) error {
	if f.primary.IsAvailable() {
		return f.primary.CancelOrders(ctx, exchangeOrderIDs)
	}
	return f.secondary.CancelOrders(ctx, exchangeOrderIDs)
}

// AmendOrder tries primary first, falling back on a temporary failure.
func (f *FallbackTransport) AmendOrder(ctx context.Context, exchangeOrderID string, req core.AmendOrderRequest) (core.Order, error) {
	order, err := f.primary.AmendOrder(ctx, exchangeOrderID, req)
	if err == nil {
		return order, nil
	}
	if !f.shouldFallback(err) {
		return core.Order{}, err
	}
	f.log.WithError(err).Warn("primary transport unavailable, falling back to secondary for AmendOrder")
	return f.secondary.AmendOrder(ctx, exchangeOrderID, req)
}
