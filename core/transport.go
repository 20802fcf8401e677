package core

import "context"

// Transport is the contract every order mover implements, whether it
// moves orders over a persistent FIX session or over HTTP request/
// response: create/cancel/amend/batch-cancel plus availability and
// kind reporting.
type Transport interface {
	// CreateOrder submits a new limit order and returns it in its
	// acknowledged state. Fails with TransportUnavailable, Rejected,
	// Timeout, or Interrupted.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error)

	// CancelOrder cancels an order previously placed through this
	// transport (or, for rest.Transport, any order known to the
	// exchange). Fails additionally with UnknownOrder when the
	// transport cannot map the exchange id back to a client order id
	// it originated.
	CancelOrder(ctx context.Context, exchangeOrderID string) (Order, error)

	// CancelOrders cancels several orders. fix.Transport is best-effort
	// per id: it logs individual failures and returns nil. rest.Transport
	// sends one batch request and returns an error when that request
	// fails.
	CancelOrders(ctx context.Context, exchangeOrderIDs []string) error

	// AmendOrder changes price and/or count on a resting order.
	AmendOrder(ctx context.Context, exchangeOrderID string, req AmendOrderRequest) (Order, error)

	// IsAvailable reports whether the transport can accept a new
	// request right now. True is necessary but not sufficient for a
	// subsequent call to succeed.
	IsAvailable() bool

	// Kind identifies which concrete transport this is, for logging.
	Kind() Kind
}
