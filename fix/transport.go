package fix

import (
	"context"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/sirupsen/logrus"

	"github.com/ljm2ya/quickex-go/core"
	"github.com/ljm2ya/quickex-go/fixmap"
)

// sessionSender is the slice of SessionManager that Transport depends
// on. Narrow enough that tests can substitute a fake session without
// standing up a real FIX socket; *SessionManager satisfies it.
type sessionSender interface {
	IsLoggedOn() bool
	Send(msg *quickfix.Message) error
	OrderTimeout() time.Duration
}

// Transport is the FIX order mover: it composes a SessionManager and a
// Tracker into the core.Transport contract, following
// client/bybit/order.go's "build request, register correlation, send,
// await response" shape, adapted from a single WS request/response
// round trip to FIX's claim/send/await-ack discipline.
type Transport struct {
	session sessionSender
	tracker *Tracker
	log     *logrus.Entry
}

// NewTransport wires a FIX transport atop an already-constructed
// SessionManager/Tracker pair. The caller is responsible for having
// registered tracker as a MessageListener on session before Start.
func NewTransport(session sessionSender, tracker *Tracker) *Transport {
	return &Transport{
		session: session,
		tracker: tracker,
		log:     logrus.WithField("component", "fix.transport"),
	}
}

// Kind implements core.Transport.
func (t *Transport) Kind() core.Kind { return core.KindFIX }

// IsAvailable implements core.Transport: a logged-on session is
// necessary (not sufficient) for a send to succeed.
func (t *Transport) IsAvailable() bool { return t.session.IsLoggedOn() }

// CreateOrder implements core.Transport: register the correlation
// before sending, build and send the NewOrderSingle, then await the
// acknowledgment.
func (t *Transport) CreateOrder(ctx context.Context, req core.CreateOrderRequest) (core.Order, error) {
	if !t.IsAvailable() {
		return core.Order{}, core.ErrTransportUnavailable("fix session not logged on", nil)
	}
	if err := req.Validate(); err != nil {
		return core.Order{}, err
	}

	clOrdID := req.ClientOrderID
	if clOrdID == "" {
		clOrdID = fixmap.NewClientOrderID()
	}

	fixSide := fixmap.FIXSide(req.Action, req.Side)
	pending := NewPendingRequest(clOrdID, fixSide, req.Ticker, fixmap.OrderHint{
		Action: req.Action,
		Side:   req.Side,
		Known:  true,
	})
	t.tracker.Register(pending)

	msg := quickfix.NewMessage()
	if err := fixmap.PopulateNewOrderSingle(msg, clOrdID, req); err != nil {
		t.tracker.Consume(clOrdID)
		return core.Order{}, err
	}

	if err := t.session.Send(msg); err != nil {
		t.tracker.Consume(clOrdID)
		return core.Order{}, core.ErrTransportUnavailable("send NewOrderSingle failed", err)
	}

	order, err := t.awaitTimeout(ctx, pending, clOrdID)
	if err != nil {
		return core.Order{}, err
	}
	return order, nil
}

// CancelOrder implements core.Transport. exchangeOrderID must map, via
// an ExecutionReport that carried both ClOrdID and OrderID, to a
// ClOrdID this process registered with the tracker (whose Symbol/Side
// are cached in OrderMeta) — otherwise UnknownOrder.
func (t *Transport) CancelOrder(ctx context.Context, exchangeOrderID string) (core.Order, error) {
	if !t.IsAvailable() {
		return core.Order{}, core.ErrTransportUnavailable("fix session not logged on", nil)
	}

	origClOrdID, ok := t.tracker.ResolveClientID(exchangeOrderID)
	if !ok {
		return core.Order{}, core.ErrUnknownOrder(exchangeOrderID)
	}

	meta, ok := t.tracker.OrderMeta(origClOrdID)
	if !ok {
		return core.Order{}, core.ErrUnknownOrder(exchangeOrderID)
	}

	newClOrdID := fixmap.NewClientOrderID()
	pending := NewPendingRequest(newClOrdID, meta.FIXSide, meta.Symbol, meta.Hint)
	t.tracker.Register(pending)

	msg := quickfix.NewMessage()
	fixmap.PopulateOrderCancelRequest(msg, newClOrdID, origClOrdID, meta.Symbol, meta.FIXSide)

	if err := t.session.Send(msg); err != nil {
		t.tracker.Consume(newClOrdID)
		return core.Order{}, core.ErrTransportUnavailable("send OrderCancelRequest failed", err)
	}

	return t.awaitTimeout(ctx, pending, newClOrdID)
}

// CancelOrders implements core.Transport's best-effort batch cancel:
// one id's failure must never abort the rest, so each id is cancelled
// independently and failures are only logged.
func (t *Transport) CancelOrders(ctx context.Context, exchangeOrderIDs []string) error {
	for _, id := range exchangeOrderIDs {
		if _, err := t.CancelOrder(ctx, id); err != nil {
			t.log.WithError(err).WithField("exchangeOrderID", id).Warn("batch cancel: individual cancel failed")
		}
	}
	return nil
}

// AmendOrder implements core.Transport.
func (t *Transport) AmendOrder(ctx context.Context, exchangeOrderID string, req core.AmendOrderRequest) (core.Order, error) {
	if !t.IsAvailable() {
		return core.Order{}, core.ErrTransportUnavailable("fix session not logged on", nil)
	}
	if req.Empty() {
		return core.Order{}, core.ErrRejected("amend request has no fields set")
	}

	origClOrdID, ok := t.tracker.ResolveClientID(exchangeOrderID)
	if !ok {
		return core.Order{}, core.ErrUnknownOrder(exchangeOrderID)
	}

	meta, ok := t.tracker.OrderMeta(origClOrdID)
	if !ok {
		return core.Order{}, core.ErrUnknownOrder(exchangeOrderID)
	}

	newClOrdID := fixmap.NewClientOrderID()
	pending := NewPendingRequest(newClOrdID, meta.FIXSide, meta.Symbol, meta.Hint)
	t.tracker.Register(pending)

	msg := quickfix.NewMessage()
	fixmap.PopulateOrderCancelReplaceRequest(msg, newClOrdID, origClOrdID, meta.Symbol, meta.FIXSide, req)

	if err := t.session.Send(msg); err != nil {
		t.tracker.Consume(newClOrdID)
		return core.Order{}, core.ErrTransportUnavailable("send OrderCancelReplaceRequest failed", err)
	}

	return t.awaitTimeout(ctx, pending, newClOrdID)
}

// awaitTimeout waits on pending using the configured order timeout,
// consuming the pending entry once the wait resolves except on
// timeout, where the entry remains in place for eventual stale
// cleanup.
func (t *Transport) awaitTimeout(ctx context.Context, pending *PendingRequest, clOrdID string) (core.Order, error) {
	order, err := pending.Await(ctx, t.session.OrderTimeout())
	if err != nil {
		if te, ok := err.(*core.TransportError); ok && te.Kind == core.KindTimeout {
			return core.Order{}, err
		}
		t.tracker.Consume(clOrdID)
		return core.Order{}, err
	}
	t.tracker.Consume(clOrdID)
	return order, nil
}
