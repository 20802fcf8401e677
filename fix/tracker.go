package fix

import (
	"context"
	"sync"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/sirupsen/logrus"
	"github.com/thoas/go-funk"

	"github.com/ljm2ya/quickex-go/core"
	"github.com/ljm2ya/quickex-go/fixmap"
)

// tagMsgType is FIX tag 35, read directly off the header since the
// tracker dispatches before any version-specific dictionary is
// consulted.
const tagMsgType = quickfix.Tag(35)

const (
	msgTypeExecutionReport  = "8"
	msgTypeOrderCancelReject = "9"
	msgTypeSessionReject    = "3"
	msgTypeBusinessReject   = "j"
)

// Sink receives post-acknowledgement order updates: ExecutionReports
// that arrive after the originating request's promise has already
// resolved. At most one sink is registered; it must not block, and any
// panic is recovered and logged.
type Sink func(core.Order)

// PendingRequest is one in-flight operation awaiting correlation. The
// "first completion wins" contract is enforced by sync.Once, matching
// client/bybit/order.go's responseChans-keyed-by-id pattern, adapted
// from a channel-of-bytes to a channel-of-Order.
type PendingRequest struct {
	ClientOrderID string
	CreatedAt     time.Time

	// FIXSide/Symbol are cached because a follow-up cancel/amend
	// references only the exchange order id, yet FIX requires Side and
	// Symbol on the cancel/replace message.
	FIXSide string
	Symbol  string
	Hint    fixmap.OrderHint

	once   sync.Once
	done   chan struct{}
	result core.Order
	err    error
}

// NewPendingRequest allocates a pending entry for clOrdID.
func NewPendingRequest(clOrdID, fixSide, symbol string, hint fixmap.OrderHint) *PendingRequest {
	return &PendingRequest{
		ClientOrderID: clOrdID,
		CreatedAt:     time.Now(),
		FIXSide:       fixSide,
		Symbol:        symbol,
		Hint:          hint,
		done:          make(chan struct{}),
	}
}

// complete resolves the promise with a terminal Order. Returns false if
// it was already resolved.
func (p *PendingRequest) complete(order core.Order) bool {
	resolved := false
	p.once.Do(func() {
		p.result = order
		close(p.done)
		resolved = true
	})
	return resolved
}

// fail resolves the promise with an error. Same first-wins semantics.
func (p *PendingRequest) fail(err error) bool {
	resolved := false
	p.once.Do(func() {
		p.err = err
		close(p.done)
		resolved = true
	})
	return resolved
}

// Await blocks until the promise resolves, the deadline passes, or ctx
// is cancelled.
func (p *PendingRequest) Await(ctx context.Context, timeout time.Duration) (core.Order, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return p.result, p.err
	case <-timer.C:
		return core.Order{}, core.ErrTimeout()
	case <-ctx.Done():
		return core.Order{}, core.ErrInterrupted(ctx.Err())
	}
}

// correlationMeta is the slice of a PendingRequest that a later
// cancel/amend still needs after the original request has resolved and
// been consumed: FIX requires Symbol and Side on a cancel/replace even
// though the caller supplied only the exchange order id.
type correlationMeta struct {
	FIXSide string
	Symbol  string
	Hint    fixmap.OrderHint
}

// Tracker is the correlation engine: it owns the pending table and
// both correlation maps exclusively. The pending table uses a
// mutex-guarded map + copy-on-read shape, and the resolve-by-id flow
// follows client/bybit/order.go's request-id keyed correlation.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]*PendingRequest

	// clientToExchange/exchangeToClient/meta are never purged during
	// session life — after a session bounce with ResetOnLogon=true the
	// exchange may reuse order ids, which this map cannot detect; that
	// is a documented operational hazard, not a bug to paper over here.
	clientToExchange sync.Map
	exchangeToClient sync.Map
	meta             sync.Map // ClientOrderID -> correlationMeta

	sinkMu sync.Mutex
	sink   Sink

	log *logrus.Entry
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		pending: make(map[string]*PendingRequest),
		log:     logrus.WithField("component", "fix.tracker"),
	}
}

// SetSink registers the (single) post-ack update callback.
func (t *Tracker) SetSink(s Sink) {
	t.sinkMu.Lock()
	defer t.sinkMu.Unlock()
	t.sink = s
}

// Register inserts a pending request before the corresponding outbound
// message is sent. It also caches the request's FIXSide/Symbol/Hint in
// the never-purged meta map, outliving the pending entry itself so a
// cancel/amend sent after this request has already been acked and
// consumed can still recover them.
func (t *Tracker) Register(p *PendingRequest) {
	t.mu.Lock()
	t.pending[p.ClientOrderID] = p
	t.mu.Unlock()
	t.meta.Store(p.ClientOrderID, correlationMeta{FIXSide: p.FIXSide, Symbol: p.Symbol, Hint: p.Hint})
}

// Consume removes a pending entry once its caller has observed a
// terminal (non-timeout) result.
func (t *Tracker) Consume(clOrdID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, clOrdID)
}

// ResolveClientID looks up the ClientOrderID that placed exchangeID.
// UnknownOrder is the caller's responsibility to synthesize on a miss.
func (t *Tracker) ResolveClientID(exchangeOrderID string) (string, bool) {
	v, ok := t.exchangeToClient.Load(exchangeOrderID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// OriginatingPending returns the pending entry registered under
// clientOrderID, if the tracker still has it cached (it may have been
// consumed already, in which case only the id maps and OrderMeta
// survive).
func (t *Tracker) OriginatingPending(clientOrderID string) (*PendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[clientOrderID]
	return p, ok
}

// OrderMeta returns the FIXSide/Symbol/Hint cached for clientOrderID at
// Register time. Unlike OriginatingPending, this survives Consume, so
// a cancel/amend sent long after the original request was acked can
// still populate FIX's required Symbol/Side tags.
func (t *Tracker) OrderMeta(clientOrderID string) (correlationMeta, bool) {
	v, ok := t.meta.Load(clientOrderID)
	if !ok {
		return correlationMeta{}, false
	}
	return v.(correlationMeta), true
}

func (t *Tracker) lookupPending(clOrdID, origClOrdID string) (*PendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if clOrdID != "" {
		if p, ok := t.pending[clOrdID]; ok {
			return p, true
		}
	}
	if origClOrdID != "" {
		if p, ok := t.pending[origClOrdID]; ok {
			return p, true
		}
	}
	return nil, false
}

// SweepStale removes pending entries older than timeout, failing each
// with Timeout. Invoked externally on a fixed interval (e.g. once per
// second); the defensive backstop to the transport's per-call
// deadlines.
func (t *Tracker) SweepStale(timeout time.Duration) {
	type entry struct {
		id string
		p  *PendingRequest
	}

	t.mu.Lock()
	entries := make([]entry, 0, len(t.pending))
	for id, p := range t.pending {
		entries = append(entries, entry{id, p})
	}
	t.mu.Unlock()

	now := time.Now()
	stale, _ := funk.Filter(entries, func(e entry) bool {
		return now.Sub(e.p.CreatedAt) > timeout
	}).([]entry)

	for _, e := range stale {
		t.mu.Lock()
		delete(t.pending, e.id)
		t.mu.Unlock()
		e.p.fail(core.ErrTimeout())
	}
}

func (t *Tracker) emitSink(order core.Order) {
	t.sinkMu.Lock()
	sink := t.sink
	t.sinkMu.Unlock()
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.log.WithField("panic", r).Error("update sink panicked")
		}
	}()
	sink(order)
}

// OnMessage implements fix.MessageListener: it runs on the engine's
// inbound-message thread and must never block.
func (t *Tracker) OnMessage(msg *quickfix.Message, _ quickfix.SessionID) {
	defer func() {
		if r := recover(); r != nil {
			t.log.WithField("panic", r).Error("tracker OnMessage panicked")
		}
	}()

	msgType, err := msg.Header.GetString(tagMsgType)
	if err != nil {
		return
	}

	switch msgType {
	case msgTypeExecutionReport:
		t.handleExecutionReport(msg)
	case msgTypeOrderCancelReject:
		t.handleCancelReject(msg)
	case msgTypeSessionReject:
		t.log.Warn("session-level reject received")
	case msgTypeBusinessReject:
		t.log.Warn("business message reject received")
	default:
		t.log.WithField("msgType", msgType).Debug("ignoring non-order message")
	}
}

func (t *Tracker) handleExecutionReport(msg *quickfix.Message) {
	fields := fixmap.ExtractExecutionReportFields(msg)

	if fields.HasClOrdID && fields.HasExchangeID {
		t.clientToExchange.Store(fields.ClOrdID, fields.ExchangeOrderID)
		t.exchangeToClient.Store(fields.ExchangeOrderID, fields.ClOrdID)
	}

	pending, found := t.lookupPending(fields.ClOrdID, fields.OrigClOrdID)

	clientOrderID := fields.ClOrdID
	hint := fixmap.OrderHint{}
	if found {
		clientOrderID = pending.ClientOrderID
		hint = pending.Hint
	}

	order, err := fixmap.ParseExecutionReport(msg, clientOrderID, hint)
	if err != nil {
		t.log.WithError(err).Warn("failed to parse execution report")
		return
	}

	switch fields.ExecType {
	case "0", "A": // New, PendingNew
		if found {
			pending.complete(order)
		}
	case "8": // Rejected
		if found {
			reason := fixmap.RejectionReason(msg)
			if pending.fail(core.ErrRejected(reason)) {
				t.Consume(pending.ClientOrderID)
			}
		}
	case "F", "2", "1": // Trade, Fill, PartialFill
		if found && pending.complete(order) {
			return
		}
		t.emitSink(order)
	case "4", "5", "C": // Canceled, Replaced, Expired
		if found && pending.complete(order) {
			t.Consume(pending.ClientOrderID)
			return
		}
		t.emitSink(order)
	default:
		t.log.WithField("execType", fields.ExecType).Debug("ignoring unhandled exec type")
	}
}

// handleCancelReject is the only path by which a cancel or amend can be
// rejected — a rejected cancel never arrives as an ExecutionReport.
func (t *Tracker) handleCancelReject(msg *quickfix.Message) {
	var clOrdID string
	if v, err := msg.Body.GetString(quickfix.Tag(fixmap.TagClOrdID)); err == nil {
		clOrdID = v
	}

	pending, found := t.lookupPending(clOrdID, "")
	if !found {
		t.log.WithField("clOrdID", clOrdID).Warn("cancel reject for unknown pending request")
		return
	}

	reason := fixmap.CancelRejectText(msg)
	if pending.fail(core.ErrRejected(reason)) {
		t.Consume(pending.ClientOrderID)
	}
}
