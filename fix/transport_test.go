package fix

import (
	"context"
	"testing"
	"time"

	"github.com/quickfixgo/quickfix"

	"github.com/ljm2ya/quickex-go/core"
	"github.com/ljm2ya/quickex-go/fixmap"
)

// fakeSession is a sessionSender double driven entirely by the test's
// onSend hook, so these scenarios run without a real FIX socket.
type fakeSession struct {
	loggedOn bool
	timeout  time.Duration
	onSend   func(msg *quickfix.Message) error
}

func (f *fakeSession) IsLoggedOn() bool { return f.loggedOn }

func (f *fakeSession) OrderTimeout() time.Duration { return f.timeout }

func (f *fakeSession) Send(msg *quickfix.Message) error {
	if f.onSend == nil {
		return nil
	}
	return f.onSend(msg)
}

func msgType(t *testing.T, msg *quickfix.Message) string {
	t.Helper()
	v, _ := msg.Header.GetString(quickfix.Tag(35))
	return v
}

func clOrdID(t *testing.T, msg *quickfix.Message) string {
	t.Helper()
	v, _ := msg.Body.GetString(quickfix.Tag(fixmap.TagClOrdID))
	return v
}

func TestTransportCreateOrderSendsAndAwaitsAck(t *testing.T) {
	tracker := NewTracker()
	session := &fakeSession{loggedOn: true, timeout: time.Second}
	session.onSend = func(msg *quickfix.Message) error {
		ack := newExecReport(t, "0", clOrdID(t, msg), "EX-1", "TEST-MKT", fixmap.FIXSideBuy, 65, 10, 0, 10, "0")
		tracker.OnMessage(ack, quickfix.SessionID{})
		return nil
	}
	transport := NewTransport(session, tracker)

	order, err := transport.CreateOrder(context.Background(), core.CreateOrderRequest{
		Ticker: "TEST-MKT", Action: core.ActionBuy, Side: core.SideYes, Count: 10, YesPrice: 65,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ExchangeOrderID != "EX-1" {
		t.Fatalf("expected exchange order id EX-1, got %s", order.ExchangeOrderID)
	}
}

func TestTransportCreateOrderRejectsWhenNotLoggedOn(t *testing.T) {
	tracker := NewTracker()
	session := &fakeSession{loggedOn: false, timeout: time.Second}
	transport := NewTransport(session, tracker)

	_, err := transport.CreateOrder(context.Background(), core.CreateOrderRequest{
		Ticker: "TEST-MKT", Action: core.ActionBuy, Side: core.SideYes, Count: 10, YesPrice: 65,
	})
	te, ok := err.(*core.TransportError)
	if !ok || te.Kind != core.KindTransportUnavailable {
		t.Fatalf("expected TransportUnavailable, got %v", err)
	}
}

func TestTransportCreateOrderValidatesBeforeSending(t *testing.T) {
	tracker := NewTracker()
	session := &fakeSession{loggedOn: true, timeout: time.Second}
	session.onSend = func(msg *quickfix.Message) error {
		t.Fatal("invalid request must never be sent")
		return nil
	}
	transport := NewTransport(session, tracker)

	_, err := transport.CreateOrder(context.Background(), core.CreateOrderRequest{
		Ticker: "TEST-MKT", Action: core.ActionBuy, Side: core.SideYes, Count: 0, YesPrice: 65,
	})
	if err == nil {
		t.Fatal("expected validation error for zero count")
	}
}

func TestTransportCreateOrderTimesOutWithoutAck(t *testing.T) {
	tracker := NewTracker()
	session := &fakeSession{loggedOn: true, timeout: 20 * time.Millisecond}
	session.onSend = func(msg *quickfix.Message) error { return nil }
	transport := NewTransport(session, tracker)

	_, err := transport.CreateOrder(context.Background(), core.CreateOrderRequest{
		Ticker: "TEST-MKT", Action: core.ActionBuy, Side: core.SideYes, Count: 10, YesPrice: 65,
	})
	te, ok := err.(*core.TransportError)
	if !ok || te.Kind != core.KindTimeout {
		t.Fatalf("expected Timeout, got %v", err)
	}
}

// TestTransportCancelOrderAfterAckUsesCachedSymbolAndSide is the
// regression test for the Consume/cached-correlation bug: by the time
// CancelOrder runs, CreateOrder's pending entry has already been
// consumed, so Symbol/Side must come from the tracker's persisted
// correlation metadata rather than an empty string.
func TestTransportCancelOrderAfterAckUsesCachedSymbolAndSide(t *testing.T) {
	tracker := NewTracker()
	var cancelMsg *quickfix.Message

	session := &fakeSession{loggedOn: true, timeout: time.Second}
	session.onSend = func(msg *quickfix.Message) error {
		switch msgType(t, msg) {
		case "D":
			ack := newExecReport(t, "0", clOrdID(t, msg), "EX-1", "TEST-MKT", fixmap.FIXSideBuy, 70, 10, 0, 10, "0")
			tracker.OnMessage(ack, quickfix.SessionID{})
		case "F":
			cancelMsg = msg
			canceled := newExecReport(t, "4", clOrdID(t, msg), "EX-1", "TEST-MKT", fixmap.FIXSideBuy, 70, 10, 0, 10, "4")
			tracker.OnMessage(canceled, quickfix.SessionID{})
		}
		return nil
	}
	transport := NewTransport(session, tracker)

	order, err := transport.CreateOrder(context.Background(), core.CreateOrderRequest{
		Ticker: "TEST-MKT", Action: core.ActionBuy, Side: core.SideYes, Count: 10, YesPrice: 70,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := transport.CancelOrder(context.Background(), order.ExchangeOrderID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelMsg == nil {
		t.Fatal("expected a cancel request to be sent")
	}

	symbol, _ := cancelMsg.Body.GetString(quickfix.Tag(fixmap.TagSymbol))
	side, _ := cancelMsg.Body.GetString(quickfix.Tag(fixmap.TagSide))
	if symbol != "TEST-MKT" {
		t.Errorf("expected Symbol=TEST-MKT on cancel request, got %q", symbol)
	}
	if side != fixmap.FIXSideBuy {
		t.Errorf("expected Side=%s on cancel request, got %q", fixmap.FIXSideBuy, side)
	}
}

func TestTransportCancelOrderUnknownOrder(t *testing.T) {
	tracker := NewTracker()
	session := &fakeSession{loggedOn: true, timeout: time.Second}
	transport := NewTransport(session, tracker)

	_, err := transport.CancelOrder(context.Background(), "never-seen")
	te, ok := err.(*core.TransportError)
	if !ok || te.Kind != core.KindUnknownOrder {
		t.Fatalf("expected UnknownOrder, got %v", err)
	}
}

// TestTransportAmendOrderAfterAckUsesCachedSymbolAndSide is the amend
// counterpart of the cancel regression above (spec scenario: create
// X1, then amendOrder("X1", {yesPrice:70}) must send Side=1,
// Symbol="TEST-MKT").
func TestTransportAmendOrderAfterAckUsesCachedSymbolAndSide(t *testing.T) {
	tracker := NewTracker()
	var amendMsg *quickfix.Message

	session := &fakeSession{loggedOn: true, timeout: time.Second}
	session.onSend = func(msg *quickfix.Message) error {
		switch msgType(t, msg) {
		case "D":
			ack := newExecReport(t, "0", clOrdID(t, msg), "EX-1", "TEST-MKT", fixmap.FIXSideBuy, 60, 10, 0, 10, "0")
			tracker.OnMessage(ack, quickfix.SessionID{})
		case "G":
			amendMsg = msg
			replaced := newExecReport(t, "5", clOrdID(t, msg), "EX-1", "TEST-MKT", fixmap.FIXSideBuy, 70, 10, 0, 10, "5")
			tracker.OnMessage(replaced, quickfix.SessionID{})
		}
		return nil
	}
	transport := NewTransport(session, tracker)

	order, err := transport.CreateOrder(context.Background(), core.CreateOrderRequest{
		Ticker: "TEST-MKT", Action: core.ActionBuy, Side: core.SideYes, Count: 10, YesPrice: 60,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	newPrice := 70
	_, err = transport.AmendOrder(context.Background(), order.ExchangeOrderID, core.AmendOrderRequest{NewYesPrice: &newPrice})
	if err != nil {
		t.Fatalf("AmendOrder: %v", err)
	}
	if amendMsg == nil {
		t.Fatal("expected an amend request to be sent")
	}

	symbol, _ := amendMsg.Body.GetString(quickfix.Tag(fixmap.TagSymbol))
	side, _ := amendMsg.Body.GetString(quickfix.Tag(fixmap.TagSide))
	if symbol != "TEST-MKT" {
		t.Errorf("expected Symbol=TEST-MKT on amend request, got %q", symbol)
	}
	if side != fixmap.FIXSideBuy {
		t.Errorf("expected Side=%s on amend request, got %q", fixmap.FIXSideBuy, side)
	}
}

func TestTransportAmendOrderRejectsEmptyRequest(t *testing.T) {
	tracker := NewTracker()
	session := &fakeSession{loggedOn: true, timeout: time.Second}
	transport := NewTransport(session, tracker)

	_, err := transport.AmendOrder(context.Background(), "EX-1", core.AmendOrderRequest{})
	if err == nil {
		t.Fatal("expected error for empty amend request")
	}
}

func TestTransportCancelOrdersIsBestEffort(t *testing.T) {
	tracker := NewTracker()
	session := &fakeSession{loggedOn: true, timeout: time.Second}
	transport := NewTransport(session, tracker)

	// Neither id is known to the tracker; CancelOrders must still
	// return nil, logging each individual failure instead.
	if err := transport.CancelOrders(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("expected best-effort CancelOrders to swallow individual failures, got %v", err)
	}
}
