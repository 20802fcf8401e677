package fix

import (
	"context"
	"testing"
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"

	"github.com/ljm2ya/quickex-go/core"
	"github.com/ljm2ya/quickex-go/fixmap"
)

func newExecReport(t *testing.T, execType, clOrdID, orderID, symbol, fixSide string, price, orderQty, cumQty, leavesQty int, ordStatus string) *quickfix.Message {
	t.Helper()
	msg := quickfix.NewMessage()
	msg.Header.Set(field.NewMsgType("8"))
	msg.Body.Set(field.NewClOrdID(clOrdID))
	msg.Body.Set(field.NewOrderID(orderID))
	msg.Body.Set(field.NewSymbol(symbol))
	msg.Body.Set(field.NewSide(enum.Side(fixSide)))
	msg.Body.Set(field.NewExecType(enum.ExecType(execType)))
	msg.Body.Set(field.NewOrdStatus(enum.OrdStatus(ordStatus)))
	msg.Body.Set(field.NewPrice(decimal.NewFromInt(int64(price)), 0))
	msg.Body.Set(field.NewOrderQty(decimal.NewFromInt(int64(orderQty)), 0))
	msg.Body.Set(field.NewCumQty(decimal.NewFromInt(int64(cumQty)), 0))
	msg.Body.Set(field.NewLeavesQty(decimal.NewFromInt(int64(leavesQty)), 0))
	return msg
}

func TestTrackerResolvesNewAck(t *testing.T) {
	tracker := NewTracker()
	pending := NewPendingRequest("clord-1", fixmap.FIXSideBuy, "PRES-2026", fixmap.OrderHint{
		Action: core.ActionBuy, Side: core.SideYes, Known: true,
	})
	tracker.Register(pending)

	msg := newExecReport(t, "0", "clord-1", "EX-1", "PRES-2026", fixmap.FIXSideBuy, 55, 10, 0, 10, "0")
	tracker.OnMessage(msg, quickfix.SessionID{})

	order, err := pending.Await(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ExchangeOrderID != "EX-1" {
		t.Fatalf("expected exchange order id EX-1, got %s", order.ExchangeOrderID)
	}
	if order.YesPrice != 55 || order.NoPrice != 45 {
		t.Fatalf("expected complementary prices 55/45, got %d/%d", order.YesPrice, order.NoPrice)
	}

	clientID, ok := tracker.ResolveClientID("EX-1")
	if !ok || clientID != "clord-1" {
		t.Fatalf("expected exchange->client correlation to be recorded")
	}
}

func TestTrackerRejectRemovesPending(t *testing.T) {
	tracker := NewTracker()
	pending := NewPendingRequest("clord-2", fixmap.FIXSideBuy, "PRES-2026", fixmap.OrderHint{Known: true})
	tracker.Register(pending)

	msg := quickfix.NewMessage()
	msg.Header.Set(field.NewMsgType("8"))
	msg.Body.Set(field.NewClOrdID("clord-2"))
	msg.Body.Set(field.NewExecType(enum.ExecType_REJECTED))
	msg.Body.Set(field.NewText("price out of range"))

	tracker.OnMessage(msg, quickfix.SessionID{})

	_, err := pending.Await(context.Background(), time.Second)
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if _, ok := tracker.OriginatingPending("clord-2"); ok {
		t.Fatal("expected pending entry to be removed after rejection")
	}
}

func TestTrackerPostAckFillGoesToSink(t *testing.T) {
	tracker := NewTracker()
	received := make(chan core.Order, 1)
	tracker.SetSink(func(o core.Order) { received <- o })

	pending := NewPendingRequest("clord-3", fixmap.FIXSideBuy, "PRES-2026", fixmap.OrderHint{
		Action: core.ActionBuy, Side: core.SideYes, Known: true,
	})
	tracker.Register(pending)

	ackMsg := newExecReport(t, "0", "clord-3", "EX-3", "PRES-2026", fixmap.FIXSideBuy, 60, 10, 0, 10, "0")
	tracker.OnMessage(ackMsg, quickfix.SessionID{})
	if _, err := pending.Await(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error on ack: %v", err)
	}

	fillMsg := newExecReport(t, "F", "clord-3", "EX-3", "PRES-2026", fixmap.FIXSideBuy, 60, 10, 10, 0, "2")
	tracker.OnMessage(fillMsg, quickfix.SessionID{})

	select {
	case order := <-received:
		if order.FilledCount != 10 {
			t.Fatalf("expected filled count 10, got %d", order.FilledCount)
		}
	case <-time.After(time.Second):
		t.Fatal("expected post-ack fill to reach the sink")
	}
}

func TestTrackerSweepStaleTimesOutPending(t *testing.T) {
	tracker := NewTracker()
	pending := NewPendingRequest("clord-4", fixmap.FIXSideBuy, "PRES-2026", fixmap.OrderHint{Known: true})
	pending.CreatedAt = time.Now().Add(-time.Hour)
	tracker.Register(pending)

	tracker.SweepStale(time.Minute)

	_, err := pending.Await(context.Background(), time.Second)
	if err == nil {
		t.Fatal("expected stale pending request to be failed with timeout")
	}
	if te, ok := err.(*core.TransportError); !ok || te.Kind != core.KindTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestTrackerCancelRejectFailsPending(t *testing.T) {
	tracker := NewTracker()
	pending := NewPendingRequest("clord-5", fixmap.FIXSideBuy, "PRES-2026", fixmap.OrderHint{Known: true})
	tracker.Register(pending)

	msg := quickfix.NewMessage()
	msg.Header.Set(field.NewMsgType("9"))
	msg.Body.Set(field.NewClOrdID("clord-5"))
	msg.Body.Set(field.NewText("unknown order"))

	tracker.OnMessage(msg, quickfix.SessionID{})

	_, err := pending.Await(context.Background(), time.Second)
	if err == nil {
		t.Fatal("expected cancel reject to fail the pending request")
	}
}
