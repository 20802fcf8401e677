package fixmap

import (
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"

	"github.com/ljm2ya/quickex-go/core"
)

// PopulateNewOrderSingle sets the required and optional tags for a
// NewOrderSingle (MsgType=D) onto a pre-claimed message buffer.
// clOrdID is the caller-resolved or freshly generated ClOrdID (fixmap
// does not generate it itself — the transport owns that decision so it
// can register the pending request before the message is built).
func PopulateNewOrderSingle(msg *quickfix.Message, clOrdID string, req core.CreateOrderRequest) error {
	price, ok := FIXPrice(req)
	if !ok {
		return core.ErrRejected("no price resolvable for NewOrderSingle")
	}

	msg.Header.Set(field.NewMsgType("D"))
	msg.Body.Set(field.NewClOrdID(clOrdID))
	msg.Body.Set(field.NewSymbol(req.Ticker))
	msg.Body.Set(field.NewSide(enum.Side(FIXSide(req.Action, req.Side))))
	msg.Body.Set(field.NewOrderQty(decimal.NewFromInt(int64(req.Count)), 0))
	msg.Body.Set(field.NewPrice(decimal.NewFromInt(int64(price)), 0))
	msg.Body.Set(field.NewOrdType(enum.OrdType(FIXOrdTypeLimit)))
	msg.Body.Set(field.NewTimeInForce(enum.TimeInForce(FIXTimeInForce(req.TimeInForce))))
	msg.Body.Set(field.NewTransactTime(time.Now().UTC()))

	if req.PostOnly {
		msg.Body.Set(field.NewExecInst(enum.ExecInst_PARTICIPANT_DONT_INITIATE))
	}
	if req.SelfTradePrevention != core.STPNone {
		msg.Body.SetField(quickfix.Tag(TagSelfTradePrevention), quickfix.FIXString(req.SelfTradePrevention))
	}
	if req.CancelOnPause {
		msg.Body.SetField(quickfix.Tag(TagCancelOnPause), quickfix.FIXBoolean(true))
	}
	if req.OrderGroup != "" {
		msg.Body.Set(field.NewSecondaryClOrdID(req.OrderGroup))
	}
	if !req.MaxExecutionCost.IsZero() {
		msg.Body.SetField(quickfix.Tag(TagMaxExecutionCost), quickfix.FIXString(req.MaxExecutionCost.String()))
	}
	return nil
}

// PopulateOrderCancelRequest sets the tags for an OrderCancelRequest
// (MsgType=F). origClOrdID/side/symbol come from the original pending
// request's cached fields (the tracker, not this caller, resolved
// them) because FIX requires Symbol/Side on a cancel even though the
// platform caller supplied only an exchange order id.
func PopulateOrderCancelRequest(msg *quickfix.Message, newClOrdID, origClOrdID, symbol, fixSide string) {
	msg.Header.Set(field.NewMsgType("F"))
	msg.Body.Set(field.NewClOrdID(newClOrdID))
	msg.Body.Set(field.NewOrigClOrdID(origClOrdID))
	msg.Body.Set(field.NewSymbol(symbol))
	msg.Body.Set(field.NewSide(enum.Side(fixSide)))
	msg.Body.Set(field.NewTransactTime(time.Now().UTC()))
}

// PopulateOrderCancelReplaceRequest sets the tags for an
// OrderCancelReplaceRequest (MsgType=G, amend). Price and/or OrderQty
// are omitted when the corresponding amend field is nil, signaling
// "keep current". Some counterparties require OrderQty even when
// unchanged — verify against the exchange's rules of engagement before
// relying on the omission.
func PopulateOrderCancelReplaceRequest(msg *quickfix.Message, newClOrdID, origClOrdID, symbol, fixSide string, amend core.AmendOrderRequest) {
	msg.Header.Set(field.NewMsgType("G"))
	msg.Body.Set(field.NewClOrdID(newClOrdID))
	msg.Body.Set(field.NewOrigClOrdID(origClOrdID))
	msg.Body.Set(field.NewSymbol(symbol))
	msg.Body.Set(field.NewSide(enum.Side(fixSide)))
	msg.Body.Set(field.NewOrdType(enum.OrdType(FIXOrdTypeLimit)))
	msg.Body.Set(field.NewTransactTime(time.Now().UTC()))

	if price, ok := amend.ResolvedYesPrice(); ok {
		msg.Body.Set(field.NewPrice(decimal.NewFromInt(int64(price)), 0))
	}
	if amend.NewCount != nil {
		msg.Body.Set(field.NewOrderQty(decimal.NewFromInt(int64(*amend.NewCount)), 0))
	}
}
