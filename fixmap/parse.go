package fixmap

import (
	"fmt"
	"time"

	"github.com/quickfixgo/field"
	"github.com/quickfixgo/quickfix"

	"github.com/ljm2ya/quickex-go/core"
)

// ExecutionReportFields holds the raw correlation fields the tracker
// needs before it can even look anything up — extracted first so the
// lookup (ClOrdID, then OrigClOrdID) can happen before the full Order
// parse.
type ExecutionReportFields struct {
	ExecType        string
	ClOrdID         string
	OrigClOrdID     string
	ExchangeOrderID string
	HasClOrdID      bool
	HasExchangeID   bool
}

// ExtractExecutionReportFields reads ExecType(150), ClOrdID(11),
// ExchangeOrderID(37), OrigClOrdID(41) without requiring the full
// dictionary-validated parse, so the correlation lookup can happen
// before the rest of the report is decoded.
func ExtractExecutionReportFields(msg *quickfix.Message) ExecutionReportFields {
	var f ExecutionReportFields
	var execType field.ExecTypeField
	if err := msg.Body.Get(&execType); err == nil {
		f.ExecType = string(execType.Value())
	}
	var clOrdID field.ClOrdIDField
	if err := msg.Body.Get(&clOrdID); err == nil {
		f.ClOrdID = clOrdID.Value()
		f.HasClOrdID = f.ClOrdID != ""
	}
	var origClOrdID field.OrigClOrdIDField
	if err := msg.Body.Get(&origClOrdID); err == nil {
		f.OrigClOrdID = origClOrdID.Value()
	}
	var orderID field.OrderIDField
	if err := msg.Body.Get(&orderID); err == nil {
		f.ExchangeOrderID = orderID.Value()
		f.HasExchangeID = f.ExchangeOrderID != ""
	}
	return f
}

// OrderHint is what the tracker supplies from the originating pending
// request so the parsed Order can reflect the caller's intent rather
// than the wire echo: the action the caller submitted always wins over
// the Side the exchange echoes back, since "buy no" and "sell yes" are
// wire-indistinguishable.
type OrderHint struct {
	Action core.Action
	Side   core.Side
	Known  bool
}

// ParseExecutionReport builds a core.Order from an ExecutionReport
// message body. clientOrderID is the id to stamp onto the result (the
// caller may want the original ClOrdID even when this report's ClOrdID
// was rotated by a cancel/replace ack).
func ParseExecutionReport(msg *quickfix.Message, clientOrderID string, hint OrderHint) (core.Order, error) {
	var symbol field.SymbolField
	msg.Body.Get(&symbol)

	var sideF field.SideField
	msg.Body.Get(&sideF)
	fixSide := string(sideF.Value())

	var priceF field.PriceField
	msg.Body.Get(&priceF)
	price := int(priceF.Value().IntPart())

	var ordStatusF field.OrdStatusField
	msg.Body.Get(&ordStatusF)

	var cumQty field.CumQtyField
	msg.Body.Get(&cumQty)
	var leavesQty field.LeavesQtyField
	msg.Body.Get(&leavesQty)
	var orderQty field.OrderQtyField
	msg.Body.Get(&orderQty)

	var orderID field.OrderIDField
	msg.Body.Get(&orderID)

	yesPrice, noPrice := YesNoFromWire(fixSide, price)

	action, side := hint.Action, hint.Side
	if !hint.Known {
		// No originating request known (a post-ack sink update on a
		// report whose pending entry was already resolved/removed):
		// fall back to mirroring the wire, the only information
		// available.
		if fixSide == FIXSideBuy {
			action, side = core.ActionBuy, core.SideYes
		} else {
			action, side = core.ActionSell, core.SideYes
		}
	}

	filled := int(cumQty.Value().IntPart())
	remaining := int(leavesQty.Value().IntPart())
	initial := int(orderQty.Value().IntPart())
	if initial == 0 {
		initial = filled + remaining
	}

	return core.Order{
		ExchangeOrderID: orderID.Value(),
		ClientOrderID:   clientOrderID,
		Ticker:          symbol.Value(),
		Action:          action,
		Side:            side,
		Type:            core.OrderTypeLimit,
		YesPrice:        yesPrice,
		NoPrice:         noPrice,
		InitialCount:    initial,
		FilledCount:     filled,
		RemainingCount:  remaining,
		Status:          DomainStatus(string(ordStatusF.Value())),
		UpdatedAt:       time.Now().UTC(),
	}, nil
}

// RejectionReason assembles the rejection text of an ExecutionReport
// with ExecType=Rejected: "OrdRejReason=<int>" plus free text, joined
// when both are present, or "Unknown rejection" when neither tag is
// present. Cancel/amend rejections use CancelRejectText instead.
func RejectionReason(msg *quickfix.Message) string {
	reason := ""
	var rejReason field.OrdRejReasonField
	hasRejReason := msg.Body.Get(&rejReason) == nil

	var text field.TextField
	hasText := msg.Body.Get(&text) == nil && text.Value() != ""

	switch {
	case hasRejReason && hasText:
		reason = fmt.Sprintf("OrdRejReason=%d %s", rejReason.Value(), text.Value())
	case hasRejReason:
		reason = fmt.Sprintf("OrdRejReason=%d", rejReason.Value())
	case hasText:
		reason = text.Value()
	default:
		reason = "Unknown rejection"
	}
	return reason
}

// CancelRejectText extracts the free-text reason from an
// OrderCancelReject (MsgType=9) message, the only path by which a
// cancel/amend can be rejected.
func CancelRejectText(msg *quickfix.Message) string {
	var text field.TextField
	if err := msg.Body.Get(&text); err == nil && text.Value() != "" {
		return text.Value()
	}
	return "cancel rejected"
}
