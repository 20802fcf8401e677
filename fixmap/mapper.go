// Package fixmap implements the pure, stateless translation between
// the platform's order domain (core.Order et al.) and the exchange's
// FIX dialect: side/price normalization, status/TimeInForce
// vocabularies, and outbound message population using quickfixgo's
// field.NewSide/NewPrice/NewTimeInForce construction style.
package fixmap

import (
	"github.com/google/uuid"

	"github.com/ljm2ya/quickex-go/core"
)

// Well-known FIX tag numbers this mapper reads/writes. Kept local
// rather than imported from a generated dictionary package since the
// dialect only needs this fixed set.
const (
	TagClOrdID             = 11
	TagSymbol               = 55
	TagSide                 = 54
	TagOrderQty             = 38
	TagPrice                = 44
	TagOrdType              = 40
	TagTimeInForce          = 59
	TagTransactTime         = 60
	TagExecInst             = 18
	TagOrigClOrdID          = 41
	TagExecType             = 150
	TagOrderID              = 37
	TagOrdStatus            = 39
	TagOrdRejReason         = 103
	TagText                 = 58
	TagCumQty               = 14
	TagLeavesQty            = 151
	TagSelfTradePrevention  = 2964
	TagCancelOnPause        = 21006
	TagSecondaryClOrdID     = 526
	TagMaxExecutionCost     = 21009
)

// FIX Side values (tag 54).
const (
	FIXSideBuy  = "1"
	FIXSideSell = "2"
)

// FIX OrdType (tag 40): this dialect only ever sends limit orders.
const FIXOrdTypeLimit = "2"

// FIXSide computes the wire Side for a create request: "buy yes" and
// "sell no" both buy the yes leg (Side=1); "sell yes" and "buy no"
// both sell it (Side=2).
func FIXSide(action core.Action, side core.Side) string {
	buysYesLeg := (action == core.ActionBuy && side == core.SideYes) ||
		(action == core.ActionSell && side == core.SideNo)
	if buysYesLeg {
		return FIXSideBuy
	}
	return FIXSideSell
}

// FIXPrice projects a create request's domain price onto the wire's
// yes-leg-only Price field.
func FIXPrice(req core.CreateOrderRequest) (int, bool) {
	if req.YesPrice > 0 {
		return req.YesPrice, true
	}
	if req.NoPrice > 0 {
		return 100 - req.NoPrice, true
	}
	return 0, false
}

// YesNoFromWire is the inverse projection: given the FIX Side that
// acknowledged/echoed an order and the wire Price, returns the
// (yesPrice, noPrice) pair. Symmetric inverse of FIXPrice: Price is the
// yes-leg price when Side=Buy, else its 100-complement.
func YesNoFromWire(fixSide string, price int) (yesPrice, noPrice int) {
	if fixSide == FIXSideBuy {
		yesPrice = price
	} else {
		yesPrice = 100 - price
	}
	return yesPrice, 100 - yesPrice
}

var ordStatusToDomain = map[string]core.OrderStatus{
	"0": core.StatusResting,  // New
	"1": core.StatusResting,  // PartiallyFilled
	"A": core.StatusResting,  // PendingNew
	"5": core.StatusResting,  // Replaced
	"2": core.StatusExecuted, // Filled
	"4": core.StatusCanceled, // Canceled
	"6": core.StatusCanceled, // PendingCancel
	"8": core.StatusRejected, // Rejected
	"C": core.StatusExpired,  // Expired
}

// DomainStatus projects a FIX OrdStatus char to the domain status
// vocabulary. Unlisted values yield StatusUnknown, never an error —
// this is a total function.
func DomainStatus(ordStatus string) core.OrderStatus {
	if s, ok := ordStatusToDomain[ordStatus]; ok {
		return s
	}
	return core.StatusUnknown
}

var tifToFIX = map[core.TimeInForce]string{
	core.TimeInForceDay: "0",
	core.TimeInForceGTC: "1",
	core.TimeInForceIOC: "3",
	core.TimeInForceFOK: "4",
}

var tifFromFIX = map[string]core.TimeInForce{
	"0": core.TimeInForceDay,
	"1": core.TimeInForceGTC,
	"3": core.TimeInForceIOC,
	"4": core.TimeInForceFOK,
}

// FIXTimeInForce converts a domain TimeInForce to its FIX char. An
// unset/unknown value defaults to GTC ('1').
func FIXTimeInForce(tif core.TimeInForce) string {
	if v, ok := tifToFIX[tif]; ok {
		return v
	}
	return tifToFIX[core.TimeInForceGTC]
}

// DomainTimeInForce is the inverse of FIXTimeInForce. Unknown chars
// default to GTC as well, keeping the mapping total in both directions.
func DomainTimeInForce(fixTIF string) core.TimeInForce {
	if v, ok := tifFromFIX[fixTIF]; ok {
		return v
	}
	return core.TimeInForceGTC
}

// NewClientOrderID generates a UUID-based ClOrdID. Guaranteed to fit
// the 64-character ceiling FIX ClOrdID conventionally imposes (a
// hyphenated UUID is 36 characters).
func NewClientOrderID() string {
	return uuid.NewString()
}
