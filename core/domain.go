// Package core holds the order-routing domain model shared by every
// transport implementation: the Order snapshot, the create/amend
// request shapes, and the Transport contract they flow through.
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the side of the market the caller is trading: buy or sell
// the chosen contract leg.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Side is the binary-option leg: yes or no.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// OrderType is always "limit"; market and other order types are out of scope.
type OrderType string

const OrderTypeLimit OrderType = "limit"

// TimeInForce mirrors FIX tag 59's defined domain.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
	TimeInForceIOC TimeInForce = "ioc"
	TimeInForceFOK TimeInForce = "fok"
)

// OrderStatus is the domain-level projection of FIX OrdStatus.
type OrderStatus string

const (
	StatusResting  OrderStatus = "resting"
	StatusExecuted OrderStatus = "executed"
	StatusCanceled OrderStatus = "canceled"
	StatusRejected OrderStatus = "rejected"
	StatusExpired  OrderStatus = "expired"
	StatusUnknown  OrderStatus = "unknown"
)

// SelfTradePrevention mirrors the custom SelfTradePrevention(2964) domain.
type SelfTradePrevention string

const (
	STPNone        SelfTradePrevention = ""
	STPCancelAgg   SelfTradePrevention = "1"
	STPCancelResAg SelfTradePrevention = "2"
)

// Order is an immutable snapshot of an order's observable state.
//
// Invariant: FilledCount+RemainingCount == InitialCount for any
// non-terminal report. Invariant: YesPrice+NoPrice == 100.
type Order struct {
	ExchangeOrderID string
	ClientOrderID   string
	Ticker          string
	Action          Action
	Side            Side
	Type            OrderType
	YesPrice        int // cents, 1-99
	NoPrice         int // cents, 100-YesPrice
	InitialCount    int
	FilledCount     int
	RemainingCount  int
	Status          OrderStatus
	UpdatedAt       time.Time
}

// CreateOrderRequest describes a new limit order.
//
// Exactly one of YesPrice/NoPrice must be set (1-99); if both are set
// by a caller that built the struct directly, YesPrice wins (mirrors
// AmendOrderRequest's tie-break rule for consistency).
type CreateOrderRequest struct {
	Ticker              string
	Action              Action
	Side                Side
	Count               int
	YesPrice            int // 0 means unset
	NoPrice             int // 0 means unset
	TimeInForce         TimeInForce
	PostOnly            bool
	SelfTradePrevention SelfTradePrevention
	CancelOnPause       bool
	OrderGroup          string
	MaxExecutionCost    decimal.Decimal // zero value = unset

	// ClientOrderID lets a caller pin the correlation id; left blank,
	// the FIX transport generates a UUID (fixmap.NewClientOrderID).
	ClientOrderID string
}

// AmendOrderRequest describes an in-place amend. At least one field
// must be non-zero/non-nil.
type AmendOrderRequest struct {
	NewYesPrice *int
	NewNoPrice  *int
	NewCount    *int
}

// Empty reports whether no amend field was set, which callers must
// reject.
func (r AmendOrderRequest) Empty() bool {
	return r.NewYesPrice == nil && r.NewNoPrice == nil && r.NewCount == nil
}

// ResolvedYesPrice applies the "yes wins if both given" tie-break to an
// amend request, returning ok=false when neither price field is set.
func (r AmendOrderRequest) ResolvedYesPrice() (yesPrice int, ok bool) {
	if r.NewYesPrice != nil {
		return *r.NewYesPrice, true
	}
	if r.NewNoPrice != nil {
		return 100 - *r.NewNoPrice, true
	}
	return 0, false
}

// Validate enforces the interface-boundary preconditions: count must
// be positive, exactly one price field accepted (yes-price wins
// silently if both given, matching CreateOrderRequest).
func (r CreateOrderRequest) Validate() error {
	if r.Count <= 0 {
		return ErrRejected("count must be > 0")
	}
	yp, ok := r.ResolvedYesPrice()
	if !ok {
		return ErrRejected("either yesPrice or noPrice must be set")
	}
	if yp < 1 || yp > 99 {
		return ErrRejected("price out of range 1-99")
	}
	return nil
}

// ResolvedYesPrice returns the price to use on the wire, applying the
// "yes wins if both given" tie-break.
func (r CreateOrderRequest) ResolvedYesPrice() (yesPrice int, ok bool) {
	if r.YesPrice > 0 {
		return r.YesPrice, true
	}
	if r.NoPrice > 0 {
		return 100 - r.NoPrice, true
	}
	return 0, false
}

// Kind tags which concrete transport handled (or would handle) a call.
type Kind string

const (
	KindREST Kind = "REST"
	KindFIX  Kind = "FIX"
)
