package rest

import (
	"github.com/ljm2ya/quickex-go/core"
)

// DTOs below are plain structs tagged for JSON, marked //easyjson:json
// for the easyjson generator to produce optimized (Un)MarshalJSON for.
// No generated _easyjson.go accompanies these yet; encoding/json
// handles marshaling until `easyjson` is run as a build step.

//easyjson:json
type createOrderDTO struct {
	Ticker              string `json:"ticker"`
	Action              string `json:"action"`
	Side                string `json:"side"`
	Count               int    `json:"count"`
	YesPrice            int    `json:"yes_price,omitempty"`
	NoPrice             int    `json:"no_price,omitempty"`
	TimeInForce         string `json:"time_in_force,omitempty"`
	PostOnly            bool   `json:"post_only,omitempty"`
	SelfTradePrevention string `json:"self_trade_prevention,omitempty"`
	CancelOnPause       bool   `json:"cancel_on_pause,omitempty"`
	OrderGroup          string `json:"order_group,omitempty"`
	MaxExecutionCost    string `json:"max_execution_cost,omitempty"`
	ClientOrderID       string `json:"client_order_id,omitempty"`
}

//easyjson:json
type orderDTO struct {
	ExchangeOrderID string `json:"order_id"`
	ClientOrderID   string `json:"client_order_id"`
	Ticker          string `json:"ticker"`
	Action          string `json:"action"`
	Side            string `json:"side"`
	YesPrice        int    `json:"yes_price"`
	NoPrice         int    `json:"no_price"`
	InitialCount    int    `json:"initial_count"`
	FilledCount     int    `json:"filled_count"`
	RemainingCount  int    `json:"remaining_count"`
	Status          string `json:"status"`
	UpdatedAt       string `json:"updated_at"`
}

//easyjson:json
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// cancelParams/amendParams are encoded into the query string via
// go-querystring rather than JSON: cancel/amend on this REST leg are
// DELETE (cancel, batch cancel) and PATCH (amend) requests that accept
// their arguments as query parameters.
type cancelParams struct {
	OrderID string `url:"order_id"`
}

type batchCancelParams struct {
	OrderIDs []string `url:"order_ids,comma"`
}

type amendParams struct {
	OrderID  string `url:"order_id"`
	YesPrice *int   `url:"yes_price,omitempty"`
	NoPrice  *int   `url:"no_price,omitempty"`
	Count    *int   `url:"count,omitempty"`
}

func toCreateOrderDTO(req core.CreateOrderRequest) createOrderDTO {
	dto := createOrderDTO{
		Ticker:              req.Ticker,
		Action:              string(req.Action),
		Side:                string(req.Side),
		Count:               req.Count,
		YesPrice:            req.YesPrice,
		NoPrice:             req.NoPrice,
		TimeInForce:         string(req.TimeInForce),
		PostOnly:            req.PostOnly,
		SelfTradePrevention: string(req.SelfTradePrevention),
		CancelOnPause:       req.CancelOnPause,
		OrderGroup:          req.OrderGroup,
		ClientOrderID:       req.ClientOrderID,
	}
	if !req.MaxExecutionCost.IsZero() {
		dto.MaxExecutionCost = req.MaxExecutionCost.String()
	}
	return dto
}

func fromOrderDTO(dto orderDTO) core.Order {
	return core.Order{
		ExchangeOrderID: dto.ExchangeOrderID,
		ClientOrderID:   dto.ClientOrderID,
		Ticker:          dto.Ticker,
		Action:          core.Action(dto.Action),
		Side:            core.Side(dto.Side),
		Type:            core.OrderTypeLimit,
		YesPrice:        dto.YesPrice,
		NoPrice:         dto.NoPrice,
		InitialCount:    dto.InitialCount,
		FilledCount:     dto.FilledCount,
		RemainingCount:  dto.RemainingCount,
		Status:          core.OrderStatus(dto.Status),
	}
}
