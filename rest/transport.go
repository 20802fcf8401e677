package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ljm2ya/quickex-go/core"
)

// Transport implements core.Transport over the exchange's REST order-
// entry API. It is the standalone leg when config.ModeREST is selected,
// and the secondary leg behind fix.FallbackTransport when
// config.ModeFIXWithFallback is selected.
//
// It builds and signs requests the same way for every call: a
// RequestType-style builder narrowed to the one resource (orders) this
// gateway's REST leg exposes, authenticated with a JWT bearer token
// rather than an HMAC query-hash scheme, since this exchange
// authenticates bearer-style.
type Transport struct {
	client  *http.Client
	baseURL string
	auth    *tokenSource
}

// NewTransport constructs a REST transport. keyID/keyPath configure the
// bearer token source (rest/auth.go); an empty keyPath yields a
// transport that is structurally usable but fails every call with a
// clear "no signing key configured" error, matching config.Load's
// documented fallback-with-warning behavior rather than panicking.
func NewTransport(baseURL, keyID, keyPath string) (*Transport, error) {
	auth, err := newTokenSource(keyID, keyPath)
	if err != nil {
		return nil, err
	}
	return &Transport{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
	}, nil
}

// Kind implements core.Transport.
func (t *Transport) Kind() core.Kind { return core.KindREST }

// IsAvailable implements core.Transport: the REST leg only requires a
// base URL and a usable signing key, no persistent connection state.
func (t *Transport) IsAvailable() bool {
	return t.baseURL != "" && t.auth != nil && len(t.auth.privateKey) > 0
}

func (t *Transport) authorize(ctx context.Context, rb *requestBuilder) (*requestBuilder, error) {
	token, err := t.auth.Token()
	if err != nil {
		return nil, core.ErrTransportUnavailable("rest auth failed", err)
	}
	return rb.withBearer(token), nil
}

func (t *Transport) send(ctx context.Context, rb *requestBuilder, result interface{}) error {
	req, err := rb.build(ctx)
	if err != nil {
		return core.ErrRejected(err.Error())
	}

	_, err = do(t.client, req, result)
	if err != nil {
		if ctx.Err() != nil {
			return core.ErrInterrupted(ctx.Err())
		}
		return core.ErrTransportUnavailable("rest request failed", err)
	}
	return nil
}

// CreateOrder implements core.Transport.
func (t *Transport) CreateOrder(ctx context.Context, req core.CreateOrderRequest) (core.Order, error) {
	if err := req.Validate(); err != nil {
		return core.Order{}, err
	}

	rb := newRequest(http.MethodPost, t.baseURL, "/orders")
	rb, err := rb.withJSONBody(toCreateOrderDTO(req))
	if err != nil {
		return core.Order{}, core.ErrRejected(err.Error())
	}
	rb, err = t.authorize(ctx, rb)
	if err != nil {
		return core.Order{}, err
	}

	var dto orderDTO
	if err := t.send(ctx, rb, &dto); err != nil {
		return core.Order{}, err
	}
	return fromOrderDTO(dto), nil
}

// CancelOrder implements core.Transport. Unlike the FIX leg, REST
// cancel does not require a local correlation entry — the exchange
// accepts any order id it knows about, so this never fails with
// UnknownOrder.
func (t *Transport) CancelOrder(ctx context.Context, exchangeOrderID string) (core.Order, error) {
	rb := newRequest(http.MethodDelete, t.baseURL, "/orders")
	rb, err := rb.withQueryStruct(cancelParams{OrderID: exchangeOrderID})
	if err != nil {
		return core.Order{}, core.ErrRejected(err.Error())
	}
	rb, err = t.authorize(ctx, rb)
	if err != nil {
		return core.Order{}, err
	}

	var dto orderDTO
	if err := t.send(ctx, rb, &dto); err != nil {
		return core.Order{}, err
	}
	return fromOrderDTO(dto), nil
}

// CancelOrders implements core.Transport's batch cancel as a single
// request, since the REST API (unlike FIX) exposes a dedicated
// multi-id endpoint.
func (t *Transport) CancelOrders(ctx context.Context, exchangeOrderIDs []string) error {
	if len(exchangeOrderIDs) == 0 {
		return nil
	}

	rb := newRequest(http.MethodDelete, t.baseURL, "/orders/batch")
	rb, err := rb.withQueryStruct(batchCancelParams{OrderIDs: exchangeOrderIDs})
	if err != nil {
		return core.ErrRejected(err.Error())
	}
	rb, err = t.authorize(ctx, rb)
	if err != nil {
		return err
	}

	return t.send(ctx, rb, nil)
}

// AmendOrder implements core.Transport.
func (t *Transport) AmendOrder(ctx context.Context, exchangeOrderID string, req core.AmendOrderRequest) (core.Order, error) {
	if req.Empty() {
		return core.Order{}, core.ErrRejected("amend request has no fields set")
	}

	rb := newRequest(http.MethodPatch, t.baseURL, "/orders")
	rb, err := rb.withQueryStruct(amendParams{
		OrderID:  exchangeOrderID,
		YesPrice: req.NewYesPrice,
		NoPrice:  req.NewNoPrice,
		Count:    req.NewCount,
	})
	if err != nil {
		return core.Order{}, core.ErrRejected(err.Error())
	}
	rb, err = t.authorize(ctx, rb)
	if err != nil {
		return core.Order{}, err
	}

	var dto orderDTO
	if err := t.send(ctx, rb, &dto); err != nil {
		return core.Order{}, err
	}
	return fromOrderDTO(dto), nil
}
