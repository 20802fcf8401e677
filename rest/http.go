// Package rest implements the HTTP order-entry fallback leg, used
// standalone (config.ModeREST) or composed behind fix.FallbackTransport
// (config.ModeFIXWithFallback). A small RequestType builder covers the
// one endpoint shape this gateway's REST leg needs
// (create/cancel/cancel-batch/amend), with JWT bearer auth applied to
// every outgoing request.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

// requestBuilder accumulates a single outbound HTTP request, mirroring
// core/http.go's RequestType but narrowed to what this gateway needs:
// no form-encoded body (the exchange's REST order API is JSON), no
// BINANCE-specific fields.
type requestBuilder struct {
	method  string
	baseURL string
	path    string
	query   url.Values
	body    []byte
	headers map[string]string
}

func newRequest(method, baseURL, path string) *requestBuilder {
	return &requestBuilder{method: method, baseURL: baseURL, path: path, headers: map[string]string{}}
}

func (r *requestBuilder) withJSONBody(v interface{}) (*requestBuilder, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request body")
	}
	r.body = b
	r.headers["Content-Type"] = "application/json"
	return r, nil
}

// withQueryStruct encodes v's `url`-tagged fields into the query
// string, via go-querystring — used for cancel/amend requests that the
// exchange accepts as query parameters rather than a JSON body.
func (r *requestBuilder) withQueryStruct(v interface{}) (*requestBuilder, error) {
	values, err := query.Values(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode query parameters")
	}
	r.query = values
	return r, nil
}

func (r *requestBuilder) withBearer(token string) *requestBuilder {
	r.headers["Authorization"] = "Bearer " + token
	return r
}

func (r *requestBuilder) build(ctx context.Context) (*http.Request, error) {
	fullURL := r.baseURL + r.path
	if r.query != nil && len(r.query) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, r.query.Encode())
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "build http request")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// do executes req and decodes a JSON response into result, surfacing
// non-2xx responses as an errorResponse decode attempt first (mirrors
// core/http.go's "always decode both success and error shapes").
func do(client *http.Client, req *http.Request, result interface{}) (status int, err error) {
	res, err := client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "execute http request")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, errors.Wrap(err, "read http response body")
	}

	if res.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return res.StatusCode, errors.Errorf("exchange rejected request (status %d): %s", res.StatusCode, apiErr.Message)
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return res.StatusCode, errors.Wrap(err, "decode http response body")
		}
	}
	return res.StatusCode, nil
}
