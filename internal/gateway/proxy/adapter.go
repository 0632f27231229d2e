package proxy

import (
	"io"
	"net/http"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
)

// Response is a backend answer on its way back to the caller. Body is
// either fully buffered or the live upstream stream; the gateway closes it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser

	// Streamed is set when Body is relayed chunk by chunk.
	Streamed bool
}

// Adapter customises requests before they are forwarded and responses
// before they are returned. One instance serves every request, so
// implementations must be safe for concurrent use.
type Adapter interface {
	RequestHook(r *http.Request, svc domain.Service) (*http.Request, error)
	ResponseHook(resp *Response, svc domain.Service) (*Response, error)
}

// IdentityAdapter passes requests and responses through unchanged.
type IdentityAdapter struct{}

func (IdentityAdapter) RequestHook(r *http.Request, _ domain.Service) (*http.Request, error) {
	return r, nil
}

func (IdentityAdapter) ResponseHook(resp *Response, _ domain.Service) (*Response, error) {
	return resp, nil
}

// HeaderAdapter sets fixed headers on forwarded requests and on returned
// responses.
type HeaderAdapter struct {
	request  http.Header
	response http.Header
}

// NewHeaderAdapter copies both header sets. Either may be nil.
func NewHeaderAdapter(request, response http.Header) *HeaderAdapter {
	return &HeaderAdapter{request: request.Clone(), response: response.Clone()}
}

func (a *HeaderAdapter) RequestHook(r *http.Request, _ domain.Service) (*http.Request, error) {
	if len(a.request) == 0 {
		return r, nil
	}
	r = r.Clone(r.Context())
	for k, vs := range a.request {
		r.Header.Del(k)
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	return r, nil
}

func (a *HeaderAdapter) ResponseHook(resp *Response, _ domain.Service) (*Response, error) {
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	for k, vs := range a.response {
		resp.Header.Del(k)
		for _, v := range vs {
			resp.Header.Add(k, v)
		}
	}
	return resp, nil
}

var (
	_ Adapter = IdentityAdapter{}
	_ Adapter = (*HeaderAdapter)(nil)
)
