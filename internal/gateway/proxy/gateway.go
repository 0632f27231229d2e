// Package proxy forwards authorised requests to protected OWS backends.
//
// A request is resolved to a service, checked by the Gate, passed through
// the Adapter's request hook, forwarded, passed through the response hook,
// and written back. Every failure along the way is a classified *Error and
// is written as an OWS ExceptionReport.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// Path values the router must bind.
const (
	PathService   = "service_name"
	PathExtraPath = "extra_path"
)

// StreamChunkSize is the relay buffer of the streamed path.
const StreamChunkSize = 64 * 1024

//go:generate mockgen -destination=mocks/lookup.go -package=mocks github.com/aussiebroadwan/owsgate/internal/gateway/proxy ServiceLookup

// ServiceLookup resolves a service by name. store.Services satisfies it.
type ServiceLookup interface {
	GetServiceByName(ctx context.Context, name string) (domain.Service, error)
}

// Gateway is the proxy endpoint.
type Gateway struct {
	services  ServiceLookup
	gate      *Gate
	adapter   Adapter
	forwarder *Forwarder
	metrics   *metrics.Collector
}

// NewGateway wires the pipeline. A nil adapter means IdentityAdapter.
func NewGateway(services ServiceLookup, gate *Gate, adapter Adapter, forwarder *Forwarder, m *metrics.Collector) *Gateway {
	if adapter == nil {
		adapter = IdentityAdapter{}
	}
	return &Gateway{
		services:  services,
		gate:      gate,
		adapter:   adapter,
		forwarder: forwarder,
		metrics:   m,
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue(PathService)
	logger := slogx.FromContext(ctx).With(slog.String("service", name))
	ctx = slogx.WithContext(ctx, logger)

	resp, err := g.handle(ctx, r.WithContext(ctx), name)
	if err != nil {
		pe := Classify(err)
		g.metrics.ProxyRequest(name, outcome(pe))
		if pe.Kind == KindNoApplicableCode {
			logger.Error("proxy request failed", slog.String("reason", pe.Reason), slog.Any("error", pe.Err))
		} else {
			logger.Warn("proxy request rejected", slog.String("code", pe.Kind.Code()), slog.String("reason", pe.Reason))
		}
		WriteError(w, r, pe)
		return
	}
	defer resp.Body.Close()

	g.metrics.ProxyRequest(name, metrics.OutcomeOK)
	writeResponse(ctx, w, resp)
}

// handle runs the pipeline. It never panics; a panic is returned as
// NoApplicableCode.
func (g *Gateway) handle(ctx context.Context, r *http.Request, name string) (resp *Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			resp = nil
			err = NoApplicableCode(fmt.Sprintf("Unhandled error: %v", rec), fmt.Errorf("panic: %v", rec))
		}
	}()

	svc, err := g.services.GetServiceByName(ctx, name)
	if err != nil {
		slogx.FromContext(ctx).Info("service lookup failed", slog.Any("error", err))
		return nil, &Error{Kind: KindFailed, Reason: "Could not find service: " + name, Err: errServiceLookup{err}}
	}

	if err := g.gate.Verify(ctx, r, svc); err != nil {
		return nil, err
	}

	extraPath := r.PathValue(PathExtraPath)
	r, err = g.adapter.RequestHook(r, svc)
	if err != nil {
		return nil, Classify(err)
	}

	resp, err = g.forwarder.Forward(ctx, r, svc, extraPath, r.URL.RawQuery)
	if err != nil {
		return nil, Classify(err)
	}

	hooked, err := g.adapter.ResponseHook(resp, svc)
	if err != nil {
		_ = resp.Body.Close()
		return nil, Classify(err)
	}
	return hooked, nil
}

// errServiceLookup marks a Failed error caused by an unknown service so
// metrics can tell it apart from other failures.
type errServiceLookup struct{ err error }

func (e errServiceLookup) Error() string { return "service lookup: " + e.err.Error() }
func (e errServiceLookup) Unwrap() error { return e.err }

func outcome(pe *Error) string {
	var lookup errServiceLookup
	switch {
	case errors.As(pe.Err, &lookup):
		return metrics.OutcomeNotFound
	case pe.Kind == KindForbidden:
		return metrics.OutcomeForbidden
	case pe.Kind == KindFailed:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeError
	}
}

func writeResponse(ctx context.Context, w http.ResponseWriter, resp *Response) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if !resp.Streamed {
		if _, err := io.Copy(w, resp.Body); err != nil {
			slogx.FromContext(ctx).Debug("write response", slog.Any("error", err))
		}
		return
	}

	if err := relay(w, resp.Body); err != nil && !errors.Is(err, context.Canceled) {
		slogx.FromContext(ctx).Warn("stream relay interrupted", slog.Any("error", err))
	}
}

// relay copies src to w in StreamChunkSize chunks, flushing after each.
func relay(w http.ResponseWriter, src io.Reader) error {
	rc := http.NewResponseController(w)
	buf := make([]byte, StreamChunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return ferr
			}
		}
		if errors.Is(rerr, io.EOF) {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}
