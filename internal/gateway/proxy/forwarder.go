package proxy

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// hopByHopHeaders are meaningful only for a single transport-level
// connection and are never relayed on the streamed path.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Public",
	"Proxy-Authenticate",
	"Transfer-Encoding",
	"Upgrade",
}

// DefaultTimeout bounds an outbound call when none is configured.
const DefaultTimeout = 30 * time.Second

// ForwarderConfig configures outbound calls.
type ForwarderConfig struct {
	// Timeout bounds a buffered call end to end, and a streamed call until
	// the response headers arrive.
	Timeout time.Duration

	// GatewayURL and ProtectedPath build the fallback public URL of a
	// service: <GatewayURL><ProtectedPath>/proxy/<name>.
	GatewayURL    string
	ProtectedPath string

	Metrics *metrics.Collector
}

// Forwarder sends requests to backend services.
type Forwarder struct {
	cfg ForwarderConfig

	buffered         *http.Client
	bufferedInsecure *http.Client
	streamed         *http.Client
	streamedInsecure *http.Client
}

func NewForwarder(cfg ForwarderConfig) *Forwarder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Forwarder{
		cfg:              cfg,
		buffered:         &http.Client{Timeout: cfg.Timeout, Transport: newTransport(true, 0)},
		bufferedInsecure: &http.Client{Timeout: cfg.Timeout, Transport: newTransport(false, 0)},
		streamed:         &http.Client{Transport: newTransport(true, cfg.Timeout)},
		streamedInsecure: &http.Client{Transport: newTransport(false, cfg.Timeout)},
	}
}

func newTransport(verify bool, headerTimeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DisableCompression = true
	t.ResponseHeaderTimeout = headerTimeout
	if !verify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // per-service opt out
	}
	return t
}

func (f *Forwarder) client(svc domain.Service) *http.Client {
	switch {
	case svc.Streamed() && svc.Verify:
		return f.streamed
	case svc.Streamed():
		return f.streamedInsecure
	case svc.Verify:
		return f.buffered
	default:
		return f.bufferedInsecure
	}
}

// targetURL is svc.URL, then /extraPath and ?rawQuery when present.
func targetURL(svc domain.Service, extraPath, rawQuery string) string {
	u := svc.URL
	if extraPath != "" {
		u += "/" + extraPath
	}
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// Forward sends r to svc and returns the policy-checked response. The
// caller must close the returned body.
func (f *Forwarder) Forward(ctx context.Context, r *http.Request, svc domain.Service, extraPath, rawQuery string) (*Response, error) {
	target := targetURL(svc, extraPath, rawQuery)
	slogx.FromContext(ctx).Debug("forwarding request",
		slog.String("service", svc.Name),
		slog.String("url", target),
	)

	out, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, Failed(fmt.Sprintf("Request failed: %v", err), err)
	}
	out.Header = r.Header.Clone()
	out.Header.Del("Host")
	out.Header.Set("Accept-Encoding", "identity")
	out.ContentLength = r.ContentLength
	if r.Body == nil || r.Body == http.NoBody {
		out.Body = nil
	}

	mode := metrics.ModeBuffered
	if svc.Streamed() {
		mode = metrics.ModeStreamed
	}

	start := time.Now()
	resp, err := f.client(svc).Do(out)
	f.cfg.Metrics.UpstreamDuration(svc.Name, mode, time.Since(start))
	if err != nil {
		return nil, Failed(fmt.Sprintf("Request failed: %v", err), err)
	}

	if svc.Streamed() {
		return streamedResponse(resp), nil
	}
	return f.bufferedResponse(ctx, resp, svc)
}

func streamedResponse(resp *http.Response) *Response {
	header := resp.Header.Clone()
	for _, h := range hopByHopHeaders {
		header.Del(h)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       resp.Body,
		Streamed:   true,
	}
}

func (f *Forwarder) bufferedResponse(ctx context.Context, resp *http.Response, svc domain.Service) (*Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Failed(fmt.Sprintf("Request failed: %v", err), err)
	}

	if resp.StatusCode >= http.StatusBadRequest && !bytes.Contains(body, []byte("ExceptionReport")) {
		return nil, Failed("Response is not ok: "+http.StatusText(resp.StatusCode), nil)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		slogx.FromContext(ctx).Warn("could not get content type from response",
			slog.String("service", svc.Name),
		)
	} else if !contentTypeAllowed(ct) {
		msg := fmt.Sprintf("Content type is not allowed: %s.", ct)
		slogx.FromContext(ctx).Error(msg, slog.String("service", svc.Name))
		return nil, Forbidden(msg)
	}

	if ct != "" && isRewritable(ct) {
		if err := checkXML(body); err != nil {
			return nil, Failed("Could not decode content.", err)
		}
		public := svc.ResolvedPublicURL(f.cfg.GatewayURL, f.cfg.ProtectedPath)
		rewritten, err := rewriteDocument(body, strings.TrimSpace(svc.URL), public)
		if err != nil {
			slogx.FromContext(ctx).Warn("urls not rewritten",
				slog.String("service", svc.Name),
				slog.Any("error", err),
			)
		}
		body = rewritten
	}

	header := make(http.Header, 1)
	if ct != "" {
		header.Set("Content-Type", ct)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}, nil
}
