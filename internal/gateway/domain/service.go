package domain

import (
	"net/url"
	"strings"
	"time"
)

// DefaultServiceType is the type of services that are buffered and
// rewritten by the proxy. Any other type is streamed.
const DefaultServiceType = "wps"

// Service is a protected OWS backend.
type Service struct {
	Name      string
	URL       string
	Type      string
	Verify    bool
	PublicURL string
	CreatedAt time.Time
}

// Streamed reports whether responses are relayed without inspection.
func (s Service) Streamed() bool {
	return s.Type != "" && !strings.EqualFold(s.Type, DefaultServiceType)
}

// ProxyURL is the address clients use to reach the service through the
// gateway.
func (s Service) ProxyURL(gatewayURL, protectedPath string) string {
	return strings.TrimSuffix(gatewayURL, "/") + protectedPath + "/proxy/" + s.Name
}

// ResolvedPublicURL is PublicURL when it is an absolute http(s) URL, and
// the proxy URL otherwise.
func (s Service) ResolvedPublicURL(gatewayURL, protectedPath string) string {
	if IsHTTPURL(s.PublicURL) {
		return s.PublicURL
	}
	return s.ProxyURL(gatewayURL, protectedPath)
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
