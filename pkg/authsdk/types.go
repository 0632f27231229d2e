package authsdk

import "github.com/aussiebroadwan/owsgate/pkg/jwtx"

// ErrorResponse is the RFC 6749 JSON error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// OWSExceptionJSON is the JSON rendering of an OGC exception, sent when the
// caller prefers application/json.
type OWSExceptionJSON struct {
	Code        string `json:"code"`
	Locator     string `json:"locator"`
	Description string `json:"description"`
}

// TokenResponse is the body of a successful token request.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// RegisterClientRequest registers a new OAuth2 client.
type RegisterClientRequest struct {
	Name        string `json:"name"`
	RedirectURI string `json:"redirect_uri"`
}

// RegisterClientResponse returns the generated credentials. The secret is
// only ever returned here.
type RegisterClientResponse struct {
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	Scope        string `json:"scope"`
}

// ClientInfo describes a registered client without its secret.
type ClientInfo struct {
	ClientID    string   `json:"client_id"`
	Name        string   `json:"name"`
	RedirectURI string   `json:"redirect_uri,omitempty"`
	Scopes      []string `json:"scopes"`
	CreatedAt   string   `json:"created_at"`
}

// ListClientsResponse lists registered clients.
type ListClientsResponse struct {
	Clients []ClientInfo `json:"clients"`
}

// ServiceInfo describes a protected backend.
type ServiceInfo struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	Verify    *bool  `json:"verify,omitempty"`
	PublicURL string `json:"purl,omitempty"`
	ProxyURL  string `json:"proxy_url,omitempty"`
}

// ListServicesResponse lists registered services.
type ListServicesResponse struct {
	Services []ServiceInfo `json:"services"`
}

// GenerateTokenRequest asks the admin API for a token on behalf of a client.
type GenerateTokenRequest struct {
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports readiness of each dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Tokens   string `json:"tokens"`
}

// JWKSResponse is the key set published for signed tokens.
type JWKSResponse jwtx.JWKS
