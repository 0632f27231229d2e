package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// RegisterClient creates an OAuth2 client. user and password are the admin
// credential configured on the gateway.
func (c *SDKClient) RegisterClient(ctx context.Context, user, password string, req RegisterClientRequest) (*RegisterClientResponse, error) {
	var out RegisterClientResponse
	if err := c.doJSON(ctx, http.MethodPost, "/oauth/client", req, &out, http.StatusCreated, withBasicAuth(user, password)); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClients returns every registered client.
func (c *SDKClient) ListClients(ctx context.Context, user, password string) (*ListClientsResponse, error) {
	var out ListClientsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/admin/clients", nil, &out, http.StatusOK, withBasicAuth(user, password)); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClient removes a client and every token issued to it.
func (c *SDKClient) DeleteClient(ctx context.Context, user, password, clientID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/admin/clients/"+url.PathEscape(clientID), nil, nil, http.StatusNoContent, withBasicAuth(user, password))
}

// ListServices returns the protected backends.
func (c *SDKClient) ListServices(ctx context.Context, user, password string) (*ListServicesResponse, error) {
	var out ListServicesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/admin/services", nil, &out, http.StatusOK, withBasicAuth(user, password)); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddService registers or replaces a backend.
func (c *SDKClient) AddService(ctx context.Context, user, password string, svc ServiceInfo) (*ServiceInfo, error) {
	var out ServiceInfo
	if err := c.doJSON(ctx, http.MethodPost, "/v1/admin/services", svc, &out, http.StatusOK, withBasicAuth(user, password)); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveService deletes a backend by name.
func (c *SDKClient) RemoveService(ctx context.Context, user, password, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/admin/services/"+url.PathEscape(name), nil, nil, http.StatusNoContent, withBasicAuth(user, password))
}

// ClearServices deletes every backend.
func (c *SDKClient) ClearServices(ctx context.Context, user, password string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/admin/services", nil, nil, http.StatusNoContent, withBasicAuth(user, password))
}

// GenerateToken issues a token for a client without its secret.
func (c *SDKClient) GenerateToken(ctx context.Context, user, password string, req GenerateTokenRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/admin/tokens", req, &out, http.StatusOK, withBasicAuth(user, password)); err != nil {
		return nil, err
	}
	return &out, nil
}
