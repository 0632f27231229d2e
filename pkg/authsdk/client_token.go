package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ClientCredentialsGrant exchanges client credentials for an access token.
// Credentials are sent with HTTP basic auth.
func (c *SDKClient) ClientCredentialsGrant(ctx context.Context, clientID, clientSecret string, scopes []string) (*TokenResponse, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}

	resp, err := c.do(ctx, http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()),
		withBasicAuth(clientID, clientSecret),
		withHeader("Content-Type", "application/x-www-form-urlencoded"),
	)
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return &tok, nil
}
