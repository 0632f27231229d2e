package gateway_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/owsgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestClientCredentialsFlow(t *testing.T) {
	baseURL, cleanup := setupGatewayContainer(t, nil)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	clientID, clientSecret := registerClient(t, client)

	t.Run("default scopes", func(t *testing.T) {
		resp, err := client.ClientCredentialsGrant(t.Context(), clientID, clientSecret, nil)
		assertTokenResponse(t, resp, err)
		require.Equal(t, "compute register", resp.Scope)
		require.Equal(t, 3600, resp.ExpiresIn)
	})

	t.Run("narrowed scopes", func(t *testing.T) {
		resp, err := client.ClientCredentialsGrant(t.Context(), clientID, clientSecret, []string{"compute"})
		assertTokenResponse(t, resp, err)
		require.Equal(t, "compute", resp.Scope)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := client.ClientCredentialsGrant(t.Context(), clientID, "not-the-secret", nil)
		assertOAuthError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidClient)
	})

	t.Run("scope not granted", func(t *testing.T) {
		_, err := client.ClientCredentialsGrant(t.Context(), clientID, clientSecret, []string{"admin"})
		assertOAuthError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidScope)
	})
}

func TestClientRegistrationRequiresAdmin(t *testing.T) {
	baseURL, cleanup := setupGatewayContainer(t, nil)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	_, err := client.RegisterClient(t.Context(), adminUser, "wrong", authsdk.RegisterClientRequest{Name: clientName})
	assertOAuthError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestDeletedClientTokensStopWorking(t *testing.T) {
	baseURL, cleanup := setupGatewayContainer(t, nil)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	clientID, clientSecret := registerClient(t, client)

	tok, err := client.ClientCredentialsGrant(t.Context(), clientID, clientSecret, []string{"compute"})
	assertTokenResponse(t, tok, err)

	require.NoError(t, client.DeleteClient(t.Context(), adminUser, adminPassword, clientID))

	_, err = client.Proxy(t.Context(), tok.AccessToken, "self", "livez", "")
	assertOWSException(t, err, http.StatusForbidden, "AccessForbidden")
}
