package gateway_test

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/owsgate/pkg/authsdk"
	"github.com/aussiebroadwan/owsgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// TestSignedTokens runs the gateway with RS256 tokens and checks the key
// is published and the tokens open the proxy.
func TestSignedTokens(t *testing.T) {
	keyPEM, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	certPEM, err := cryptox.SelfSignedCertificate(keyPEM, "owsgate-e2e", 24*time.Hour)
	require.NoError(t, err)

	baseURL, cleanup := setupGatewayContainer(t,
		map[string]string{
			"GATEWAY_TOKEN_TYPE":     "signed_token",
			"GATEWAY_TOKEN_CERTFILE": "/data/cert.pem",
			"GATEWAY_TOKEN_KEYFILE":  "/data/key.pem",
		},
		testcontainers.ContainerFile{Reader: bytes.NewReader(certPEM), ContainerFilePath: "/data/cert.pem", FileMode: 0o644},
		testcontainers.ContainerFile{Reader: bytes.NewReader(keyPEM), ContainerFilePath: "/data/key.pem", FileMode: 0o644},
	)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RS256", jwks.Keys[0].Alg)

	token := issueToken(t, client, "compute")
	require.Equal(t, 2, bytes.Count([]byte(token), []byte(".")), "signed tokens are JWTs")

	resp, err := client.Proxy(t.Context(), token, "self", "livez", "")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
