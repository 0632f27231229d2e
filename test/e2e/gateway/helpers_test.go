package gateway_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/owsgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for gateway end-to-end tests.
 * This includes container setup, client registration, and assertions.
 */

const (
	testImageName = "owsgate-test:latest"

	adminUser     = "admin"
	adminPassword = "Admin123!"
	clientName    = "e2e-client"

	servicesFilePath = "/data/services.yaml"
)

// servicesYAML points both services back at the gateway itself so the
// proxy path can be exercised without a second container.
const servicesYAML = `services:
  - name: self
    url: http://127.0.0.1:8080
    type: json
  - name: selfwps
    url: http://127.0.0.1:8080
`

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building owsgate Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up owsgate Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/owsgate/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// relaxedLimits keeps the rate limiter out of the way of ordinary tests.
var relaxedLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_WINDOW_SEC": "60",
	"RATELIMIT_STRICT_BURST":      "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
	"RATELIMIT_MODERATE_BURST":    "1000",
}

// setupGatewayContainer starts the gateway with the services file mounted
// and relaxed rate limits. extraEnv overrides the defaults.
func setupGatewayContainer(t *testing.T, extraEnv map[string]string, files ...testcontainers.ContainerFile) (string, func()) {
	t.Helper()

	env := map[string]string{
		"GATEWAY_ADMIN_USER":     adminUser,
		"GATEWAY_ADMIN_PASSWORD": adminPassword,
		"GATEWAY_SERVICES_FILE":  servicesFilePath,
		"ENV":                    "test",
		"LOG_LEVEL":              "info",
		"LOG_FORMAT":             "json",
	}
	maps.Copy(env, relaxedLimits)
	maps.Copy(env, extraEnv)

	files = append(files, testcontainers.ContainerFile{
		Reader:            strings.NewReader(servicesYAML),
		ContainerFilePath: servicesFilePath,
		FileMode:          0o644,
	})

	return startContainer(t, env, files)
}

// setupGatewayContainerWithDefaultRateLimits starts the gateway with the
// production rate limits. Only the rate limit tests should use it.
func setupGatewayContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()

	env := map[string]string{
		"GATEWAY_ADMIN_USER":     adminUser,
		"GATEWAY_ADMIN_PASSWORD": adminPassword,
		"ENV":                    "test",
		"LOG_LEVEL":              "info",
		"LOG_FORMAT":             "json",
	}
	return startContainer(t, env, nil)
}

func startContainer(t *testing.T, env map[string]string, files []testcontainers.ContainerFile) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		Files:        files,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// registerClient registers a client through the admin-protected endpoint.
func registerClient(t *testing.T, client *authsdk.SDKClient) (clientID, clientSecret string) {
	t.Helper()

	resp, err := client.RegisterClient(t.Context(), adminUser, adminPassword, authsdk.RegisterClientRequest{
		Name:        clientName,
		RedirectURI: "http://localhost/callback",
	})
	require.NoError(t, err, "client registration should succeed")
	require.NotEmpty(t, resp.ClientID)
	require.NotEmpty(t, resp.ClientSecret)

	return resp.ClientID, resp.ClientSecret
}

// issueToken registers a client and exchanges its credentials for a token.
func issueToken(t *testing.T, client *authsdk.SDKClient, scopes ...string) string {
	t.Helper()

	clientID, clientSecret := registerClient(t, client)
	resp, err := client.ClientCredentialsGrant(t.Context(), clientID, clientSecret, scopes)
	assertTokenResponse(t, resp, err)
	return resp.AccessToken
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *authsdk.TokenResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.NotEmpty(t, resp.Scope, "Scope should not be empty")
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// assertOAuthError checks err is an OAuth2 error with the given code.
func assertOAuthError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var oerr *authsdk.OAuth2Error
	require.True(t, errors.As(err, &oerr), "expected OAuth2Error, got %v", err)
	require.Equal(t, status, oerr.StatusCode)
	require.Equal(t, code, oerr.Code)
}

// assertOWSException checks err is an exception report with the given code.
func assertOWSException(t *testing.T, err error, status int, code string) {
	t.Helper()
	var oerr *authsdk.OWSException
	require.True(t, errors.As(err, &oerr), "expected OWSException, got %v", err)
	require.Equal(t, status, oerr.StatusCode)
	require.Equal(t, code, oerr.Code)
}
