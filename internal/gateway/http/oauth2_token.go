package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/owsgate/internal/gateway/service"
	"github.com/aussiebroadwan/owsgate/pkg/authsdk"
	"github.com/aussiebroadwan/owsgate/pkg/httpx"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// TokenHandler serves POST /oauth/token.
// Accepts application/x-www-form-urlencoded per RFC 6749.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues an access token using the client_credentials grant. Client credentials may be sent in the form or with HTTP basic auth.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(client_credentials)
//	@Param			client_id		formData	string					false	"Client identifier (or basic auth user)"
//	@Param			client_secret	formData	string					false	"Client secret (or basic auth password)"
//	@Param			scope			formData	string					false	"Space-delimited list of scopes"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, scope"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/oauth/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	grantType := strings.TrimSpace(r.PostForm.Get("grant_type"))
	if grantType == "" {
		authsdk.ErrInvalidRequest.WithDescription("grant_type is required").WriteError(w)
		return
	}
	if grantType != service.GrantClientCredentials {
		authsdk.ErrUnsupportedGrantType.WriteError(w)
		return
	}

	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = strings.TrimSpace(r.PostForm.Get("client_id"))
		clientSecret = r.PostForm.Get("client_secret")
	}
	scopes := httpx.ParseSpaceDelimitedFields(r.PostForm.Get("scope"))

	issued, err := h.TokenService.ExchangeClientCredentials(ctx, grantType, clientID, clientSecret, scopes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			authsdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			authsdk.ErrInvalidScope.WriteError(w)
		case errors.Is(err, service.ErrUnsupportedGrant):
			authsdk.ErrUnsupportedGrantType.WriteError(w)
		default:
			log.Error("client_credentials grant failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresIn:   issued.ExpiresIn,
		Scope:       strings.Join(issued.Scopes, " "),
	})
}
