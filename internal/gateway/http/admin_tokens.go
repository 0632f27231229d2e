package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/owsgate/internal/gateway/service"
	"github.com/aussiebroadwan/owsgate/pkg/authsdk"
	"github.com/aussiebroadwan/owsgate/pkg/httpx"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// AdminTokenHandler serves POST /v1/admin/tokens.
type AdminTokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Generate Token
//	@Description	Issues a token for a registered client without its secret.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BasicAuth
//	@Param			request	body		authsdk.GenerateTokenRequest	true	"Client and optional scopes"
//	@Success		200		{object}	authsdk.TokenResponse			"access_token, token_type, expires_in, scope"
//	@Failure		400		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		404		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Router			/v1/admin/tokens [post].
func (h *AdminTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.GenerateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if strings.TrimSpace(req.ClientID) == "" {
		authsdk.ErrInvalidRequest.WithDescription("client_id is required").WriteError(w)
		return
	}

	issued, err := h.TokenService.GenerateToken(ctx, req.ClientID, req.Scopes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			authsdk.ErrNotFound.WithDescription("client not found").WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			authsdk.ErrInvalidScope.WriteError(w)
		default:
			slogx.FromContext(ctx).Error("failed to generate token", "error", err, "client_id", req.ClientID)
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
