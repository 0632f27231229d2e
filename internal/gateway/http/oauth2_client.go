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

// RegisterClientHandler serves POST /oauth/client.
type RegisterClientHandler struct {
	ClientService *service.ClientService
}

// ServeHTTP godoc
//
//	@Summary		Register OAuth2 Client
//	@Description	Registers a client for the client_credentials grant. The secret is only returned in this response.
//	@Tags			OAuth2
//	@Accept			json
//	@Produce		json
//	@Security		BasicAuth
//	@Param			request	body		authsdk.RegisterClientRequest	true	"Client registration request"
//	@Success		201		{object}	authsdk.RegisterClientResponse	"name, client_id, client_secret, redirect_uri, scope"
//	@Failure		400		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		500		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Router			/oauth/client [post].
func (h *RegisterClientHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	client, secret, err := h.ClientService.RegisterClient(ctx, req.Name, req.RedirectURI)
	if err != nil {
		if errors.Is(err, service.ErrInvalidName) {
			authsdk.ErrInvalidRequest.WithDescription("client name is required").WriteError(w)
			return
		}
		log.Error("failed to register client", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterClientResponse{
		Name:         client.Name,
		ClientID:     client.ID,
		ClientSecret: secret,
		RedirectURI:  client.RedirectURI,
		Scope:        strings.Join(client.Scopes, " "),
	})
}
