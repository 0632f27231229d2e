package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/service"
	"github.com/aussiebroadwan/owsgate/pkg/authsdk"
	"github.com/aussiebroadwan/owsgate/pkg/httpx"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// ClientsHandler handles the client administration endpoints.
type ClientsHandler struct {
	ClientService *service.ClientService
}

// HandleList handles GET /v1/admin/clients
//
//	@Summary		List OAuth2 Clients
//	@Description	Returns all registered clients. Secrets are never included.
//	@Tags			Admin
//	@Produce		json
//	@Security		BasicAuth
//	@Success		200	{object}	authsdk.ListClientsResponse	"List of clients"
//	@Failure		401	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		500	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/admin/clients [get].
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clients, err := h.ClientService.ListClients(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list clients", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	out := make([]authsdk.ClientInfo, len(clients))
	for i, c := range clients {
		out[i] = authsdk.ClientInfo{
			ClientID:    c.ID,
			Name:        c.Name,
			RedirectURI: c.RedirectURI,
			Scopes:      c.Scopes,
			CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ListClientsResponse{Clients: out})
}

// HandleDelete handles DELETE /v1/admin/clients/{id}
//
//	@Summary		Delete OAuth2 Client
//	@Description	Deletes a client and every token issued to it.
//	@Tags			Admin
//	@Produce		json
//	@Security		BasicAuth
//	@Param			id	path	string	true	"Client ID"
//	@Success		204	"Client deleted"
//	@Failure		401	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/admin/clients/{id} [delete].
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := r.PathValue("id")

	if err := h.ClientService.DeleteClient(ctx, clientID); err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			authsdk.ErrNotFound.WithDescription("client not found").WriteError(w)
			return
		}
		slogx.FromContext(ctx).Error("failed to delete client", "error", err, "client_id", clientID)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
