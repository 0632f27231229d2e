package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/service"
	"github.com/aussiebroadwan/owsgate/pkg/authsdk"
	"github.com/aussiebroadwan/owsgate/pkg/httpx"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// ServicesHandler handles the service registry endpoints.
type ServicesHandler struct {
	ServiceAdmin  *service.ServiceAdmin
	GatewayURL    string
	ProtectedPath string
}

func (h *ServicesHandler) info(svc domain.Service) authsdk.ServiceInfo {
	verify := svc.Verify
	return authsdk.ServiceInfo{
		Name:      svc.Name,
		URL:       svc.URL,
		Type:      svc.Type,
		Verify:    &verify,
		PublicURL: svc.PublicURL,
		ProxyURL:  svc.ProxyURL(h.GatewayURL, h.ProtectedPath),
	}
}

// HandleList handles GET /v1/admin/services
//
//	@Summary		List Services
//	@Tags			Admin
//	@Produce		json
//	@Security		BasicAuth
//	@Success		200	{object}	authsdk.ListServicesResponse	"Registered services"
//	@Failure		401	{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		500	{object}	authsdk.ErrorResponse			"error, error_description"
//	@Router			/v1/admin/services [get].
func (h *ServicesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	services, err := h.ServiceAdmin.ListServices(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list services", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	out := make([]authsdk.ServiceInfo, len(services))
	for i, svc := range services {
		out[i] = h.info(svc)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ListServicesResponse{Services: out})
}

// HandleAdd handles POST /v1/admin/services
//
//	@Summary		Add Service
//	@Description	Registers a protected service, replacing any service with the same name. verify defaults to true.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BasicAuth
//	@Param			request	body		authsdk.ServiceInfo		true	"Service"
//	@Success		200		{object}	authsdk.ServiceInfo		"The stored service"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/admin/services [post].
func (h *ServicesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.ServiceInfo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}

	verify := true
	if req.Verify != nil {
		verify = *req.Verify
	}

	svc, err := h.ServiceAdmin.AddService(ctx, domain.Service{
		Name:      req.Name,
		URL:       req.URL,
		Type:      req.Type,
		Verify:    verify,
		PublicURL: req.PublicURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidService) {
			authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
			return
		}
		slogx.FromContext(ctx).Error("failed to add service", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.info(svc))
}

// HandleRemove handles DELETE /v1/admin/services/{name}
//
//	@Summary		Remove Service
//	@Tags			Admin
//	@Security		BasicAuth
//	@Param			name	path	string	true	"Service name"
//	@Success		204		"Service removed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/admin/services/{name} [delete].
func (h *ServicesHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	if err := h.ServiceAdmin.RemoveService(ctx, name); err != nil {
		if errors.Is(err, service.ErrServiceNotFound) {
			authsdk.ErrNotFound.WithDescription("service not found").WriteError(w)
			return
		}
		slogx.FromContext(ctx).Error("failed to remove service", "error", err, "service", name)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClear handles DELETE /v1/admin/services
//
//	@Summary		Clear Services
//	@Description	Removes every registered service.
//	@Tags			Admin
//	@Security		BasicAuth
//	@Success		204	"Services cleared"
//	@Failure		401	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/admin/services [delete].
func (h *ServicesHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.ServiceAdmin.ClearServices(ctx); err != nil {
		slogx.FromContext(ctx).Error("failed to clear services", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
