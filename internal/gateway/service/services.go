package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrInvalidService  = errors.New("invalid service")
)

// ServiceAdmin manages the registry of protected services.
type ServiceAdmin struct {
	Store store.Store
}

// NormalizeService trims svc, applies defaults and checks that it can be
// proxied: a non-empty name without slashes and an absolute http(s) URL.
// A trailing slash on the URL is dropped so rewriting matches.
func NormalizeService(svc domain.Service) (domain.Service, error) {
	svc.Name = strings.TrimSpace(svc.Name)
	svc.URL = strings.TrimSuffix(strings.TrimSpace(svc.URL), "/")
	svc.Type = strings.ToLower(strings.TrimSpace(svc.Type))
	svc.PublicURL = strings.TrimSpace(svc.PublicURL)

	if svc.Name == "" || strings.ContainsAny(svc.Name, "/?#") {
		return svc, fmt.Errorf("%w: name %q", ErrInvalidService, svc.Name)
	}
	if !domain.IsHTTPURL(svc.URL) {
		return svc, fmt.Errorf("%w: url %q is not an absolute http(s) url", ErrInvalidService, svc.URL)
	}
	if svc.Type == "" {
		svc.Type = domain.DefaultServiceType
	}
	return svc, nil
}

func (s *ServiceAdmin) ListServices(ctx context.Context) ([]domain.Service, error) {
	return s.Store.Services().ListServices(ctx)
}

func (s *ServiceAdmin) GetService(ctx context.Context, name string) (domain.Service, error) {
	svc, err := s.Store.Services().GetServiceByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Service{}, ErrServiceNotFound
	}
	return svc, err
}

// AddService registers svc, replacing any service with the same name.
func (s *ServiceAdmin) AddService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	svc, err := NormalizeService(svc)
	if err != nil {
		return domain.Service{}, err
	}
	if err := s.Store.Services().UpsertService(ctx, svc); err != nil {
		return domain.Service{}, err
	}

	slogx.FromContext(ctx).Info("service registered",
		slog.String("service", svc.Name),
		slog.String("type", svc.Type),
		slog.Bool("verify", svc.Verify),
	)
	return s.GetService(ctx, svc.Name)
}

func (s *ServiceAdmin) RemoveService(ctx context.Context, name string) error {
	err := s.Store.Services().DeleteService(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return ErrServiceNotFound
	}
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("service removed", slog.String("service", name))
	return nil
}

func (s *ServiceAdmin) ClearServices(ctx context.Context) error {
	if err := s.Store.Services().ClearServices(ctx); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("services cleared")
	return nil
}
