// Package registry provisions protected services from a YAML file.
//
// The file looks like:
//
//	services:
//	  - name: emu
//	    url: http://emu:5000/wps
//	    type: wps
//	    verify: true
//	    purl: https://public.example.com/emu
//
// Loading upserts every entry into the service store. Services that exist
// only in the store (added through the admin API) are left alone.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/service"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"gopkg.in/yaml.v3"
)

// File is the services file.
type File struct {
	Services []Entry `yaml:"services"`
}

// Entry is one service in the file. Verify defaults to true.
type Entry struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	Type      string `yaml:"type,omitempty"`
	Verify    *bool  `yaml:"verify,omitempty"`
	PublicURL string `yaml:"purl,omitempty"`
}

// Service converts e into a normalised domain.Service.
func (e Entry) Service() (domain.Service, error) {
	verify := true
	if e.Verify != nil {
		verify = *e.Verify
	}
	return service.NormalizeService(domain.Service{
		Name:      e.Name,
		URL:       e.URL,
		Type:      e.Type,
		Verify:    verify,
		PublicURL: e.PublicURL,
	})
}

// Parse decodes a services file. Unknown keys are an error so typos do not
// silently drop settings. Every entry is validated, and duplicate names are
// rejected.
func Parse(r io.Reader) ([]domain.Service, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("registry: decode: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Services))
	out := make([]domain.Service, 0, len(f.Services))
	for i, e := range f.Services {
		svc, err := e.Service()
		if err != nil {
			return nil, fmt.Errorf("registry: services[%d]: %w", i, err)
		}
		if _, dup := seen[svc.Name]; dup {
			return nil, fmt.Errorf("registry: services[%d]: duplicate name %q", i, svc.Name)
		}
		seen[svc.Name] = struct{}{}
		out = append(out, svc)
	}
	return out, nil
}

// LoadFile reads and parses the services file at path.
func LoadFile(path string) ([]domain.Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Loader applies a services file to a store.
type Loader struct {
	Path   string
	Store  store.Store
	Logger *slog.Logger
}

// Load parses the file and upserts every service in one transaction. A
// file that fails to parse changes nothing.
func (l *Loader) Load(ctx context.Context) (int, error) {
	services, err := LoadFile(l.Path)
	if err != nil {
		return 0, err
	}

	err = l.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, svc := range services {
			if err := tx.Services().UpsertService(ctx, svc); err != nil {
				return fmt.Errorf("registry: upsert %q: %w", svc.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.logger().Info("services file loaded", "path", l.Path, "services", len(services))
	return len(services), nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
