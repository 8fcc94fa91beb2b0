// Package session keeps the per-engine provider registry and drive
// table. A drive binds a short name to a provider plus a
// provider-native root; the path resolver translates drive-qualified
// virtual paths through this table.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
)

// Drive binds a name usable in virtual paths ("data:/...") to a
// provider and a root within that provider's namespace.
type Drive struct {
	Name        string
	Provider    string
	Root        string
	Description string
}

// Registry holds the registered providers and mounted drives of one
// engine.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]provider.Provider
	drives    map[string]Drive
	logger    core.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger core.Logger) *Registry {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	return &Registry{
		providers: make(map[string]provider.Provider),
		drives:    make(map[string]Drive),
		logger:    logger,
	}
}

// AddProvider registers a provider under its Info name.
func (r *Registry) AddProvider(p provider.Provider) error {
	if p == nil {
		return &core.ArgumentError{Arg: "provider", Reason: "provider is required"}
	}
	info := p.Info()
	if info.Name == "" {
		return &core.ArgumentError{Arg: "provider", Reason: "provider name must not be empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[info.Name]; exists {
		return fmt.Errorf("provider %q is already registered", info.Name)
	}
	r.providers[info.Name] = p

	r.logger.Debug().Str("provider", info.Name).Msg("provider registered")
	return nil
}

// Provider returns the registered provider instance by name.
func (r *Registry) Provider(name string) (provider.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Providers returns the identity metadata of all registered providers,
// sorted by name.
func (r *Registry) Providers() []provider.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]provider.Info, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewDrive mounts a drive. The drive name must be usable as a path
// qualifier and the named provider must already be registered.
func (r *Registry) NewDrive(d Drive) error {
	if d.Name == "" {
		return &core.ArgumentError{Arg: "drive", Reason: "drive name must not be empty"}
	}
	if strings.ContainsAny(d.Name, ":/\\") {
		return &core.ArgumentError{Arg: "drive", Reason: "drive name must not contain path separators"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.drives[d.Name]; exists {
		return fmt.Errorf("drive %q is already mounted", d.Name)
	}
	if _, ok := r.providers[d.Provider]; !ok {
		return &core.ProviderNotFoundError{Provider: d.Provider}
	}
	r.drives[d.Name] = d

	r.logger.Debug().
		Str("drive", d.Name).
		Str("provider", d.Provider).
		Str("root", d.Root).
		Msg("drive mounted")
	return nil
}

// Drive returns the mounted drive by name.
func (r *Registry) Drive(name string) (Drive, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drives[name]
	return d, ok
}

// RemoveDrive unmounts a drive.
func (r *Registry) RemoveDrive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drives[name]; !ok {
		return &core.DriveNotFoundError{Drive: name}
	}
	delete(r.drives, name)
	r.logger.Debug().Str("drive", name).Msg("drive unmounted")
	return nil
}

// Drives returns all mounted drives, sorted by name.
func (r *Registry) Drives() []Drive {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Drive, 0, len(r.drives))
	for _, d := range r.drives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
