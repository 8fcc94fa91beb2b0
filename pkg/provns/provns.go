// Package provns is the caller-facing surface of the provider-dispatch
// core. An Engine wires the session registry, the path resolver and
// the dispatcher behind two call forms with identical semantics: the
// synchronous form drains a private operation context and surfaces the
// first recorded failure after the whole batch ran; the streaming form
// leaves results and errors in a caller-owned context for incremental
// consumption.
package provns

import (
	"github.com/rs/zerolog"

	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/dispatch"
	"github.com/provns/provns/pkg/provns/glob"
	"github.com/provns/provns/pkg/provns/provider"
	"github.com/provns/provns/pkg/provns/session"
)

// Engine is one virtual namespace: a provider registry, a drive table
// and the dispatcher routing property operations across them.
type Engine struct {
	registry   *session.Registry
	dispatcher *dispatch.Dispatcher
	clog       core.Logger
}

// New creates an Engine with the default logger (warn level, stderr).
func New() *Engine {
	return NewWithLogger(DefaultLogger())
}

// NewWithLogger creates an Engine logging through the given logger.
func NewWithLogger(logger zerolog.Logger) *Engine {
	clog := NewLoggerAdapter(&logger)
	registry := session.NewRegistry(clog)
	resolver := glob.New(registry, clog)
	return &Engine{
		registry:   registry,
		dispatcher: dispatch.New(resolver, clog),
		clog:       clog,
	}
}

// Registry exposes the provider registry and drive table.
func (e *Engine) Registry() *session.Registry { return e.registry }

// Dispatcher exposes the dispatch core, including the per-verb
// dynamic-parameter queries.
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }

// RegisterProvider registers a backend under its identity name.
func (e *Engine) RegisterProvider(p provider.Provider) error {
	return e.registry.AddProvider(p)
}

// NewDrive mounts a drive for a registered provider.
func (e *Engine) NewDrive(name, providerName, root string) error {
	return e.registry.NewDrive(session.Drive{Name: name, Provider: providerName, Root: root})
}

// MountAll mounts a batch of drives, ordering them so drives rooted
// inside sibling drives mount after their dependency.
func (e *Engine) MountAll(specs []session.Drive) error {
	return e.registry.MountAll(specs)
}

// NewContext creates an operation context bound to the engine's
// logger, for use with the streaming call forms.
func (e *Engine) NewContext() *core.OpContext {
	return core.NewOpContext(e.clog)
}

// run executes one synchronous batch: fresh context, dispatch, drain,
// surface first failure.
func (e *Engine) run(dispatchFn func(ctx *core.OpContext) error) ([]core.Result, error) {
	ctx := e.NewContext()
	if err := dispatchFn(ctx); err != nil {
		return ctx.Drain(), err
	}
	return ctx.Drain(), ctx.FirstError()
}

// GetProperty reads properties of every item the paths expand to.
// The pick list selects property names; empty or "*" means all.
func (e *Engine) GetProperty(paths []string, pick ...string) ([]core.Result, error) {
	return e.run(func(ctx *core.OpContext) error {
		return e.dispatcher.GetProperty(paths, pick, ctx)
	})
}

// GetPropertyCtx is the streaming form of GetProperty.
func (e *Engine) GetPropertyCtx(ctx *core.OpContext, paths []string, pick []string) error {
	return e.dispatcher.GetProperty(paths, pick, ctx)
}

// SetProperty writes the opaque property value on every item the paths
// expand to.
func (e *Engine) SetProperty(paths []string, value interface{}) ([]core.Result, error) {
	return e.run(func(ctx *core.OpContext) error {
		return e.dispatcher.SetProperty(paths, value, ctx)
	})
}

// SetPropertyCtx is the streaming form of SetProperty.
func (e *Engine) SetPropertyCtx(ctx *core.OpContext, paths []string, value interface{}) error {
	return e.dispatcher.SetProperty(paths, value, ctx)
}

// ClearProperty resets the named properties on every item the paths
// expand to.
func (e *Engine) ClearProperty(paths []string, names ...string) ([]core.Result, error) {
	return e.run(func(ctx *core.OpContext) error {
		return e.dispatcher.ClearProperty(paths, names, ctx)
	})
}

// ClearPropertyCtx is the streaming form of ClearProperty.
func (e *Engine) ClearPropertyCtx(ctx *core.OpContext, paths []string, names []string) error {
	return e.dispatcher.ClearProperty(paths, names, ctx)
}

// NewProperty creates a property on every item the paths expand to.
func (e *Engine) NewProperty(paths []string, name, propertyType string, value interface{}) ([]core.Result, error) {
	return e.run(func(ctx *core.OpContext) error {
		return e.dispatcher.NewProperty(paths, name, propertyType, value, ctx)
	})
}

// NewPropertyCtx is the streaming form of NewProperty.
func (e *Engine) NewPropertyCtx(ctx *core.OpContext, paths []string, name, propertyType string, value interface{}) error {
	return e.dispatcher.NewProperty(paths, name, propertyType, value, ctx)
}

// RemoveProperty removes a property from every item the paths expand
// to.
func (e *Engine) RemoveProperty(paths []string, name string) ([]core.Result, error) {
	return e.run(func(ctx *core.OpContext) error {
		return e.dispatcher.RemoveProperty(paths, name, ctx)
	})
}

// RemovePropertyCtx is the streaming form of RemoveProperty.
func (e *Engine) RemovePropertyCtx(ctx *core.OpContext, paths []string, name string) error {
	return e.dispatcher.RemoveProperty(paths, name, ctx)
}

// RenameProperty renames a property on every item the path expands to.
func (e *Engine) RenameProperty(path, sourceName, destinationName string) ([]core.Result, error) {
	return e.run(func(ctx *core.OpContext) error {
		return e.dispatcher.RenameProperty(path, sourceName, destinationName, ctx)
	})
}

// RenamePropertyCtx is the streaming form of RenameProperty.
func (e *Engine) RenamePropertyCtx(ctx *core.OpContext, path, sourceName, destinationName string) error {
	return e.dispatcher.RenameProperty(path, sourceName, destinationName, ctx)
}

// CopyProperty copies a property from every item the source path
// expands to onto the single destination item.
func (e *Engine) CopyProperty(sourcePath, sourceName, destinationPath, destinationName string) ([]core.Result, error) {
	return e.run(func(ctx *core.OpContext) error {
		return e.dispatcher.CopyProperty(sourcePath, sourceName, destinationPath, destinationName, ctx)
	})
}

// CopyPropertyCtx is the streaming form of CopyProperty.
func (e *Engine) CopyPropertyCtx(ctx *core.OpContext, sourcePath, sourceName, destinationPath, destinationName string) error {
	return e.dispatcher.CopyProperty(sourcePath, sourceName, destinationPath, destinationName, ctx)
}

// MoveProperty moves a property from every item the source path
// expands to onto the single destination item.
func (e *Engine) MoveProperty(sourcePath, sourceName, destinationPath, destinationName string) ([]core.Result, error) {
	return e.run(func(ctx *core.OpContext) error {
		return e.dispatcher.MoveProperty(sourcePath, sourceName, destinationPath, destinationName, ctx)
	})
}

// MovePropertyCtx is the streaming form of MoveProperty.
func (e *Engine) MovePropertyCtx(ctx *core.OpContext, sourcePath, sourceName, destinationPath, destinationName string) error {
	return e.dispatcher.MoveProperty(sourcePath, sourceName, destinationPath, destinationName, ctx)
}
