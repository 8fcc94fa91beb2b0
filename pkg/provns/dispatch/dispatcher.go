// Package dispatch routes path-addressed property operations to the
// providers that own the resolved paths. Each verb shares one shape:
// validate arguments, expand every input path through the resolver,
// then invoke the provider capability method per concrete path inside
// a normalization boundary. Results and recoverable errors accumulate
// in the operation context; the batch keeps going past failures so a
// multi-path invocation maximizes partial success.
package dispatch

import (
	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
)

// Resolver expands a virtual path into the concrete provider-native
// paths it denotes. literal suppresses wildcard expansion; a literal
// path with zero matches is an error, a wildcarded one yields an empty
// path list. Implemented by glob.Globber.
type Resolver interface {
	Resolve(path string, literal bool, ctx *core.OpContext) (provider.Resolved, error)
}

// Operation message keys, used in normalized faults and logs.
const (
	opGetProperty    = "get-property"
	opSetProperty    = "set-property"
	opClearProperty  = "clear-property"
	opNewProperty    = "new-property"
	opRemoveProperty = "remove-property"
	opRenameProperty = "rename-property"
	opCopyProperty   = "copy-property"
	opMoveProperty   = "move-property"
)

// Dispatcher is the provider-dispatch core. It owns no state beyond its
// collaborators and performs no concurrency: input paths are processed
// strictly left to right, and the full fan-out of one input path
// completes before the next begins.
type Dispatcher struct {
	resolver Resolver
	logger   core.Logger
}

// New creates a Dispatcher over the given resolver.
func New(resolver Resolver, logger core.Logger) *Dispatcher {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	return &Dispatcher{resolver: resolver, logger: logger}
}

// invokeFunc runs one provider capability call for a concrete path.
type invokeFunc func(inst provider.Provider, info provider.Info, concrete string) error

// GetProperty dispatches a get-property against every concrete path
// the input paths expand to. Providers push their result records into
// ctx; the returned error is non-nil only for contract violations and
// flow-control signals, both of which abort the batch. Everything else
// is recorded into ctx and processing continues.
func (d *Dispatcher) GetProperty(paths []string, pick []string, ctx *core.OpContext) error {
	if err := checkBatchArgs(paths, ctx); err != nil {
		return err
	}
	pick = normalizePick(pick)
	for _, path := range paths {
		if err := d.dispatch(path, opGetProperty, ctx, func(inst provider.Provider, info provider.Info, concrete string) error {
			getter, ok := inst.(provider.PropertyGetter)
			if !ok {
				return &core.NotSupportedError{Provider: info.Name, Operation: opGetProperty}
			}
			return getter.GetProperty(concrete, pick, ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

// SetProperty dispatches a set-property with the given opaque property
// value against every concrete path the input paths expand to.
func (d *Dispatcher) SetProperty(paths []string, value interface{}, ctx *core.OpContext) error {
	if err := checkBatchArgs(paths, ctx); err != nil {
		return err
	}
	for _, path := range paths {
		if err := d.dispatch(path, opSetProperty, ctx, func(inst provider.Provider, info provider.Info, concrete string) error {
			setter, ok := inst.(provider.PropertySetter)
			if !ok {
				return &core.NotSupportedError{Provider: info.Name, Operation: opSetProperty}
			}
			return setter.SetProperty(concrete, value, ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

// ClearProperty dispatches a clear-property for the named properties.
// The name list is passed through untouched; its semantics, including
// an empty list meaning "all", belong to the provider.
func (d *Dispatcher) ClearProperty(paths []string, names []string, ctx *core.OpContext) error {
	if err := checkBatchArgs(paths, ctx); err != nil {
		return err
	}
	for _, path := range paths {
		if err := d.dispatch(path, opClearProperty, ctx, func(inst provider.Provider, info provider.Info, concrete string) error {
			clearer, ok := inst.(provider.PropertyClearer)
			if !ok {
				return &core.NotSupportedError{Provider: info.Name, Operation: opClearProperty}
			}
			return clearer.ClearProperty(concrete, names, ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

// NewProperty dispatches a new-property creating the named property
// with the given type hint and initial value.
func (d *Dispatcher) NewProperty(paths []string, name, propertyType string, value interface{}, ctx *core.OpContext) error {
	if err := checkBatchArgs(paths, ctx); err != nil {
		return err
	}
	if name == "" {
		return &core.ArgumentError{Arg: "name", Reason: "property name is required"}
	}
	for _, path := range paths {
		if err := d.dispatch(path, opNewProperty, ctx, func(inst provider.Provider, info provider.Info, concrete string) error {
			creator, ok := inst.(provider.PropertyCreator)
			if !ok {
				return &core.NotSupportedError{Provider: info.Name, Operation: opNewProperty}
			}
			return creator.NewProperty(concrete, name, propertyType, value, ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

// RemoveProperty dispatches a remove-property for the named property.
func (d *Dispatcher) RemoveProperty(paths []string, name string, ctx *core.OpContext) error {
	if err := checkBatchArgs(paths, ctx); err != nil {
		return err
	}
	if name == "" {
		return &core.ArgumentError{Arg: "name", Reason: "property name is required"}
	}
	for _, path := range paths {
		if err := d.dispatch(path, opRemoveProperty, ctx, func(inst provider.Provider, info provider.Info, concrete string) error {
			remover, ok := inst.(provider.PropertyRemover)
			if !ok {
				return &core.NotSupportedError{Provider: info.Name, Operation: opRemoveProperty}
			}
			return remover.RemoveProperty(concrete, name, ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

// RenameProperty dispatches a rename-property on every concrete path
// the source path expands to. Identical source and destination names
// are accepted here; whether that is a conflict is the provider's
// concern.
func (d *Dispatcher) RenameProperty(path, sourceName, destinationName string, ctx *core.OpContext) error {
	if ctx == nil {
		return &core.ArgumentError{Arg: "ctx", Reason: "operation context is required"}
	}
	if sourceName == "" {
		return &core.ArgumentError{Arg: "sourceName", Reason: "property name is required"}
	}
	if destinationName == "" {
		return &core.ArgumentError{Arg: "destinationName", Reason: "property name is required"}
	}
	return d.dispatch(path, opRenameProperty, ctx, func(inst provider.Provider, info provider.Info, concrete string) error {
		renamer, ok := inst.(provider.PropertyRenamer)
		if !ok {
			return &core.NotSupportedError{Provider: info.Name, Operation: opRenameProperty}
		}
		return renamer.RenameProperty(concrete, sourceName, destinationName, ctx)
	})
}

// CopyProperty dispatches a copy-property from every concrete path the
// source expands to onto a single destination item. The destination is
// resolved literally, never wildcard-expanded, before any provider
// method runs; a destination owned by a different provider than a
// source path is recorded as an error for that source.
func (d *Dispatcher) CopyProperty(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) error {
	if err := checkTransferArgs(sourceName, destinationName, ctx); err != nil {
		return err
	}
	dest, destConcrete, err := d.resolveDestination(destinationPath, false, ctx)
	if err != nil {
		return err
	}
	return d.dispatchTransfer(sourcePath, opCopyProperty, dest, ctx, func(inst provider.Provider, info provider.Info, concrete string) error {
		copier, ok := inst.(provider.PropertyCopier)
		if !ok {
			return &core.NotSupportedError{Provider: info.Name, Operation: opCopyProperty}
		}
		return copier.CopyProperty(concrete, sourceName, destConcrete, destinationName, ctx)
	})
}

// MoveProperty dispatches a move-property from every concrete path the
// source expands to onto a single destination item. The destination may
// be a pattern but must expand to at most one concrete path; an
// ambiguous destination is raised before any provider method runs.
func (d *Dispatcher) MoveProperty(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) error {
	if err := checkTransferArgs(sourceName, destinationName, ctx); err != nil {
		return err
	}
	dest, destConcrete, err := d.resolveDestination(destinationPath, true, ctx)
	if err != nil {
		return err
	}
	return d.dispatchTransfer(sourcePath, opMoveProperty, dest, ctx, func(inst provider.Provider, info provider.Info, concrete string) error {
		mover, ok := inst.(provider.PropertyMover)
		if !ok {
			return &core.NotSupportedError{Provider: info.Name, Operation: opMoveProperty}
		}
		return mover.MoveProperty(concrete, sourceName, destConcrete, destinationName, ctx)
	})
}

// dispatch expands one input path and invokes fn for every concrete
// path, in resolver-yielded order. Resolution errors and normalized
// provider faults are recorded into ctx so siblings keep processing;
// only flow-control signals come back as the return value.
func (d *Dispatcher) dispatch(path, op string, ctx *core.OpContext, fn invokeFunc) error {
	resolved, err := d.resolver.Resolve(path, ctx.Literal, ctx)
	if err != nil {
		if core.IsFlowControl(err) {
			return err
		}
		d.logger.Debug().
			Str("ctx_id", ctx.ID).
			Str("op", op).
			Str("path", path).
			Err(err).
			Msg("path resolution failed")
		ctx.WriteError(err)
		return nil
	}

	d.logger.Debug().
		Str("ctx_id", ctx.ID).
		Str("op", op).
		Str("path", path).
		Str("provider", resolved.Info.Name).
		Int("matches", len(resolved.Paths)).
		Msg("dispatching to resolved paths")

	for _, concrete := range resolved.Paths {
		concrete := concrete
		err := d.invoke(resolved.Info, concrete, op, func() error {
			return fn(resolved.Instance, resolved.Info, concrete)
		})
		if err != nil {
			if core.IsFlowControl(err) {
				return err
			}
			d.logger.Debug().
				Str("ctx_id", ctx.ID).
				Str("op", op).
				Str("path", concrete).
				Str("provider", resolved.Info.Name).
				Err(err).
				Msg("provider invocation failed")
			ctx.WriteError(err)
		}
	}
	return nil
}

// dispatchTransfer is the copy/move variant of dispatch: the source is
// fanned out normally, but each source path must be owned by the same
// provider as the already-resolved destination.
func (d *Dispatcher) dispatchTransfer(sourcePath, op string, dest provider.Resolved, ctx *core.OpContext, fn invokeFunc) error {
	resolved, err := d.resolver.Resolve(sourcePath, ctx.Literal, ctx)
	if err != nil {
		if core.IsFlowControl(err) {
			return err
		}
		ctx.WriteError(err)
		return nil
	}
	if resolved.Info.Name != dest.Info.Name {
		ctx.WriteError(&core.CrossProviderError{
			Operation:           op,
			SourceProvider:      resolved.Info.Name,
			DestinationProvider: dest.Info.Name,
		})
		return nil
	}
	for _, concrete := range resolved.Paths {
		concrete := concrete
		err := d.invoke(resolved.Info, concrete, op, func() error {
			return fn(resolved.Instance, resolved.Info, concrete)
		})
		if err != nil {
			if core.IsFlowControl(err) {
				return err
			}
			ctx.WriteError(err)
		}
	}
	return nil
}

// resolveDestination resolves the destination of a copy or move. For a
// copy the destination is taken literally. For a move, wildcards are
// honored but more than one match is an ambiguous destination; the
// error is returned before any provider method has been invoked.
func (d *Dispatcher) resolveDestination(path string, pattern bool, ctx *core.OpContext) (provider.Resolved, string, error) {
	literal := true
	if pattern {
		literal = ctx.Literal
	}
	dest, err := d.resolver.Resolve(path, literal, ctx)
	if err != nil {
		return provider.Resolved{}, "", err
	}
	if len(dest.Paths) > 1 {
		return provider.Resolved{}, "", &core.AmbiguousDestinationError{Path: path, Matches: dest.Paths}
	}
	if len(dest.Paths) == 0 {
		return provider.Resolved{}, "", &core.ItemNotFoundError{Path: path}
	}
	return dest, dest.Paths[0], nil
}

// checkBatchArgs fails fast on contract violations before any provider
// is touched. An empty path list is legal and simply dispatches
// nothing.
func checkBatchArgs(paths []string, ctx *core.OpContext) error {
	if ctx == nil {
		return &core.ArgumentError{Arg: "ctx", Reason: "operation context is required"}
	}
	if paths == nil {
		return &core.ArgumentError{Arg: "paths", Reason: "path list is required"}
	}
	return nil
}

func checkTransferArgs(sourceName, destinationName string, ctx *core.OpContext) error {
	if ctx == nil {
		return &core.ArgumentError{Arg: "ctx", Reason: "operation context is required"}
	}
	if sourceName == "" {
		return &core.ArgumentError{Arg: "sourceName", Reason: "property name is required"}
	}
	if destinationName == "" {
		return &core.ArgumentError{Arg: "destinationName", Reason: "property name is required"}
	}
	return nil
}

// normalizePick maps the "all properties" spellings (nil, empty, or a
// list containing "*") to nil.
func normalizePick(pick []string) []string {
	if len(pick) == 0 {
		return nil
	}
	for _, p := range pick {
		if p == "*" {
			return nil
		}
	}
	return pick
}
