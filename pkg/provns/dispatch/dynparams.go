package dispatch

import (
	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
)

// Dynamic-parameter queries run before argument binding is complete,
// when only a representative sample of the eventual targets exists.
// Each query resolves its path against a fresh, filterless child copy
// of the context, so discovery is never influenced by the filters of
// the real operation, and consults only the first resolved target.
// Zero concrete paths means "no dynamic parameters", not an error.

// GetPropertyDynamicParameters queries the provider owning path for
// get-property parameter metadata.
func (d *Dispatcher) GetPropertyDynamicParameters(path string, pick []string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	pick = normalizePick(pick)
	return d.queryDynamicParameters(path, opGetProperty, ctx, func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error) {
		getter, ok := inst.(provider.PropertyGetter)
		if !ok {
			return nil, &core.NotSupportedError{Provider: info.Name, Operation: opGetProperty}
		}
		return getter.GetPropertyDynamicParameters(first, pick, qctx)
	})
}

// SetPropertyDynamicParameters queries the provider owning path for
// set-property parameter metadata.
func (d *Dispatcher) SetPropertyDynamicParameters(path string, value interface{}, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return d.queryDynamicParameters(path, opSetProperty, ctx, func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error) {
		setter, ok := inst.(provider.PropertySetter)
		if !ok {
			return nil, &core.NotSupportedError{Provider: info.Name, Operation: opSetProperty}
		}
		return setter.SetPropertyDynamicParameters(first, value, qctx)
	})
}

// ClearPropertyDynamicParameters queries the provider owning path for
// clear-property parameter metadata.
func (d *Dispatcher) ClearPropertyDynamicParameters(path string, names []string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return d.queryDynamicParameters(path, opClearProperty, ctx, func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error) {
		clearer, ok := inst.(provider.PropertyClearer)
		if !ok {
			return nil, &core.NotSupportedError{Provider: info.Name, Operation: opClearProperty}
		}
		return clearer.ClearPropertyDynamicParameters(first, names, qctx)
	})
}

// NewPropertyDynamicParameters queries the provider owning path for
// new-property parameter metadata.
func (d *Dispatcher) NewPropertyDynamicParameters(path, name, propertyType string, value interface{}, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return d.queryDynamicParameters(path, opNewProperty, ctx, func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error) {
		creator, ok := inst.(provider.PropertyCreator)
		if !ok {
			return nil, &core.NotSupportedError{Provider: info.Name, Operation: opNewProperty}
		}
		return creator.NewPropertyDynamicParameters(first, name, propertyType, value, qctx)
	})
}

// RemovePropertyDynamicParameters queries the provider owning path for
// remove-property parameter metadata.
func (d *Dispatcher) RemovePropertyDynamicParameters(path, name string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return d.queryDynamicParameters(path, opRemoveProperty, ctx, func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error) {
		remover, ok := inst.(provider.PropertyRemover)
		if !ok {
			return nil, &core.NotSupportedError{Provider: info.Name, Operation: opRemoveProperty}
		}
		return remover.RemovePropertyDynamicParameters(first, name, qctx)
	})
}

// RenamePropertyDynamicParameters queries the provider owning path for
// rename-property parameter metadata.
func (d *Dispatcher) RenamePropertyDynamicParameters(path, sourceName, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return d.queryDynamicParameters(path, opRenameProperty, ctx, func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error) {
		renamer, ok := inst.(provider.PropertyRenamer)
		if !ok {
			return nil, &core.NotSupportedError{Provider: info.Name, Operation: opRenameProperty}
		}
		return renamer.RenamePropertyDynamicParameters(first, sourceName, destinationName, qctx)
	})
}

// CopyPropertyDynamicParameters queries the provider owning the source
// path for copy-property parameter metadata. The destination path is
// passed through to the provider without resolution.
func (d *Dispatcher) CopyPropertyDynamicParameters(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return d.queryDynamicParameters(sourcePath, opCopyProperty, ctx, func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error) {
		copier, ok := inst.(provider.PropertyCopier)
		if !ok {
			return nil, &core.NotSupportedError{Provider: info.Name, Operation: opCopyProperty}
		}
		return copier.CopyPropertyDynamicParameters(first, sourceName, destinationPath, destinationName, qctx)
	})
}

// MovePropertyDynamicParameters queries the provider owning the source
// path for move-property parameter metadata. The destination path is
// passed through to the provider without resolution.
func (d *Dispatcher) MovePropertyDynamicParameters(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return d.queryDynamicParameters(sourcePath, opMoveProperty, ctx, func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error) {
		mover, ok := inst.(provider.PropertyMover)
		if !ok {
			return nil, &core.NotSupportedError{Provider: info.Name, Operation: opMoveProperty}
		}
		return mover.MovePropertyDynamicParameters(first, sourceName, destinationPath, destinationName, qctx)
	})
}

type dynParamsFunc func(inst provider.Provider, info provider.Info, first string, qctx *core.OpContext) (provider.DynamicParameters, error)

// queryDynamicParameters resolves path against a filterless child
// context and runs fn against the first resolved target, inside the
// normalization boundary.
func (d *Dispatcher) queryDynamicParameters(path, op string, ctx *core.OpContext, fn dynParamsFunc) (provider.DynamicParameters, error) {
	if ctx == nil {
		return nil, &core.ArgumentError{Arg: "ctx", Reason: "operation context is required"}
	}
	qctx := ctx.Child()
	resolved, err := d.resolver.Resolve(path, qctx.Literal, qctx)
	if err != nil {
		return nil, err
	}
	if len(resolved.Paths) == 0 {
		d.logger.Debug().
			Str("ctx_id", qctx.ID).
			Str("op", op).
			Str("path", path).
			Msg("dynamic parameter query matched nothing")
		return nil, nil
	}

	first := resolved.Paths[0]
	var params provider.DynamicParameters
	err = d.invoke(resolved.Info, first, op, func() error {
		var ferr error
		params, ferr = fn(resolved.Instance, resolved.Info, first, qctx)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}
