// Package provider defines the contract between the dispatch core and
// pluggable namespace backends. A backend satisfies the minimal
// Provider interface and opts into capabilities by implementing the
// per-verb interfaces; the dispatcher discovers them by type assertion
// and reports absence as a core.NotSupportedError.
package provider

import "github.com/provns/provns/pkg/provns/core"

// Info is the stable identity metadata of a provider implementation.
type Info struct {
	Name        string
	Description string
}

// DynamicParameters is the opaque verb-specific parameter metadata a
// provider can expose before argument binding completes. nil means the
// verb takes no dynamic parameters.
type DynamicParameters interface{}

// Provider is the minimal contract every backend satisfies. Provider
// code is treated as foreign: the dispatcher wraps every call into one
// of the capability methods in a normalization boundary.
type Provider interface {
	Info() Info
}

// ItemProvider exposes the enumeration surface the path resolver needs
// for wildcard expansion and literal existence checks.
type ItemProvider interface {
	Provider

	// ItemExists reports whether the concrete path denotes an item.
	ItemExists(path string) bool

	// ChildNames returns the names of the direct children of the item
	// at the concrete path. A leaf item yields an empty list.
	ChildNames(path string) ([]string, error)
}

// PropertyGetter reads properties of an item. A nil pick list means
// all properties; the dispatcher normalizes "*" and empty pick lists
// to nil before calling.
type PropertyGetter interface {
	Provider
	GetProperty(path string, pick []string, ctx *core.OpContext) error
	GetPropertyDynamicParameters(path string, pick []string, ctx *core.OpContext) (DynamicParameters, error)
}

// PropertySetter writes property values on an item.
type PropertySetter interface {
	Provider
	SetProperty(path string, value interface{}, ctx *core.OpContext) error
	SetPropertyDynamicParameters(path string, value interface{}, ctx *core.OpContext) (DynamicParameters, error)
}

// PropertyClearer resets properties of an item to their default value.
type PropertyClearer interface {
	Provider
	ClearProperty(path string, names []string, ctx *core.OpContext) error
	ClearPropertyDynamicParameters(path string, names []string, ctx *core.OpContext) (DynamicParameters, error)
}

// PropertyCreator creates a new property on an item.
type PropertyCreator interface {
	Provider
	NewProperty(path, name, propertyType string, value interface{}, ctx *core.OpContext) error
	NewPropertyDynamicParameters(path, name, propertyType string, value interface{}, ctx *core.OpContext) (DynamicParameters, error)
}

// PropertyRemover removes a property from an item.
type PropertyRemover interface {
	Provider
	RemoveProperty(path, name string, ctx *core.OpContext) error
	RemovePropertyDynamicParameters(path, name string, ctx *core.OpContext) (DynamicParameters, error)
}

// PropertyRenamer renames a property of an item in place.
type PropertyRenamer interface {
	Provider
	RenameProperty(path, sourceName, destinationName string, ctx *core.OpContext) error
	RenamePropertyDynamicParameters(path, sourceName, destinationName string, ctx *core.OpContext) (DynamicParameters, error)
}

// PropertyCopier copies a property from one item to another within the
// same provider.
type PropertyCopier interface {
	Provider
	CopyProperty(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) error
	CopyPropertyDynamicParameters(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) (DynamicParameters, error)
}

// PropertyMover moves a property from one item to another within the
// same provider.
type PropertyMover interface {
	Provider
	MoveProperty(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) error
	MovePropertyDynamicParameters(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) (DynamicParameters, error)
}
