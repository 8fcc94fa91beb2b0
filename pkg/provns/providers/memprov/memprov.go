// Package memprov implements an in-memory hierarchical item store with
// per-item property maps. It supports the full property capability set
// and is the reference backend for exercising the dispatcher.
package memprov

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
)

const providerName = "Memory"

// node is one item in the tree. The empty path addresses the root.
type node struct {
	children map[string]*node
	props    map[string]interface{}
}

func newNode() *node {
	return &node{
		children: make(map[string]*node),
		props:    make(map[string]interface{}),
	}
}

// Provider is the in-memory item store.
type Provider struct {
	mu   sync.RWMutex
	root *node
}

// New creates an empty store.
func New() *Provider {
	return &Provider{root: newNode()}
}

// Info implements provider.Provider.
func (p *Provider) Info() provider.Info {
	return provider.Info{
		Name:        providerName,
		Description: "In-memory hierarchical item store with property maps",
	}
}

// AddItem creates the item at path, including missing ancestors. It is
// a seeding helper for callers assembling a namespace.
func (p *Provider) AddItem(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.root
	for _, seg := range segments(path) {
		child, ok := n.children[seg]
		if !ok {
			child = newNode()
			n.children[seg] = child
		}
		n = child
	}
}

// SeedProperty creates the item at path if needed and sets a property
// directly, bypassing the operation context.
func (p *Provider) SeedProperty(path, name string, value interface{}) {
	p.AddItem(path)
	p.mu.Lock()
	defer p.mu.Unlock()
	n, _ := p.lookup(path)
	n.props[name] = value
}

// ItemExists implements provider.ItemProvider.
func (p *Provider) ItemExists(path string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.lookup(path)
	return ok
}

// ChildNames implements provider.ItemProvider.
func (p *Provider) ChildNames(path string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.lookup(path)
	if !ok {
		return nil, fmt.Errorf("item %q does not exist", path)
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetProperty pushes one result record carrying the picked properties
// of the item. A nil pick list means all properties.
func (p *Provider) GetProperty(path string, pick []string, ctx *core.OpContext) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.lookup(path)
	if !ok {
		return fmt.Errorf("item %q does not exist", path)
	}

	props := make(map[string]interface{})
	if pick == nil {
		for k, v := range n.props {
			props[k] = v
		}
	} else {
		for _, name := range pick {
			if v, ok := n.props[name]; ok {
				props[name] = v
			}
		}
	}
	ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: props})
	return nil
}

// GetPropertyDynamicParameters exposes the provider-specific switches
// of get-property.
func (p *Provider) GetPropertyDynamicParameters(path string, pick []string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return &GetParameters{}, nil
}

// SetProperty merges the given property map into the item and pushes
// the applied values as one result record.
func (p *Provider) SetProperty(path string, value interface{}, ctx *core.OpContext) error {
	props, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("property value must be a map of name to value, got %T", value)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.lookup(path)
	if !ok {
		return fmt.Errorf("item %q does not exist", path)
	}
	applied := make(map[string]interface{}, len(props))
	for k, v := range props {
		n.props[k] = v
		applied[k] = v
	}
	ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: applied})
	return nil
}

// SetPropertyDynamicParameters exposes the provider-specific switches
// of set-property.
func (p *Provider) SetPropertyDynamicParameters(path string, value interface{}, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return &SetParameters{}, nil
}

// ClearProperty resets the named properties to nil. An empty name list
// clears every property of the item.
func (p *Provider) ClearProperty(path string, names []string, ctx *core.OpContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.lookup(path)
	if !ok {
		return fmt.Errorf("item %q does not exist", path)
	}

	if len(names) == 0 {
		names = make([]string, 0, len(n.props))
		for k := range n.props {
			names = append(names, k)
		}
		sort.Strings(names)
	}
	cleared := make(map[string]interface{}, len(names))
	for _, name := range names {
		if _, ok := n.props[name]; !ok {
			return fmt.Errorf("property %q does not exist on item %q", name, path)
		}
		n.props[name] = nil
		cleared[name] = nil
	}
	ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: cleared})
	return nil
}

func (p *Provider) ClearPropertyDynamicParameters(path string, names []string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// NewProperty creates the named property. An existing property is an
// error unless the context's Force flag is set.
func (p *Provider) NewProperty(path, name, propertyType string, value interface{}, ctx *core.OpContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.lookup(path)
	if !ok {
		return fmt.Errorf("item %q does not exist", path)
	}
	if _, exists := n.props[name]; exists && !ctx.Force {
		return fmt.Errorf("property %q already exists on item %q", name, path)
	}
	n.props[name] = value
	ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: map[string]interface{}{name: value}})
	return nil
}

func (p *Provider) NewPropertyDynamicParameters(path, name, propertyType string, value interface{}, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// RemoveProperty deletes the named property.
func (p *Provider) RemoveProperty(path, name string, ctx *core.OpContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.lookup(path)
	if !ok {
		return fmt.Errorf("item %q does not exist", path)
	}
	if _, exists := n.props[name]; !exists {
		return fmt.Errorf("property %q does not exist on item %q", name, path)
	}
	delete(n.props, name)
	return nil
}

func (p *Provider) RemovePropertyDynamicParameters(path, name string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// RenameProperty moves a property value to a new name on the same
// item. An occupied destination name requires Force; renaming a
// property to its own name is a no-op that still reports the value.
func (p *Provider) RenameProperty(path, sourceName, destinationName string, ctx *core.OpContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.lookup(path)
	if !ok {
		return fmt.Errorf("item %q does not exist", path)
	}
	v, exists := n.props[sourceName]
	if !exists {
		return fmt.Errorf("property %q does not exist on item %q", sourceName, path)
	}
	if destinationName != sourceName {
		if _, occupied := n.props[destinationName]; occupied && !ctx.Force {
			return fmt.Errorf("property %q already exists on item %q", destinationName, path)
		}
		delete(n.props, sourceName)
		n.props[destinationName] = v
	}
	ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: map[string]interface{}{destinationName: v}})
	return nil
}

func (p *Provider) RenamePropertyDynamicParameters(path, sourceName, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// CopyProperty copies a property value onto another item. An occupied
// destination property requires Force.
func (p *Provider) CopyProperty(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.transfer(sourcePath, sourceName, destinationPath, destinationName, ctx, false); err != nil {
		return err
	}
	return nil
}

func (p *Provider) CopyPropertyDynamicParameters(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// MoveProperty copies a property value onto another item and removes
// it from the source.
func (p *Provider) MoveProperty(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transfer(sourcePath, sourceName, destinationPath, destinationName, ctx, true)
}

func (p *Provider) MovePropertyDynamicParameters(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// transfer implements copy and move. Callers hold the lock.
func (p *Provider) transfer(sourcePath, sourceName, destinationPath, destinationName string, ctx *core.OpContext, removeSource bool) error {
	src, ok := p.lookup(sourcePath)
	if !ok {
		return fmt.Errorf("item %q does not exist", sourcePath)
	}
	dst, ok := p.lookup(destinationPath)
	if !ok {
		return fmt.Errorf("item %q does not exist", destinationPath)
	}
	v, exists := src.props[sourceName]
	if !exists {
		return fmt.Errorf("property %q does not exist on item %q", sourceName, sourcePath)
	}
	if _, occupied := dst.props[destinationName]; occupied && !ctx.Force {
		if !(src == dst && destinationName == sourceName) {
			return fmt.Errorf("property %q already exists on item %q", destinationName, destinationPath)
		}
	}
	dst.props[destinationName] = v
	if removeSource && !(src == dst && destinationName == sourceName) {
		delete(src.props, sourceName)
	}
	ctx.WriteResult(core.Result{Path: destinationPath, Provider: providerName, Value: map[string]interface{}{destinationName: v}})
	return nil
}

// lookup walks the tree. Callers hold the lock.
func (p *Provider) lookup(path string) (*node, bool) {
	n := p.root
	for _, seg := range segments(path) {
		child, ok := n.children[seg]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

func segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(strings.Trim(path, "/"), "/")
}

// GetParameters are the dynamic parameters the memory provider exposes
// on get-property.
type GetParameters struct {
	// Raw skips property-map copying and reports stored values as-is.
	Raw bool
}

// SetParameters are the dynamic parameters the memory provider exposes
// on set-property.
type SetParameters struct {
	// CreateMissing creates the item when it does not exist yet.
	CreateMissing bool
}
