// Package envprov exposes the process environment as a flat namespace:
// each variable is an item with a single "value" property.
package envprov

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
)

const providerName = "Environment"

// propValue is the single property every variable item carries.
const propValue = "value"

// Provider serves environment variables. Item paths are variable
// names; the empty path is the container holding all of them.
type Provider struct{}

// New creates the environment provider.
func New() *Provider { return &Provider{} }

// Info implements provider.Provider.
func (p *Provider) Info() provider.Info {
	return provider.Info{
		Name:        providerName,
		Description: "Process environment variables",
	}
}

// ItemExists implements provider.ItemProvider.
func (p *Provider) ItemExists(path string) bool {
	if path == "" {
		return true
	}
	_, ok := os.LookupEnv(path)
	return ok
}

// ChildNames implements provider.ItemProvider. Only the root container
// has children.
func (p *Provider) ChildNames(path string) ([]string, error) {
	if path != "" {
		return nil, nil
	}
	env := os.Environ()
	names := make([]string, 0, len(env))
	for _, kv := range env {
		if i := strings.Index(kv, "="); i > 0 {
			names = append(names, kv[:i])
		}
	}
	sort.Strings(names)
	return names, nil
}

// GetProperty pushes the variable's value property.
func (p *Provider) GetProperty(path string, pick []string, ctx *core.OpContext) error {
	v, ok := os.LookupEnv(path)
	if !ok {
		return fmt.Errorf("environment variable %q is not set", path)
	}
	if pick != nil && !picked(pick, propValue) {
		ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: map[string]interface{}{}})
		return nil
	}
	ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: map[string]interface{}{propValue: v}})
	return nil
}

// GetPropertyDynamicParameters implements provider.PropertyGetter.
func (p *Provider) GetPropertyDynamicParameters(path string, pick []string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// SetProperty sets the variable's value property.
func (p *Provider) SetProperty(path string, value interface{}, ctx *core.OpContext) error {
	props, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("property value must be a map of name to value, got %T", value)
	}
	for name, v := range props {
		if !strings.EqualFold(name, propValue) {
			return fmt.Errorf("environment variables carry only a %q property", propValue)
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("environment value must be a string, got %T", v)
		}
		if err := os.Setenv(path, s); err != nil {
			return err
		}
		ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: map[string]interface{}{propValue: s}})
	}
	return nil
}

// SetPropertyDynamicParameters implements provider.PropertySetter.
func (p *Provider) SetPropertyDynamicParameters(path string, value interface{}, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

func picked(pick []string, name string) bool {
	for _, p := range pick {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}
