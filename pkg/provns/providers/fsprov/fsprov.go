// Package fsprov exposes file metadata as item properties over a real
// filesystem. It implements get/set and enumeration only; the dynamic
// property verbs are deliberately absent so filesystem targets report
// capability absence instead of faking mutable property maps.
package fsprov

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
)

const providerName = "FileSystem"

// Property names served by this provider.
const (
	propName    = "name"
	propSize    = "size"
	propMode    = "mode"
	propModTime = "modtime"
	propIsDir   = "isdir"
)

// Provider serves file metadata for provider-native (OS) paths. Drive
// roots handle the anchoring; concrete paths arrive fully joined.
type Provider struct{}

// New creates the filesystem property provider.
func New() *Provider { return &Provider{} }

// Info implements provider.Provider.
func (p *Provider) Info() provider.Info {
	return provider.Info{
		Name:        providerName,
		Description: "File and directory metadata properties",
	}
}

// ItemExists implements provider.ItemProvider.
func (p *Provider) ItemExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// ChildNames implements provider.ItemProvider.
func (p *Provider) ChildNames(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// GetProperty pushes one result record with the picked metadata
// properties of the file or directory at path.
func (p *Provider) GetProperty(path string, pick []string, ctx *core.OpContext) error {
	st, err := os.Lstat(path)
	if err != nil {
		return err
	}

	all := map[string]interface{}{
		propName:    st.Name(),
		propSize:    st.Size(),
		propMode:    st.Mode().String(),
		propModTime: st.ModTime(),
		propIsDir:   st.IsDir(),
	}
	props := all
	if pick != nil {
		props = make(map[string]interface{}, len(pick))
		for _, name := range pick {
			if v, ok := all[strings.ToLower(name)]; ok {
				props[strings.ToLower(name)] = v
			}
		}
	}
	ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: props})
	return nil
}

// GetPropertyDynamicParameters implements provider.PropertyGetter; the
// filesystem provider takes no dynamic parameters.
func (p *Provider) GetPropertyDynamicParameters(path string, pick []string, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

// SetProperty applies the settable metadata properties: "mode" (octal
// string or numeric) and "modtime" (time.Time or RFC 3339 string).
func (p *Provider) SetProperty(path string, value interface{}, ctx *core.OpContext) error {
	props, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("property value must be a map of name to value, got %T", value)
	}
	if _, err := os.Lstat(path); err != nil {
		return err
	}

	applied := make(map[string]interface{}, len(props))
	for name, v := range props {
		switch strings.ToLower(name) {
		case propMode:
			mode, err := parseMode(v)
			if err != nil {
				return err
			}
			if err := os.Chmod(path, mode); err != nil {
				return err
			}
			applied[propMode] = mode.String()
		case propModTime:
			mt, err := parseModTime(v)
			if err != nil {
				return err
			}
			if err := os.Chtimes(path, mt, mt); err != nil {
				return err
			}
			applied[propModTime] = mt
		default:
			return fmt.Errorf("property %q is not settable on filesystem items", name)
		}
	}
	ctx.WriteResult(core.Result{Path: path, Provider: providerName, Value: applied})
	return nil
}

// SetPropertyDynamicParameters implements provider.PropertySetter; the
// filesystem provider takes no dynamic parameters.
func (p *Provider) SetPropertyDynamicParameters(path string, value interface{}, ctx *core.OpContext) (provider.DynamicParameters, error) {
	return nil, nil
}

func parseMode(v interface{}) (os.FileMode, error) {
	switch m := v.(type) {
	case os.FileMode:
		return m, nil
	case int:
		return os.FileMode(m), nil
	case string:
		parsed, err := strconv.ParseUint(m, 8, 32)
		if err != nil {
			return 0, fmt.Errorf("mode %q is not an octal file mode: %w", m, err)
		}
		return os.FileMode(parsed), nil
	default:
		return 0, fmt.Errorf("mode value of type %T is not supported", v)
	}
}

func parseModTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("modtime %q is not RFC 3339: %w", t, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("modtime value of type %T is not supported", v)
	}
}
