package session

import (
	"fmt"
	"strings"

	"github.com/gammazero/toposort"

	"github.com/provns/provns/pkg/provns/core"
)

// MountAll mounts a batch of drives whose roots may be qualified by
// sibling drives from the same batch or by already-mounted drives
// (a drive rooted inside another drive). Mount order is computed with
// a topological sort over those root dependencies; a dependency cycle
// is an error and nothing from the batch is mounted.
func (r *Registry) MountAll(specs []Drive) error {
	byName := make(map[string]Drive, len(specs))
	for _, spec := range specs {
		if _, dup := byName[spec.Name]; dup {
			return fmt.Errorf("drive %q appears twice in mount batch", spec.Name)
		}
		byName[spec.Name] = spec
	}

	edges := make([]toposort.Edge, 0)
	for _, spec := range specs {
		dep, ok := rootDrive(spec.Root)
		if !ok {
			continue
		}
		if _, sibling := byName[dep]; sibling {
			// Edge is [2]interface{} where element 0 comes before element 1.
			edges = append(edges, toposort.Edge{dep, spec.Name})
			continue
		}
		if _, mounted := r.Drive(dep); !mounted {
			return &core.DriveNotFoundError{Drive: dep}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return fmt.Errorf("drive mount ordering failed: %w", err)
	}

	ordered := make([]Drive, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, node := range sorted {
		name, ok := node.(string)
		if !ok {
			continue
		}
		if spec, member := byName[name]; member && !seen[name] {
			ordered = append(ordered, spec)
			seen[name] = true
		}
	}
	// Drives without root dependencies never show up in the edge list;
	// keep them in batch order.
	for _, spec := range specs {
		if !seen[spec.Name] {
			ordered = append(ordered, spec)
			seen[spec.Name] = true
		}
	}

	mounted := make([]string, 0, len(ordered))
	for _, spec := range ordered {
		translated, err := r.translateRoot(spec)
		if err == nil {
			err = r.NewDrive(translated)
		}
		if err != nil {
			for _, name := range mounted {
				_ = r.RemoveDrive(name)
			}
			return fmt.Errorf("mounting drive %q: %w", spec.Name, err)
		}
		mounted = append(mounted, spec.Name)
	}
	return nil
}

// translateRoot rewrites a drive-qualified root ("data:/sub") into the
// dependency drive's provider-native namespace. A spec without an
// explicit provider inherits the dependency's provider.
func (r *Registry) translateRoot(spec Drive) (Drive, error) {
	dep, ok := rootDrive(spec.Root)
	if !ok {
		return spec, nil
	}
	base, mounted := r.Drive(dep)
	if !mounted {
		return Drive{}, &core.DriveNotFoundError{Drive: dep}
	}

	rel := strings.TrimPrefix(spec.Root[len(dep)+1:], "/")
	root := base.Root
	if rel != "" {
		if root == "" {
			root = rel
		} else {
			root = root + "/" + rel
		}
	}

	out := spec
	out.Root = root
	if out.Provider == "" {
		out.Provider = base.Provider
	} else if out.Provider != base.Provider {
		return Drive{}, fmt.Errorf("drive %q is rooted on drive %q but names a different provider", spec.Name, dep)
	}
	return out, nil
}

// rootDrive extracts the drive qualifier from a root like "data:/sub".
func rootDrive(root string) (string, bool) {
	i := strings.Index(root, ":")
	if i <= 0 {
		return "", false
	}
	return root[:i], true
}
