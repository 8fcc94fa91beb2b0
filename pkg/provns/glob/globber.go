// Package glob resolves drive-qualified virtual paths against a
// session's drive table, expanding wildcards through each provider's
// enumeration capability. Pattern syntax is delegated to doublestar
// (*, ?, character classes and ** across segments).
package glob

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/provns/provns/pkg/provns/core"
	"github.com/provns/provns/pkg/provns/provider"
	"github.com/provns/provns/pkg/provns/session"
)

// wildcardChars are the characters that make a path a pattern.
const wildcardChars = "*?["

// HasWildcard reports whether path contains wildcard characters.
func HasWildcard(path string) bool {
	return strings.ContainsAny(path, wildcardChars)
}

// Globber implements dispatch.Resolver over a session registry.
type Globber struct {
	registry *session.Registry
	logger   core.Logger
}

// New creates a Globber over the given registry.
func New(registry *session.Registry, logger core.Logger) *Globber {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	return &Globber{registry: registry, logger: logger}
}

// Resolve expands one virtual path into the owning provider and the
// ordered concrete paths it denotes. A literal path (or one resolved
// with literal=true) with zero matches is an item-not-found error; a
// wildcarded path with zero matches yields an empty path list.
// Include/exclude filters and the custom predicate from ctx apply to
// wildcard-expanded matches only.
func (g *Globber) Resolve(path string, literal bool, ctx *core.OpContext) (provider.Resolved, error) {
	driveName, rel, err := SplitDrive(path)
	if err != nil {
		return provider.Resolved{}, err
	}

	drive, ok := g.registry.Drive(driveName)
	if !ok {
		return provider.Resolved{}, &core.DriveNotFoundError{Drive: driveName}
	}
	prov, ok := g.registry.Provider(drive.Provider)
	if !ok {
		return provider.Resolved{}, &core.ProviderNotFoundError{Provider: drive.Provider}
	}
	info := prov.Info()

	if literal || !HasWildcard(rel) {
		concrete := joinPath(drive.Root, rel)
		if ip, ok := prov.(provider.ItemProvider); ok && !ip.ItemExists(concrete) {
			return provider.Resolved{}, &core.ItemNotFoundError{Path: path}
		}
		return provider.Resolved{Info: info, Instance: prov, Paths: []string{concrete}}, nil
	}

	ip, ok := prov.(provider.ItemProvider)
	if !ok {
		return provider.Resolved{}, &core.NotSupportedError{Provider: info.Name, Operation: "enumerate-items"}
	}
	matches, err := g.expand(ip, drive.Root, rel, ctx)
	if err != nil {
		return provider.Resolved{}, err
	}

	g.logger.Debug().
		Str("path", path).
		Str("drive", driveName).
		Str("provider", info.Name).
		Int("matches", len(matches)).
		Msg("wildcard expansion completed")
	return provider.Resolved{Info: info, Instance: prov, Paths: matches}, nil
}

// expand turns a relative wildcard pattern into the matching concrete
// paths under root, in deterministic (sorted, depth-first) order.
func (g *Globber) expand(ip provider.ItemProvider, root, pattern string, ctx *core.OpContext) ([]string, error) {
	// Validate the pattern up front so a malformed character class
	// fails the resolution rather than silently matching nothing.
	if !doublestar.ValidatePattern(pattern) {
		return nil, &core.ArgumentError{Arg: "path", Reason: "malformed wildcard pattern"}
	}

	var rels []string
	if strings.Contains(pattern, "**") {
		g.walk(ip, root, "", func(rel string) {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				rels = append(rels, rel)
			}
		})
	} else {
		var err error
		rels, err = g.expandSegments(ip, root, pattern)
		if err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		if !keep(rel, ctx) {
			continue
		}
		out = append(out, joinPath(root, rel))
	}
	return out, nil
}

// expandSegments walks the pattern one segment at a time, enumerating
// children only for wildcarded segments.
func (g *Globber) expandSegments(ip provider.ItemProvider, root, pattern string) ([]string, error) {
	candidates := []string{""}
	for _, seg := range strings.Split(pattern, "/") {
		if seg == "" {
			continue
		}
		var next []string
		if !HasWildcard(seg) {
			for _, c := range candidates {
				rel := joinRel(c, seg)
				if ip.ItemExists(joinPath(root, rel)) {
					next = append(next, rel)
				}
			}
		} else {
			for _, c := range candidates {
				names, err := ip.ChildNames(joinPath(root, c))
				if err != nil {
					g.logger.Debug().
						Str("path", joinPath(root, c)).
						Err(err).
						Msg("skipping unenumerable container")
					continue
				}
				sort.Strings(names)
				for _, name := range names {
					ok, err := doublestar.Match(seg, name)
					if err != nil {
						return nil, err
					}
					if ok {
						next = append(next, joinRel(c, name))
					}
				}
			}
		}
		candidates = next
		if len(candidates) == 0 {
			break
		}
	}
	return candidates, nil
}

// walk visits every descendant of root depth-first in sorted order.
func (g *Globber) walk(ip provider.ItemProvider, root, rel string, visit func(string)) {
	names, err := ip.ChildNames(joinPath(root, rel))
	if err != nil {
		return
	}
	sort.Strings(names)
	for _, name := range names {
		child := joinRel(rel, name)
		visit(child)
		g.walk(ip, root, child, visit)
	}
}

// keep applies the context's include/exclude filters and custom
// predicate to one expanded match. Include and exclude patterns are
// matched against the leaf name.
func keep(rel string, ctx *core.OpContext) bool {
	if ctx == nil || ctx.Filters.IsZero() {
		return true
	}
	f := ctx.Filters
	leaf := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		leaf = rel[i+1:]
	}

	if len(f.Include) > 0 {
		included := false
		for _, pat := range f.Include {
			if ok, _ := doublestar.Match(pat, leaf); ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, pat := range f.Exclude {
		if ok, _ := doublestar.Match(pat, leaf); ok {
			return false
		}
	}
	if f.Predicate != nil && !f.Predicate(rel) {
		return false
	}
	return true
}

// SplitDrive splits a drive-qualified virtual path ("data:/a/b") into
// the drive name and the relative remainder.
func SplitDrive(path string) (drive, rel string, err error) {
	i := strings.Index(path, ":")
	if i <= 0 {
		return "", "", &core.ArgumentError{Arg: "path", Reason: "path must be drive-qualified (drive:/...)"}
	}
	drive = path[:i]
	rel = strings.TrimPrefix(path[i+1:], "/")
	return drive, rel, nil
}

// joinPath joins a provider-native root with a relative path.
func joinPath(root, rel string) string {
	switch {
	case rel == "":
		return root
	case root == "":
		return rel
	case strings.HasSuffix(root, "/"):
		return root + rel
	default:
		return root + "/" + rel
	}
}

func joinRel(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}
