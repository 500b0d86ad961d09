package ioc

import (
	"slices"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Resolver finds the bindings visible from a provider and wires their dependencies.
//
// Lookups walk from the provider up through its parents. The provider itself may use
// descriptors visible to the container; its ancestors only lend descriptors visible
// to children.
type Resolver struct {
	provider *Provider
}

func newResolver(p *Provider) *Resolver {
	return &Resolver{provider: p}
}

// owner returns the provider owning the instances of desc declared in scope.
// Scoped instances belong to the requesting provider.
func (r *Resolver) owner(desc *Descriptor, scope *Provider) *Provider {
	if desc.lifetime == Scoped {
		return r.provider
	}
	return scope
}

// ResolveEntry returns the first visible binding of id.
func (r *Resolver) ResolveEntry(id *ServiceID) (*Entry, bool) {
	for scope := r.provider; scope != nil; scope = scope.parent {
		for _, desc := range scope.services.Get(id) {
			if desc.visibility.Allowed(scope == r.provider) {
				return newEntry(desc, r.owner(desc, scope)), true
			}
		}
	}
	return nil, false
}

// ResolveDescriptor returns the entry of a specific descriptor, if it is visible.
func (r *Resolver) ResolveDescriptor(desc *Descriptor) (*Entry, bool) {
	for scope := r.provider; scope != nil; scope = scope.parent {
		if scope.services.HasDescriptor(desc) {
			if !desc.visibility.Allowed(scope == r.provider) {
				return nil, false
			}
			return newEntry(desc, r.owner(desc, scope)), true
		}
	}
	return nil, false
}

// ResolveEntries returns every visible binding of id, nearest scope first.
func (r *Resolver) ResolveEntries(id *ServiceID) []*Entry {
	return slices.Concat(r.entriesByScope(id)...)
}

// entriesByScope groups the visible bindings of id per scope, nearest scope first.
// Each group keeps the registration order.
func (r *Resolver) entriesByScope(id *ServiceID) [][]*Entry {
	var groups [][]*Entry
	for scope := r.provider; scope != nil; scope = scope.parent {
		var entries []*Entry
		for _, desc := range scope.services.Get(id) {
			if desc.visibility.Allowed(scope == r.provider) {
				entries = append(entries, newEntry(desc, r.owner(desc, scope)))
			}
		}
		if len(entries) > 0 {
			groups = append(groups, entries)
		}
	}
	return groups
}

// ResolveProviders returns the providers declaring a visible binding of id, nearest first.
func (r *Resolver) ResolveProviders(id *ServiceID) []*Provider {
	var providers []*Provider
	for scope := r.provider; scope != nil; scope = scope.parent {
		visible := slices.ContainsFunc(scope.services.Get(id), func(desc *Descriptor) bool {
			return desc.visibility.Allowed(scope == r.provider)
		})
		if visible {
			providers = append(providers, scope)
		}
	}
	return providers
}

// ResolveDependencies returns the entries satisfying each declared dependency of ctor.
func (r *Resolver) ResolveDependencies(ctor *Ctor) ([]*ServiceDependency, error) {
	deps, err := r.provider.services.Registry().Dependencies(ctor)
	if err != nil {
		return nil, err
	}

	resolved := make([]*ServiceDependency, 0, len(deps))
	for _, dep := range deps {
		sd := &ServiceDependency{Param: dep}

		switch dep.Kind {
		case Required, Optional:
			entry, ok := r.ResolveEntry(dep.ID)
			if ok {
				sd.Entries = []*Entry{entry}
			} else if dep.Kind == Required {
				return nil, errors.Wrapf(ErrServiceNotRegistered,
					"dependency %s of %s", dep.ID, ctor)
			}
		case OptionsOf:
			// Options of nearer scopes are merged last so they override.
			groups := r.entriesByScope(dep.ID)
			slices.Reverse(groups)
			sd.Entries = slices.Concat(groups...)
		default:
			sd.Entries = r.ResolveEntries(dep.ID)
		}

		resolved = append(resolved, sd)
	}

	return resolved, nil
}

// ResolveDependencyGraph builds the dependency graph rooted at root.
//
// A delayed root is not expanded: its own dependencies are resolved when it is first
// accessed.
func (r *Resolver) ResolveDependencyGraph(root *Entry) (*Graph, error) {
	return r.resolveGraph(root, !root.desc.delayed)
}

func (r *Resolver) resolveGraph(root *Entry, expandRoot bool) (*Graph, error) {
	g := newGraph()
	root = g.intern(root)
	g.root = root.uid

	var stack []*Entry
	if expandRoot {
		stack = append(stack, root)
	}

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.resolved {
			continue
		}

		// Dependencies are always wired by the scope owning the instance.
		deps, err := e.provider.resolver.ResolveDependencies(e.desc.ctor)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %s", e)
		}

		for _, dep := range deps {
			for i, de := range dep.Entries {
				node := g.intern(de)
				dep.Entries[i] = node

				soft := node.desc.delayed || node.provider.isCached(node.desc)
				g.addEdge(e.uid, node.uid, soft)

				if !soft && !node.resolved {
					stack = append(stack, node)
				}
			}
		}

		e.setDependencies(deps)
	}

	if err := g.sort(); err != nil {
		return nil, err
	}

	return g, nil
}
