package ioc

import (
	"fmt"
	"reflect"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Entry is a descriptor paired with the provider that owns its instances.
//
// Entries only live for one resolution pass. Two entries with the same descriptor
// and provider are the same node of a dependency graph.
type Entry struct {
	uid      int
	desc     *Descriptor
	provider *Provider
	deps     []*ServiceDependency
	resolved bool
}

func newEntry(desc *Descriptor, provider *Provider) *Entry {
	return &Entry{
		uid:      -1,
		desc:     desc,
		provider: provider,
	}
}

type entryKey struct {
	desc     *Descriptor
	provider *Provider
}

func (e *Entry) key() entryKey {
	return entryKey{desc: e.desc, provider: e.provider}
}

// UID returns the id of the entry inside its dependency graph, or -1.
func (e *Entry) UID() int { return e.uid }

// Descriptor returns the descriptor of the entry.
func (e *Entry) Descriptor() *Descriptor { return e.desc }

// Provider returns the provider owning the instances of the entry.
func (e *Entry) Provider() *Provider { return e.provider }

// Dependencies returns the resolved dependencies.
// It returns false when the entry has not been expanded by a resolution pass.
func (e *Entry) Dependencies() ([]*ServiceDependency, bool) {
	return e.deps, e.resolved
}

func (e *Entry) setDependencies(deps []*ServiceDependency) {
	e.deps = deps
	e.resolved = true
}

func (e *Entry) String() string {
	return e.desc.id.String()
}

// ServiceDependency is a declared constructor parameter with the entries satisfying it.
//
// A required or optional dependency has at most one entry; many and options
// dependencies have one entry per visible binding.
type ServiceDependency struct {
	Param   Dependency
	Entries []*Entry
}

// arg builds the constructor argument of type t.
//
// Instances are taken from rc when present, then from the owner's cache. Without a
// resolution context the owner fetches or creates the instance itself.
func (d *ServiceDependency) arg(rc *resolveContext, t reflect.Type) (any, error) {
	switch d.Param.Kind {
	case Required, Optional:
		if len(d.Entries) == 0 {
			return nil, nil
		}
		val, err := instanceOf(d.Entries[0], rc)
		if err != nil {
			return nil, err
		}
		return adaptValue(val, t)

	case Many:
		if t.Kind() != reflect.Slice {
			return nil, errors.Errorf("dependency %s: parameter type %s must be a slice", d.Param, t)
		}
		slice := reflect.MakeSlice(t, 0, len(d.Entries))
		for _, entry := range d.Entries {
			val, err := instanceOf(entry, rc)
			if err != nil {
				return nil, err
			}
			val, err = adaptValue(val, t.Elem())
			if err != nil {
				return nil, err
			}
			slice = reflect.Append(slice, safeReflectValue(t.Elem(), val))
		}
		return slice.Interface(), nil

	case OptionsOf:
		vals := make([]any, 0, len(d.Entries))
		for _, entry := range d.Entries {
			val, err := instanceOf(entry, rc)
			if err != nil {
				return nil, err
			}
			vals = append(vals, val)
		}
		return mergeOptions(t, vals)

	default:
		return nil, errors.Errorf("dependency %s: unknown kind", d.Param)
	}
}

func instanceOf(entry *Entry, rc *resolveContext) (any, error) {
	if rc != nil {
		if val, ok := rc.get(entry); ok {
			return val, nil
		}
	}

	if val, ok := entry.provider.OwnInstance(entry.desc); ok {
		return val, nil
	}

	if rc == nil {
		return entry.provider.fetchOrCreate(entry.desc)
	}

	return nil, errors.Errorf("dependency %s has not been instantiated", entry)
}

// adaptValue converts a resolved instance to the parameter type t.
// Delayed cells are forced unless the parameter accepts a [*Lazy].
func adaptValue(val any, t reflect.Type) (any, error) {
	lazy, isLazy := val.(*Lazy)

	switch {
	case t == typeLazy && isLazy:
		return lazy, nil
	case t == typeLazy:
		return builtLazy(val), nil
	case isLazy:
		forced, err := lazy.Value()
		if err != nil {
			return nil, err
		}
		val = forced
	}

	if val != nil && !reflect.TypeOf(val).AssignableTo(t) {
		return nil, errors.Wrapf(ErrInvalidArguments, "value of type %T is not assignable to %s", val, t)
	}

	return val, nil
}

// resolveContext is the scratch map of one instantiation pass.
type resolveContext struct {
	instances map[entryKey]any
}

func newResolveContext() *resolveContext {
	return &resolveContext{instances: make(map[entryKey]any)}
}

func (rc *resolveContext) get(e *Entry) (any, bool) {
	val, ok := rc.instances[e.key()]
	return val, ok
}

func (rc *resolveContext) set(e *Entry, val any) {
	rc.instances[e.key()] = val
}

func (rc *resolveContext) String() string {
	return fmt.Sprintf("resolve context (%d instances)", len(rc.instances))
}
