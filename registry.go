package ioc

import (
	"reflect"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Registry records service identities and the dependencies declared for each constructor.
//
// A Registry is owned by the root of a module tree and shared with every child scope.
// Independent trees should use independent registries.
type Registry struct {
	ids       *xsync.MapOf[string, *ServiceID]
	contracts *xsync.MapOf[*Ctor, *ServiceID]
	typeIDs   *xsync.MapOf[reflect.Type, *ServiceID]
	deps      *xsync.MapOf[*Ctor, []Dependency]
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		ids:       xsync.NewMapOf[string, *ServiceID](),
		contracts: xsync.NewMapOf[*Ctor, *ServiceID](),
		typeIDs:   xsync.NewMapOf[reflect.Type, *ServiceID](),
		deps:      xsync.NewMapOf[*Ctor, []Dependency](),
	}
}

// Create creates a new identity.
//
// A unique identity is recorded by its full name; creating the same unique name twice
// returns [ErrDuplicateIdentity].
func (r *Registry) Create(name, namespace string, unique bool) (*ServiceID, error) {
	if name == "" {
		return nil, errors.New("ioc.Registry.Create: name is empty")
	}

	id := newServiceID(name, namespace, unique, nil)
	if !unique {
		return id, nil
	}

	if _, loaded := r.ids.LoadOrStore(id.FullName(), id); loaded {
		return nil, errors.Wrapf(ErrDuplicateIdentity, "ioc.Registry.Create %s", id)
	}

	return id, nil
}

// MustCreate is like [Registry.Create] but panics on error.
func (r *Registry) MustCreate(name, namespace string, unique bool) *ServiceID {
	id, err := r.Create(name, namespace, unique)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup returns the unique identity recorded with the given full name.
func (r *Registry) Lookup(fullName string) (*ServiceID, bool) {
	return r.ids.Load(fullName)
}

// Contract binds a constructor to an identity.
// [Registry.Resolve] will return id for ctor from now on.
func (r *Registry) Contract(ctor *Ctor, id *ServiceID) {
	r.contracts.Store(ctor, id)
}

// Resolve returns the identity bound to ctor with [Registry.Contract].
//
// Otherwise an identity derived from the type produced by ctor is created on first use
// and returned for every constructor of that type.
func (r *Registry) Resolve(ctor *Ctor) *ServiceID {
	if id, ok := r.contracts.Load(ctor); ok {
		return id
	}

	id, _ := r.typeIDs.LoadOrCompute(ctor.Type(), func() *ServiceID {
		return newServiceID(typeName(ctor.Type()), typeNamespace, false, ctor.Type())
	})
	return id
}

// AddDependency records that the parameter at index of ctor is injected with id.
//
// Ordering problems are reported when the constructor is bound, see [Registry.Dependencies].
func (r *Registry) AddDependency(ctor *Ctor, id *ServiceID, index int, kind DependencyKind) {
	dep := Dependency{ID: id, Index: index, Kind: kind}

	r.deps.Compute(ctor, func(old []Dependency, _ bool) ([]Dependency, bool) {
		deps := append(slices.Clip(old), dep)
		slices.SortStableFunc(deps, func(a, b Dependency) int {
			return a.Index - b.Index
		})
		return deps, false
	})
}

// Define creates a constructor from fn and records its dependencies.
func (r *Registry) Define(fn any, deps ...Dependency) (*Ctor, error) {
	ctor, err := NewCtor(fn)
	if err != nil {
		return nil, errors.Wrap(err, "ioc.Registry.Define")
	}

	for _, dep := range deps {
		r.AddDependency(ctor, dep.ID, dep.Index, dep.Kind)
	}

	if _, err := r.Dependencies(ctor); err != nil {
		return nil, errors.Wrap(err, "ioc.Registry.Define")
	}

	return ctor, nil
}

// MustDefine is like [Registry.Define] but panics on error.
func (r *Registry) MustDefine(fn any, deps ...Dependency) *Ctor {
	ctor, err := r.Define(fn, deps...)
	if err != nil {
		panic(err)
	}
	return ctor
}

// Dependencies returns the dependencies of ctor sorted by index.
//
// Injected parameters must be contiguous and must end at the last parameter of the
// constructor: the parameters before them are the fixed arguments of the binding.
func (r *Registry) Dependencies(ctor *Ctor) ([]Dependency, error) {
	deps, _ := r.deps.Load(ctor)
	if len(deps) == 0 {
		return nil, nil
	}

	next := deps[0].Index
	if next < 0 {
		return nil, errors.Wrapf(ErrInvalidParameterOrder, "constructor %s: negative index %d", ctor, next)
	}

	for _, dep := range deps {
		if dep.Index != next {
			return nil, errors.Wrapf(ErrInvalidParameterOrder,
				"constructor %s at index %d: injected parameters must be contiguous and after the fixed arguments",
				ctor, dep.Index)
		}
		if dep.ID == nil {
			return nil, errors.Errorf("constructor %s at index %d: service id is nil", ctor, dep.Index)
		}
		next++
	}

	if next != ctor.NumIn() {
		return nil, errors.Wrapf(ErrInvalidParameterOrder,
			"constructor %s: injected parameters must be the last %d parameters", ctor, len(deps))
	}

	return slices.Clone(deps), nil
}
