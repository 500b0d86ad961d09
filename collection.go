package ioc

import (
	"slices"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Collection is the set of descriptors declared in one scope.
//
// Several descriptors may share an identity; they keep their registration order,
// and the first one wins for single value lookups.
type Collection struct {
	reg   *Registry
	store map[any][]*Descriptor
	order []*Descriptor
}

// NewCollection creates an empty [Collection] validating its bindings against reg.
func NewCollection(reg *Registry) *Collection {
	if reg == nil {
		reg = NewRegistry()
	}

	return &Collection{
		reg:   reg,
		store: make(map[any][]*Descriptor),
	}
}

// Registry returns the registry the collection validates bindings against.
func (c *Collection) Registry() *Registry {
	return c.reg
}

// Len returns the number of descriptors.
func (c *Collection) Len() int {
	return len(c.order)
}

// Has reports whether at least one descriptor is bound to id.
func (c *Collection) Has(id *ServiceID) bool {
	return len(c.store[id.Key()]) > 0
}

// HasDescriptor reports whether desc belongs to the collection.
func (c *Collection) HasDescriptor(desc *Descriptor) bool {
	return slices.Contains(c.store[desc.id.Key()], desc)
}

// Get returns the descriptors bound to id in registration order.
func (c *Collection) Get(id *ServiceID) []*Descriptor {
	return slices.Clone(c.store[id.Key()])
}

// All returns every descriptor in registration order.
func (c *Collection) All() []*Descriptor {
	return slices.Clone(c.order)
}

// Clone returns a copy of the collection sharing the same registry.
func (c *Collection) Clone() *Collection {
	clone := NewCollection(c.reg)
	for _, desc := range c.order {
		clone.add(desc)
	}
	return clone
}

// Add adds a descriptor.
//
// The dependencies of its constructor are validated now: a bad parameter order or a
// fixed argument count that does not match the constructor is a declaration error.
func (c *Collection) Add(desc *Descriptor) error {
	if desc == nil {
		return errors.New("ioc.Collection.Add: descriptor is nil")
	}

	if err := c.validate(desc); err != nil {
		return errors.Wrapf(err, "ioc.Collection.Add %s", desc.id)
	}

	c.add(desc)
	return nil
}

// TryAdd adds desc unless its identity is already bound. It reports whether desc was added.
func (c *Collection) TryAdd(desc *Descriptor) (bool, error) {
	if desc != nil && c.Has(desc.id) {
		return false, nil
	}
	if err := c.Add(desc); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes desc from the collection.
func (c *Collection) Delete(desc *Descriptor) {
	key := desc.id.Key()
	c.store[key] = slices.DeleteFunc(c.store[key], func(d *Descriptor) bool { return d == desc })
	if len(c.store[key]) == 0 {
		delete(c.store, key)
	}
	c.order = slices.DeleteFunc(c.order, func(d *Descriptor) bool { return d == desc })
}

func (c *Collection) add(desc *Descriptor) {
	key := desc.id.Key()
	c.store[key] = append(c.store[key], desc)
	c.order = append(c.order, desc)
}

func (c *Collection) validate(desc *Descriptor) error {
	deps, err := c.reg.Dependencies(desc.ctor)
	if err != nil {
		return err
	}

	fixed := desc.ctor.NumIn()
	if len(deps) > 0 {
		fixed = deps[0].Index
	}

	if len(desc.args) != fixed {
		return errors.Wrapf(ErrInvalidArguments,
			"expected %d fixed arguments, provided %d", fixed, len(desc.args))
	}

	return nil
}

// AddService binds ctor with the given lifetime, using the identity resolved by the registry.
func (c *Collection) AddService(lifetime Lifetime, ctor *Ctor, opts ...ServiceOption) error {
	if ctor == nil {
		return errors.New("ioc.Collection.AddService: ctor is nil")
	}
	return c.AddServiceAs(lifetime, c.reg.Resolve(ctor), ctor, opts...)
}

// AddServiceAs binds ctor to id with the given lifetime.
func (c *Collection) AddServiceAs(lifetime Lifetime, id *ServiceID, ctor *Ctor, opts ...ServiceOption) error {
	desc, err := NewDescriptor(id, ctor, append([]ServiceOption{lifetime}, opts...)...)
	if err != nil {
		return errors.Wrap(err, "ioc.Collection.AddService")
	}
	return c.Add(desc)
}

// TryAddServiceAs is like [Collection.AddServiceAs] but does nothing when id is already bound.
func (c *Collection) TryAddServiceAs(lifetime Lifetime, id *ServiceID, ctor *Ctor, opts ...ServiceOption) error {
	if id == nil {
		return errors.New("ioc.Collection.TryAddService: service id is nil")
	}
	if c.Has(id) {
		return nil
	}
	return c.AddServiceAs(lifetime, id, ctor, opts...)
}

// AddTransient binds ctor as a [Transient] service.
func (c *Collection) AddTransient(ctor *Ctor, opts ...ServiceOption) error {
	return c.AddService(Transient, ctor, opts...)
}

// AddScoped binds ctor as a [Scoped] service.
func (c *Collection) AddScoped(ctor *Ctor, opts ...ServiceOption) error {
	return c.AddService(Scoped, ctor, opts...)
}

// AddSingleton binds ctor as a [Singleton] service.
func (c *Collection) AddSingleton(ctor *Ctor, opts ...ServiceOption) error {
	return c.AddService(Singleton, ctor, opts...)
}

// TryAddTransient binds ctor as a [Transient] service unless its identity is already bound.
func (c *Collection) TryAddTransient(ctor *Ctor, opts ...ServiceOption) error {
	return c.tryAddService(Transient, ctor, opts)
}

// TryAddScoped binds ctor as a [Scoped] service unless its identity is already bound.
func (c *Collection) TryAddScoped(ctor *Ctor, opts ...ServiceOption) error {
	return c.tryAddService(Scoped, ctor, opts)
}

// TryAddSingleton binds ctor as a [Singleton] service unless its identity is already bound.
func (c *Collection) TryAddSingleton(ctor *Ctor, opts ...ServiceOption) error {
	return c.tryAddService(Singleton, ctor, opts)
}

func (c *Collection) tryAddService(lifetime Lifetime, ctor *Ctor, opts []ServiceOption) error {
	if ctor == nil {
		return errors.New("ioc.Collection.TryAddService: ctor is nil")
	}
	return c.TryAddServiceAs(lifetime, c.reg.Resolve(ctor), ctor, opts...)
}

// AddFactory binds a constructor producing a [Factory] to id.
// The result of Factory.Create becomes the instance and the factory is closed right after.
func (c *Collection) AddFactory(lifetime Lifetime, id *ServiceID, ctor *Ctor, opts ...ServiceOption) error {
	return c.AddServiceAs(lifetime, id, ctor, append(opts, AsFactory())...)
}

// TryAddFactory is like [Collection.AddFactory] but does nothing when id is already bound.
func (c *Collection) TryAddFactory(lifetime Lifetime, id *ServiceID, ctor *Ctor, opts ...ServiceOption) error {
	return c.TryAddServiceAs(lifetime, id, ctor, append(opts, AsFactory())...)
}

// AddInstance binds a pre-built value to id as a [Singleton].
//
// Only visibility and [Delayed] options are meaningful for instances.
func (c *Collection) AddInstance(id *ServiceID, instance any, opts ...ServiceOption) error {
	if isNil(instance) {
		return errors.Errorf("ioc.Collection.AddInstance %s: instance is nil", id)
	}
	return c.AddServiceAs(Singleton, id, ValueCtor(instance), append(opts, Singleton)...)
}
