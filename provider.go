package ioc

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Provider serves the services of one scope.
//
// It owns an instance cache keyed by descriptor. [Scoped] instances are cached in the
// provider requesting them, [Singleton] instances in the provider declaring them and
// [Transient] instances are never cached.
//
// Resolution runs on the calling goroutine. A Provider is safe for concurrent use; when
// two goroutines build the same cached service at once the first instance stored wins.
type Provider struct {
	name     string
	parent   *Provider
	services *Collection
	resolver *Resolver
	engine   *InstantiationService
	logger   *zap.Logger

	instances *xsync.MapOf[*Descriptor, any]
	proxies   *xsync.MapOf[*Descriptor, *Proxy]

	mu      sync.Mutex
	closers []Closer
	closed  atomic.Bool
}

func newProvider(name string, services *Collection, parent *Provider, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Provider{
		name:      name,
		parent:    parent,
		services:  services,
		logger:    logger,
		instances: xsync.NewMapOf[*Descriptor, any](),
		proxies:   xsync.NewMapOf[*Descriptor, *Proxy](),
	}
	p.resolver = newResolver(p)
	p.engine = newInstantiationService(p)
	p.engine.OnInstantiated(p.onInstantiated)

	p.addCoreService(ServiceProviderID, p)
	p.addCoreService(DependencyResolverID, p.resolver)
	p.addCoreService(InstantiationServiceID, p.engine)

	return p
}

// addCoreService binds a pre-built instance that only this provider can fetch.
// Core services are not closed with the provider.
func (p *Provider) addCoreService(id *ServiceID, instance any) {
	desc := &Descriptor{
		id:         id,
		lifetime:   Singleton,
		visibility: VisibleToContainer,
		ctor:       ValueCtor(instance),
	}
	p.services.add(desc)
	p.instances.Store(desc, instance)
}

// onInstantiated is the only writer of the instance cache.
func (p *Provider) onInstantiated(desc *Descriptor, instance any) {
	if _, ok := instance.(*Lazy); !ok {
		defer p.track(desc, instance)
	}

	if desc.lifetime == Transient {
		return
	}

	p.instances.Compute(desc, func(old any, loaded bool) (any, bool) {
		if !loaded {
			return instance, false
		}
		// A delayed placeholder is upgraded to the service it was built into.
		if _, wasLazy := old.(*Lazy); wasLazy {
			if _, isLazy := instance.(*Lazy); !isLazy {
				return instance, false
			}
		}
		return old, false
	})
}

func (p *Provider) track(desc *Descriptor, instance any) {
	closer := desc.closerFor(instance)
	if closer == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closers = append(p.closers, closer)
}

func (p *Provider) isCached(desc *Descriptor) bool {
	_, ok := p.instances.Load(desc)
	return ok
}

// Name returns the name of the scope served by the provider.
func (p *Provider) Name() string {
	return p.name
}

// Parent returns the provider of the parent scope, or nil for the root.
func (p *Provider) Parent() *Provider {
	return p.parent
}

// Collection returns the descriptors declared in this scope.
func (p *Provider) Collection() *Collection {
	return p.services
}

// Resolver returns the dependency resolver of this scope.
func (p *Provider) Resolver() *Resolver {
	return p.resolver
}

// InstantiationService returns the instantiation service of this scope.
func (p *Provider) InstantiationService() *InstantiationService {
	return p.engine
}

// OwnDescriptors returns the descriptors of id declared in this scope.
func (p *Provider) OwnDescriptors(id *ServiceID) []*Descriptor {
	return p.services.Get(id)
}

// OwnInstance returns the instance of desc cached by this provider.
func (p *Provider) OwnInstance(desc *Descriptor) (any, bool) {
	return p.instances.Load(desc)
}

// fetchOrCreate returns the cached instance of desc or builds it.
// The provider must be the owner of desc instances.
func (p *Provider) fetchOrCreate(desc *Descriptor) (any, error) {
	if val, ok := p.instances.Load(desc); ok {
		return val, nil
	}
	return p.engine.CreateService(desc)
}

func (p *Provider) proxyFor(desc *Descriptor) (*Proxy, error) {
	if p.closed.Load() {
		return nil, errors.Wrapf(ErrModuleClosed, "scope %s", p.name)
	}

	val, err := p.fetchOrCreate(desc)
	if err != nil {
		return nil, err
	}

	if desc.lifetime == Transient {
		proxy := newProxy(desc.id, val)
		proxy.owner = &p.closed
		return proxy, nil
	}

	proxy, _ := p.proxies.LoadOrCompute(desc, func() *Proxy {
		return newProxy(desc.id, val)
	})
	return proxy, nil
}

// Get returns a proxy to the first visible binding of id.
//
// Bindings of this scope visible to the container are preferred, then the nearest
// ancestor binding visible to children. When nothing matches, Get returns
// [ErrServiceNotRegistered] if required is true, or a nil proxy otherwise.
func (p *Provider) Get(id *ServiceID, required bool) (*Proxy, error) {
	if p.closed.Load() {
		return nil, errors.Wrapf(ErrModuleClosed, "ioc.Provider.Get %s", id)
	}

	owner, desc := p, (*Descriptor)(nil)
	for _, d := range p.services.Get(id) {
		if d.visibility.Allowed(true) {
			desc = d
			break
		}
	}

	if desc == nil {
		entry, ok := p.resolver.ResolveEntry(id)
		if !ok {
			if required {
				return nil, errors.Wrapf(ErrServiceNotRegistered, "ioc.Provider.Get %s", id)
			}
			return nil, nil
		}
		owner, desc = entry.provider, entry.desc
	}

	proxy, err := owner.proxyFor(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "ioc.Provider.Get %s", id)
	}
	return proxy, nil
}

// GetDescriptor returns a proxy to the instance of a specific descriptor visible from
// this scope.
func (p *Provider) GetDescriptor(desc *Descriptor) (*Proxy, error) {
	entry, ok := p.resolver.ResolveDescriptor(desc)
	if !ok {
		return nil, errors.Wrapf(ErrServiceNotRegistered, "ioc.Provider.GetDescriptor %s", desc)
	}

	proxy, err := entry.provider.proxyFor(entry.desc)
	if err != nil {
		return nil, errors.Wrapf(err, "ioc.Provider.GetDescriptor %s", desc)
	}
	return proxy, nil
}

// GetAll returns proxies to every visible binding of id.
//
// With currentScopeOnly only the bindings of this scope visible to the container are
// returned. Otherwise every scope from this one up to the root contributes its visible
// bindings, nearest first.
func (p *Provider) GetAll(id *ServiceID, currentScopeOnly bool) ([]*Proxy, error) {
	if p.closed.Load() {
		return nil, errors.Wrapf(ErrModuleClosed, "ioc.Provider.GetAll %s", id)
	}

	var entries []*Entry
	if currentScopeOnly {
		for _, desc := range p.services.Get(id) {
			if desc.visibility.Allowed(true) {
				entries = append(entries, newEntry(desc, p))
			}
		}
	} else {
		entries = p.resolver.ResolveEntries(id)
	}

	proxies := make([]*Proxy, 0, len(entries))
	for _, entry := range entries {
		proxy, err := entry.provider.proxyFor(entry.desc)
		if err != nil {
			return nil, errors.Wrapf(err, "ioc.Provider.GetAll %s", id)
		}
		proxies = append(proxies, proxy)
	}

	return proxies, nil
}

// CreateInstance calls ctor with args followed by its declared dependencies.
//
// The instance is not cached. len(args) must match the number of parameters before the
// first declared dependency.
func (p *Provider) CreateInstance(ctor *Ctor, args ...any) (any, error) {
	if p.closed.Load() {
		return nil, errors.Wrapf(ErrModuleClosed, "ioc.Provider.CreateInstance %s", ctor)
	}

	deps, err := p.resolver.ResolveDependencies(ctor)
	if err != nil {
		return nil, errors.Wrapf(err, "ioc.Provider.CreateInstance %s", ctor)
	}

	fixed := ctor.NumIn()
	if len(deps) > 0 {
		fixed = deps[0].Param.Index
	}
	if len(args) != fixed {
		return nil, errors.Wrapf(ErrInvalidArguments,
			"ioc.Provider.CreateInstance %s: expected %d arguments, provided %d", ctor, fixed, len(args))
	}

	for _, dep := range deps {
		arg, err := dep.arg(nil, ctor.In(dep.Param.Index))
		if err != nil {
			return nil, errors.Wrapf(err, "ioc.Provider.CreateInstance %s: %s", ctor, dep.Param)
		}
		args = append(args, arg)
	}

	var val any
	err = errors.Recover(func() error {
		v, err := ctor.Call(args)
		val = v
		return err
	})
	if err != nil {
		return nil, &InstantiationError{ID: p.services.Registry().Resolve(ctor), Err: err}
	}

	return val, nil
}

// Closed reports whether the provider has been closed.
func (p *Provider) Closed() bool {
	return p.closed.Load()
}

// Close revokes every proxy handed out by the provider and closes its instances in the
// reverse order they were created.
//
// Every instance is given a chance to close. Errors and panics are joined together.
// Close returns [ErrModuleClosed] if called more than once.
func (p *Provider) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return errors.Wrapf(ErrModuleClosed, "ioc.Provider.Close %s: closed already", p.name)
	}

	p.proxies.Range(func(_ *Descriptor, proxy *Proxy) bool {
		_ = proxy.Close()
		return true
	})

	p.mu.Lock()
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()

	var errs errors.MultiError
	for i := len(closers) - 1; i >= 0; i-- {
		err := errors.Recover(func() error {
			return closers[i].Close(ctx)
		})
		if err != nil {
			p.logger.Warn("failed to close service", zap.String("scope", p.name), zap.Error(err))
			errs = errs.Append(err)
		}
	}

	return errs.Wrapf("ioc.Provider.Close %s", p.name)
}
