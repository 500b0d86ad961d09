package ioc

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sectrean/ioc-kit/internal/errors"
)

const kernelName = "kernel"

// Builder declares the services and setup actions of a [Module].
//
// Create the root builder with [NewKernel] and child builders with
// [Module.CreateChildScope]. Errors are collected and returned by [Builder.Build].
type Builder struct {
	name     string
	parent   *Module
	slot     *childSlot
	logger   *zap.Logger
	services *Collection
	actions  []*setupAction
	errs     errors.MultiError
	built    bool
}

// BuilderOption is used to configure a kernel when calling [NewKernel].
//
// Available options:
//   - [WithLogger] sets the logger of the module tree.
//   - [WithRegistry] sets the registry shared by the module tree.
//   - [WithName] sets the name of the kernel.
type BuilderOption interface {
	applyBuilder(*Builder) error
}

type builderOption func(*Builder) error

func (o builderOption) applyBuilder(b *Builder) error {
	return o(b)
}

// WithLogger sets the logger of the module tree. Child modules use a named child logger.
func WithLogger(logger *zap.Logger) BuilderOption {
	return builderOption(func(b *Builder) error {
		if logger == nil {
			return errors.New("WithLogger: logger is nil")
		}
		b.logger = logger
		return nil
	})
}

// WithRegistry sets the registry the bindings of the module tree are validated against.
func WithRegistry(reg *Registry) BuilderOption {
	return builderOption(func(b *Builder) error {
		if reg == nil {
			return errors.New("WithRegistry: registry is nil")
		}
		b.services = NewCollection(reg)
		return nil
	})
}

// WithName sets the name of the kernel. The default is "kernel".
func WithName(name string) BuilderOption {
	return builderOption(func(b *Builder) error {
		if name == "" {
			return errors.New("WithName: name is empty")
		}
		b.name = name
		return nil
	})
}

// NewKernel creates the builder of a root module.
//
// Available options:
//   - [WithLogger] sets the logger of the module tree.
//   - [WithRegistry] sets the registry shared by the module tree.
//   - [WithName] sets the name of the kernel.
func NewKernel(opts ...BuilderOption) *Builder {
	b := &Builder{
		name:   kernelName,
		logger: zap.NewNop(),
	}

	err := applyOptions(opts, func(opt BuilderOption) error {
		return opt.applyBuilder(b)
	})
	b.errs = b.errs.Append(errors.Wrap(err, "ioc.NewKernel"))

	if b.services == nil {
		b.services = NewCollection(NewRegistry())
	}
	b.logger = b.logger.Named(b.name)

	return b
}

// Name returns the name of the module being built.
func (b *Builder) Name() string {
	return b.name
}

// Registry returns the registry shared by the module tree.
func (b *Builder) Registry() *Registry {
	return b.services.Registry()
}

// Services returns the collection of the module being built.
func (b *Builder) Services() *Collection {
	return b.services
}

// Configure calls fn with the collection of the module being built.
func (b *Builder) Configure(fn func(*Collection) error) *Builder {
	if fn == nil {
		b.errs = b.errs.Append(errors.Errorf("ioc.Builder.Configure %s: fn is nil", b.name))
		return b
	}
	if err := fn(b.services); err != nil {
		b.errs = b.errs.Append(errors.Wrapf(err, "ioc.Builder.Configure %s", b.name))
	}
	return b
}

// Use adds a setup action run by [Module.Start].
//
// Actions run in the order they were added. Each one completes before the next starts
// unless [SetupHandle.ContinueWithoutAwaiting] is called on its handle.
func (b *Builder) Use(fn func(ctx context.Context, p *Provider) error) *SetupHandle {
	action := &setupAction{
		name: fmt.Sprintf("setup #%d", len(b.actions)+1),
		fn:   fn,
	}
	b.actions = append(b.actions, action)

	return &SetupHandle{Builder: b, action: action}
}

// Setup adds a setup action called with the instance of id.
//
// When required is false and id is not bound the action is skipped.
func (b *Builder) Setup(id *ServiceID, required bool, fn func(ctx context.Context, svc any) error) *SetupHandle {
	h := b.Use(func(ctx context.Context, p *Provider) error {
		proxy, err := p.Get(id, required)
		if err != nil || proxy == nil {
			return err
		}

		svc, err := proxy.Value()
		if err != nil {
			return err
		}
		return fn(ctx, svc)
	})

	return h.Named(fmt.Sprintf("setup %s", id))
}

// SetupMany adds a setup action called concurrently with every instance of id.
// The action fails with the joined errors of every call.
func (b *Builder) SetupMany(id *ServiceID, currentScopeOnly bool, fn func(ctx context.Context, svc any) error) *SetupHandle {
	h := b.Use(func(ctx context.Context, p *Provider) error {
		proxies, err := p.GetAll(id, currentScopeOnly)
		if err != nil {
			return err
		}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs errors.MultiError
		)
		for _, proxy := range proxies {
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := errors.Recover(func() error {
					svc, err := proxy.Value()
					if err != nil {
						return err
					}
					return fn(ctx, svc)
				})

				mu.Lock()
				errs = errs.Append(err)
				mu.Unlock()
			}()
		}
		wg.Wait()

		return errs.Join()
	})

	return h.Named(fmt.Sprintf("setup many %s", id))
}

// SetupCtor is like [Builder.Setup] for the identity ctor resolves to in the registry.
// The service is required.
func (b *Builder) SetupCtor(ctor *Ctor, fn func(ctx context.Context, svc any) error) *SetupHandle {
	return b.Setup(b.Registry().Resolve(ctor), true, fn)
}

// SetupManyCtor is like [Builder.SetupMany] for the identity ctor resolves to in the
// registry. Only the bindings of the module itself are used.
func (b *Builder) SetupManyCtor(ctor *Ctor, fn func(ctx context.Context, svc any) error) *SetupHandle {
	return b.SetupMany(b.Registry().Resolve(ctor), true, fn)
}

// Build creates the module. A builder can only be built once.
func (b *Builder) Build() (*Module, error) {
	if b.built {
		return nil, errors.Errorf("ioc.Builder.Build %s: built already", b.name)
	}
	if err := b.errs.Wrapf("ioc.Builder.Build %s", b.name); err != nil {
		b.release()
		return nil, err
	}

	var (
		parentProvider *Provider
		parentCtx      = context.Background()
	)
	if b.parent != nil {
		if b.parent.State() == StateClosed {
			b.release()
			return nil, errors.Wrapf(ErrModuleClosed, "ioc.Builder.Build %s", b.name)
		}
		parentProvider = b.parent.provider
		parentCtx = b.parent.ctx
	}

	m := &Module{
		id:       uuid.New(),
		name:     b.name,
		parent:   b.parent,
		logger:   b.logger,
		actions:  b.actions,
		ready:    newFuture(),
		children: make(map[string]*childSlot),
	}
	m.ctx, m.cancel = context.WithCancelCause(parentCtx)
	m.provider = newProvider(b.name, b.services.Clone(), parentProvider, b.logger)
	m.provider.addCoreService(ModuleID, m)

	if b.slot != nil {
		b.parent.mu.Lock()
		b.slot.module = m
		b.parent.mu.Unlock()
	}

	b.built = true
	m.logger.Debug("module built", zap.Stringer("module_id", m.id))

	return m, nil
}

func (b *Builder) release() {
	if b.slot == nil {
		return
	}
	b.parent.release(b.name, b.slot)
	b.slot = nil
}
