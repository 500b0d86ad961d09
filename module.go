package ioc

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// State is the lifecycle state of a [Module].
type State int32

const (
	// StateBuilt is the state of a module that has not been started.
	StateBuilt State = iota

	// StateRunning is the state of a started module.
	StateRunning

	// StateClosed is the state of a closed module.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "Built"
	case StateRunning:
		return "Running"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Unknown State %d", s)
	}
}

// Module is a scope of the module tree.
//
// It serves its services through a [Provider], runs its setup actions when started and
// owns its child modules. Closing a module closes its children first, then its own
// instances.
type Module struct {
	id       uuid.UUID
	name     string
	parent   *Module
	provider *Provider
	logger   *zap.Logger
	actions  []*setupAction

	ctx    context.Context
	cancel context.CancelCauseFunc
	ready  *Future
	state  atomic.Int32

	mu       sync.RWMutex
	children map[string]*childSlot
	order    []string
}

// childSlot reserves a child name until its builder is built.
type childSlot struct {
	module *Module
}

// ID returns the unique id of the module.
func (m *Module) ID() uuid.UUID {
	return m.id
}

// Name returns the name of the module.
func (m *Module) Name() string {
	return m.name
}

// Path returns the names of the modules from the root to this one, joined with "/".
func (m *Module) Path() string {
	if m.parent == nil {
		return m.name
	}
	return m.parent.Path() + "/" + m.name
}

// Parent returns the parent module, or nil for the kernel.
func (m *Module) Parent() *Module {
	return m.parent
}

// Root returns the kernel of the module tree.
func (m *Module) Root() *Module {
	root := m
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Provider returns the provider serving the services of the module.
func (m *Module) Provider() *Provider {
	return m.provider
}

// Logger returns the logger of the module.
func (m *Module) Logger() *zap.Logger {
	return m.logger
}

// Context returns the abort signal of the module.
// It is cancelled when the startup is aborted or the module is closed.
func (m *Module) Context() context.Context {
	return m.ctx
}

// Ready returns the readiness of the module.
func (m *Module) Ready() *Future {
	return m.ready
}

// State returns the lifecycle state of the module.
func (m *Module) State() State {
	return State(m.state.Load())
}

// Running reports whether the module has been started and not closed.
func (m *Module) Running() bool {
	return m.State() == StateRunning
}

// CreateChildScope returns the builder of a new child module.
//
// The name is reserved right away, before the child is built.
// A name already taken by a sibling returns [ErrDuplicateScope].
func (m *Module) CreateChildScope(name string) (*Builder, error) {
	if name == "" {
		return nil, errors.New("ioc.Module.CreateChildScope: name is empty")
	}
	if m.State() == StateClosed {
		return nil, errors.Wrapf(ErrModuleClosed, "ioc.Module.CreateChildScope %s", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.children[name]; ok {
		return nil, errors.Wrapf(ErrDuplicateScope, "ioc.Module.CreateChildScope %s", name)
	}

	slot := &childSlot{}
	m.children[name] = slot
	m.order = append(m.order, name)

	return &Builder{
		name:     name,
		parent:   m,
		slot:     slot,
		logger:   m.logger.Named(name),
		services: NewCollection(m.provider.services.Registry()),
	}, nil
}

// Child returns the built child module with the given name.
func (m *Module) Child(name string) (*Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slot, ok := m.children[name]
	if !ok || slot.module == nil {
		return nil, false
	}
	return slot.module, true
}

// Children iterates over the built child modules in creation order.
// Reserved names whose builder has not been built are skipped.
func (m *Module) Children() iter.Seq[*Module] {
	return func(yield func(*Module) bool) {
		for _, child := range m.builtChildren() {
			if !yield(child) {
				return
			}
		}
	}
}

func (m *Module) builtChildren() []*Module {
	m.mu.RLock()
	defer m.mu.RUnlock()

	children := make([]*Module, 0, len(m.order))
	for _, name := range m.order {
		if slot := m.children[name]; slot != nil && slot.module != nil {
			children = append(children, slot.module)
		}
	}
	return children
}

// release frees a name reserved by CreateChildScope whose builder failed to build.
func (m *Module) release(name string, slot *childSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.children[name] != slot || slot.module != nil {
		return
	}
	delete(m.children, name)
	m.order = slices.DeleteFunc(m.order, func(n string) bool { return n == name })
}

func (m *Module) detach(child *Module) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.children[child.name]
	if !ok || slot.module != child {
		return
	}
	delete(m.children, child.name)
	m.order = slices.DeleteFunc(m.order, func(name string) bool { return name == child.name })
}

// Start runs the setup actions of the module on a new goroutine.
//
// It returns false if the module has already been started or is closed. The outcome of
// the startup is reported by [Module.Ready]. Cancelling ctx aborts the startup.
func (m *Module) Start(ctx context.Context) bool {
	if !m.state.CompareAndSwap(int32(StateBuilt), int32(StateRunning)) {
		return false
	}

	runCtx, cancel := context.WithCancelCause(m.ctx)
	stop := context.AfterFunc(ctx, func() {
		cancel(context.Cause(ctx))
	})

	m.logger.Debug("module starting", zap.Int("actions", len(m.actions)))

	go func() {
		defer stop()
		defer cancel(nil)

		m.run(runCtx)
	}()

	return true
}

func (m *Module) run(ctx context.Context) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		asyncErrs errors.MultiError
	)

	for _, action := range m.actions {
		if ctx.Err() != nil {
			m.abort(context.Cause(ctx))
			return
		}

		if action.async {
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := m.runAction(ctx, action)
				if err == nil || errors.Is(err, ErrStopSetup) {
					return
				}
				if action.decide(err) != Throw {
					return
				}

				m.logActionError(action, err)
				mu.Lock()
				asyncErrs = asyncErrs.Append(err)
				mu.Unlock()
			}()
			continue
		}

		err := m.runAction(ctx, action)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrStopSetup) {
			break
		}

		decision := action.decide(err)
		if decision == Continue {
			continue
		}
		if decision == Stop {
			break
		}

		m.logActionError(action, err)
		m.abort(err)
		return
	}

	wg.Wait()

	if asyncErrs.Len() > 0 {
		m.abort(&AggregateError{Errors: asyncErrs})
		return
	}

	m.logger.Debug("module ready")
	m.ready.settle(nil)
}

func (m *Module) runAction(ctx context.Context, action *setupAction) error {
	return errors.Recover(func() error {
		return action.fn(ctx, m.provider)
	})
}

func (m *Module) logActionError(action *setupAction, err error) {
	m.logger.Error("setup action failed",
		zap.String("module", m.Path()),
		zap.Stringer("module_id", m.id),
		zap.String("action", action.name),
		zap.Error(err),
	)
}

func (m *Module) abort(err error) {
	m.logger.Error("module startup aborted",
		zap.String("module", m.Path()),
		zap.Stringer("module_id", m.id),
		zap.Error(err),
	)
	m.cancel(err)
	m.ready.settle(err)
}

// Close closes the child modules, then the instances owned by the module, then cancels
// its abort signal. The module is detached from its parent.
//
// Every child and instance is given a chance to close. Errors and panics are joined
// together. Close returns [ErrModuleClosed] if called more than once.
func (m *Module) Close(ctx context.Context) error {
	for {
		state := m.state.Load()
		if State(state) == StateClosed {
			return errors.Wrapf(ErrModuleClosed, "ioc.Module.Close %s: closed already", m.Path())
		}
		if m.state.CompareAndSwap(state, int32(StateClosed)) {
			break
		}
	}

	var errs errors.MultiError
	for _, child := range m.builtChildren() {
		errs = errs.Append(errors.Recover(func() error {
			return child.Close(ctx)
		}))
	}

	errs = errs.Append(errors.Recover(func() error {
		return m.provider.Close(ctx)
	}))

	m.cancel(ErrModuleClosed)
	m.ready.settle(ErrModuleClosed)

	if m.parent != nil {
		m.parent.detach(m)
	}

	if errs.Len() > 0 {
		m.logger.Warn("module closed with errors", zap.String("module", m.Path()), zap.Int("errors", errs.Len()))
	} else {
		m.logger.Debug("module closed")
	}

	return errs.Wrapf("ioc.Module.Close %s", m.Path())
}

func (m *Module) String() string {
	return fmt.Sprintf("module %s (%s)", m.Path(), m.State())
}
