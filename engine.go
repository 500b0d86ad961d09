package ioc

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// InstantiationService builds the services owned by one provider.
//
// It walks the dependency graph of the requested service leaves first, building each
// missing entry with the instantiation service of the provider owning it. Every built
// instance is announced to the subscribers registered with
// [InstantiationService.OnInstantiated].
type InstantiationService struct {
	provider *Provider

	mu          sync.RWMutex
	subscribers []*subscriber
}

type subscriber struct {
	fn func(*Descriptor, any)
}

func newInstantiationService(p *Provider) *InstantiationService {
	return &InstantiationService{provider: p}
}

// OnInstantiated registers fn to be called with every instance built by this service,
// including delayed placeholders and the values they are later built into.
//
// The returned function removes the subscription.
func (s *InstantiationService) OnInstantiated(fn func(desc *Descriptor, instance any)) func() {
	sub := &subscriber{fn: fn}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.subscribers = slices.DeleteFunc(s.subscribers, func(other *subscriber) bool {
			return other == sub
		})
	}
}

func (s *InstantiationService) emit(desc *Descriptor, instance any) {
	s.mu.RLock()
	subs := slices.Clone(s.subscribers)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(desc, instance)
	}
}

// CreateService builds a new instance of desc, which must be owned by the provider
// of this service, together with every dependency that is not built yet.
//
// A delayed descriptor yields a [*Lazy].
func (s *InstantiationService) CreateService(desc *Descriptor) (any, error) {
	entry := newEntry(desc, s.provider)
	rc := newResolveContext()

	if err := s.instantiateGraph(entry, rc, !desc.delayed); err != nil {
		return nil, err
	}

	val, _ := rc.get(entry)
	return val, nil
}

func (s *InstantiationService) instantiateGraph(root *Entry, rc *resolveContext, expandRoot bool) error {
	g, err := s.provider.resolver.resolveGraph(root, expandRoot)
	if err != nil {
		return err
	}

	for _, node := range g.Order() {
		forced := expandRoot && node.desc.delayed && node == g.Root()

		if !forced {
			if _, ok := rc.get(node); ok {
				continue
			}
			if val, ok := node.provider.OwnInstance(node.desc); ok {
				rc.set(node, val)
				continue
			}
		}

		if err := node.provider.engine.instantiate(node, rc, forced); err != nil {
			return err
		}
	}

	return nil
}

func (s *InstantiationService) instantiate(e *Entry, rc *resolveContext, forced bool) error {
	desc := e.desc

	if desc.delayed && !forced {
		var lazy *Lazy
		lazy = newLazy(desc.id, func() (any, error) {
			return s.buildDelayed(e, lazy)
		})

		rc.set(e, lazy)
		s.emit(desc, lazy)
		s.canonical(e, rc)
		return nil
	}

	val, err := s.build(e, rc)
	if err != nil {
		return err
	}

	rc.set(e, val)
	s.emit(desc, val)
	s.canonical(e, rc)
	return nil
}

// canonical replaces the instance in rc with the cached one, so that every dependent
// sees the instance that won the cache.
func (s *InstantiationService) canonical(e *Entry, rc *resolveContext) {
	if e.desc.lifetime == Transient {
		return
	}
	if val, ok := s.provider.OwnInstance(e.desc); ok {
		rc.set(e, val)
	}
}

// buildDelayed builds the service behind lazy in a resolution pass of its own.
// The cell stands in for the service while its dependencies are built.
func (s *InstantiationService) buildDelayed(e *Entry, lazy *Lazy) (any, error) {
	root := newEntry(e.desc, e.provider)
	rc := newResolveContext()
	rc.set(root, lazy)

	if err := s.instantiateGraph(root, rc, true); err != nil {
		return nil, err
	}

	val, _ := rc.get(root)
	return val, nil
}

func (s *InstantiationService) build(e *Entry, rc *resolveContext) (any, error) {
	desc := e.desc
	args := desc.Args()

	deps, _ := e.Dependencies()
	for _, dep := range deps {
		arg, err := dep.arg(rc, desc.ctor.In(dep.Param.Index))
		if err != nil {
			return nil, errors.Wrapf(err, "%s of %s", dep.Param, desc.id)
		}
		args = append(args, arg)
	}

	var val any
	err := errors.Recover(func() error {
		v, err := desc.ctor.Call(args)
		val = v
		return err
	})
	if err == nil && desc.factory {
		val, err = createFromFactory(val)
	}
	if err != nil {
		return nil, &InstantiationError{ID: desc.id, Err: err}
	}

	s.provider.logger.Debug("service instantiated",
		zap.Stringer("service", desc.id),
		zap.Stringer("lifetime", desc.lifetime),
	)

	return val, nil
}
