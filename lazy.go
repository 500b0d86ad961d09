package ioc

import (
	"reflect"
	"sync"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Lazy is the placeholder of a delayed service.
//
// The service, and the resolution of its own dependencies, is built on the first call
// to [Lazy.Value]. A failed build is not cached and is retried on the next access.
type Lazy struct {
	mu       sync.Mutex
	id       *ServiceID
	build    func() (any, error)
	val      any
	built    bool
	building bool
}

func newLazy(id *ServiceID, build func() (any, error)) *Lazy {
	return &Lazy{
		id:    id,
		build: build,
	}
}

// builtLazy wraps an instance that is already available.
func builtLazy(val any) *Lazy {
	return &Lazy{
		val:   val,
		built: true,
	}
}

// ID returns the identity of the delayed service, or nil for a pre-built cell.
func (l *Lazy) ID() *ServiceID {
	return l.id
}

// Built reports whether the service has been built.
func (l *Lazy) Built() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.built
}

// Value builds the service on first use and returns it.
//
// Accessing the cell from its own constructor returns [ErrDelayedCycle].
func (l *Lazy) Value() (any, error) {
	l.mu.Lock()
	if l.built {
		val := l.val
		l.mu.Unlock()
		return val, nil
	}
	if l.building {
		l.mu.Unlock()
		return nil, errors.Wrapf(ErrDelayedCycle, "lazy %s", l.id)
	}
	l.building = true
	build := l.build
	l.mu.Unlock()

	val, err := build()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.building = false
	if err != nil {
		return nil, errors.Wrapf(err, "lazy %s", l.id)
	}

	l.val = val
	l.built = true
	l.build = nil
	return val, nil
}

// peek returns the built value without building it.
func (l *Lazy) peek() (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.val, l.built
}

// LazyValue builds the delayed service and asserts its type.
func LazyValue[T any](l *Lazy) (T, error) {
	var zero T

	val, err := l.Value()
	if err != nil {
		return zero, err
	}

	typed, ok := val.(T)
	if !ok {
		return zero, errors.Errorf("lazy %s: value of type %T is not a %s", l.id, val, typeName(reflect.TypeFor[T]()))
	}
	return typed, nil
}
