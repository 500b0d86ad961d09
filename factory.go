package ioc

import (
	"context"
	"reflect"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Factory builds a service on behalf of a constructor registered with [AsFactory].
//
// The factory is closed right after Create returns when it implements one of the
// Close signatures accepted by [Closer].
type Factory interface {
	Create() (any, error)
}

// FactoryFunc adapts a function to [Factory].
type FactoryFunc func() (any, error)

// Create calls f.
func (f FactoryFunc) Create() (any, error) {
	return f()
}

// Awaitable is implemented by asynchronous results, such as a [Future].
// Factories may not return them.
type Awaitable interface {
	Wait(ctx context.Context) error
}

func createFromFactory(instance any) (any, error) {
	f, ok := instance.(Factory)
	if !ok {
		return nil, errors.Errorf("constructor returned %T which is not a Factory", instance)
	}

	err := errors.Recover(func() error {
		v, err := f.Create()
		instance = v
		return err
	})

	if closer := getCloser(f); closer != nil {
		// The factory is transient. Its close failure is not the service's failure.
		_ = closer.Close(context.Background())
	}

	if err != nil {
		return nil, err
	}

	if isAsync(instance) {
		return nil, ErrAsyncFactory
	}

	return instance, nil
}

func isAsync(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(Awaitable); ok {
		return true
	}
	return reflect.TypeOf(v).Kind() == reflect.Chan
}
