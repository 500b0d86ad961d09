package ioc

import (
	"context"
	"reflect"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Closer is used to close a service when closing the provider owning it.
//
// If an instance implements Closer, or one of the other compatible function signatures,
// the Close function will be called when its scope is closed.
//
// Any of these Close method signatures are supported:
//
//	Close(context.Context) error
//	Close(context.Context)
//	Close() error
//	Close()
//
// See related options:
//   - [IgnoreCloser]
//   - [WithCloseFunc]
type Closer interface {
	Close(ctx context.Context) error
}

// IgnoreCloser is used when you do not want a service that implements Closer, or another
// supported Close function signature, to be closed with its scope.
//
// This is useful when you want to manage the lifecycle of a service outside of the module tree.
func IgnoreCloser() ServiceOption {
	return serviceOption(func(d *Descriptor) error {
		d.closer = nil
		return nil
	})
}

type closerFactory func(val any) Closer

// WithCloseFunc can be used to set a custom function to call for a service when its scope
// is closed.
//
// This is useful if a service has a method called Shutdown or Stop instead of Close that should be
// used to close the service.
//
// Example:
//
//	ioc.WithCloseFunc(func(ctx context.Context, s *http.Server) error {
//		return s.Shutdown(ctx)
//	})
//
// This option will return an error if the service type is not assignable to T.
func WithCloseFunc[T any](f func(context.Context, T) error) ServiceOption {
	return closeFuncOption[T]{f}
}

type closeFuncOption[T any] struct {
	f func(context.Context, T) error
}

func (o closeFuncOption[T]) applyDescriptor(d *Descriptor) error {
	svcType := d.ctor.Type()
	closerType := reflect.TypeFor[T]()

	if svcType == nil || !svcType.AssignableTo(closerType) {
		return errors.Errorf("service type %s is not assignable to close func type %s",
			typeName(svcType), closerType)
	}

	d.closer = func(val any) Closer {
		return closeFunc(func(ctx context.Context) error {
			return o.f(ctx, val.(T))
		})
	}
	return nil
}

// getCloser returns the Closer interface if the given value implements it,
// or any of the compatible Close function signatures.
func getCloser(val any) Closer {
	switch c := val.(type) {
	case *Lazy:
		if built, ok := c.peek(); ok {
			return getCloser(built)
		}
		return nil
	case Closer:
		return c
	case closerWithContextNoError:
		return closerWithContextNoErrorWrapper{c}
	case closerNoContextWithError:
		return closerNoContextWithErrorWrapper{c}
	case closerNoContextNoError:
		return closerNoContextNoErrorWrapper{c}

	default:
		return nil
	}
}

type closerWithContextNoError interface {
	Close(ctx context.Context)
}

type closerNoContextWithError interface {
	Close() error
}

type closerNoContextNoError interface {
	Close()
}

type closerNoContextNoErrorWrapper struct {
	c closerNoContextNoError
}

func (w closerNoContextNoErrorWrapper) Close(context.Context) error {
	w.c.Close()
	return nil
}

type closerWithContextNoErrorWrapper struct {
	c closerWithContextNoError
}

func (w closerWithContextNoErrorWrapper) Close(ctx context.Context) error {
	w.c.Close(ctx)
	return nil
}

type closerNoContextWithErrorWrapper struct {
	c closerNoContextWithError
}

func (w closerNoContextWithErrorWrapper) Close(context.Context) error {
	return w.c.Close()
}

type closeFunc func(context.Context) error

func (f closeFunc) Close(ctx context.Context) error {
	return f(ctx)
}
