package dicontext

import (
	"context"
	"reflect"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/errors"
)

type providerContextKey struct{}

// WithProvider returns a new [context.Context] that carries the provided [ioc.Provider].
func WithProvider(ctx context.Context, p *ioc.Provider) context.Context {
	return context.WithValue(ctx, providerContextKey{}, p)
}

// Provider returns the [ioc.Provider] stored on the [context.Context], if present.
func Provider(ctx context.Context) *ioc.Provider {
	if p, ok := ctx.Value(providerContextKey{}).(*ioc.Provider); ok {
		return p
	}
	return nil
}

// Get returns the instance of id from the [ioc.Provider] stored on the
// [context.Context].
func Get[Service any](ctx context.Context, id *ioc.ServiceID) (Service, error) {
	var val Service

	p := Provider(ctx)
	if p == nil {
		return val, errors.Errorf("get %s from context: provider not found on context", reflect.TypeFor[Service]())
	}

	val, err := ioc.Get[Service](p, id)
	return val, errors.Wrap(err, "get from context")
}

// MustGet returns the instance of id from the [ioc.Provider] stored on the
// [context.Context]. It panics on error.
func MustGet[Service any](ctx context.Context, id *ioc.ServiceID) Service {
	val, err := Get[Service](ctx, id)
	if err != nil {
		panic(err)
	}
	return val
}
