package ioc

import (
	"context"
)

type moduleContextKey struct{}

// ContextWithModule returns a new Context that carries the provided Module.
func ContextWithModule(ctx context.Context, m *Module) context.Context {
	return context.WithValue(ctx, moduleContextKey{}, m)
}

// ModuleFromContext returns the Module stored on the Context, if it exists.
func ModuleFromContext(ctx context.Context) *Module {
	if m, ok := ctx.Value(moduleContextKey{}).(*Module); ok {
		return m
	}
	return nil
}
