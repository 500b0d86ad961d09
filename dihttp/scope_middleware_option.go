package dihttp

import (
	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/errors"
)

// ScopeMiddlewareOption is an option used to configure the scope middleware when calling [NewRequestScopeMiddleware].
type ScopeMiddlewareOption interface {
	applyScopeMiddleware(*scopeMiddleware) error
}

type scopeMiddlewareOption func(*scopeMiddleware) error

func (o scopeMiddlewareOption) applyScopeMiddleware(m *scopeMiddleware) error {
	return o(m)
}

// WithScopeConfigure declares services in each request scope.
func WithScopeConfigure(fn func(*ioc.Collection) error) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) error {
		if fn == nil {
			return errors.New("WithScopeConfigure: fn is nil")
		}
		m.configure = append(m.configure, fn)
		return nil
	})
}

// WithScopeSetup adds setup actions to each request scope. They run before the handler.
func WithScopeSetup(fn func(*ioc.Builder)) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) error {
		if fn == nil {
			return errors.New("WithScopeSetup: fn is nil")
		}
		m.setup = append(m.setup, fn)
		return nil
	})
}

// WithNewScopeErrorHandler sets the error handler for when there is an error creating a new scope.
func WithNewScopeErrorHandler(h NewScopeErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) error {
		if h == nil {
			return errors.New("WithNewScopeErrorHandler: h is nil")
		}
		m.newScopeHandler = h
		return nil
	})
}

// WithScopeCloseErrorHandler sets the error handler for when there is an error closing the scope.
func WithScopeCloseErrorHandler(h ScopeCloseErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) error {
		if h == nil {
			return errors.New("WithScopeCloseErrorHandler: h is nil")
		}
		m.closeHandler = h
		return nil
	})
}
