package dihttp

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/dicontext"
	"github.com/sectrean/ioc-kit/internal/errors"
)

// RequestID is the identity of the current [*http.Request] in each request scope.
var RequestID = ioc.NewServiceID("Request", "http")

// NewRequestScopeMiddleware creates a new child module for each request.
// The module is started before the handler runs and closed after the request has been processed.
//
// The current [*http.Request] is bound to [RequestID] in the module. It can be used as a dependency for scoped services.
//
// The provider of the module is stored on the request context and can be accessed using [dicontext.Provider],
// [dicontext.Get], or [dicontext.MustGet]. The module itself is available with [ioc.ModuleFromContext].
//
// Available options:
//   - [WithScopeConfigure]: Declare services in each request scope.
//   - [WithNewScopeErrorHandler]: Set the error handler for when there is an error creating a new scope.
//   - [WithScopeCloseErrorHandler]: Set the error handler for when there is an error closing the scope.
func NewRequestScopeMiddleware(parent *ioc.Module, opts ...ScopeMiddlewareOption) (func(http.Handler) http.Handler, error) {
	if parent == nil {
		return nil, errors.New("dihttp.NewRequestScopeMiddleware: parent is nil")
	}

	mw := scopeMiddleware{
		parent:          parent,
		logger:          parent.Logger(),
		newScopeHandler: defaultNewScopeErrorHandler(parent.Logger()),
		closeHandler:    defaultScopeCloseErrorHandler(parent.Logger()),
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyScopeMiddleware(&mw))
	}
	if err := errs.Wrap("dihttp.NewRequestScopeMiddleware"); err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		h := mw
		h.next = next
		return &h
	}, nil
}

// NewScopeErrorHandler is a function that writes an error response to the client.
// This is called by the scope middleware when the request module cannot be built or started.
//
// The default handler logs the error with the logger of the parent module and writes a
// 500 Internal Server Error response.
type NewScopeErrorHandler = func(w http.ResponseWriter, r *http.Request, err error)

func defaultNewScopeErrorHandler(logger *zap.Logger) NewScopeErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("error creating new HTTP request scope", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ScopeCloseErrorHandler is a function that handles errors when closing the request module
// after the request has completed.
//
// The default handler logs the error with the logger of the parent module.
type ScopeCloseErrorHandler = func(r *http.Request, err error)

func defaultScopeCloseErrorHandler(logger *zap.Logger) ScopeCloseErrorHandler {
	return func(r *http.Request, err error) {
		logger.Error("error closing HTTP request scope", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

type scopeMiddleware struct {
	parent          *ioc.Module
	logger          *zap.Logger
	configure       []func(*ioc.Collection) error
	setup           []func(*ioc.Builder)
	newScopeHandler NewScopeErrorHandler
	closeHandler    ScopeCloseErrorHandler
	next            http.Handler
}

func (m *scopeMiddleware) newScope(r *http.Request) (*ioc.Module, error) {
	b, err := m.parent.CreateChildScope("request-" + uuid.NewString())
	if err != nil {
		return nil, err
	}

	b.Configure(func(c *ioc.Collection) error {
		return c.AddInstance(RequestID, r, ioc.VisibleToContainer)
	})
	for _, fn := range m.configure {
		b.Configure(fn)
	}
	for _, fn := range m.setup {
		fn(b)
	}

	scope, err := b.Build()
	if err != nil {
		return nil, err
	}

	scope.Start(r.Context())
	if err := scope.Ready().Wait(r.Context()); err != nil {
		_ = scope.Close(r.Context())
		return nil, err
	}

	return scope, nil
}

func (m *scopeMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	scope, err := m.newScope(r)
	if err != nil {
		if m.newScopeHandler != nil {
			m.newScopeHandler(w, r, err)
		}
		return
	}

	ctx := ioc.ContextWithModule(r.Context(), scope)
	ctx = dicontext.WithProvider(ctx, scope.Provider())
	m.next.ServeHTTP(w, r.WithContext(ctx))

	err = scope.Close(ctx)
	if err != nil && m.closeHandler != nil {
		m.closeHandler(r, err)
	}
}
