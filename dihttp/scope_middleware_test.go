package dihttp_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/dicontext"
	"github.com/sectrean/ioc-kit/dihttp"
	"github.com/sectrean/ioc-kit/internal/mocks"
	"github.com/sectrean/ioc-kit/internal/testtypes"
	"github.com/sectrean/ioc-kit/internal/testutils"
)

var (
	AID = ioc.NewServiceID("A", "test")
	BID = ioc.NewServiceID("B", "test")
)

func newKernel(t *testing.T, opts []ioc.BuilderOption, configure func(*ioc.Collection) error) *ioc.Module {
	t.Helper()

	b := ioc.NewKernel(opts...)
	if configure != nil {
		b.Configure(configure)
	}

	m, err := b.Build()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = m.Close(context.Background())
	})
	return m
}

// Binds a scoped *testtypes.StructA tagged with the path of the current request.
func bindRequestTag(c *ioc.Collection) error {
	ctor := c.Registry().MustDefine(func(r *http.Request) *testtypes.StructA {
		return &testtypes.StructA{Tag: r.URL.Path}
	}, ioc.Inject(0, dihttp.RequestID))
	return c.AddServiceAs(ioc.Scoped, AID, ctor)
}

func Test_NewRequestScopeMiddleware(t *testing.T) {
	t.Run("nil parent", func(t *testing.T) {
		mw, err := dihttp.NewRequestScopeMiddleware(nil)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "dihttp.NewRequestScopeMiddleware: parent is nil")
	})

	t.Run("nil options", func(t *testing.T) {
		kernel := newKernel(t, nil, nil)

		mw, err := dihttp.NewRequestScopeMiddleware(kernel,
			dihttp.WithScopeConfigure(nil),
			dihttp.WithScopeSetup(nil),
			dihttp.WithNewScopeErrorHandler(nil),
			dihttp.WithScopeCloseErrorHandler(nil),
		)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.ErrorContains(t, err, "WithScopeConfigure: fn is nil")
		assert.ErrorContains(t, err, "WithScopeSetup: fn is nil")
		assert.ErrorContains(t, err, "WithNewScopeErrorHandler: h is nil")
		assert.ErrorContains(t, err, "WithScopeCloseErrorHandler: h is nil")
	})

	t.Run("multiple middleware calls", func(t *testing.T) {
		kernel := newKernel(t, nil, nil)

		mw, err := dihttp.NewRequestScopeMiddleware(kernel)
		require.NoError(t, err)

		handlerA := mw(http.NotFoundHandler())
		handlerB := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		assert.Equal(t, http.StatusNotFound, RunRequest(t, handlerA, "/"))
		assert.Equal(t, http.StatusInternalServerError, RunRequest(t, handlerB, "/"))
	})
}

func Test_Middleware(t *testing.T) {
	t.Run("router", func(t *testing.T) {
		kernel := newKernel(t, nil, bindRequestTag)

		mw, err := dihttp.NewRequestScopeMiddleware(kernel)
		require.NoError(t, err)

		var scope *ioc.Module
		router := chi.NewRouter()
		router.Use(mw)
		router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
			scope = ioc.ModuleFromContext(r.Context())
			require.NotNil(t, scope)
			assert.True(t, scope.Running())
			assert.Same(t, kernel, scope.Parent())

			a, getErr := dicontext.Get[*testtypes.StructA](r.Context(), AID)
			require.NoError(t, getErr)
			assert.Equal(t, "/items/"+chi.URLParam(r, "id"), a.Tag)

			w.WriteHeader(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, RunRequest(t, router, "/items/42"))
		assert.Equal(t, ioc.StateClosed, scope.State(), "the request scope is closed after the handler")

		for range kernel.Children() {
			assert.Fail(t, "request scopes are detached once closed")
		}
	})

	t.Run("*http.Request service", func(t *testing.T) {
		kernel := newKernel(t, nil, nil)

		mw, err := dihttp.NewRequestScopeMiddleware(kernel)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, getErr := dicontext.Get[*http.Request](r.Context(), dihttp.RequestID)
			require.NoError(t, getErr)
			assert.Equal(t, r.URL, req.URL)

			w.WriteHeader(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, RunRequest(t, mw(handler), "/"))

		_, err = kernel.Provider().Get(dihttp.RequestID, true)
		assert.ErrorIs(t, err, ioc.ErrServiceNotRegistered, "the request is only bound in its own scope")
	})

	t.Run("scope services and setup", func(t *testing.T) {
		kernel := newKernel(t, nil, nil)

		var setupRan bool
		mw, err := dihttp.NewRequestScopeMiddleware(kernel,
			dihttp.WithScopeConfigure(func(c *ioc.Collection) error {
				return c.AddServiceAs(ioc.Scoped, BID, ioc.MustCtor(testtypes.NewInterfaceD))
			}),
			dihttp.WithScopeSetup(func(b *ioc.Builder) {
				b.Setup(BID, true, func(context.Context, any) error {
					setupRan = true
					return nil
				})
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, setupRan, "setup actions complete before the handler runs")

			d, getErr := dicontext.Get[testtypes.InterfaceD](r.Context(), BID)
			assert.NotNil(t, d)
			assert.NoError(t, getErr)

			w.WriteHeader(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, RunRequest(t, mw(handler), "/"))
	})

	t.Run("concurrent requests", func(t *testing.T) {
		const concurrency = 200

		kernel := newKernel(t, nil, bindRequestTag)

		mw, err := dihttp.NewRequestScopeMiddleware(kernel)
		require.NoError(t, err)

		tags := make(chan any, concurrency)
		expectedTags := make(chan any, concurrency)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, getErr := dicontext.Get[*testtypes.StructA](r.Context(), AID)
			assert.NoError(t, getErr)
			if assert.NotNil(t, a) {
				assert.Equal(t, r.URL.Path, a.Tag)
				tags <- a.Tag
			}
		}))

		testutils.RunParallel(concurrency, func(i int) {
			path := fmt.Sprintf("/%d", i)
			expectedTags <- path

			RunRequest(t, handler, path)
		})

		close(tags)
		close(expectedTags)

		assert.ElementsMatch(t, testutils.CollectChannel(expectedTags), testutils.CollectChannel(tags))
	})

	t.Run("new scope error", func(t *testing.T) {
		kernel := newKernel(t, nil, nil)

		called := false
		mw, err := dihttp.NewRequestScopeMiddleware(kernel,
			dihttp.WithScopeConfigure(func(*ioc.Collection) error {
				return errors.New("bad config")
			}),
			dihttp.WithNewScopeErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				assert.NotNil(t, r)
				assert.ErrorContains(t, err, "bad config")
				called = true

				w.WriteHeader(599)
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			assert.Fail(t, "handler should not get called")
		})

		assert.Equal(t, 599, RunRequest(t, mw(handler), "/"))
		assert.True(t, called)
	})

	t.Run("setup error", func(t *testing.T) {
		logger, logs := testutils.ObservedLogger(zapcore.ErrorLevel)
		kernel := newKernel(t, []ioc.BuilderOption{ioc.WithLogger(logger)}, nil)

		mw, err := dihttp.NewRequestScopeMiddleware(kernel,
			dihttp.WithScopeSetup(func(b *ioc.Builder) {
				b.Use(func(context.Context, *ioc.Provider) error {
					return errors.New("not ready")
				})
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			assert.Fail(t, "handler should not get called")
		})

		assert.Equal(t, http.StatusInternalServerError, RunRequest(t, mw(handler), "/ready"))

		entries := logs.FilterMessage("error creating new HTTP request scope").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "/ready", entries[0].ContextMap()["path"])
	})

	t.Run("close error", func(t *testing.T) {
		kernel := newKernel(t, nil, nil)

		called := false
		mw, err := dihttp.NewRequestScopeMiddleware(kernel,
			dihttp.WithScopeConfigure(func(c *ioc.Collection) error {
				return c.AddServiceAs(ioc.Scoped, BID, ioc.MustCtor(func() *mocks.CloserMock {
					m := mocks.NewCloserMock(t)
					m.ExpectClose(errors.New("close error"))
					return m
				}))
			}),
			dihttp.WithScopeCloseErrorHandler(func(r *http.Request, err error) {
				assert.NotNil(t, r)
				assert.ErrorContains(t, err, "ioc.Module.Close kernel/request-")
				assert.ErrorContains(t, err, "close error")
				called = true
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, getErr := dicontext.Get[*mocks.CloserMock](r.Context(), BID)
			assert.NoError(t, getErr)

			w.WriteHeader(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, RunRequest(t, mw(handler), "/"))
		assert.True(t, called)
	})
}

func RunRequest(t *testing.T, h http.Handler, path string) int {
	res := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, http.NoBody)
	require.NoError(t, err)

	h.ServeHTTP(res, req)
	return res.Code
}
