package ioc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/testtypes"
	"github.com/sectrean/ioc-kit/internal/testutils"
)

func Test_Factory(t *testing.T) {
	t.Run("create and close", func(t *testing.T) {
		f := &testtypes.Factory{Val: &testtypes.StructA{Tag: "made"}}
		kernel := newKernel(t, func(c *ioc.Collection) error {
			return c.AddFactory(ioc.Singleton, AID, ioc.MustCtor(func() *testtypes.Factory { return f }))
		})

		val := getValue(t, kernel.Provider(), AID)
		assert.Equal(t, &testtypes.StructA{Tag: "made"}, val)
		assert.True(t, f.Closed)
	})

	t.Run("factory func", func(t *testing.T) {
		kernel := newKernel(t, func(c *ioc.Collection) error {
			return c.AddFactory(ioc.Transient, AID, ioc.MustCtor(func() ioc.Factory {
				return ioc.FactoryFunc(func() (any, error) {
					return "from func", nil
				})
			}))
		})

		assert.Equal(t, "from func", getValue(t, kernel.Provider(), AID))
	})

	t.Run("create error", func(t *testing.T) {
		f := &testtypes.Factory{Err: assert.AnError}
		kernel := newKernel(t, func(c *ioc.Collection) error {
			return c.AddFactory(ioc.Singleton, AID, ioc.MustCtor(func() *testtypes.Factory { return f }))
		})

		_, err := kernel.Provider().Get(AID, true)
		testutils.LogError(t, err)

		var ierr *ioc.InstantiationError
		require.ErrorAs(t, err, &ierr)
		assert.Same(t, AID, ierr.ID)
		assert.ErrorIs(t, err, assert.AnError)
		assert.True(t, f.Closed, "the factory is closed when Create fails")
	})

	t.Run("async result", func(t *testing.T) {
		kernel := newKernel(t, func(c *ioc.Collection) error {
			return c.AddFactory(ioc.Singleton, AID, ioc.MustCtor(func() *testtypes.Factory {
				return &testtypes.Factory{Val: make(chan int)}
			}))
		})

		_, err := kernel.Provider().Get(AID, true)
		testutils.LogError(t, err)

		var ierr *ioc.InstantiationError
		assert.ErrorAs(t, err, &ierr)
		assert.ErrorIs(t, err, ioc.ErrAsyncFactory)
	})

	t.Run("awaitable result", func(t *testing.T) {
		kernel := newKernel(t, func(c *ioc.Collection) error {
			return c.AddFactory(ioc.Singleton, AID, ioc.MustCtor(func() *testtypes.Factory {
				return &testtypes.Factory{Val: (*ioc.Future)(nil)}
			}))
		})

		_, err := kernel.Provider().Get(AID, true)
		assert.ErrorIs(t, err, ioc.ErrAsyncFactory)
	})

	t.Run("not a factory", func(t *testing.T) {
		kernel := newKernel(t, func(c *ioc.Collection) error {
			return c.AddFactory(ioc.Singleton, AID, ioc.ValueCtor("plain"))
		})

		_, err := kernel.Provider().Get(AID, true)
		testutils.LogError(t, err)
		assert.ErrorContains(t, err, "constructor returned string which is not a Factory")
	})
}
