package ioc_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/testtypes"
	"github.com/sectrean/ioc-kit/internal/testutils"
)

func Test_Registry_Create(t *testing.T) {
	t.Run("unique", func(t *testing.T) {
		reg := ioc.NewRegistry()

		id, err := reg.Create("Logger", "app", true)
		require.NoError(t, err)

		assert.Equal(t, "app/Logger", id.FullName())
		assert.True(t, id.Unique())

		got, ok := reg.Lookup("app/Logger")
		assert.True(t, ok)
		assert.Same(t, id, got)
	})

	t.Run("duplicate unique", func(t *testing.T) {
		reg := ioc.NewRegistry()

		_, err := reg.Create("Logger", "app", true)
		require.NoError(t, err)

		_, err = reg.Create("Logger", "app", true)
		testutils.LogError(t, err)

		assert.ErrorIs(t, err, ioc.ErrDuplicateIdentity)
		assert.EqualError(t, err, "ioc.Registry.Create app/Logger: service identity already exists")
	})

	t.Run("private identities are distinct", func(t *testing.T) {
		reg := ioc.NewRegistry()

		a, err := reg.Create("Logger", "", false)
		require.NoError(t, err)
		b, err := reg.Create("Logger", "", false)
		require.NoError(t, err)

		assert.Equal(t, "local/Logger", a.String())
		assert.False(t, a.Equal(b))
		assert.True(t, a.Equal(a))
	})

	t.Run("unique across registries", func(t *testing.T) {
		a := ioc.NewRegistry().MustCreate("Logger", "app", true)
		b := ioc.NewRegistry().MustCreate("Logger", "app", true)

		assert.NotSame(t, a, b)
		assert.True(t, a.Equal(b))
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := ioc.NewRegistry().Create("", "app", true)
		assert.EqualError(t, err, "ioc.Registry.Create: name is empty")
	})

	t.Run("must create panics", func(t *testing.T) {
		reg := ioc.NewRegistry()
		reg.MustCreate("Logger", "app", true)

		assert.Panics(t, func() {
			reg.MustCreate("Logger", "app", true)
		})
	})
}

func Test_Registry_Resolve(t *testing.T) {
	t.Run("type derived identity", func(t *testing.T) {
		reg := ioc.NewRegistry()

		a := ioc.MustCtor(testtypes.NewInterfaceA)
		b := ioc.MustCtor(func() testtypes.InterfaceA { return &testtypes.StructA{} })

		idA := reg.Resolve(a)
		idB := reg.Resolve(b)

		assert.Same(t, idA, idB)
		assert.Equal(t, "default/testtypes.InterfaceA", idA.String())
		assert.Equal(t, reflect.TypeFor[testtypes.InterfaceA](), idA.Type())
	})

	t.Run("contract", func(t *testing.T) {
		reg := ioc.NewRegistry()
		ctor := ioc.MustCtor(testtypes.NewInterfaceA)

		reg.Contract(ctor, AID)

		assert.Same(t, AID, reg.Resolve(ctor))
	})
}

func Test_Registry_Dependencies(t *testing.T) {
	fn := func(string, testtypes.InterfaceA, testtypes.InterfaceB) testtypes.InterfaceC { return nil }

	t.Run("sorted by index", func(t *testing.T) {
		reg := ioc.NewRegistry()
		ctor := ioc.MustCtor(fn)

		reg.AddDependency(ctor, BID, 2, ioc.Required)
		reg.AddDependency(ctor, AID, 1, ioc.Optional)

		deps, err := reg.Dependencies(ctor)
		require.NoError(t, err)

		assert.Equal(t, []ioc.Dependency{
			{ID: AID, Index: 1, Kind: ioc.Optional},
			{ID: BID, Index: 2, Kind: ioc.Required},
		}, deps)
	})

	t.Run("no dependencies", func(t *testing.T) {
		deps, err := ioc.NewRegistry().Dependencies(ioc.MustCtor(fn))
		assert.NoError(t, err)
		assert.Empty(t, deps)
	})

	tests := []struct {
		name string
		deps []ioc.Dependency
		want string
	}{
		{
			name: "gap",
			deps: []ioc.Dependency{ioc.Inject(0, AID), ioc.Inject(2, BID)},
			want: "at index 2: injected parameters must be contiguous and after the fixed arguments",
		},
		{
			name: "duplicate index",
			deps: []ioc.Dependency{ioc.Inject(1, AID), ioc.Inject(1, BID)},
			want: "at index 1: injected parameters must be contiguous and after the fixed arguments",
		},
		{
			name: "not trailing",
			deps: []ioc.Dependency{ioc.Inject(0, AID), ioc.Inject(1, BID)},
			want: "injected parameters must be the last 2 parameters",
		},
		{
			name: "negative index",
			deps: []ioc.Dependency{ioc.Inject(-1, AID)},
			want: "negative index -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ioc.NewRegistry().Define(fn, tt.deps...)
			testutils.LogError(t, err)

			assert.ErrorIs(t, err, ioc.ErrInvalidParameterOrder)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func Test_Registry_Define(t *testing.T) {
	t.Run("not a function", func(t *testing.T) {
		_, err := ioc.NewRegistry().Define(42)
		assert.EqualError(t, err, "ioc.Registry.Define: new ctor int: fn must be a function")
	})

	t.Run("bad return", func(t *testing.T) {
		_, err := ioc.NewRegistry().Define(func() (int, int) { return 0, 0 })
		assert.ErrorContains(t, err, "function must return Service or (Service, error)")
	})

	t.Run("must define panics", func(t *testing.T) {
		assert.Panics(t, func() {
			ioc.NewRegistry().MustDefine(func(int) int { return 0 }, ioc.Inject(1, AID))
		})
	})
}
