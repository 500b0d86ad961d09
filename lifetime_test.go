package ioc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sectrean/ioc-kit"
)

func Test_Lifetime_String(t *testing.T) {
	tests := []struct {
		name     string
		want     string
		lifetime ioc.Lifetime
	}{
		{
			name:     "singleton",
			lifetime: ioc.Singleton,
			want:     "Singleton",
		},
		{
			name:     "transient",
			lifetime: ioc.Transient,
			want:     "Transient",
		},
		{
			name:     "scoped",
			lifetime: ioc.Scoped,
			want:     "Scoped",
		},
		{
			name:     "unknown lifetime",
			lifetime: ioc.Lifetime(99),
			want:     "Unknown Lifetime 99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.lifetime.String()
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Visibility(t *testing.T) {
	tests := []struct {
		name       string
		visibility ioc.Visibility
		container  bool
		children   bool
		want       string
	}{
		{
			name:       "container",
			visibility: ioc.VisibleToContainer,
			container:  true,
			want:       "Container",
		},
		{
			name:       "children",
			visibility: ioc.VisibleToChildren,
			children:   true,
			want:       "Children",
		},
		{
			name:       "both",
			visibility: ioc.VisibleToBoth,
			container:  true,
			children:   true,
			want:       "Both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.container, tt.visibility.Allowed(true))
			assert.Equal(t, tt.children, tt.visibility.Allowed(false))
			assert.Equal(t, tt.want, tt.visibility.String())
		})
	}

	t.Run("no scope", func(t *testing.T) {
		_, err := ioc.NewDescriptor(AID, ioc.ValueCtor(1), ioc.Visibility(0))
		assert.EqualError(t, err, "new descriptor test/A: visibility 0: no scope can fetch the service")
	})
}
