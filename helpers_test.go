package ioc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sectrean/ioc-kit"
)

var (
	AID       = ioc.NewServiceID("A", "test")
	BID       = ioc.NewServiceID("B", "test")
	CID       = ioc.NewServiceID("C", "test")
	NodeID    = ioc.NewServiceID("Node", "test")
	OptionsID = ioc.NewServiceID("Options", "test")
)

func newKernel(t *testing.T, configure func(*ioc.Collection) error) *ioc.Module {
	t.Helper()

	b := ioc.NewKernel()
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

func newChild(t *testing.T, parent *ioc.Module, name string, configure func(*ioc.Collection) error) *ioc.Module {
	t.Helper()

	b, err := parent.CreateChildScope(name)
	require.NoError(t, err)

	if configure != nil {
		b.Configure(configure)
	}

	m, err := b.Build()
	require.NoError(t, err)

	return m
}

func getValue(t *testing.T, p *ioc.Provider, id *ioc.ServiceID) any {
	t.Helper()

	proxy, err := p.Get(id, true)
	require.NoError(t, err)

	val, err := proxy.Value()
	require.NoError(t, err)

	return val
}
