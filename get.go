package ioc

import (
	"reflect"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Get returns the instance of the first visible binding of id as a T.
//
// Example:
//
//	db, err := ioc.Get[*sql.DB](provider, DatabaseID)
func Get[T any](p *Provider, id *ServiceID) (T, error) {
	proxy, err := p.Get(id, true)
	if err != nil {
		var zero T
		return zero, err
	}
	return valueAs[T](proxy)
}

// MustGet is like [Get] but panics on error.
func MustGet[T any](p *Provider, id *ServiceID) T {
	val, err := Get[T](p, id)
	if err != nil {
		panic(err)
	}
	return val
}

// GetAll returns the instances of every visible binding of id as T values.
func GetAll[T any](p *Provider, id *ServiceID) ([]T, error) {
	proxies, err := p.GetAll(id, false)
	if err != nil {
		return nil, err
	}

	vals := make([]T, 0, len(proxies))
	for _, proxy := range proxies {
		val, err := valueAs[T](proxy)
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
	return vals, nil
}

func valueAs[T any](proxy *Proxy) (T, error) {
	var zero T

	val, err := proxy.Value()
	if err != nil {
		return zero, err
	}

	typed, ok := val.(T)
	if !ok {
		return zero, errors.Errorf("service %s: value of type %T is not a %s", proxy.ID(), val, typeName(reflect.TypeFor[T]()))
	}
	return typed, nil
}

// FirstParentService returns the first binding of id visible from one of the parents
// of m, nearest first.
func FirstParentService(m *Module, id *ServiceID) (*Proxy, error) {
	for parent := m.Parent(); parent != nil; parent = parent.Parent() {
		proxy, err := parent.Provider().Get(id, false)
		if err != nil {
			return nil, errors.Wrap(err, "ioc.FirstParentService")
		}
		if proxy != nil {
			return proxy, nil
		}
	}
	return nil, errors.Wrapf(ErrServiceNotRegistered, "ioc.FirstParentService %s", id)
}

// RootService returns the binding of id visible from the root-most parent of m that
// has one. The bindings of m itself are not considered.
func RootService(m *Module, id *ServiceID) (*Proxy, error) {
	var found *Proxy
	for parent := m.Parent(); parent != nil; parent = parent.Parent() {
		proxy, err := parent.Provider().Get(id, false)
		if err != nil {
			return nil, errors.Wrap(err, "ioc.RootService")
		}
		if proxy != nil {
			found = proxy
		}
	}
	if found == nil {
		return nil, errors.Wrapf(ErrServiceNotRegistered, "ioc.RootService %s", id)
	}
	return found, nil
}
