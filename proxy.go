package ioc

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Proxy is the revocable handle returned by [Provider.Get].
//
// A provider returns the same Proxy for every request of a cached instance, so proxies
// can be compared by address. Closing the provider owning the instance revokes the
// proxy and every further access fails with [ErrProxyRevoked].
type Proxy struct {
	id      *ServiceID
	target  any
	revoked atomic.Bool

	// owner is set on transient proxies, which are revoked with their provider
	// instead of being tracked by it.
	owner *atomic.Bool
}

func newProxy(id *ServiceID, target any) *Proxy {
	return &Proxy{
		id:     id,
		target: target,
	}
}

// ID returns the identity of the service behind the proxy.
func (p *Proxy) ID() *ServiceID {
	return p.id
}

// Value returns the instance behind the proxy. A delayed service is built here.
func (p *Proxy) Value() (any, error) {
	if p.Revoked() {
		return nil, errors.Wrapf(ErrProxyRevoked, "ioc.Proxy.Value %s", p.id)
	}

	if lazy, ok := p.target.(*Lazy); ok {
		val, err := lazy.Value()
		if err != nil {
			return nil, errors.Wrapf(err, "ioc.Proxy.Value %s", p.id)
		}
		return val, nil
	}

	return p.target, nil
}

// MustValue is like [Proxy.Value] but panics on error.
func (p *Proxy) MustValue() any {
	val, err := p.Value()
	if err != nil {
		panic(err)
	}
	return val
}

// Call invokes the named method of the instance.
//
// Results that are the instance itself are replaced with the proxy, so chained calls
// keep going through it.
func (p *Proxy) Call(method string, args ...any) ([]any, error) {
	val, err := p.Value()
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(val)
	if !rv.IsValid() {
		return nil, errors.Errorf("ioc.Proxy.Call %s.%s: instance is nil", p.id, method)
	}

	m := rv.MethodByName(method)
	if !m.IsValid() {
		return nil, errors.Errorf("ioc.Proxy.Call %s: %T has no method %s", p.id, val, method)
	}

	mt := m.Type()
	if (!mt.IsVariadic() && len(args) != mt.NumIn()) || (mt.IsVariadic() && len(args) < mt.NumIn()-1) {
		return nil, errors.Wrapf(ErrInvalidArguments,
			"ioc.Proxy.Call %s.%s: expected %d arguments, provided %d", p.id, method, mt.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if mt.IsVariadic() && i >= mt.NumIn()-1 {
			pt = mt.In(mt.NumIn() - 1).Elem()
		} else {
			pt = mt.In(i)
		}
		if arg != nil && !reflect.TypeOf(arg).AssignableTo(pt) {
			return nil, errors.Wrapf(ErrInvalidArguments,
				"ioc.Proxy.Call %s.%s: argument %d of type %T is not assignable to %s", p.id, method, i, arg, pt)
		}
		in[i] = safeReflectValue(pt, arg)
	}

	var out []reflect.Value
	err = errors.Recover(func() error {
		out = m.Call(in)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "ioc.Proxy.Call %s.%s", p.id, method)
	}

	results := make([]any, len(out))
	for i, o := range out {
		if isSelf(o, rv) {
			results[i] = p
			continue
		}
		results[i] = o.Interface()
	}

	return results, nil
}

func isSelf(out, self reflect.Value) bool {
	if out.Kind() == reflect.Interface {
		if out.IsNil() {
			return false
		}
		out = out.Elem()
	}
	if out.Type() != self.Type() || !out.Comparable() || !self.Comparable() {
		return false
	}
	return out.Equal(self)
}

// Revoked reports whether the proxy has been revoked.
func (p *Proxy) Revoked() bool {
	return p.revoked.Load() || (p.owner != nil && p.owner.Load())
}

// Close revokes the proxy. The instance behind it is left to its provider.
func (p *Proxy) Close() error {
	p.revoked.Store(true)
	return nil
}

func (p *Proxy) String() string {
	state := "live"
	if p.Revoked() {
		state = "revoked"
	}
	return fmt.Sprintf("proxy %s (%s)", p.id, state)
}
