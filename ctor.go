package ioc

import (
	"reflect"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Ctor is the constructor of a service.
//
// It wraps a function returning Service or (Service, error), or a pre-built value.
// The parameters of the function are filled with the fixed arguments of a [Descriptor]
// followed by the dependencies declared with [Registry.AddDependency].
//
// A Ctor is compared by address: declare it once and reuse it for every binding.
type Ctor struct {
	fn    reflect.Value
	t     reflect.Type
	val   any
	value bool
}

// NewCtor creates a constructor from a function.
func NewCtor(fn any) (*Ctor, error) {
	if fn == nil {
		return nil, errors.New("new ctor: fn is nil")
	}

	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return nil, errors.Errorf("new ctor %T: fn must be a function", fn)
	}

	var t reflect.Type
	switch {
	case fnType.NumOut() == 1:
		t = fnType.Out(0)
	case fnType.NumOut() == 2 && fnType.Out(1) == typeError:
		t = fnType.Out(0)
	default:
		return nil, errors.Errorf("new ctor %T: function must return Service or (Service, error)", fn)
	}

	if t == typeError {
		return nil, errors.Errorf("new ctor %T: invalid service type", fn)
	}

	return &Ctor{
		fn: reflect.ValueOf(fn),
		t:  t,
	}, nil
}

// MustCtor is like [NewCtor] but panics on error.
func MustCtor(fn any) *Ctor {
	c, err := NewCtor(fn)
	if err != nil {
		panic(err)
	}
	return c
}

// ValueCtor creates a constructor that always returns val.
func ValueCtor(val any) *Ctor {
	return &Ctor{
		t:     reflect.TypeOf(val),
		val:   val,
		value: true,
	}
}

// Type returns the type produced by the constructor.
func (c *Ctor) Type() reflect.Type {
	return c.t
}

// NumIn returns the number of parameters of the constructor.
func (c *Ctor) NumIn() int {
	if c.value {
		return 0
	}
	return c.fn.Type().NumIn()
}

// In returns the type of the i'th parameter.
func (c *Ctor) In(i int) reflect.Type {
	return c.fn.Type().In(i)
}

func (c *Ctor) String() string {
	if c.value {
		return "value " + typeName(c.t)
	}
	return c.fn.Type().String()
}

// Call invokes the constructor with the given arguments.
func (c *Ctor) Call(args []any) (any, error) {
	if c.value {
		if len(args) > 0 {
			return nil, errors.Wrapf(ErrInvalidArguments, "%s: expected 0 arguments, provided %d", c, len(args))
		}
		return c.val, nil
	}

	fnType := c.fn.Type()
	if len(args) != fnType.NumIn() {
		return nil, errors.Wrapf(ErrInvalidArguments,
			"%s: expected %d arguments, provided %d", c, fnType.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		pt := fnType.In(i)
		if arg != nil && !reflect.TypeOf(arg).AssignableTo(pt) {
			return nil, errors.Wrapf(ErrInvalidArguments,
				"%s: argument %d of type %T is not assignable to %s", c, i, arg, pt)
		}
		in[i] = safeReflectValue(pt, arg)
	}

	var out []reflect.Value
	if fnType.IsVariadic() {
		out = c.fn.CallSlice(in)
	} else {
		out = c.fn.Call(in)
	}

	val := out[0].Interface()

	var err error
	if len(out) == 2 {
		err, _ = out[1].Interface().(error)
	}

	return val, err
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
