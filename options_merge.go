package ioc

import (
	"reflect"

	"dario.cat/mergo"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// mergeOptions merges vals into one value of type t, later values overriding the
// non-zero fields of earlier ones.
//
// t must be a struct, a pointer to a struct or a map. Values of the struct type and
// pointers to it are both accepted.
func mergeOptions(t reflect.Type, vals []any) (any, error) {
	var (
		dst    reflect.Value
		target reflect.Type
	)

	switch {
	case t.Kind() == reflect.Struct:
		target = t
		dst = reflect.New(t)
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		target = t.Elem()
		dst = reflect.New(t.Elem())
	case t.Kind() == reflect.Map:
		target = t
		dst = reflect.New(t)
		dst.Elem().Set(reflect.MakeMap(t))
	default:
		return nil, errors.Errorf("options of type %s: must be a struct, a pointer to a struct or a map", t)
	}

	for _, val := range vals {
		if lazy, ok := val.(*Lazy); ok {
			forced, err := lazy.Value()
			if err != nil {
				return nil, err
			}
			val = forced
		}
		if isNil(val) {
			continue
		}

		src := reflect.ValueOf(val)
		if src.Kind() == reflect.Pointer && src.Type().Elem() == target {
			src = src.Elem()
		}
		if src.Type() != target {
			return nil, errors.Errorf("options of type %s: cannot merge value of type %T", t, val)
		}

		if err := mergo.Merge(dst.Interface(), src.Interface(), mergo.WithOverride); err != nil {
			return nil, errors.Wrapf(err, "options of type %s", t)
		}
	}

	if t.Kind() == reflect.Pointer {
		return dst.Interface(), nil
	}
	return dst.Elem().Interface(), nil
}
