package ioc

import "fmt"

// DependencyKind tells the resolver how a constructor parameter is satisfied.
type DependencyKind uint8

const (
	// Required parameters must be bound, otherwise resolution fails.
	Required DependencyKind = iota

	// Optional parameters receive the zero value when no binding is visible.
	Optional

	// Many parameters receive a slice of every visible binding.
	Many

	// OptionsOf parameters receive every visible binding merged into one value.
	// Later bindings override the non-zero fields of earlier ones.
	OptionsOf
)

func (k DependencyKind) String() string {
	switch k {
	case Required:
		return "Required"
	case Optional:
		return "Optional"
	case Many:
		return "Many"
	case OptionsOf:
		return "Options"
	default:
		return fmt.Sprintf("Unknown DependencyKind %d", k)
	}
}

// Dependency is an injected constructor parameter.
type Dependency struct {
	ID    *ServiceID
	Index int
	Kind  DependencyKind
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s %s at index %d", d.Kind, d.ID, d.Index)
}

// Inject declares a required dependency at the given parameter index.
func Inject(index int, id *ServiceID) Dependency {
	return Dependency{ID: id, Index: index, Kind: Required}
}

// InjectOptional declares an optional dependency at the given parameter index.
func InjectOptional(index int, id *ServiceID) Dependency {
	return Dependency{ID: id, Index: index, Kind: Optional}
}

// InjectMany declares a dependency on every visible binding of id.
// The parameter must be a slice.
func InjectMany(index int, id *ServiceID) Dependency {
	return Dependency{ID: id, Index: index, Kind: Many}
}

// InjectOptions declares a dependency on every visible binding of id merged together.
// The parameter must be a struct, a pointer to a struct or a map.
func InjectOptions(index int, id *ServiceID) Dependency {
	return Dependency{ID: id, Index: index, Kind: OptionsOf}
}
