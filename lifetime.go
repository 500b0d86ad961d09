package ioc

import "fmt"

// Lifetime specifies how instances of a service are cached.
//
// Available lifetimes:
//   - [Transient] specifies that a service is created for each request.
//   - [Scoped] specifies that a service is created once per scope.
//   - [Singleton] specifies that a service is created once in the scope declaring it.
type Lifetime uint8

const (
	// Transient specifies that a service is created for each request. It is never cached.
	// Instances implementing a close method are still tracked by the declaring scope
	// until it closes, so long-lived scopes should not resolve closable transients in a loop.
	Transient Lifetime = iota

	// Scoped specifies that a service is created once per scope.
	// The instance is cached in the requesting scope and never shared with sibling scopes.
	Scoped

	// Singleton specifies that a service is created once in the scope declaring it.
	// The instance is shared with all descendant scopes.
	Singleton
)

func (l Lifetime) applyDescriptor(d *Descriptor) error {
	d.lifetime = l
	return nil
}

var _ ServiceOption = Singleton

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Transient:
		return "Transient"
	case Scoped:
		return "Scoped"
	default:
		return fmt.Sprintf("Unknown Lifetime %d", l)
	}
}

// Visibility specifies which scopes may fetch a service. It is a set of bit flags.
type Visibility uint8

const (
	// VisibleToContainer allows the scope declaring the service to fetch it.
	VisibleToContainer Visibility = 1 << iota

	// VisibleToChildren allows the descendants of the declaring scope to fetch it.
	VisibleToChildren

	// VisibleToBoth is the default visibility.
	VisibleToBoth = VisibleToContainer | VisibleToChildren
)

// Allowed reports whether a scope may fetch the service.
// owned is true when the asking scope is the one declaring the service.
func (v Visibility) Allowed(owned bool) bool {
	if owned {
		return v&VisibleToContainer == VisibleToContainer
	}
	return v&VisibleToChildren == VisibleToChildren
}

func (v Visibility) applyDescriptor(d *Descriptor) error {
	if v&VisibleToBoth == 0 {
		return fmt.Errorf("visibility %d: no scope can fetch the service", v)
	}
	d.visibility = v
	return nil
}

var _ ServiceOption = VisibleToBoth

func (v Visibility) String() string {
	switch v {
	case VisibleToContainer:
		return "Container"
	case VisibleToChildren:
		return "Children"
	case VisibleToBoth:
		return "Both"
	default:
		return fmt.Sprintf("Unknown Visibility %d", v)
	}
}
