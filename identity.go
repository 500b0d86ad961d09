package ioc

import (
	"fmt"
	"reflect"
)

const (
	defaultNamespace = "local"
	typeNamespace    = "default"
	coreNamespace    = "ioc"
)

// ServiceID identifies a bindable service contract.
//
// A unique ServiceID is keyed by its full name, so identities created with the same
// namespace and name address the same bindings even when they come from different
// registries. A private ServiceID is keyed by its own address and only matches itself.
//
// ServiceIDs are immutable. Create them with [Registry.Create] or [NewServiceID].
type ServiceID struct {
	name      string
	namespace string
	unique    bool
	typ       reflect.Type
	key       any
}

// NewServiceID creates a private identity which is not recorded in any [Registry].
//
// An empty namespace defaults to "local".
func NewServiceID(name, namespace string) *ServiceID {
	return newServiceID(name, namespace, false, nil)
}

func newServiceID(name, namespace string, unique bool, typ reflect.Type) *ServiceID {
	if namespace == "" {
		namespace = defaultNamespace
	}

	id := &ServiceID{
		name:      name,
		namespace: namespace,
		unique:    unique,
		typ:       typ,
	}
	if unique {
		id.key = id.FullName()
	} else {
		id.key = id
	}

	return id
}

// Name returns the name of the identity.
func (id *ServiceID) Name() string {
	return id.name
}

// Namespace returns the namespace of the identity.
func (id *ServiceID) Namespace() string {
	return id.namespace
}

// Unique reports whether the identity is shared by name.
func (id *ServiceID) Unique() bool {
	return id.unique
}

// Type returns the service type the identity was derived from, if any.
func (id *ServiceID) Type() reflect.Type {
	return id.typ
}

// FullName returns "namespace/name".
func (id *ServiceID) FullName() string {
	return fmt.Sprintf("%s/%s", id.namespace, id.name)
}

// Key returns the value used to compare identities.
func (id *ServiceID) Key() any {
	return id.key
}

// Equal reports whether both identities address the same bindings.
func (id *ServiceID) Equal(other *ServiceID) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.key == other.key
}

func (id *ServiceID) String() string {
	if id == nil {
		return "<nil>"
	}
	return id.FullName()
}

// Identities of the services every provider exposes about itself.
var (
	ServiceProviderID      = newServiceID("ServiceProvider", coreNamespace, true, nil)
	DependencyResolverID   = newServiceID("DependencyResolver", coreNamespace, true, nil)
	InstantiationServiceID = newServiceID("InstantiationService", coreNamespace, true, nil)
	ModuleID               = newServiceID("Module", coreNamespace, true, nil)
)
