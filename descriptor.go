package ioc

import (
	"fmt"
	"slices"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Descriptor is an immutable binding: how to produce instances of a service.
type Descriptor struct {
	id         *ServiceID
	lifetime   Lifetime
	visibility Visibility
	ctor       *Ctor
	args       []any
	delayed    bool
	factory    bool
	closer     closerFactory
}

// ServiceOption configures a [Descriptor] when calling [NewDescriptor] or one of the
// [Collection] binding methods.
//
// Available options:
//   - [Lifetime] values: [Transient], [Scoped], [Singleton].
//   - [Visibility] values: [VisibleToContainer], [VisibleToChildren], [VisibleToBoth].
//   - [WithArgs] sets the fixed leading constructor arguments.
//   - [Delayed] defers construction to the first access.
//   - [AsFactory] marks the constructor as producing a [Factory].
//   - [IgnoreCloser] and [WithCloseFunc] change how instances are closed.
type ServiceOption interface {
	applyDescriptor(*Descriptor) error
}

type serviceOption func(*Descriptor) error

func (o serviceOption) applyDescriptor(d *Descriptor) error {
	return o(d)
}

// WithArgs sets the fixed arguments passed before the injected dependencies.
func WithArgs(args ...any) ServiceOption {
	return serviceOption(func(d *Descriptor) error {
		d.args = slices.Clone(args)
		return nil
	})
}

// Delayed defers the construction of the service, and the resolution of its own
// dependencies, until the returned reference is first accessed.
//
// A dependency cycle is only allowed when one of its participants is delayed.
// Constructor parameters receiving a delayed service should be of type [*Lazy].
func Delayed() ServiceOption {
	return serviceOption(func(d *Descriptor) error {
		d.delayed = true
		return nil
	})
}

// AsFactory marks the constructor as producing a [Factory] whose Create method
// returns the actual service.
func AsFactory() ServiceOption {
	return serviceOption(func(d *Descriptor) error {
		d.factory = true
		return nil
	})
}

// NewDescriptor creates a [Descriptor]. The default lifetime is [Transient] and the
// default visibility is [VisibleToBoth].
func NewDescriptor(id *ServiceID, ctor *Ctor, opts ...ServiceOption) (*Descriptor, error) {
	if id == nil {
		return nil, errors.New("new descriptor: service id is nil")
	}
	if ctor == nil {
		return nil, errors.Errorf("new descriptor %s: ctor is nil", id)
	}

	d := &Descriptor{
		id:         id,
		ctor:       ctor,
		visibility: VisibleToBoth,
		closer:     getCloser,
	}

	err := applyOptions(opts, func(opt ServiceOption) error {
		return opt.applyDescriptor(d)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "new descriptor %s", id)
	}

	return d, nil
}

// ID returns the identity the descriptor is bound to.
func (d *Descriptor) ID() *ServiceID { return d.id }

// Lifetime returns the lifetime of the service.
func (d *Descriptor) Lifetime() Lifetime { return d.lifetime }

// Visibility returns the scopes the service is visible to.
func (d *Descriptor) Visibility() Visibility { return d.visibility }

// Ctor returns the constructor of the service.
func (d *Descriptor) Ctor() *Ctor { return d.ctor }

// Args returns a copy of the fixed constructor arguments.
func (d *Descriptor) Args() []any { return slices.Clone(d.args) }

// IsDelayed reports whether construction is deferred to the first access.
func (d *Descriptor) IsDelayed() bool { return d.delayed }

// IsFactory reports whether the constructor produces a [Factory].
func (d *Descriptor) IsFactory() bool { return d.factory }

func (d *Descriptor) closerFor(val any) Closer {
	if d.closer == nil {
		return nil
	}
	return d.closer(val)
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%s, %s)", d.id, d.lifetime, d.ctor)
}
