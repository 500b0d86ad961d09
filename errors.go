package ioc

import (
	"fmt"
	"strings"

	"github.com/sectrean/ioc-kit/internal/errors"
)

var (
	// ErrDuplicateIdentity is returned when a unique identity name is created twice in the same registry.
	ErrDuplicateIdentity = errors.New("service identity already exists")

	// ErrInvalidParameterOrder is returned when the injected parameters of a constructor
	// do not occupy its trailing positions contiguously.
	ErrInvalidParameterOrder = errors.New("invalid parameter order")

	// ErrInvalidArguments is returned when the fixed arguments do not match the constructor.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrServiceNotRegistered is returned when no visible binding exists for an identity.
	ErrServiceNotRegistered = errors.New("service not registered")

	// ErrDependencyCycle is returned when a dependency cycle has no delayed participant.
	ErrDependencyCycle = errors.New("dependency cycle detected")

	// ErrAsyncFactory is returned when a service factory returns an asynchronous result.
	ErrAsyncFactory = errors.New("service factory cannot return async results")

	// ErrDelayedCycle is returned when a delayed service is accessed while it is being built.
	ErrDelayedCycle = errors.New("delayed service accessed while it is being built")

	// ErrProxyRevoked is returned when a revoked proxy is accessed.
	ErrProxyRevoked = errors.New("service proxy revoked")

	// ErrModuleClosed is returned when a closed module is used.
	ErrModuleClosed = errors.New("module closed")

	// ErrDuplicateScope is returned when a child scope name is already taken.
	ErrDuplicateScope = errors.New("child scope already exists")

	// ErrStopSetup can be returned by a setup action to end the blocking startup phase
	// without marking the startup as failed.
	ErrStopSetup = errors.New("stop setup")
)

// InstantiationError is returned when the constructor of a service fails.
type InstantiationError struct {
	ID  *ServiceID
	Err error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiation of service %q failed: %v", e.ID, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// AggregateError holds every failure of the asynchronous setup actions of a module.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d setup actions failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}
