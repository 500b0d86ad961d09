package coresvc

import (
	"go.uber.org/zap"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/errors"
)

const namespace = "core"

// Identities of the core services.
var (
	ClockID         = ioc.NewServiceID("Clock", namespace)
	LoggerID        = ioc.NewServiceID("Logger", namespace)
	ConfigurationID = ioc.NewServiceID("Configuration", namespace)
)

// AddSystemClock binds the [SystemClock] to [ClockID].
func AddSystemClock(c *ioc.Collection) error {
	return errors.Wrap(c.AddInstance(ClockID, SystemClock{}), "coresvc.AddSystemClock")
}

// AddLogger binds a [Logger] to [LoggerID]. Each module fetching it gets its own logger,
// built from the module logger and carrying the module path as a field.
func AddLogger(c *ioc.Collection) error {
	ctor, err := c.Registry().Define(func(m *ioc.Module) *Logger {
		return NewLogger(m.Logger().With(zap.String("module", m.Path())))
	}, ioc.Inject(0, ioc.ModuleID))
	if err != nil {
		return errors.Wrap(err, "coresvc.AddLogger")
	}

	return errors.Wrap(c.AddServiceAs(ioc.Scoped, LoggerID, ctor), "coresvc.AddLogger")
}

// AddConfiguration binds cfg to [ConfigurationID].
func AddConfiguration(c *ioc.Collection, cfg *Configuration) error {
	return errors.Wrap(c.AddInstance(ConfigurationID, cfg), "coresvc.AddConfiguration")
}
