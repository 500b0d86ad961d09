package ioc

import (
	"context"
	"fmt"
)

// Decision tells a starting module what to do after a setup action failed.
type Decision uint8

const (
	// Throw aborts the startup with the error. It is the default without a handler.
	Throw Decision = iota

	// Continue ignores the error and runs the next action.
	Continue

	// Stop ends the blocking phase without marking the startup as failed.
	Stop
)

func (d Decision) String() string {
	switch d {
	case Throw:
		return "Throw"
	case Continue:
		return "Continue"
	case Stop:
		return "Stop"
	default:
		return fmt.Sprintf("Unknown Decision %d", d)
	}
}

// ErrorHandler decides how a failed setup action affects the startup.
type ErrorHandler func(err error) Decision

type setupAction struct {
	name    string
	fn      func(ctx context.Context, p *Provider) error
	async   bool
	handler ErrorHandler
}

func (a *setupAction) decide(err error) Decision {
	if a.handler == nil {
		return Throw
	}
	return a.handler(err)
}

// SetupHandle configures the setup action just added to a [Builder].
//
// It embeds the builder so calls can be chained:
//
//	b.Use(migrate).Catch(ignore).Use(serve).ContinueWithoutAwaiting()
type SetupHandle struct {
	*Builder
	action *setupAction
}

// ContinueWithoutAwaiting runs the action on its own goroutine. The next actions start
// right away and the module is ready once every such action has completed.
//
// Failures of these actions are reported together as an [*AggregateError].
func (h *SetupHandle) ContinueWithoutAwaiting() *SetupHandle {
	h.action.async = true
	return h
}

// Catch sets the handler called when the action fails.
func (h *SetupHandle) Catch(handler ErrorHandler) *SetupHandle {
	h.action.handler = handler
	return h
}

// Named sets the name the action is logged with.
func (h *SetupHandle) Named(name string) *SetupHandle {
	h.action.name = name
	return h
}
