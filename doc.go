/*
Package ioc is a hierarchical dependency injection runtime.

Services are bound to [ServiceID] identities in a [Collection], built into a tree of
[Module] scopes and served by each module's [Provider]:

	kernel, err := ioc.NewKernel(ioc.WithLogger(logger)).
		Configure(func(c *ioc.Collection) error {
			ctor := c.Registry().MustDefine(NewServer, ioc.Inject(0, ConfigID))
			return c.AddServiceAs(ioc.Singleton, ServerID, ctor)
		}).
		Build()

	kernel.Start(ctx)
	err = kernel.Ready().Wait(ctx)

	srv, err := ioc.Get[*Server](kernel.Provider(), ServerID)

Closing a module closes its children, then the instances it owns in reverse creation
order.
*/
package ioc
