/*
Package dihttp provides HTTP middleware creating a child [ioc.Module] for each request.

Example:

	package main

	import (
		"net/http"

		"github.com/sectrean/ioc-kit"
		"github.com/sectrean/ioc-kit/dicontext"
		"github.com/sectrean/ioc-kit/dihttp"
	)

	func main() {
		kernel, err := ioc.NewKernel().
			Configure(func(c *ioc.Collection) error {
				return c.AddServiceAs(ioc.Scoped, HandlerID, ioc.MustCtor(NewHandler))
			}).
			Build()

		// Create a new scope middleware
		scopeMiddleware, err := dihttp.NewRequestScopeMiddleware(kernel)

		// Create a handler function
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := dicontext.MustGet[*Handler](r.Context(), HandlerID)

			h.HandleRequest(w, r)
		})

		// Start the HTTP server
		http.Handle("/", scopeMiddleware(handler))
		http.ListenAndServe(":8080", nil)
	}
*/
package dihttp
