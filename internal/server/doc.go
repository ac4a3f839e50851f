// Package server provides HTTP routing, middleware, and the OAuth handlers of the web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Handlers declare method-qualified
// patterns ("GET /login") through [Handler.Routes]; [BasicRouter.Handle] filters the method itself.
//
// # OAuth Handlers
//
// [LoginHandler] and [CallbackHandler] implement the two halves of the authorization-code flow. They share
// no memory: the only link between them is the state nonce cookie written at login and consumed at the
// callback. A callback whose state does not match the nonce is answered with 400 before any token request.
//
// # Credentials
//
// Every handler builds a [session.CookieStore] over its own request and response, so tokens live in the
// browser only. Refreshed tokens are written back as cookies on the same response.
//
// # Diagnostics
//
// [HistoryHandler] serves GET /test when enabled in config. It is a development seam for exercising the
// token manager and the history retriever from a browser.
//
// # Middleware
//
//   - [RequestID] : X-Request-ID header and a request-scoped logger
//   - [Logging] : method, path, status and duration per request
//   - [Recover] : panics become 500
package server
