// Package server provides HTTP routing, middleware, and the local OAuth
// callback listener used by the link flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// [CallbackHandler] captures the provider's authorization redirect.
//
// The handler validates the state parameter (CSRF protection) and sends the
// full redirect URL through a channel, where the link flow exchanges the
// embedded authorization code for tokens.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs the link command without pasting a redirect URL, a
// temporary HTTP server starts on the redirect URI's host, handles the
// callback, and shuts down after capturing it.
package server
