// Package httputil provides HTTP utilities for the diagnostics server.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteNotFoundError(w, r, "unknown plugin: "+name)
//	httputil.WriteDetailedError(w, r, http.StatusConflict, err.Error(), details)
//
// Error bodies share one shape and echo the request ID:
//
//	{"error": "...", "request_id": "...", "details": {...}}
//
// # Request Parsing
//
//	plugins := httputil.ParseQueryList(r, "plugins")
//	depth := httputil.ParseQueryInt(r, "depth", -1)
//	transitive := httputil.ParseQueryBool(r, "transitive", true)
//
// # Middleware
//
//	router.Use(mux.MiddlewareFunc(httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(log),
//	)))
package httputil
