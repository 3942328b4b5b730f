// Package http exposes a sendfile.Sender as an HTTP server.
//
// # Features
//
//   - GET and HEAD routed to the sender, 405 with an Allow header otherwise
//   - Access logging through log/slog with request IDs
//   - Configurable CORS support
//   - JSON health check
//   - Error renderers (plain text, JSON, HTML) usable as the sender's
//     OnError hook
//
// # Usage
//
//	hook, err := http.ErrorHook(http.ErrorFormatJSON)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opts := sendfile.DefaultOptions()
//	opts.Root = "/srv/www"
//	opts.Hooks.OnError = hook
//	sender, err := sendfile.New(filesystem.NewOSStorage(), opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	handler := http.NewHandler(&http.HandlerConfig{HealthPath: "/healthz"}, sender)
//	http.ListenAndServe(":8080", handler.Router())
package http
