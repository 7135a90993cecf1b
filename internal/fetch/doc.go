// Package fetch retrieves candidate pages through the configured transport.
//
// A Fetcher performs exactly one GET per call. Every failure mode (dial
// error, timeout, non-2xx status, truncated body) collapses into an
// "unavailable" result for the pipeline; Get exposes the underlying *Error
// for callers that want the detail.
//
// Client identity (the User-Agent header) comes from an IdentityStrategy:
//
//	ids, _ := fetch.NewIdentityStrategy(config.IdentityRotate, cfg.UserAgents)
//	f := fetch.NewFetcher(transport.HTTPClient(), fetch.WithIdentity(ids))
//	body, ok := f.Fetch(ctx, "http://example.onion/")
package fetch
