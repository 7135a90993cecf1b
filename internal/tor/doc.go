// Package tor provides the anonymizing transport of leakwatch.
//
// All outbound traffic (search backends, candidate sites, SMTP submission and
// webhooks) goes through a single Transport chosen once at startup by
// Connect. Connect verifies the Tor SOCKS5 proxy with a protocol handshake
// rather than trusting an HTTP response, optionally confirms the exit through
// the Tor check page, and degrades to a direct Transport with a warning when
// Tor is unusable.
//
// An EmbeddedTor can be started instead of relying on a system daemon.
package tor
