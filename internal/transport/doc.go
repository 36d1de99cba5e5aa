// Package transport builds the HTTP clients used to fetch pages.
//
// A client connects directly, through a SOCKS5 proxy, or through an embedded
// Tor daemon started with tornago. Every client injects the user agent and
// the per-site cookie and headers from the configuration file into each
// request, including redirects.
package transport
