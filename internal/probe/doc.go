// Package probe checks that an HTTP JSON endpoint is reachable, optionally
// through a proxy, and that a credential is accepted by it.
//
// A probe is one synchronous request. Runner.Run never retries: the caller
// decides whether to run it again. Every outcome is reported as a Result
// whose Kind is one of Success, HTTPError, Timeout, ConnectionError,
// UnknownError or MissingCredential. Classify is the only place where Go
// errors are mapped to kinds.
//
// Proxy settings travel in Config and are applied to a transport built for
// that single call; HTTP_PROXY and friends in the process environment are
// ignored by this package.
package probe
