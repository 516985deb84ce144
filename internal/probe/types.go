package probe

import (
	"context"
	"time"
)

// AuthPlacement says where the credential travels on the request.
type AuthPlacement int

const (
	AuthNone AuthPlacement = iota
	AuthQuery
	AuthHeader
)

const (
	DefaultQueryParam  = "key"
	DefaultAuthHeader  = "x-goog-api-key"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 4 << 20
)

// Config describes one probe attempt.
type Config struct {
	// Name labels the probe in results and logs, e.g. "generate".
	Name string
	// Method defaults to POST when Body is set and GET otherwise.
	Method   string
	Endpoint string

	Credential string
	Auth       AuthPlacement
	// AuthParam overrides the query parameter or header name carrying the credential.
	AuthParam string

	// Proxy is an http, https, socks5 or socks5h URL. Empty means a direct connection.
	Proxy   string
	NoProxy string

	// Timeout bounds the whole exchange including reading the body. Zero means DefaultTimeout.
	Timeout time.Duration

	// Body is sent as application/json when non-empty.
	Body []byte

	// Insecure disables TLS certificate verification.
	Insecure bool

	// SkipDecode accepts any 200 as success without parsing the body as JSON.
	SkipDecode bool

	MaxBodyBytes int64
}

// Result is the outcome of a single probe.
//
// StatusCode is 0 whenever no HTTP response was received. Body always holds
// the raw response bytes when a response arrived; Payload is only set on
// KindSuccess.
type Result struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Kind       Kind           `json:"kind"`
	StatusCode int            `json:"status_code,omitempty"`
	Message    string         `json:"message,omitempty"`
	Body       []byte         `json:"-"`
	Payload    map[string]any `json:"payload,omitempty"`
	LatencyMS  float64        `json:"latency_ms"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// OK reports whether the probe succeeded.
func (r Result) OK() bool { return r.Kind == KindSuccess }

// Checker is implemented by anything that can run a configured probe.
type Checker interface {
	Run(ctx context.Context, cfg Config) Result
}
