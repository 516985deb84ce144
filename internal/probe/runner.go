package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ankouyang/apiprobe/internal/jsonutil"
)

// Runner executes single, synchronous probes. It holds no per-request state
// and is safe to share.
type Runner struct {
	Logger *zap.Logger

	// Resolver is used for DNS diagnosis of connection failures; nil disables it.
	Resolver Resolver

	now   func() time.Time
	newID func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for the probe_finished event.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.Logger = l
		}
	}
}

// WithDNSDiagnosis classifies the endpoint host after a direct connection failure.
func WithDNSDiagnosis(res Resolver) Option {
	return func(r *Runner) { r.Resolver = res }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: zap.NewNop(),
		now:    time.Now,
		newID:  NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run performs exactly one request described by cfg and classifies the outcome.
func (r *Runner) Run(ctx context.Context, cfg Config) Result {
	start := r.now()
	res := Result{ID: r.newID(), Name: cfg.Name}

	res.Kind, res.StatusCode, res.Body, res.Payload, res.Message = r.do(ctx, cfg)
	if res.Kind == KindConnectionError && r.Resolver != nil && cfg.Proxy == "" {
		if dns := CheckDNS(ctx, r.Resolver, hostOf(cfg.Endpoint)); !dns.HasAOrAAAA {
			res.Message = strings.TrimSpace(fmt.Sprintf("%s dns=%s", res.Message, dns.Class))
		}
	}

	res.CheckedAt = r.now().UTC()
	res.LatencyMS = float64(res.CheckedAt.Sub(start).Microseconds()) / 1000
	r.log(res, cfg)
	return res
}

func (r *Runner) do(ctx context.Context, cfg Config) (Kind, int, []byte, map[string]any, string) {
	if cfg.Auth != AuthNone && cfg.Credential == "" {
		return KindMissingCredential, 0, nil, nil, ErrMissingCredential.Error()
	}

	req, cancel, err := buildRequest(ctx, cfg)
	if err != nil {
		return Classify(err), 0, nil, nil, err.Error()
	}
	defer cancel()

	tr, err := NewTransport(cfg)
	if err != nil {
		return KindUnknownError, 0, nil, nil, err.Error()
	}
	defer tr.CloseIdleConnections()
	client := &http.Client{Transport: tr, Timeout: timeoutOrDefault(cfg.Timeout)}

	resp, err := client.Do(req)
	if err != nil {
		return Classify(err), 0, nil, nil, redact(err.Error(), cfg.Credential)
	}
	defer resp.Body.Close()

	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		// a partial body is never reported
		return Classify(err), 0, nil, nil, redact(err.Error(), cfg.Credential)
	}
	status, note := resp.Status, ""
	if int64(len(body)) > limit {
		body = body[:limit]
		note = fmt.Sprintf(" (body truncated at %d bytes)", limit)
		status += note
	}

	if resp.StatusCode != http.StatusOK {
		return KindHTTPError, resp.StatusCode, body, nil, status
	}
	if cfg.SkipDecode {
		return KindSuccess, resp.StatusCode, body, nil, status
	}
	var payload map[string]any
	if err := jsonutil.Unmarshal(body, &payload); err != nil {
		return KindUnknownError, resp.StatusCode, body, nil, fmt.Sprintf("decode response body: %v%s", err, note)
	}
	return KindSuccess, resp.StatusCode, body, payload, status
}

// buildRequest returns a request bound to a context carrying the probe
// timeout. The returned cancel must be called once the body is consumed.
func buildRequest(ctx context.Context, cfg Config) (*http.Request, context.CancelFunc, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := TargetURL(cfg)
	if err != nil {
		return nil, nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
		if len(cfg.Body) > 0 {
			method = http.MethodPost
		}
	}

	var body io.Reader
	if len(cfg.Body) > 0 {
		body = bytes.NewReader(cfg.Body)
	}

	cctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.Timeout))
	req, err := http.NewRequestWithContext(cctx, method, target, body)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if len(cfg.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if cfg.Auth == AuthHeader {
		req.Header.Set(authParam(cfg), cfg.Credential)
	}
	return req, cancel, nil
}

// TargetURL returns the endpoint with the credential embedded as a query
// parameter when cfg.Auth is AuthQuery.
func TargetURL(cfg Config) (string, error) {
	raw := strings.TrimSpace(cfg.Endpoint)
	if raw == "" {
		return "", fmt.Errorf("%s probe: endpoint is required", nameOr(cfg.Name))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("endpoint %q: unsupported scheme %q", raw, u.Scheme)
	}
	if cfg.Auth == AuthQuery {
		q := u.Query()
		q.Set(authParam(cfg), cfg.Credential)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func authParam(cfg Config) string {
	if cfg.AuthParam != "" {
		return cfg.AuthParam
	}
	if cfg.Auth == AuthHeader {
		return DefaultAuthHeader
	}
	return DefaultQueryParam
}

func (r *Runner) log(res Result, cfg Config) {
	fields := []zap.Field{
		zap.String("probe_id", res.ID),
		zap.String("name", res.Name),
		zap.String("kind", res.Kind.String()),
		zap.Int("status", res.StatusCode),
		zap.Float64("latency_ms", res.LatencyMS),
		zap.String("endpoint", hostOf(cfg.Endpoint)),
		zap.Bool("proxied", cfg.Proxy != ""),
	}
	if res.Kind == KindSuccess {
		r.Logger.Info("probe_finished", fields...)
		return
	}
	r.Logger.Warn("probe_finished", append(fields, zap.String("reason", res.Message))...)
}

// redact strips the credential from error strings; url.Error embeds the full URL.
func redact(msg, secret string) string {
	if secret == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(secret), "REDACTED")
	return strings.ReplaceAll(msg, secret, "REDACTED")
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

func nameOr(name string) string {
	if name == "" {
		return "http"
	}
	return name
}
