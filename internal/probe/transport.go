package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpproxy"
)

var proxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// ParseProxy validates a proxy URL. An empty string yields a nil URL.
func ParseProxy(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	if !proxySchemes[strings.ToLower(u.Scheme)] {
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", raw)
	}
	return u, nil
}

// NewTransport builds a dedicated transport for one probe. The proxy comes
// from cfg only; the process environment is never consulted.
func NewTransport(cfg Config) (*http.Transport, error) {
	proxyURL, err := ParseProxy(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	var proxyFunc func(req *http.Request) (*url.URL, error)
	if proxyURL != nil {
		proxyConf := &httpproxy.Config{
			HTTPProxy:  proxyURL.String(),
			HTTPSProxy: proxyURL.String(),
			NoProxy:    cfg.NoProxy,
		}
		resolve := proxyConf.ProxyFunc()
		proxyFunc = func(req *http.Request) (*url.URL, error) {
			return resolve(req.URL)
		}
	}

	d := &net.Dialer{
		Timeout:   timeoutOrDefault(cfg.Timeout),
		KeepAlive: -1,
	}

	return &http.Transport{
		Proxy:                  proxyFunc,
		OnProxyConnectResponse: checkConnectResponse,
		DialContext:            d.DialContext,
		TLSClientConfig:        &tls.Config{InsecureSkipVerify: cfg.Insecure},
		TLSHandshakeTimeout:    timeoutOrDefault(cfg.Timeout),
		DisableKeepAlives:      true,
		ForceAttemptHTTP2:      true,
		MaxIdleConns:           1,
	}, nil
}

// ProxyConnectError is returned when an HTTP proxy answers CONNECT with a
// status other than 200, e.g. 407 or 502.
type ProxyConnectError struct {
	Proxy      string
	StatusCode int
	Status     string
}

func (e *ProxyConnectError) Error() string {
	return fmt.Sprintf("proxy %s refused CONNECT: %s", e.Proxy, e.Status)
}

func checkConnectResponse(_ context.Context, proxyURL *url.URL, _ *http.Request, resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return &ProxyConnectError{Proxy: proxyURL.Redacted(), StatusCode: resp.StatusCode, Status: resp.Status}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
