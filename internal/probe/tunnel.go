package probe

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/proxy"
)

// Tunnel checks that a TCP connection to the endpoint host can be opened,
// through cfg.Proxy when set. SOCKS proxies are asked to CONNECT, HTTP
// proxies receive an HTTP CONNECT request. Nothing is sent to the endpoint.
func (r *Runner) Tunnel(ctx context.Context, cfg Config) Result {
	start := r.now()
	res := Result{ID: r.newID(), Name: cfg.Name}

	res.Kind, res.StatusCode, res.Message = r.tunnel(ctx, cfg)

	res.CheckedAt = r.now().UTC()
	res.LatencyMS = float64(res.CheckedAt.Sub(start).Microseconds()) / 1000
	r.log(res, cfg)
	return res
}

func (r *Runner) tunnel(ctx context.Context, cfg Config) (Kind, int, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := targetAddr(cfg.Endpoint)
	if err != nil {
		return KindUnknownError, 0, err.Error()
	}
	proxyURL, err := ParseProxy(cfg.Proxy)
	if err != nil {
		return KindUnknownError, 0, err.Error()
	}

	timeout := timeoutOrDefault(cfg.Timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	forward := &net.Dialer{Timeout: timeout}

	if proxyURL == nil {
		conn, err := forward.DialContext(ctx, "tcp", target)
		if err != nil {
			return Classify(err), 0, err.Error()
		}
		conn.Close()
		return KindSuccess, 0, "connected to " + target
	}

	switch strings.ToLower(proxyURL.Scheme) {
	case "socks5", "socks5h":
		return socksTunnel(ctx, proxyURL, forward, target)
	default:
		return connectTunnel(ctx, proxyURL, forward, target, cfg.Insecure)
	}
}

func socksTunnel(ctx context.Context, proxyURL *url.URL, forward *net.Dialer, target string) (Kind, int, string) {
	d, err := proxy.FromURL(proxyURL, forward)
	if err != nil {
		return KindUnknownError, 0, fmt.Sprintf("socks dialer: %v", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return KindUnknownError, 0, "socks dialer does not support contexts"
	}
	conn, err := cd.DialContext(ctx, "tcp", target)
	if err != nil {
		return Classify(err), 0, err.Error()
	}
	conn.Close()
	return KindSuccess, 0, fmt.Sprintf("tunnel to %s via %s://%s", target, proxyURL.Scheme, proxyURL.Host)
}

func connectTunnel(ctx context.Context, proxyURL *url.URL, forward *net.Dialer, target string, insecure bool) (Kind, int, string) {
	proxyAddr, err := targetAddr(proxyURL.String())
	if err != nil {
		return KindUnknownError, 0, err.Error()
	}
	conn, err := forward.DialContext(ctx, "tcp", proxyAddr)
	if err != nil {
		return Classify(err), 0, err.Error()
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if proxyURL.Scheme == "https" {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: proxyURL.Hostname(), InsecureSkipVerify: insecure})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return Classify(err), 0, err.Error()
		}
		conn = tlsConn
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: target},
		Host:   target,
		Header: make(http.Header),
	}
	if u := proxyURL.User; u != nil {
		pass, _ := u.Password()
		cred := base64.StdEncoding.EncodeToString([]byte(u.Username() + ":" + pass))
		req.Header.Set("Proxy-Authorization", "Basic "+cred)
	}
	if err := req.Write(conn); err != nil {
		return Classify(err), 0, fmt.Sprintf("write CONNECT: %v", err)
	}
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return Classify(err), 0, fmt.Sprintf("read CONNECT reply: %v", err)
	}
	resp.Body.Close()
	if err := checkConnectResponse(ctx, proxyURL, req, resp); err != nil {
		return Classify(err), 0, err.Error()
	}
	return KindSuccess, resp.StatusCode, fmt.Sprintf("tunnel to %s via %s://%s", target, proxyURL.Scheme, proxyURL.Host)
}

// targetAddr turns a URL into host:port, filling the port from the scheme.
func targetAddr(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%q has no host", raw)
	}
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "https":
			port = "443"
		case "socks5", "socks5h":
			port = "1080"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
