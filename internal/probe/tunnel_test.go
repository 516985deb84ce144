package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// serveSOCKS5 accepts one connection and answers a no-auth CONNECT with rep.
func serveSOCKS5(t *testing.T, rep byte) (addr string, gotTarget chan string) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	gotTarget = make(chan string, 1)

	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.SetDeadline(time.Now().Add(2 * time.Second))

		hdr := make([]byte, 2)
		if _, err := io.ReadFull(c, hdr); err != nil {
			return
		}
		methods := make([]byte, hdr[1])
		if _, err := io.ReadFull(c, methods); err != nil {
			return
		}
		c.Write([]byte{0x05, 0x00})

		req := make([]byte, 4)
		if _, err := io.ReadFull(c, req); err != nil {
			return
		}
		var host string
		switch req[3] {
		case 0x01:
			ip := make([]byte, 4)
			io.ReadFull(c, ip)
			host = net.IP(ip).String()
		case 0x03:
			n := make([]byte, 1)
			io.ReadFull(c, n)
			name := make([]byte, n[0])
			io.ReadFull(c, name)
			host = string(name)
		}
		port := make([]byte, 2)
		io.ReadFull(c, port)
		gotTarget <- host
		c.Write([]byte{0x05, rep, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
	}()
	return l.Addr().String(), gotTarget
}

func TestTunnel_SOCKS5Success(t *testing.T) {
	addr, got := serveSOCKS5(t, 0x00)
	out := NewRunner().Tunnel(context.Background(), Config{
		Name:     "tunnel",
		Endpoint: "https://generativelanguage.example/v1beta/models",
		Proxy:    "socks5h://" + addr,
		Timeout:  2 * time.Second,
	})
	if out.Kind != KindSuccess {
		t.Fatalf("want success, got %+v", out)
	}
	select {
	case host := <-got:
		if host != "generativelanguage.example" {
			t.Fatalf("proxy asked to connect to %q", host)
		}
	case <-time.After(time.Second):
		t.Fatalf("proxy never saw CONNECT")
	}
}

func TestTunnel_SOCKS5Refused(t *testing.T) {
	addr, _ := serveSOCKS5(t, 0x05)
	out := NewRunner().Tunnel(context.Background(), Config{
		Endpoint: "https://generativelanguage.example",
		Proxy:    "socks5://" + addr,
		Timeout:  2 * time.Second,
	})
	if out.Kind != KindConnectionError {
		t.Fatalf("want connection_error, got %+v", out)
	}
}

func TestTunnel_DeadProxy(t *testing.T) {
	out := NewRunner().Tunnel(context.Background(), Config{
		Endpoint: "https://generativelanguage.example",
		Proxy:    "socks5://" + closedAddr(t),
		Timeout:  2 * time.Second,
	})
	if out.Kind != KindConnectionError {
		t.Fatalf("want connection_error, got %+v", out)
	}
}

func TestTunnel_HTTPConnect(t *testing.T) {
	px := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodConnect {
			t.Errorf("want CONNECT, got %s", r.Method)
		}
		if r.Host == "blocked.example:443" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer px.Close()

	out := NewRunner().Tunnel(context.Background(), Config{
		Endpoint: "https://allowed.example",
		Proxy:    px.URL,
		Timeout:  2 * time.Second,
	})
	if out.Kind != KindSuccess || !strings.Contains(out.Message, "allowed.example:443") {
		t.Fatalf("want success, got %+v", out)
	}

	out = NewRunner().Tunnel(context.Background(), Config{
		Endpoint: "https://blocked.example",
		Proxy:    px.URL,
		Timeout:  2 * time.Second,
	})
	if out.Kind != KindConnectionError || !strings.Contains(out.Message, "403 Forbidden") {
		t.Fatalf("want connection_error naming 403, got %+v", out)
	}
}

func TestTunnel_Direct(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	defer s.Close()

	out := NewRunner().Tunnel(context.Background(), Config{Endpoint: s.URL})
	if out.Kind != KindSuccess {
		t.Fatalf("want success, got %+v", out)
	}
}

func TestTargetAddr(t *testing.T) {
	cases := map[string]string{
		"https://h":        "h:443",
		"http://h/x":       "h:80",
		"socks5://h":       "h:1080",
		"https://h:8443/p": "h:8443",
		"http://[::1]:9/":  "[::1]:9",
	}
	for in, want := range cases {
		got, err := targetAddr(in)
		if err != nil || got != want {
			t.Fatalf("targetAddr(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := targetAddr("no-host"); err == nil {
		t.Fatalf("want error for url without host")
	}
}
