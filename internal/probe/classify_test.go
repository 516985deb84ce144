package probe

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindSuccess},
		{"missing credential", fmt.Errorf("run: %w", ErrMissingCredential), KindMissingCredential},
		{"deadline", &url.Error{Op: "Post", URL: "https://x", Err: context.DeadlineExceeded}, KindTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "https://x", Err: timeoutErr{}}, KindTimeout},
		{"refused", &url.Error{Op: "Get", URL: "https://x", Err: refused}, KindConnectionError},
		{"dns", &url.Error{Op: "Get", URL: "https://x", Err: &net.DNSError{Err: "no such host", Name: "x", IsNotFound: true}}, KindConnectionError},
		{"proxyconnect", &url.Error{Op: "Get", URL: "https://x", Err: &net.OpError{Op: "proxyconnect", Net: "tcp", Err: refused}}, KindConnectionError},
		{"connect refused", &url.Error{Op: "Get", URL: "https://x", Err: &ProxyConnectError{Proxy: "http://px:3128", StatusCode: 407, Status: "407 Proxy Authentication Required"}}, KindConnectionError},
		{"unknown authority", &url.Error{Op: "Get", URL: "https://x", Err: x509.UnknownAuthorityError{}}, KindConnectionError},
		{"eof", &url.Error{Op: "Get", URL: "https://x", Err: io.EOF}, KindConnectionError},
		{"canceled", &url.Error{Op: "Get", URL: "https://x", Err: context.Canceled}, KindUnknownError},
		{"scheme", &url.Error{Op: "Get", URL: "gopher://x", Err: errors.New(`unsupported protocol scheme "gopher"`)}, KindUnknownError},
		{"plain", errors.New("boom"), KindUnknownError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.err); got != c.want {
				t.Fatalf("Classify(%v)=%s want %s", c.err, got, c.want)
			}
		})
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	for k := range kindNames {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", k, err)
		}
		var got Kind
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Fatalf("unmarshal %q: got %s err=%v", b, got, err)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("nope")); err == nil {
		t.Fatalf("want error for unknown kind")
	}
	if Kind(99).String() != "kind(99)" {
		t.Fatalf("unexpected string for out-of-range kind: %s", Kind(99))
	}
}

func TestKind_Transport(t *testing.T) {
	if !KindTimeout.Transport() || !KindConnectionError.Transport() {
		t.Fatalf("timeout and connection errors are transport failures")
	}
	if KindHTTPError.Transport() || KindSuccess.Transport() {
		t.Fatalf("a received response is not a transport failure")
	}
}
