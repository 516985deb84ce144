package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"
)

// ErrMissingCredential is returned before any network activity when a probe
// requires a credential and none was configured.
var ErrMissingCredential = errors.New("credential is not set")

// Classify maps an error from building, sending or reading a probe request to
// its outcome kind. A nil error is a success.
func Classify(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	if errors.Is(err, ErrMissingCredential) {
		return KindMissingCredential
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindUnknownError
	}

	// url.Error implements net.Error itself, so look beneath it.
	inner := err
	var ue *url.Error
	if errors.As(err, &ue) {
		inner = ue.Err
	}

	var (
		opErr     *net.OpError
		dnsErr    *net.DNSError
		addrErr   *net.AddrError
		verifyErr *tls.CertificateVerificationError
		headerErr tls.RecordHeaderError
		alertErr  tls.AlertError
		authority x509.UnknownAuthorityError
		hostname  x509.HostnameError
		invalid   x509.CertificateInvalidError
		errno     syscall.Errno
		refused   *ProxyConnectError
	)
	switch {
	case errors.As(inner, &refused),
		errors.As(inner, &opErr),
		errors.As(inner, &dnsErr),
		errors.As(inner, &addrErr),
		errors.As(inner, &verifyErr),
		errors.As(inner, &headerErr),
		errors.As(inner, &alertErr),
		errors.As(inner, &authority),
		errors.As(inner, &hostname),
		errors.As(inner, &invalid),
		errors.As(inner, &errno):
		return KindConnectionError
	case errors.Is(inner, io.EOF), errors.Is(inner, io.ErrUnexpectedEOF), errors.Is(inner, net.ErrClosed):
		// peer or proxy hung up mid-exchange
		return KindConnectionError
	}
	return KindUnknownError
}
