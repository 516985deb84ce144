package probe

import (
	"context"
	"net"
	"testing"
)

type fakeResolver struct {
	ips   []net.IP
	ipErr error
	ns    []*net.NS
}

func (f fakeResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	return f.ips, f.ipErr
}

func (f fakeResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	return host + ".", nil
}

func (f fakeResolver) LookupNS(ctx context.Context, name string) ([]*net.NS, error) {
	if len(f.ns) == 0 {
		return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
	}
	return f.ns, nil
}

func TestCheckDNS(t *testing.T) {
	notFound := &net.DNSError{Err: "no such host", Name: "x", IsNotFound: true}
	cases := []struct {
		name   string
		domain string
		res    Resolver
		want   DNSClass
	}{
		{"empty", "", fakeResolver{}, DNSInvalidName},
		{"url", "https://example.com", fakeResolver{}, DNSInvalidName},
		{"literal", "127.0.0.1", fakeResolver{}, DNSLiteralIPAddr},
		{"resolves", "example.com", fakeResolver{ips: []net.IP{net.IPv4(1, 2, 3, 4)}}, DNSResolves},
		{"nxdomain", "nope.example", fakeResolver{ipErr: notFound}, DNSNXDomain},
		{"ns only", "bare.example", fakeResolver{ipErr: notFound, ns: []*net.NS{{Host: "ns1.example."}}}, DNSNoARecord},
		{"servfail", "flaky.example", fakeResolver{ipErr: &net.DNSError{Err: "server misbehaving", IsTemporary: true}}, DNSServfail},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CheckDNS(context.Background(), c.res, c.domain)
			if got.Class != c.want {
				t.Fatalf("CheckDNS(%q) class=%s want %s (%+v)", c.domain, got.Class, c.want, got)
			}
		})
	}
}

func TestCheckDNS_CollectsNameservers(t *testing.T) {
	got := CheckDNS(context.Background(), fakeResolver{
		ips: []net.IP{net.IPv4(1, 2, 3, 4)},
		ns:  []*net.NS{{Host: "ns1.example."}, {Host: "ns2.example."}},
	}, "example.com")
	if !got.HasNS || len(got.Nameservers) != 2 || got.Nameservers[0] != "ns1.example" {
		t.Fatalf("unexpected nameservers: %+v", got)
	}
	if got.CNAME != "" {
		t.Fatalf("self cname must be ignored, got %q", got.CNAME)
	}
}
