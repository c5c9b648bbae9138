// Package revdns fills in missing client hostnames by asking a DNS server
// for the PTR record of the leased address. dhcpd only records a
// client-hostname when the client advertised one, so on networks with
// working reverse zones this recovers names for the silent clients.
package revdns

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"dhcpd-lease-report/pkg/leasedb"
)

// DefaultServer queries the resolver dhcpd itself usually runs next to.
const DefaultServer = "127.0.0.1:53"

const queryTimeout = 2 * time.Second

type Resolver struct {
	server string
	client *dns.Client
}

// New creates a Resolver talking to the given server ("host" or "host:port";
// port 53 is assumed when absent).
func New(server string) *Resolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, strconv.Itoa(53))
	}
	c := new(dns.Client)
	c.Timeout = queryTimeout
	return &Resolver{server: server, client: c}
}

// LookupAddr performs a single PTR query and returns the first name found.
func (r *Resolver) LookupAddr(ctx context.Context, ip string) (string, error) {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", err
	}

	m := new(dns.Msg)
	m.Id = dns.Id()
	m.RecursionDesired = true
	m.Question = append(m.Question, dns.Question{
		Name:   arpa,
		Qtype:  dns.TypePTR,
		Qclass: dns.ClassINET})

	resp, _, err := r.client.ExchangeContext(ctx, m, r.server)
	if err != nil {
		return "", err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("PTR query for %s against %s failed: %s", ip, r.server, dns.RcodeToString[resp.Rcode])
	}

	for _, ans := range resp.Answer {
		if ptr, ok := ans.(*dns.PTR); ok {
			return TrimFQDN(ptr.Ptr), nil
		}
	}
	return "", fmt.Errorf("no PTR record for %s", ip)
}

// FillHostnames resolves the leases that came out of the lease file without
// a client-hostname. Lookup failures leave the hostname empty: reverse DNS
// is best-effort decoration of the report, never a reason to abort it.
// Returns how many hostnames were filled in.
func (r *Resolver) FillHostnames(ctx context.Context, leases []*leasedb.Lease) int {
	filled := 0
	for _, l := range leases {
		if l.Hostname != "" {
			continue
		}
		name, err := r.LookupAddr(ctx, l.IPAddr.String())
		if err != nil {
			continue
		}
		l.Hostname = name
		filled++
	}
	return filled
}

// TrimFQDN strips the trailing root dot from a DNS name, turning the
// wire-format "host.example.org." into the display form "host.example.org".
func TrimFQDN(name string) string {
	return strings.TrimSuffix(name, ".")
}
