package leasedb

import (
	"fmt"
	"os"

	"github.com/b0ch3nski/go-dnsmasq-utils/dnsmasq"
)

// the hostname dnsmasq writes when the client did not advertise one
const dnsmasqMissingHostname = "*"

// FromDnsmasq converts leases parsed from a dnsmasq lease file into the
// record type used by the reports. dnsmasq has no binding-state concept:
// every line in its lease file is a currently valid lease, so the records
// all come out active. An expiry of zero means an infinite lease, which
// maps onto our static classification.
func FromDnsmasq(leases []*dnsmasq.Lease) *LeaseDB {
	db := newLeaseDB()
	for _, dl := range leases {
		l := &Lease{
			IPAddr:  dl.IPAddr,
			State:   StateActive,
			MacAddr: dl.MacAddr,
		}
		if dl.Hostname != dnsmasqMissingHostname {
			l.Hostname = dl.Hostname
		}
		if dl.Expires.IsZero() || dl.Expires.Unix() <= 0 {
			l.Never = true
		} else {
			l.Ends = dl.Expires.UTC()
		}
		db.upsert(l)
	}
	return db
}

// LoadDnsmasqLeases reads and parses a dnsmasq-format lease file at path.
func LoadDnsmasqLeases(path string) (*LeaseDB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() {
		_ = f.Close()
	}()

	leases, err := dnsmasq.ReadLeases(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return FromDnsmasq(leases), nil
}
