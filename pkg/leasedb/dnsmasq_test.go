package leasedb

import (
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/b0ch3nski/go-dnsmasq-utils/dnsmasq"
	"github.com/stretchr/testify/assert"
)

func TestFromDnsmasq(t *testing.T) {
	expiry := time.Unix(1707978246, 0)
	parsed := []*dnsmasq.Lease{
		{
			Expires:  expiry,
			MacAddr:  MustParseMAC("8c:dc:d4:7b:92:24"),
			IPAddr:   netip.MustParseAddr("10.0.5.152"),
			Hostname: "arm-1",
		},
		{
			Expires:  expiry,
			MacAddr:  MustParseMAC("52:54:00:cc:24:ba"),
			IPAddr:   netip.MustParseAddr("10.0.5.155"),
			Hostname: "*",
		},
		{
			// epoch 0 is dnsmasq's encoding for an infinite lease
			Expires:  time.Unix(0, 0),
			MacAddr:  MustParseMAC("aa:bb:cc:dd:ee:ff"),
			IPAddr:   netip.MustParseAddr("10.0.5.201"),
			Hostname: "printer",
		},
	}

	db := FromDnsmasq(parsed)
	assert.Equal(t, 3, db.Len())

	// dnsmasq has no binding states: everything in the file is in effect
	for _, l := range db.Leases() {
		assert.Equal(t, StateActive, l.State)
	}

	l, ok := db.Lookup("10.0.5.152")
	assert.True(t, ok)
	assert.Equal(t, "arm-1", l.Hostname)
	assert.Equal(t, "8c:dc:d4:7b:92:24", l.MacAddr.String())
	assert.Equal(t, expiry.UTC(), l.Ends)
	assert.False(t, l.IsStatic())

	// "*" means the client sent no hostname
	l, ok = db.Lookup("10.0.5.155")
	assert.True(t, ok)
	assert.Empty(t, l.Hostname)

	l, ok = db.Lookup("10.0.5.201")
	assert.True(t, ok)
	assert.True(t, l.Never)
	assert.True(t, l.IsStatic())
}

func TestFromDnsmasqReadLeases(t *testing.T) {
	input := "1707978246 8c:dc:d4:7b:92:24 10.0.5.152 arm-1 01:8c:dc:d4:7b:92:24\n"

	parsed, err := dnsmasq.ReadLeases(strings.NewReader(input))
	assert.NoError(t, err)

	db := FromDnsmasq(parsed)
	assert.Equal(t, 1, db.Len())

	l, ok := db.Lookup("10.0.5.152")
	assert.True(t, ok)
	assert.Equal(t, "arm-1", l.Hostname)
	assert.Equal(t, StateActive, l.State)
}

func TestLoadDnsmasqLeasesMissingFile(t *testing.T) {
	_, err := LoadDnsmasqLeases("/nonexistent/path/dnsmasq.leases")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
