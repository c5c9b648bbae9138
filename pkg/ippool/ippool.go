// Package ippool models the DHCP address pool declared in the server
// configuration, so that reported leases can be flagged as inside or outside
// the dynamic range (addresses outside it are typically reservations).
package ippool

import (
	"net"
	"net/netip"

	"github.com/netdata/go.d.plugin/pkg/iprange"
)

// Range is one contiguous inclusive span of IP addresses.
type Range struct {
	Start netip.Addr
	End   netip.Addr
}

func NewRange(start, end netip.Addr) Range {
	return Range{Start: start, End: end}
}

// NewRangeFromString builds a Range from textual addresses; the zero Range
// comes back (IsValid() == false) when either address does not parse.
func NewRangeFromString(start, end string) Range {
	s, err1 := netip.ParseAddr(start)
	e, err2 := netip.ParseAddr(end)
	if err1 != nil || err2 != nil {
		return Range{}
	}
	return Range{Start: s, End: e}
}

func (r Range) IsValid() bool {
	return r.Start.IsValid() && r.End.IsValid() && r.Start.Compare(r.End) <= 0
}

// Contains reports whether ip falls inside the range, endpoints included.
func (r Range) Contains(ip netip.Addr) bool {
	if !r.IsValid() || !ip.IsValid() {
		return false
	}
	return r.Start.Compare(ip) <= 0 && ip.Compare(r.End) <= 0
}

// Size returns the number of addresses in the range, or -1 when they do not
// fit an int64 (possible with IPv6 spans).
func (r Range) Size() int64 {
	if !r.IsValid() {
		return 0
	}
	size := iprange.New(net.IP(r.Start.AsSlice()), net.IP(r.End.AsSlice())).Size()
	if !size.IsInt64() {
		return -1
	}
	return size.Int64()
}

// Pool is the whole DHCP pool, possibly made of multiple disjoint ranges.
type Pool struct {
	Ranges []Range
}

func NewPool(ranges ...Range) Pool {
	return Pool{Ranges: ranges}
}

func (p Pool) Contains(ip netip.Addr) bool {
	for _, r := range p.Ranges {
		if r.Contains(ip) {
			return true
		}
	}
	return false
}

func (p Pool) Size() int64 {
	var size int64
	for _, r := range p.Ranges {
		s := r.Size()
		if s == -1 {
			return -1
		}
		size += s
	}
	return size
}
