package leasedb

import (
	"net"
	"net/netip"
	"time"
)

// BindingState is the lifecycle tag the DHCP server records for a lease
// (see dhcpd.leases(5), "binding state" statement).
type BindingState string

const (
	StateActive    BindingState = "active"
	StateFree      BindingState = "free"
	StateAbandoned BindingState = "abandoned"
	StateBackup    BindingState = "backup"
	StateReset     BindingState = "reset"
	StateBootp     BindingState = "bootp"
	StateReleased  BindingState = "released"
	StateExpired   BindingState = "expired"

	// StateUnknown is used for state words this tool does not recognize;
	// such leases are parsed and kept but never selected by any report mode.
	StateUnknown BindingState = "unknown"
)

var knownStates = map[string]BindingState{
	"active":    StateActive,
	"free":      StateFree,
	"abandoned": StateAbandoned,
	"backup":    StateBackup,
	"reset":     StateReset,
	"bootp":     StateBootp,
	"released":  StateReleased,
	"expired":   StateExpired,
}

// ParseBindingState maps the state word found after "binding state" to a
// BindingState, falling back to StateUnknown for anything unrecognized.
func ParseBindingState(word string) BindingState {
	if s, ok := knownStates[word]; ok {
		return s
	}
	return StateUnknown
}

// Lease is one parsed lease block from the lease database file.
// The DHCP server appends a new block every time a lease changes, so for a
// given IP address the block appearing last in the file is the one in effect.
type Lease struct {
	IPAddr netip.Addr

	// Starts/Ends are the dynamic lease window, always UTC.
	// A zero value means the corresponding statement was absent.
	Starts time.Time
	Ends   time.Time

	// Never is set when the file literally says "ends never;"
	// (fixed-address/reservation-style entries).
	Never bool

	State BindingState

	// MacAddr may be nil: some reservation entries carry no
	// "hardware ethernet" statement.
	MacAddr net.HardwareAddr

	// Hostname may be empty when the client did not advertise one.
	Hostname string
}

// IsStatic reports whether this lease has no dynamic expiry window,
// i.e. it is a fixed-address assignment rather than a timed lease.
func (l *Lease) IsStatic() bool {
	return l.Never || l.Ends.IsZero()
}
