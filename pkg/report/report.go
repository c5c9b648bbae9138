// Package report renders the fixed-width lease tables printed by the CLI.
//
// The renderer is deliberately dumb: it receives fully parsed records plus
// the UTC instant to measure expiry against, and produces text. It never
// touches the system clock and never fails on data content, so rendering
// the same inputs twice yields byte-identical output.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"dhcpd-lease-report/pkg/leasedb"
)

// Mode selects which leases the report shows.
type Mode int

const (
	// ModeActive lists leases whose binding state is active.
	ModeActive Mode = iota
	// ModeAbandoned lists leases the server marked abandoned.
	ModeAbandoned
	// ModeStatic lists the subset of active leases that are fixed-address
	// assignments (no dynamic expiry window).
	ModeStatic
)

func (m Mode) String() string {
	switch m {
	case ModeActive:
		return "Active"
	case ModeAbandoned:
		return "Abandoned"
	case ModeStatic:
		return "Static"
	}
	return "Unknown"
}

// placeholder printed in the MAC column when the lease block carries no
// hardware statement (typical for fixed-address reservations, whose MAC
// lives in dhcpd.conf instead)
const missingMACPlaceholder = "See dhcpd.conf"

const timestampLayout = "2006-01-02 15:04:05"

const (
	wideBanner   = "+------------------------------------------------------------------------------"
	wideRule     = "+-----------------+-------------------+----------------------+-----------------"
	narrowBanner = "+----------------------------------------------------------"
	narrowRule   = "+-----------------+----------------------+-----------------"
)

// Render produces the lease table for the given mode. The expiry arithmetic
// uses the injected now, which is also stamped into the footer.
func Render(leases []*leasedb.Lease, mode Mode, now time.Time) string {
	rows := Filter(leases, mode)

	// numeric dotted-quad order, not lexical string order
	slices.SortFunc(rows, func(a, b *leasedb.Lease) int {
		return a.IPAddr.Compare(b.IPAddr)
	})

	var sb strings.Builder
	if mode == ModeAbandoned {
		renderAbandoned(&sb, rows)
	} else {
		renderActive(&sb, rows, mode, now)
	}

	fmt.Fprintf(&sb, "| Total %s Leases: %d\n", mode, len(rows))
	fmt.Fprintf(&sb, "| Report generated (UTC): %s\n", now.UTC().Round(time.Second).Format(timestampLayout))
	if mode == ModeAbandoned {
		sb.WriteString(narrowBanner + "\n")
	} else {
		sb.WriteString(wideBanner + "\n")
	}
	return sb.String()
}

// Filter returns the leases the given mode selects. Leases in states other
// than active/abandoned (free, backup, reset, bootp, released, unknown, ...)
// are never shown by any mode.
func Filter(leases []*leasedb.Lease, mode Mode) []*leasedb.Lease {
	var out []*leasedb.Lease
	for _, l := range leases {
		switch mode {
		case ModeActive:
			if l.State == leasedb.StateActive {
				out = append(out, l)
			}
		case ModeAbandoned:
			if l.State == leasedb.StateAbandoned {
				out = append(out, l)
			}
		case ModeStatic:
			if l.State == leasedb.StateActive && l.IsStatic() {
				out = append(out, l)
			}
		}
	}
	return out
}

func renderActive(sb *strings.Builder, rows []*leasedb.Lease, mode Mode, now time.Time) {
	sb.WriteString(wideBanner + "\n")
	fmt.Fprintf(sb, "| DHCPD %s LEASES REPORT\n", strings.ToUpper(mode.String()))
	sb.WriteString(wideRule + "\n")
	sb.WriteString("| IP Address      | MAC Address       | Expires (D:HH:MM:SS) | Client Hostname \n")
	sb.WriteString(wideRule + "\n")

	for _, l := range rows {
		expires := "never"
		if !l.IsStatic() {
			expires = formatRemaining(l.Ends.Sub(now))
		}
		mac := missingMACPlaceholder
		if l.MacAddr != nil {
			mac = l.MacAddr.String()
		}
		fmt.Fprintf(sb, "| %-15s | %-17s | %20s | %s\n", l.IPAddr, mac, expires, l.Hostname)
	}

	sb.WriteString(wideRule + "\n")
}

func renderAbandoned(sb *strings.Builder, rows []*leasedb.Lease) {
	sb.WriteString(narrowBanner + "\n")
	sb.WriteString("| DHCPD ABANDONED LEASES REPORT\n")
	sb.WriteString(narrowRule + "\n")
	sb.WriteString("| IP Address      | Starts               | Client Hostname \n")
	sb.WriteString(narrowRule + "\n")

	for _, l := range rows {
		starts := ""
		if !l.Starts.IsZero() {
			starts = l.Starts.Format(timestampLayout)
		}
		fmt.Fprintf(sb, "| %-15s | %-20s | %s\n", l.IPAddr, starts, l.Hostname)
	}

	sb.WriteString(narrowRule + "\n")
}

// formatRemaining renders a remaining-lease duration as D:HH:MM:SS with the
// days component unbounded. Already-expired leases (still flagged active in
// the file but not reaped yet) clamp to zero instead of going negative.
func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60
	return fmt.Sprintf("%d:%02d:%02d:%02d", days, hours, mins, secs%60)
}
