package leasedb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"
	"time"
)

// DefaultLeasesFile is where isc-dhcpd keeps its lease database on most distros.
const DefaultLeasesFile = "/var/lib/dhcp/dhcpd.leases"

// ErrSourceUnavailable is returned (wrapped) when the lease database file
// cannot be opened or read at all. It is the only fatal parser condition:
// anything wrong below whole-file level is absorbed by skipping the block.
var ErrSourceUnavailable = errors.New("lease database unavailable")

// timestamps look like "2 2013/12/10 12:57:04" (leading field is the weekday)
const leaseTimeLayout = "2006/01/02 15:04:05"

// LeaseDB is the parse result: one Lease per IP address, in the order the
// addresses first appeared in the file. Re-declarations of the same address
// replace the earlier record wholly, so no stale fields survive an overwrite.
type LeaseDB struct {
	byIP    map[string]*Lease
	order   []string
	skipped int
}

func newLeaseDB() *LeaseDB {
	return &LeaseDB{byIP: make(map[string]*Lease)}
}

// Len returns the number of distinct lease records.
func (db *LeaseDB) Len() int { return len(db.byIP) }

// Skipped returns how many blocks were discarded as malformed
// (no parsable address, or no binding-state statement).
func (db *LeaseDB) Skipped() int { return db.skipped }

// Lookup returns the authoritative record for the given dotted-quad address.
func (db *LeaseDB) Lookup(ip string) (*Lease, bool) {
	l, ok := db.byIP[ip]
	return l, ok
}

// Leases returns all records in file order (first appearance of each address).
func (db *LeaseDB) Leases() []*Lease {
	out := make([]*Lease, 0, len(db.order))
	for _, ip := range db.order {
		out = append(out, db.byIP[ip])
	}
	return out
}

func (db *LeaseDB) upsert(l *Lease) {
	key := l.IPAddr.String()
	if _, seen := db.byIP[key]; !seen {
		db.order = append(db.order, key)
	}
	db.byIP[key] = l
}

// LoadLeases reads and parses the lease database at path.
func LoadLeases(path string) (*LeaseDB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() {
		_ = f.Close()
	}()

	db, err := ParseLeases(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return db, nil
}

// ParseLeases scans the lease file text line by line, tracking brace depth.
// A block begins at a "lease <ip> {" declaration and ends when the depth
// returns to zero. Field statements are recognized by their leading keyword;
// everything else (comments, unknown statements, unrelated top-level blocks
// such as failover declarations) is ignored.
func ParseLeases(r io.Reader) (*LeaseDB, error) {
	db := newLeaseDB()
	scanner := bufio.NewScanner(r)

	var (
		cur     *Lease // record being built; nil inside non-lease or bad blocks
		inLease bool   // current top-level block started with the "lease" keyword
		depth   int
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if depth == 0 {
			if !strings.HasSuffix(line, "{") {
				continue // top-level statement, e.g. server-duid
			}
			depth++
			cur, inLease = parseDeclaration(line)
			continue
		}

		if strings.HasSuffix(line, "{") {
			depth++ // nested sub-block, contents are not ours to interpret
			continue
		}

		if strings.HasPrefix(line, "}") {
			depth--
			if depth == 0 {
				db.finishBlock(cur, inLease)
				cur, inLease = nil, false
			}
			continue
		}

		if cur != nil && depth == 1 {
			parseStatement(cur, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return db, nil
}

// finishBlock upserts the completed record, or counts the block as skipped
// when it never produced a usable record. A lease block without any
// binding-state statement is malformed for our purposes: it would be
// invisible to every report mode anyway.
func (db *LeaseDB) finishBlock(cur *Lease, inLease bool) {
	if !inLease {
		return
	}
	if cur == nil || cur.State == "" {
		db.skipped++
		return
	}
	db.upsert(cur)
}

// parseDeclaration interprets a top-level block opener. For "lease <ip> {"
// it returns the record under construction; for anything else (or a lease
// declaration whose address token does not parse) it returns nil.
func parseDeclaration(line string) (*Lease, bool) {
	rest, ok := strings.CutPrefix(line, "lease ")
	if !ok {
		return nil, false
	}
	fields := strings.Fields(rest)
	if len(fields) < 2 { // address token plus the opening brace
		return nil, true
	}
	ip, err := netip.ParseAddr(fields[0])
	if err != nil {
		return nil, true
	}
	return &Lease{IPAddr: ip}, true
}

// parseStatement recognizes the per-lease statements this tool reports on.
// Unrecognized statements are ignored so that newer dhcpd versions with
// extra fields keep parsing cleanly.
func parseStatement(l *Lease, line string) {
	switch {
	case strings.HasPrefix(line, "starts "):
		if ts, ok := parseLeaseTime(strings.TrimPrefix(line, "starts ")); ok {
			l.Starts = ts
		}

	case strings.HasPrefix(line, "ends "):
		val := strings.TrimSuffix(strings.TrimPrefix(line, "ends "), ";")
		if strings.TrimSpace(val) == "never" {
			l.Never = true
			return
		}
		if ts, ok := parseLeaseTime(val); ok {
			l.Ends = ts
		}

	case strings.HasPrefix(line, "binding state "):
		word := strings.TrimSuffix(strings.TrimPrefix(line, "binding state "), ";")
		l.State = ParseBindingState(strings.TrimSpace(word))

	case strings.HasPrefix(line, "hardware ethernet "):
		macStr := strings.TrimSuffix(strings.TrimPrefix(line, "hardware ethernet "), ";")
		if mac, err := net.ParseMAC(strings.TrimSpace(macStr)); err == nil {
			l.MacAddr = mac
		}

	case strings.HasPrefix(line, "client-hostname "):
		val := strings.TrimSuffix(strings.TrimPrefix(line, "client-hostname "), ";")
		l.Hostname = strings.Trim(strings.TrimSpace(val), "\"")
	}
}

// parseLeaseTime parses the "<weekday> YYYY/MM/DD HH:MM:SS[;]" timestamp
// form used by the starts/ends/tstp family of statements. All timestamps in
// the lease file are UTC.
func parseLeaseTime(val string) (time.Time, bool) {
	fields := strings.Fields(strings.TrimSuffix(val, ";"))
	if len(fields) < 3 {
		return time.Time{}, false
	}
	// fields[0] is the weekday number, redundant with the date
	ts, err := time.ParseInLocation(leaseTimeLayout, fields[1]+" "+fields[2], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
