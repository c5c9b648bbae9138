/*
Package trackerdb persists, in a small sqlite3 database, every DHCP client
the serve-mode dashboard has ever seen in the lease file.

Q: Why keep a separate database when the lease file already lists clients?
A: The lease file only reflects the current state of the server: when a
lease expires and is reused, or the client simply stops renewing, the
client's block stops being authoritative and eventually disappears from
view. The tracker keeps one row per MAC address forever (rows are only
ever inserted or refreshed, never deleted), which is what powers the
"past clients" section of the dashboard: clients known from history that
are absent from the current lease table.
*/
package trackerdb
