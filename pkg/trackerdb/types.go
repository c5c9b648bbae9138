package trackerdb

import (
	"encoding/json"
	"net"
	"time"

	// import sqlite3 driver, so that database/sql package will know how to deal with "sqlite3" type
	_ "github.com/mattn/go-sqlite3"
)

// Client is one DHCP client known to the tracker. It might be currently
// holding a lease or it might have disappeared long ago; LastSeen and LastIP
// record the most recent lease-file sighting.
type Client struct {
	MacAddr  net.HardwareAddr
	Hostname string
	LastIP   string
	LastSeen time.Time
}

// MarshalJSON customizes the JSON serialization for Client
func (c Client) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		MacAddr  string `json:"mac_addr"`
		Hostname string `json:"hostname"`
		LastIP   string `json:"last_ip"`
		LastSeen int64  `json:"last_seen"`
	}{
		MacAddr:  c.MacAddr.String(),
		Hostname: c.Hostname,
		LastIP:   c.LastIP,
		LastSeen: c.LastSeen.Unix(),
	})
}
