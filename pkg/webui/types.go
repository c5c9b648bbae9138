package webui

import (
	"encoding/json"
	"time"

	human_duration "github.com/davidbanham/human_duration/v3"

	"dhcpd-lease-report/pkg/leasedb"
	"dhcpd-lease-report/pkg/trackerdb"
)

// ClientData holds everything the dashboard knows about one current lease:
// the record parsed from the lease file, plus metadata derived from the
// options file.
type ClientData struct {
	Lease *leasedb.Lease

	// HasStaticIP indicates whether the options file declares an IP address
	// reservation for this client. Reserved addresses quite often lie
	// outside the dynamic DHCP pool.
	HasStaticIP bool

	// IsInsideDHCPPool indicates whether this lease consumes an address
	// from the dynamic pool.
	IsInsideDHCPPool bool

	// Sometimes the hostname provided by the DHCP client is really awkward
	// and non-informative, so the options file can override it.
	FriendlyName string
}

// MarshalJSON customizes the JSON serialization for ClientData
func (d ClientData) MarshalJSON() ([]byte, error) {
	mac := ""
	if d.Lease.MacAddr != nil {
		mac = d.Lease.MacAddr.String()
	}

	var starts, ends int64
	if !d.Lease.Starts.IsZero() {
		starts = d.Lease.Starts.Unix()
	}
	if !d.Lease.Ends.IsZero() {
		ends = d.Lease.Ends.Unix()
	}

	// a human-readable countdown for the UI; the raw epoch is there too for
	// anything that wants to do its own math
	expiresIn := "never"
	if !d.Lease.IsStatic() {
		if remaining := time.Until(d.Lease.Ends); remaining > 0 {
			expiresIn = human_duration.ShortString(remaining, human_duration.Second)
		} else {
			expiresIn = "expired"
		}
	}

	return json.Marshal(&struct {
		IPAddr           string `json:"ip_addr"`
		MacAddr          string `json:"mac_addr"`
		Hostname         string `json:"hostname"`
		State            string `json:"state"`
		IsStatic         bool   `json:"is_static"`
		Starts           int64  `json:"starts"`
		Ends             int64  `json:"ends"`
		ExpiresIn        string `json:"expires_in"`
		HasStaticIP      bool   `json:"has_static_ip"`
		IsInsideDHCPPool bool   `json:"is_inside_dhcp_pool"`
		FriendlyName     string `json:"friendly_name"`
	}{
		IPAddr:           d.Lease.IPAddr.String(),
		MacAddr:          mac,
		Hostname:         d.Lease.Hostname,
		State:            string(d.Lease.State),
		IsStatic:         d.Lease.IsStatic(),
		Starts:           starts,
		Ends:             ends,
		ExpiresIn:        expiresIn,
		HasStaticIP:      d.HasStaticIP,
		IsInsideDHCPPool: d.IsInsideDHCPPool,
		FriendlyName:     d.FriendlyName,
	})
}

// PastClientData is one entry of the "past clients" dashboard section:
// a client known from the tracker DB that no longer appears in the lease file.
type PastClientData struct {
	PastInfo     trackerdb.Client `json:"past_info"`
	FriendlyName string           `json:"friendly_name"`
}

// WebSocketMessage is the payload pushed to every connected dashboard.
type WebSocketMessage struct {
	CurrentClients []ClientData     `json:"current_clients"`
	PastClients    []PastClientData `json:"past_clients"`
}

// templateData feeds the embedded HTML template.
type templateData struct {
	WebSocketURI    string
	LeaseFile       string
	PoolSize        int64
	RefreshInterval string
}
