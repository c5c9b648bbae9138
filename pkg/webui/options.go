package webui

import (
	"encoding/json"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"dhcpd-lease-report/pkg/ippool"
)

// Reservation is a static IP assignment as declared in the options file.
// It mirrors the fixed-address entries of dhcpd.conf, which the lease file
// itself does not carry.
type Reservation struct {
	Name string `json:"name"`
	Mac  string `json:"mac"`
	IP   string `json:"ip"`
}

// FriendlyName is the 1:1 binding between a MAC address and a human-friendly name
type FriendlyName struct {
	MacAddress net.HardwareAddr
	Name       string
}

// Options is the serve-mode configuration, loaded from a JSON file.
type Options struct {
	// Static IP addresses, as read from the configuration
	reservationsByIP  map[netip.Addr]Reservation
	reservationsByMAC map[string]Reservation

	// The key of this map is the MAC address formatted as string
	// (net.HardwareAddr is not a valid map key type)
	friendlyNames map[string]FriendlyName

	// The dynamic DHCP pool; leases outside it are flagged in the UI
	pool ippool.Pool

	webUIPort       int
	refreshInterval time.Duration
	logWebUI        bool
}

// DefaultOptions returns the configuration used when no options file is given.
func DefaultOptions() Options {
	return Options{
		reservationsByIP:  make(map[netip.Addr]Reservation),
		reservationsByMAC: make(map[string]Reservation),
		friendlyNames:     make(map[string]FriendlyName),
		webUIPort:         8080,
		refreshInterval:   30 * time.Second,
	}
}

// UnmarshalJSON reads the options file and converts it into the maps and
// pool representation the backend works with.
func (o *Options) UnmarshalJSON(data []byte) error {
	// This structure contains only fields relevant to the backend behavior;
	// the file may contain more settings than those listed here.
	var cfg struct {
		IpAddressReservations []Reservation `json:"ip_address_reservations"`

		FriendlyNames []struct {
			Name string `json:"name"`
			Mac  string `json:"mac"`
		} `json:"friendly_names"`

		DhcpPool []struct {
			StartIP string `json:"start_ip"`
			EndIP   string `json:"end_ip"`
		} `json:"dhcp_pool"`

		WebUIPort       int    `json:"web_ui_port"`
		RefreshInterval string `json:"refresh_interval"`
		LogWebUI        bool   `json:"log_web_ui"`
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}

	*o = DefaultOptions()

	for _, rng := range cfg.DhcpPool {
		r := ippool.NewRangeFromString(rng.StartIP, rng.EndIP)
		if !r.IsValid() {
			return fmt.Errorf("invalid DHCP pool range %s-%s", rng.StartIP, rng.EndIP)
		}
		o.pool.Ranges = append(o.pool.Ranges, r)
	}

	if cfg.WebUIPort != 0 {
		if cfg.WebUIPort < 0 || cfg.WebUIPort > 65535 {
			return fmt.Errorf("invalid web UI port %d", cfg.WebUIPort)
		}
		o.webUIPort = cfg.WebUIPort
	}

	if cfg.RefreshInterval != "" {
		d, err := time.ParseDuration(cfg.RefreshInterval)
		if err != nil {
			return fmt.Errorf("invalid refresh_interval: %w", err)
		}
		o.refreshInterval = d
	}

	o.logWebUI = cfg.LogWebUI

	for _, r := range cfg.IpAddressReservations {
		ipAddr, err := netip.ParseAddr(r.IP)
		if err != nil {
			return fmt.Errorf("invalid IP address inside 'ip_address_reservations': %s", r.IP)
		}
		macAddr, err := net.ParseMAC(r.Mac)
		if err != nil {
			return fmt.Errorf("invalid MAC address inside 'ip_address_reservations': %s", r.Mac)
		}

		// normalize the IP and MAC address format (e.g. to lowercase)
		r.IP = ipAddr.String()
		r.Mac = macAddr.String()

		o.reservationsByIP[ipAddr] = r
		o.reservationsByMAC[macAddr.String()] = r
	}

	for _, fn := range cfg.FriendlyNames {
		macAddr, err := net.ParseMAC(fn.Mac)
		if err != nil {
			return fmt.Errorf("invalid MAC address inside 'friendly_names': %s", fn.Mac)
		}
		o.friendlyNames[macAddr.String()] = FriendlyName{
			MacAddress: macAddr,
			Name:       fn.Name,
		}
	}

	return nil
}

// LoadOptions parses the JSON options file at path.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return Options{}, err
	}

	var opts Options
	if err := json.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	return opts, nil
}
