package webui

import (
	"encoding/json"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptionsUnmarshalJSON(t *testing.T) {
	input := `{
		"ip_address_reservations": [
			{"name": "printer", "mac": "AA:BB:CC:DD:EE:FF", "ip": "192.168.0.201"}
		],
		"friendly_names": [
			{"name": "Office printer", "mac": "aa:bb:cc:dd:ee:ff"}
		],
		"dhcp_pool": [
			{"start_ip": "192.168.0.10", "end_ip": "192.168.0.100"}
		],
		"web_ui_port": 9090,
		"refresh_interval": "1m",
		"log_web_ui": true
	}`

	var opts Options
	assert.NoError(t, json.Unmarshal([]byte(input), &opts))

	assert.Equal(t, 9090, opts.webUIPort)
	assert.Equal(t, time.Minute, opts.refreshInterval)
	assert.True(t, opts.logWebUI)

	assert.True(t, opts.pool.Contains(netip.MustParseAddr("192.168.0.50")))
	assert.False(t, opts.pool.Contains(netip.MustParseAddr("192.168.0.200")))

	// reservations are indexed both ways, with addresses normalized to lowercase
	r, ok := opts.reservationsByIP[netip.MustParseAddr("192.168.0.201")]
	assert.True(t, ok)
	assert.Equal(t, "printer", r.Name)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", r.Mac)

	r, ok = opts.reservationsByMAC["aa:bb:cc:dd:ee:ff"]
	assert.True(t, ok)
	assert.Equal(t, "192.168.0.201", r.IP)

	fn, ok := opts.friendlyNames["aa:bb:cc:dd:ee:ff"]
	assert.True(t, ok)
	assert.Equal(t, "Office printer", fn.Name)
}

func TestOptionsUnmarshalJSONDefaults(t *testing.T) {
	var opts Options
	assert.NoError(t, json.Unmarshal([]byte(`{}`), &opts))

	def := DefaultOptions()
	assert.Equal(t, def.webUIPort, opts.webUIPort)
	assert.Equal(t, def.refreshInterval, opts.refreshInterval)
	assert.False(t, opts.logWebUI)
	assert.Empty(t, opts.pool.Ranges)
}

func TestOptionsUnmarshalJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "bad reservation IP",
			input: `{"ip_address_reservations": [{"name": "x", "mac": "aa:bb:cc:dd:ee:ff", "ip": "not-an-ip"}]}`,
		},
		{
			name:  "bad reservation MAC",
			input: `{"ip_address_reservations": [{"name": "x", "mac": "nope", "ip": "192.168.0.201"}]}`,
		},
		{
			name:  "bad friendly name MAC",
			input: `{"friendly_names": [{"name": "x", "mac": "nope"}]}`,
		},
		{
			name:  "reversed pool range",
			input: `{"dhcp_pool": [{"start_ip": "192.168.0.100", "end_ip": "192.168.0.10"}]}`,
		},
		{
			name:  "out of range port",
			input: `{"web_ui_port": 123456}`,
		},
		{
			name:  "bad refresh interval",
			input: `{"refresh_interval": "soon"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts Options
			assert.Error(t, json.Unmarshal([]byte(tt.input), &opts))
		})
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := LoadOptions("/nonexistent/options.json")
	assert.Error(t, err)
}
