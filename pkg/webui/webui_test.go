package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"dhcpd-lease-report/pkg/ippool"
	"dhcpd-lease-report/pkg/leasedb"
	"dhcpd-lease-report/pkg/logger"
	"dhcpd-lease-report/pkg/trackerdb"
)

func newTestBackend() *Backend {
	opts := DefaultOptions()
	opts.pool = ippool.NewPool(ippool.NewRangeFromString("192.168.0.1", "192.168.0.100"))
	opts.reservationsByIP[netip.MustParseAddr("192.168.0.3")] = Reservation{
		Name: "client2-reserved",
		Mac:  "00:11:22:33:44:56",
		IP:   "192.168.0.3",
	}
	opts.reservationsByMAC["00:11:22:33:44:56"] = opts.reservationsByIP[netip.MustParseAddr("192.168.0.3")]
	opts.friendlyNames["00:11:22:33:44:55"] = FriendlyName{
		MacAddress: MustParseMAC("00:11:22:33:44:55"),
		Name:       "FriendlyClient1",
	}

	db := trackerdb.NewTestDB()
	return NewBackend(logger.NewCustomLogger("test"), opts, "/tmp/dhcpd.leases", FormatISC, &db)
}

func getTestLeases() []*leasedb.Lease {
	ends := time.Now().Add(time.Hour)
	return []*leasedb.Lease{
		{
			IPAddr:   netip.MustParseAddr("192.168.0.2"),
			Ends:     ends,
			State:    leasedb.StateActive,
			MacAddr:  MustParseMAC("00:11:22:33:44:55"),
			Hostname: "client1",
		},
		{
			IPAddr:   netip.MustParseAddr("192.168.0.3"),
			Ends:     ends,
			State:    leasedb.StateActive,
			MacAddr:  MustParseMAC("00:11:22:33:44:56"),
			Hostname: "client2",
		},
		{
			// outside the pool and in a state the dashboard does not show
			IPAddr:  netip.MustParseAddr("192.168.5.30"),
			Ends:    ends,
			State:   leasedb.StateFree,
			MacAddr: MustParseMAC("00:11:22:33:44:57"),
		},
	}
}

func TestStoreClientData(t *testing.T) {
	b := newTestBackend()
	b.storeClientData(getTestLeases())

	b.clientDataLock.Lock()
	data := b.clientData
	b.clientDataLock.Unlock()

	// the free lease must not show up
	assert.Len(t, data, 2)

	// entries come out sorted by IP
	assert.Equal(t, "192.168.0.2", data[0].Lease.IPAddr.String())
	assert.Equal(t, "192.168.0.3", data[1].Lease.IPAddr.String())

	// friendly-name override from the options file
	assert.Equal(t, "FriendlyClient1", data[0].FriendlyName)
	assert.False(t, data[0].HasStaticIP)
	assert.True(t, data[0].IsInsideDHCPPool)

	// reservation recognized both for the static flag and the display name
	assert.Equal(t, "client2-reserved", data[1].FriendlyName)
	assert.True(t, data[1].HasStaticIP)

	// active clients got recorded in the tracker DB, the free one did not
	_, err := b.tracker.GetClient(MustParseMAC("00:11:22:33:44:55"))
	assert.NoError(t, err)
	_, err = b.tracker.GetClient(MustParseMAC("00:11:22:33:44:57"))
	assert.Error(t, err)
}

func TestFriendlyNameFor(t *testing.T) {
	b := newTestBackend()

	assert.Equal(t, "FriendlyClient1", b.friendlyNameFor(MustParseMAC("00:11:22:33:44:55"), "client1"))
	assert.Equal(t, "client2-reserved", b.friendlyNameFor(MustParseMAC("00:11:22:33:44:56"), "client2"))
	assert.Equal(t, "plain-host", b.friendlyNameFor(MustParseMAC("de:ad:be:ef:00:01"), "plain-host"))
	assert.Equal(t, "no-mac-host", b.friendlyNameFor(nil, "no-mac-host"))
}

func TestListenAndServeCleanShutdown(t *testing.T) {
	b := newTestBackend()
	b.options.webUIPort = 0 // pick any free port

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- b.ListenAndServe(ctx)
	}()

	// give the server a moment to start listening before stopping it
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		// a ctx-initiated stop is a clean exit, not http.ErrServerClosed
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}

func TestWebSocketInitialPushNotGatedByBroadcastLock(t *testing.T) {
	b := newTestBackend()
	b.storeClientData(getTestLeases())

	srv := httptest.NewServer(http.HandlerFunc(b.handleWebSocketConn))
	defer srv.Close()

	// hold the registry lock the way the broadcast loop does while writing;
	// the initial push to a new peer must still get through
	b.clientsLock.Lock()
	defer b.clientsLock.Unlock()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)
	if resp != nil {
		defer func() {
			_ = resp.Body.Close()
		}()
	}
	defer func() {
		_ = ws.Close()
	}()

	assert.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg struct {
		CurrentClients []json.RawMessage `json:"current_clients"`
	}
	assert.NoError(t, ws.ReadJSON(&msg))
	assert.Len(t, msg.CurrentClients, 2)
}

func TestGenerateWebSocketMessage(t *testing.T) {
	b := newTestBackend()

	// seed the tracker with a client that will NOT appear in the lease file
	goneMAC := MustParseMAC("aa:aa:aa:aa:aa:01")
	assert.NoError(t, b.tracker.Track(trackerdb.Client{
		MacAddr:  goneMAC,
		Hostname: "gone-host",
		LastIP:   "192.168.0.99",
		LastSeen: time.Now().Add(-24 * time.Hour),
	}))

	b.storeClientData(getTestLeases())
	msg := b.generateWebSocketMessage()

	assert.Len(t, msg.CurrentClients, 2)
	assert.Len(t, msg.PastClients, 1)
	assert.Equal(t, goneMAC.String(), msg.PastClients[0].PastInfo.MacAddr.String())
	assert.Equal(t, "gone-host", msg.PastClients[0].FriendlyName)
}
