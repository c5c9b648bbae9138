package webui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/b0ch3nski/go-dnsmasq-utils/dnsmasq"
	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"

	"dhcpd-lease-report/pkg/leasedb"
	"dhcpd-lease-report/pkg/logger"
	"dhcpd-lease-report/pkg/trackerdb"
)

const websocketRelativeURL = "/ws"

// LeaseFormat selects which lease-file grammar serve mode follows.
type LeaseFormat string

const (
	FormatISC     LeaseFormat = "isc"
	FormatDnsmasq LeaseFormat = "dnsmasq"
)

// Backend is the serve-mode engine: it watches the lease file, keeps the
// most recent parse in memory and pushes it over websockets to every
// connected dashboard.
type Backend struct {
	logger  *logger.CustomLogger
	options Options

	leaseFile string
	format    LeaseFormat

	// the actual HTTP server
	server       http.Server
	upgrader     websocket.Upgrader
	htmlTemplate *template.Template

	// map of connected websockets
	clients     map[*websocket.Conn]bool
	clientsLock sync.Mutex

	// the most updated view on DHCP clients currently available
	clientData     []ClientData
	clientDataLock sync.Mutex

	// DB tracking every DHCP client ever seen, used for the "past clients" feature
	tracker *trackerdb.TrackerDB

	// channel used to signal that the client table changed and should be broadcast
	broadcastCh chan struct{}

	// channel linking the lease file watcher with the lease processor
	leasesCh chan []*leasedb.Lease
}

// NewBackend assembles a Backend; call ListenAndServe to start it.
func NewBackend(log *logger.CustomLogger, opts Options, leaseFile string, format LeaseFormat, tracker *trackerdb.TrackerDB) *Backend {
	return &Backend{
		logger:       log,
		options:      opts,
		leaseFile:    leaseFile,
		format:       format,
		htmlTemplate: template.Must(template.New("index").Parse(indexHTML)),
		clients:      make(map[*websocket.Conn]bool),
		tracker:      tracker,
		broadcastCh:  make(chan struct{}, 1),
		leasesCh:     make(chan []*leasedb.Lease),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		server: http.Server{
			ReadHeaderTimeout: 3 * time.Second,
		},
	}
}

// ListenAndServe starts the whole backend: the web server, the websocket
// endpoint and the lease file watcher. It blocks until the HTTP server stops
// or ctx is cancelled.
func (b *Backend) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", b.logRequestMiddleware(http.HandlerFunc(b.renderPage)))
	mux.HandleFunc(websocketRelativeURL, b.handleWebSocketConn)

	// take a baseline before any watch hook is installed; a missing lease
	// file is not fatal here, dhcpd may simply not have started yet
	if err := b.reloadLeaseFile(); err != nil {
		b.logger.Warnf("initial lease file read failed: %s", err.Error())
	}

	go func() {
		if err := b.watchLeaseFile(ctx); err != nil {
			b.logger.Fatalf("error while watching lease file: %s", err.Error())
		}
	}()
	go b.processLeaseUpdates(ctx)
	go b.broadcastUpdatesToClients(ctx)

	b.logger.Infof("Starting server to listen on port %d", b.options.webUIPort)
	b.server.Addr = fmt.Sprintf(":%d", b.options.webUIPort)
	b.server.Handler = mux

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = b.server.Shutdown(shutdownCtx)
	}()

	// Shutdown is only ever triggered by ctx cancellation, so ErrServerClosed
	// here means a clean stop, not a failure
	if err := b.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (b *Backend) logRequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// this logging is quite verbose, enable only if explicitly asked so
		if b.options.logWebUI {
			b.logger.Infof("Method: %s, URL: %s, Host: %s, RemoteAddr: %s",
				r.Method, r.URL.String(), r.Host, r.RemoteAddr)
		}
		next.ServeHTTP(w, r)
	})
}

// reloadLeaseFile re-parses the whole lease database and rebuilds the
// in-memory client table.
func (b *Backend) reloadLeaseFile() error {
	var (
		db  *leasedb.LeaseDB
		err error
	)
	switch b.format {
	case FormatDnsmasq:
		db, err = leasedb.LoadDnsmasqLeases(b.leaseFile)
	default:
		db, err = leasedb.LoadLeases(b.leaseFile)
	}
	if err != nil {
		return err
	}

	if skipped := db.Skipped(); skipped > 0 {
		b.logger.Debugf("skipped %d malformed lease blocks", skipped)
	}

	b.storeClientData(db.Leases())
	return nil
}

// watchLeaseFile pushes a fresh batch of leases on leasesCh every time the
// lease file changes on disk.
func (b *Backend) watchLeaseFile(ctx context.Context) error {
	if b.format == FormatDnsmasq {
		// the dnsmasq helper library ships its own inotify watch
		return dnsmasq.WatchLeases(ctx, b.leaseFile, b.dnsmasqAdapter(ctx))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// watch the directory rather than the file: dhcpd periodically rewrites
	// the database via rename, which would silently detach a file watch
	if err := watcher.Add(filepath.Dir(b.leaseFile)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", b.leaseFile, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != b.leaseFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			db, err := leasedb.LoadLeases(b.leaseFile)
			if err != nil {
				b.logger.Warnf("failed to re-read lease file: %s", err.Error())
				continue
			}
			select {
			case b.leasesCh <- db.Leases():
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warnf("lease file watcher error: %s", err.Error())
		}
	}
}

// dnsmasqAdapter bridges the dnsmasq watcher channel into leasesCh,
// converting record types along the way.
func (b *Backend) dnsmasqAdapter(ctx context.Context) chan []*dnsmasq.Lease {
	ch := make(chan []*dnsmasq.Lease)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case batch, ok := <-ch:
				if !ok {
					return
				}
				select {
				case b.leasesCh <- leasedb.FromDnsmasq(batch).Leases():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

// processLeaseUpdates reads from leasesCh, refreshes the in-memory table
// plus the tracker DB, and signals the broadcaster.
func (b *Backend) processLeaseUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case leases := <-b.leasesCh:
			b.logger.Infof("Lease file changed... updated table contains %d records", len(leases))
			b.storeClientData(leases)

			// wake the broadcaster; a pending signal is enough
			select {
			case b.broadcastCh <- struct{}{}:
			default:
			}
		}
	}
}

// storeClientData converts parsed leases into annotated client entries and
// records every client carrying a MAC into the tracker DB.
func (b *Backend) storeClientData(leases []*leasedb.Lease) {
	now := time.Now().UTC()
	data := make([]ClientData, 0, len(leases))
	for _, l := range leases {
		if l.State != leasedb.StateActive {
			// free/expired/abandoned blocks stay in the file for a while;
			// the dashboard shows only what is currently bound
			continue
		}

		d := ClientData{Lease: l}
		d.IsInsideDHCPPool = b.options.pool.Contains(l.IPAddr)
		_, d.HasStaticIP = b.options.reservationsByIP[l.IPAddr]
		d.FriendlyName = b.friendlyNameFor(l.MacAddr, l.Hostname)
		data = append(data, d)

		if l.MacAddr == nil {
			continue
		}
		err := b.tracker.Track(trackerdb.Client{
			MacAddr:  l.MacAddr,
			Hostname: l.Hostname,
			LastIP:   l.IPAddr.String(),
			LastSeen: now,
		})
		if err != nil {
			b.logger.Warnf("failed to track client %s: %s", l.MacAddr.String(), err.Error())
		}
	}

	// sort the slice by IP (the user can sort again later based on some other criteria)
	slices.SortFunc(data, func(a, c ClientData) int {
		return a.Lease.IPAddr.Compare(c.Lease.IPAddr)
	})

	b.clientDataLock.Lock()
	b.clientData = data
	b.clientDataLock.Unlock()

	b.logger.Debugf("Updated DHCP client table with %d entries", len(data))
}

// friendlyNameFor picks the best display name available for a client:
// the options-file override wins, then the reservation name, then whatever
// hostname the client advertised.
func (b *Backend) friendlyNameFor(mac net.HardwareAddr, hostname string) string {
	if mac == nil {
		return hostname
	}
	if fn, ok := b.options.friendlyNames[mac.String()]; ok {
		return fn.Name
	}
	if r, ok := b.options.reservationsByMAC[mac.String()]; ok && r.Name != "" {
		return r.Name
	}
	return hostname
}

// generateWebSocketMessage snapshots the current table and combines it with
// the "past clients" view from the tracker DB.
func (b *Backend) generateWebSocketMessage() WebSocketMessage {
	// copy under lock to avoid racing the lease watcher goroutine
	b.clientDataLock.Lock()
	currentClients := make([]ClientData, len(b.clientData))
	copy(currentClients, b.clientData)
	b.clientDataLock.Unlock()

	aliveMACs := make([]net.HardwareAddr, 0, len(currentClients))
	for _, c := range currentClients {
		if c.Lease.MacAddr != nil {
			aliveMACs = append(aliveMACs, c.Lease.MacAddr)
		}
	}

	past, err := b.tracker.GetPastClients(aliveMACs)
	if err != nil {
		b.logger.Warnf("failed to get list of past DHCP clients: %s", err.Error())
		past = []trackerdb.Client{}
	}

	pastClients := make([]PastClientData, len(past))
	for i, p := range past {
		pastClients[i].PastInfo = p
		pastClients[i].FriendlyName = b.friendlyNameFor(p.MacAddr, p.Hostname)
		if pastClients[i].FriendlyName == "" {
			pastClients[i].FriendlyName = "N/A"
		}
	}

	// most recently seen first
	slices.SortFunc(pastClients, func(a, c PastClientData) int {
		return int(c.PastInfo.LastSeen.Unix() - a.PastInfo.LastSeen.Unix())
	})

	return WebSocketMessage{
		CurrentClients: currentClients,
		PastClients:    pastClients,
	}
}

// handleWebSocketConn registers a new dashboard connection and keeps it
// alive until the peer goes away.
func (b *Backend) handleWebSocketConn(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warnf("failed to upgrade websocket connection: %s", err.Error())
		return
	}
	defer func() {
		_ = ws.Close()
	}()

	msg := b.generateWebSocketMessage()
	b.logger.Infof("Received new websocket client: pushing %d/%d current/past DHCP clients to it",
		len(msg.CurrentClients), len(msg.PastClients))

	// push the current status before registering the connection: a stalled
	// peer must not hold clientsLock and stall the broadcast loop with it,
	// and an unregistered connection cannot race the broadcaster's writes
	if err := ws.WriteJSON(msg); err != nil {
		b.logger.Warnf("failed to push initial data to the new websocket: %s", err.Error())
		// keep going, the connection gets dropped in the read loop below
		// if the error keeps popping up
	}

	b.clientsLock.Lock()
	b.clients[ws] = true
	b.clientsLock.Unlock()

	// listen till the end of the websocket
	for {
		var incoming WebSocketMessage
		if err := ws.ReadJSON(&incoming); err != nil {
			b.clientsLock.Lock()
			delete(b.clients, ws)
			b.clientsLock.Unlock()
			break
		}
	}
}

// broadcastUpdatesToClients pushes a fresh message to every connected
// websocket whenever the table changes, and on a fixed cadence so that
// countdowns stay current and the TCP connections stay warm.
func (b *Backend) broadcastUpdatesToClients(ctx context.Context) {
	var tickerCh <-chan time.Time
	if b.options.refreshInterval > 0 {
		ticker := time.NewTicker(b.options.refreshInterval)
		defer ticker.Stop()
		tickerCh = ticker.C
	} else {
		// refresh disabled: a channel that never delivers
		tickerCh = make(<-chan time.Time)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.broadcastCh:
		case <-tickerCh:
		}

		b.clientsLock.Lock()
		numClients := len(b.clients)
		b.clientsLock.Unlock()
		if numClients == 0 {
			continue
		}

		msg := b.generateWebSocketMessage()

		numSuccess := 0
		b.clientsLock.Lock()
		for client := range b.clients {
			if err := client.WriteJSON(msg); err != nil {
				b.logger.Warnf("failed writing JSON to websocket: %s", err.Error())
				_ = client.Close()
				delete(b.clients, client)
			} else {
				numSuccess++
			}
		}
		b.clientsLock.Unlock()

		if b.options.logWebUI {
			b.logger.Infof("Pushed %d/%d current/past DHCP clients to %d websockets",
				len(msg.CurrentClients), len(msg.PastClients), numSuccess)
		}
	}
}

// renderPage serves the dashboard page from the embedded template.
func (b *Backend) renderPage(w http.ResponseWriter, r *http.Request) {
	data := templateData{
		// relative URL: the browser picks ws/wss to match the page scheme
		WebSocketURI:    websocketRelativeURL,
		LeaseFile:       b.leaseFile,
		PoolSize:        b.options.pool.Size(),
		RefreshInterval: b.options.refreshInterval.String(),
	}

	if err := b.htmlTemplate.Execute(w, data); err != nil {
		b.logger.Warnf("error while rendering template: %s", err.Error())
	}
}
