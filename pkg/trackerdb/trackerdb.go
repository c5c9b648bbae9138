package trackerdb

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	// import sqlite3 driver, so that database/sql package will know how to deal with "sqlite3" type
	_ "github.com/mattn/go-sqlite3"
)

// TrackerDB manages the database operations for DHCP client history.
type TrackerDB struct {
	DB *sql.DB
}

// NewTrackerDB opens (creating if needed) the tracker database at dbPath.
func NewTrackerDB(dbPath string) (*TrackerDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableQuery := `
	CREATE TABLE IF NOT EXISTS dhcp_clients (
		mac_addr TEXT PRIMARY KEY,
		hostname TEXT,
		last_ip TEXT,
		last_seen TEXT
	);
	`
	if _, err = db.Exec(createTableQuery); err != nil {
		return nil, err
	}

	return &TrackerDB{DB: db}, nil
}

// NewTestDB returns an in-memory DB for testing
func NewTestDB() TrackerDB {
	db, err := NewTrackerDB(":memory:")
	if err != nil {
		log.Fatal("Failed to initialize test database")
	}
	return *db
}

// NewTestDBWithData returns an in-memory DB for testing, pre-filled with the given clients
func NewTestDBWithData(clientsInDB []Client) TrackerDB {
	db := NewTestDB()
	for _, client := range clientsInDB {
		if err := db.Track(client); err != nil {
			log.Fatal("Failed to initialize test database")
		}
	}
	return db
}

func (d *TrackerDB) Close() error {
	return d.DB.Close()
}

// Track inserts the client, or refreshes its row when the MAC is already known.
func (d *TrackerDB) Track(client Client) error {
	insertQuery := `
	INSERT INTO dhcp_clients (mac_addr, hostname, last_ip, last_seen)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(mac_addr) DO UPDATE SET
		hostname=excluded.hostname,
		last_ip=excluded.last_ip,
		last_seen=excluded.last_seen;
	`

	_, err := d.DB.Exec(insertQuery,
		client.MacAddr.String(), client.Hostname, client.LastIP, client.LastSeen.Format(time.RFC3339))
	return err
}

// GetClient retrieves a tracked client by its MAC address.
func (d *TrackerDB) GetClient(macAddr net.HardwareAddr) (*Client, error) {
	query := `SELECT mac_addr, hostname, last_ip, last_seen FROM dhcp_clients WHERE mac_addr = ?`
	row := d.DB.QueryRow(query, macAddr.String())

	client, err := scanClient(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client with mac_addr %s not found", macAddr)
		}
		return nil, err
	}
	return client, nil
}

// GetPastClients returns the tracked clients that are NOT in the given list
// of MAC addresses, which identifies the clients currently present in the
// lease file. In other words: everyone we have ever seen who is gone now.
func (d *TrackerDB) GetPastClients(aliveClients []net.HardwareAddr) ([]Client, error) {
	rows, err := d.DB.Query("SELECT mac_addr, hostname, last_ip, last_seen FROM dhcp_clients")
	if err != nil {
		return nil, fmt.Errorf("failed to query dhcp_clients: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	aliveByMAC := make(map[string]struct{}, len(aliveClients))
	for _, mac := range aliveClients {
		aliveByMAC[mac.String()] = struct{}{}
	}

	// in case of zero results return an empty slice, not nil
	pastClients := make([]Client, 0)
	for rows.Next() {
		client, err := scanClient(rows.Scan)
		if err != nil {
			return nil, err
		}
		if _, alive := aliveByMAC[client.MacAddr.String()]; !alive {
			pastClients = append(pastClients, *client)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pastClients, nil
}

// scanClient reads one dhcp_clients row, converting the textual MAC and
// RFC3339 timestamp columns back into their Go types.
func scanClient(scan func(dest ...any) error) (*Client, error) {
	var (
		client   Client
		mac      string
		lastSeen string
	)

	if err := scan(&mac, &client.Hostname, &client.LastIP, &lastSeen); err != nil {
		return nil, err
	}

	var err error
	client.MacAddr, err = net.ParseMAC(mac)
	if err != nil {
		return nil, err
	}

	client.LastSeen, err = time.Parse(time.RFC3339, lastSeen)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_seen: %w", err)
	}

	return &client, nil
}
