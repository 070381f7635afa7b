package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallchat/smallchat-node/pkg/crypto"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Direction tells whether a message was received or sent
type Direction string

const (
	DirectionIncoming Direction = "in"
	DirectionOutgoing Direction = "out"
)

// HistoryDB is the local chat history. Message bodies are encrypted at rest.
type HistoryDB struct {
	db            *sql.DB
	encryptionKey []byte // Derived from the history passphrase
}

// StoredMessage is a chat line in the history
type StoredMessage struct {
	ID          int64     `json:"id"`
	PeerAddress string    `json:"peer_address"`
	Nickname    string    `json:"nickname"`
	Direction   Direction `json:"direction"`
	Charset     string    `json:"charset"`
	Content     string    `json:"content"`
	Timestamp   int64     `json:"timestamp"`
}

// StoredPeer is the last known state of a peer
type StoredPeer struct {
	Address   string `json:"address"`
	Nickname  string `json:"nickname"`
	Multiaddr string `json:"multiaddr"`
	FirstSeen int64  `json:"first_seen"`
	LastSeen  int64  `json:"last_seen"`
	Online    bool   `json:"online"`
}

// NewHistoryDB opens (or creates) the history database at dbPath
func NewHistoryDB(dbPath string, passphrase string) (*HistoryDB, error) {
	encryptionKey := crypto.DeriveStorageKey(passphrase)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	hdb := &HistoryDB{
		db:            db,
		encryptionKey: encryptionKey,
	}

	if err := hdb.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return hdb, nil
}

// initSchema creates database tables
func (db *HistoryDB) initSchema() error {
	schema := `
	-- Chat lines
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		peer_address TEXT NOT NULL,
		nickname TEXT NOT NULL,
		direction TEXT NOT NULL,
		charset TEXT NOT NULL,
		content BLOB NOT NULL,
		timestamp INTEGER NOT NULL
	);

	-- Peers ever seen in the room
	CREATE TABLE IF NOT EXISTS peers (
		address TEXT PRIMARY KEY,
		nickname TEXT NOT NULL,
		multiaddr TEXT NOT NULL,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL,
		online INTEGER NOT NULL DEFAULT 1
	);

	-- Session events (joins, leaves, conflicts, malformed input)
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		peer_address TEXT NOT NULL,
		detail TEXT,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_peer ON messages(peer_address, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp DESC);
	`

	if _, err := db.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *HistoryDB) Close() error {
	return db.db.Close()
}
