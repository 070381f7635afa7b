package storage

import (
	"database/sql"
	"fmt"
)

// ===== PEER OPERATIONS =====

// UpsertPeer records that a peer is online. FirstSeen is kept from the
// first insert; the other fields are overwritten.
func (db *HistoryDB) UpsertPeer(peer *StoredPeer) error {
	if peer.Address == "" {
		return fmt.Errorf("%w: peer without address", ErrInvalidRecord)
	}

	query := `
		INSERT INTO peers (
			address, nickname, multiaddr, first_seen, last_seen, online
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			nickname = excluded.nickname,
			multiaddr = excluded.multiaddr,
			last_seen = excluded.last_seen,
			online = excluded.online
	`

	_, err := db.db.Exec(
		query,
		peer.Address,
		peer.Nickname,
		peer.Multiaddr,
		peer.FirstSeen,
		peer.LastSeen,
		boolToInt(peer.Online),
	)
	if err != nil {
		return fmt.Errorf("failed to save peer: %w", err)
	}

	return nil
}

// MarkPeerOffline flags a peer as gone
func (db *HistoryDB) MarkPeerOffline(address string, timestamp int64) error {
	result, err := db.db.Exec(
		"UPDATE peers SET online = 0, last_seen = ? WHERE address = ?",
		timestamp,
		address,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPeer returns the stored state of a single peer
func (db *HistoryDB) GetPeer(address string) (*StoredPeer, error) {
	query := `
		SELECT address, nickname, multiaddr, first_seen, last_seen, online
		FROM peers WHERE address = ?
	`

	row := db.db.QueryRow(query, address)

	var peer StoredPeer
	var online int
	err := row.Scan(
		&peer.Address,
		&peer.Nickname,
		&peer.Multiaddr,
		&peer.FirstSeen,
		&peer.LastSeen,
		&online,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	peer.Online = intToBool(online)
	return &peer, nil
}

// GetPeers returns every peer, most recently seen first
func (db *HistoryDB) GetPeers() ([]*StoredPeer, error) {
	query := `
		SELECT address, nickname, multiaddr, first_seen, last_seen, online
		FROM peers ORDER BY last_seen DESC, address ASC
	`

	rows, err := db.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var peers []*StoredPeer
	for rows.Next() {
		var peer StoredPeer
		var online int
		if err := rows.Scan(
			&peer.Address,
			&peer.Nickname,
			&peer.Multiaddr,
			&peer.FirstSeen,
			&peer.LastSeen,
			&online,
		); err != nil {
			return nil, err
		}
		peer.Online = intToBool(online)
		peers = append(peers, &peer)
	}

	return peers, rows.Err()
}
