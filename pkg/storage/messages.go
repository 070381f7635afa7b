package storage

import (
	"database/sql"
	"fmt"

	"github.com/smallchat/smallchat-node/pkg/crypto"
)

// ===== MESSAGE OPERATIONS =====

// SaveMessage stores a chat line and sets msg.ID
func (db *HistoryDB) SaveMessage(msg *StoredMessage) error {
	if msg.PeerAddress == "" {
		return fmt.Errorf("%w: message without peer address", ErrInvalidRecord)
	}
	if msg.Direction != DirectionIncoming && msg.Direction != DirectionOutgoing {
		return fmt.Errorf("%w: direction %q", ErrInvalidRecord, msg.Direction)
	}

	encryptedContent, err := crypto.AESEncrypt([]byte(msg.Content), db.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt content: %w", err)
	}

	query := `
		INSERT INTO messages (
			peer_address, nickname, direction, charset, content, timestamp
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := db.db.Exec(
		query,
		msg.PeerAddress,
		msg.Nickname,
		string(msg.Direction),
		msg.Charset,
		encryptedContent,
		msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	msg.ID = id
	return nil
}

// GetMessages returns the latest limit messages, oldest first
func (db *HistoryDB) GetMessages(limit int) ([]*StoredMessage, error) {
	query := `
		SELECT id, peer_address, nickname, direction, charset, content, timestamp
		FROM (
			SELECT * FROM messages ORDER BY timestamp DESC, id DESC LIMIT ?
		) ORDER BY timestamp ASC, id ASC
	`

	rows, err := db.db.Query(query, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanMessages(rows)
}

// GetMessagesFrom returns the latest limit messages exchanged with address, oldest first
func (db *HistoryDB) GetMessagesFrom(address string, limit int) ([]*StoredMessage, error) {
	query := `
		SELECT id, peer_address, nickname, direction, charset, content, timestamp
		FROM (
			SELECT * FROM messages WHERE peer_address = ?
			ORDER BY timestamp DESC, id DESC LIMIT ?
		) ORDER BY timestamp ASC, id ASC
	`

	rows, err := db.db.Query(query, address, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanMessages(rows)
}

func (db *HistoryDB) scanMessages(rows *sql.Rows) ([]*StoredMessage, error) {
	var messages []*StoredMessage
	for rows.Next() {
		var msg StoredMessage
		var direction string
		var encryptedContent []byte

		err := rows.Scan(
			&msg.ID,
			&msg.PeerAddress,
			&msg.Nickname,
			&direction,
			&msg.Charset,
			&encryptedContent,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}

		content, err := crypto.AESDecrypt(encryptedContent, db.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt message %d: %w", msg.ID, err)
		}

		msg.Direction = Direction(direction)
		msg.Content = string(content)
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}
