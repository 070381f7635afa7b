package storage

import (
	"fmt"
)

// EventKind names a recorded session event
type EventKind string

const (
	EventJoined            EventKind = "joined"
	EventOnline            EventKind = "online"
	EventLeft              EventKind = "left"
	EventMalformedNotified EventKind = "malformed_notified"
	EventMalformedReceived EventKind = "malformed_received"
	EventConflict          EventKind = "conflict"
)

// StoredEvent is a session event in the history
type StoredEvent struct {
	ID          int64     `json:"id"`
	Kind        EventKind `json:"kind"`
	PeerAddress string    `json:"peer_address"`
	Detail      string    `json:"detail,omitempty"`
	Timestamp   int64     `json:"timestamp"`
}

// RecordEvent appends an event and sets ev.ID
func (db *HistoryDB) RecordEvent(ev *StoredEvent) error {
	if ev.Kind == "" {
		return fmt.Errorf("%w: event without kind", ErrInvalidRecord)
	}

	result, err := db.db.Exec(
		"INSERT INTO events (kind, peer_address, detail, timestamp) VALUES (?, ?, ?, ?)",
		string(ev.Kind),
		ev.PeerAddress,
		ev.Detail,
		ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	ev.ID, err = result.LastInsertId()
	return err
}

// GetEvents returns the latest limit events, newest first
func (db *HistoryDB) GetEvents(limit int) ([]*StoredEvent, error) {
	query := `
		SELECT id, kind, peer_address, COALESCE(detail, ''), timestamp
		FROM events ORDER BY timestamp DESC, id DESC LIMIT ?
	`

	rows, err := db.db.Query(query, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*StoredEvent
	for rows.Next() {
		var ev StoredEvent
		var kind string
		if err := rows.Scan(&ev.ID, &kind, &ev.PeerAddress, &ev.Detail, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Kind = EventKind(kind)
		events = append(events, &ev)
	}

	return events, rows.Err()
}
