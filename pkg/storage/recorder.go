package storage

import (
	"errors"
	"fmt"
	"log"

	"github.com/benbjohnson/clock"

	"github.com/smallchat/smallchat-node/pkg/network"
	"github.com/smallchat/smallchat-node/pkg/protocol"
)

// Recorder writes session events to the history. Write failures are
// logged; they never reach the session.
type Recorder struct {
	db    *HistoryDB
	clock clock.Clock
}

// NewRecorder creates a recorder. A nil clock means the wall clock.
func NewRecorder(db *HistoryDB, clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	return &Recorder{db: db, clock: clk}
}

// Handlers returns session callbacks that record into the history.
// Combine them with other handlers using network.ChainHandlers.
func (r *Recorder) Handlers() network.Handlers {
	return network.Handlers{
		OnMessage: func(peer network.PeerInfo, pdu *protocol.Pdu, text string) {
			r.save(&StoredMessage{
				PeerAddress: peer.Addr.String(),
				Nickname:    peer.Nickname,
				Direction:   DirectionIncoming,
				Charset:     pdu.Charset,
				Content:     text,
			})
		},
		OnPeerJoined: func(peer network.PeerInfo) {
			r.peerUp(peer)
			r.event(EventJoined, peer, peer.Nickname)
		},
		OnPeerOnline: func(peer network.PeerInfo) {
			r.peerUp(peer)
			r.event(EventOnline, peer, peer.Nickname)
		},
		OnPeerLeft: func(peer network.PeerInfo) {
			err := r.db.MarkPeerOffline(peer.Addr.String(), r.now())
			if err != nil && !errors.Is(err, ErrNotFound) {
				log.Printf("History: failed to mark %s offline: %v", peer.Addr, err)
			}
			r.event(EventLeft, peer, peer.Nickname)
		},
		OnMalformedNotified: func(peer network.PeerInfo, payload []byte) {
			r.event(EventMalformedNotified, peer, fmt.Sprintf("%d bytes", len(payload)))
		},
		OnMalformedReceived: func(peer network.PeerInfo, raw []byte) {
			r.event(EventMalformedReceived, peer, fmt.Sprintf("%d bytes", len(raw)))
		},
		OnConflict: func(reporter, rival network.PeerInfo) {
			r.event(EventConflict, reporter, fmt.Sprintf("%s uses nickname %q", rival.Addr, rival.Nickname))
		},
	}
}

// RecordOutgoing stores a line we sent. An empty address means it went to every peer.
func (r *Recorder) RecordOutgoing(address, nickname, charset, text string) error {
	if address == "" {
		address = "*"
	}
	return r.db.SaveMessage(&StoredMessage{
		PeerAddress: address,
		Nickname:    nickname,
		Direction:   DirectionOutgoing,
		Charset:     charset,
		Content:     text,
		Timestamp:   r.now(),
	})
}

func (r *Recorder) now() int64 {
	return r.clock.Now().Unix()
}

func (r *Recorder) save(msg *StoredMessage) {
	msg.Timestamp = r.now()
	if err := r.db.SaveMessage(msg); err != nil {
		log.Printf("History: failed to save message from %s: %v", msg.PeerAddress, err)
	}
}

func (r *Recorder) peerUp(peer network.PeerInfo) {
	var maddr string
	if m, err := peer.Multiaddr(); err == nil {
		maddr = m.String()
	}

	now := r.now()
	err := r.db.UpsertPeer(&StoredPeer{
		Address:   peer.Addr.String(),
		Nickname:  peer.Nickname,
		Multiaddr: maddr,
		FirstSeen: now,
		LastSeen:  now,
		Online:    true,
	})
	if err != nil {
		log.Printf("History: failed to save peer %s: %v", peer.Addr, err)
	}
}

func (r *Recorder) event(kind EventKind, peer network.PeerInfo, detail string) {
	err := r.db.RecordEvent(&StoredEvent{
		Kind:        kind,
		PeerAddress: peer.Addr.String(),
		Detail:      detail,
		Timestamp:   r.now(),
	})
	if err != nil {
		log.Printf("History: failed to record %s event: %v", kind, err)
	}
}
