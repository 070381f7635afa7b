package network

import (
	"github.com/smallchat/smallchat-node/pkg/protocol"
)

// Handlers holds the session event callbacks. Every callback runs on the
// session's receive goroutine and must return quickly. Nil callbacks are skipped.
//
// Shutdown waits for the receive goroutine, so a callback must not call it
// directly; use go session.Shutdown() instead.
type Handlers struct {
	// A Message PDU arrived; text is the payload decoded with the PDU charset
	OnMessage func(peer PeerInfo, pdu *protocol.Pdu, text string)

	// A previously unknown peer sent a Hello
	OnPeerJoined func(peer PeerInfo)

	// A previously unknown peer answered our Hello with a Welcome
	OnPeerOnline func(peer PeerInfo)

	OnPeerLeft func(peer PeerInfo)

	// A peer told us it could not decode something we sent
	OnMalformedNotified func(peer PeerInfo, payload []byte)

	// We could not decode a packet addressed to our chat
	OnMalformedReceived func(peer PeerInfo, raw []byte)

	// reporter says rival uses the same nickname as us
	OnConflict func(reporter, rival PeerInfo)
}

// ChainHandlers returns Handlers that invoke first and then second
func ChainHandlers(first, second Handlers) Handlers {
	return Handlers{
		OnMessage: func(peer PeerInfo, pdu *protocol.Pdu, text string) {
			first.message(peer, pdu, text)
			second.message(peer, pdu, text)
		},
		OnPeerJoined: func(peer PeerInfo) {
			first.peerJoined(peer)
			second.peerJoined(peer)
		},
		OnPeerOnline: func(peer PeerInfo) {
			first.peerOnline(peer)
			second.peerOnline(peer)
		},
		OnPeerLeft: func(peer PeerInfo) {
			first.peerLeft(peer)
			second.peerLeft(peer)
		},
		OnMalformedNotified: func(peer PeerInfo, payload []byte) {
			first.malformedNotified(peer, payload)
			second.malformedNotified(peer, payload)
		},
		OnMalformedReceived: func(peer PeerInfo, raw []byte) {
			first.malformedReceived(peer, raw)
			second.malformedReceived(peer, raw)
		},
		OnConflict: func(reporter, rival PeerInfo) {
			first.conflict(reporter, rival)
			second.conflict(reporter, rival)
		},
	}
}

func (h Handlers) message(peer PeerInfo, pdu *protocol.Pdu, text string) {
	if h.OnMessage != nil {
		h.OnMessage(peer, pdu, text)
	}
}

func (h Handlers) peerJoined(peer PeerInfo) {
	if h.OnPeerJoined != nil {
		h.OnPeerJoined(peer)
	}
}

func (h Handlers) peerOnline(peer PeerInfo) {
	if h.OnPeerOnline != nil {
		h.OnPeerOnline(peer)
	}
}

func (h Handlers) peerLeft(peer PeerInfo) {
	if h.OnPeerLeft != nil {
		h.OnPeerLeft(peer)
	}
}

func (h Handlers) malformedNotified(peer PeerInfo, payload []byte) {
	if h.OnMalformedNotified != nil {
		h.OnMalformedNotified(peer, payload)
	}
}

func (h Handlers) malformedReceived(peer PeerInfo, raw []byte) {
	if h.OnMalformedReceived != nil {
		h.OnMalformedReceived(peer, raw)
	}
}

func (h Handlers) conflict(reporter, rival PeerInfo) {
	if h.OnConflict != nil {
		h.OnConflict(reporter, rival)
	}
}
