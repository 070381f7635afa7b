package network

import (
	"log"
	"net/netip"

	"github.com/smallchat/smallchat-node/pkg/protocol"
)

func (s *Session) handleHello(sender PeerInfo, pdu *protocol.Pdu, raw []byte) {
	nickname, err := pdu.Text()
	if err != nil {
		s.handleMalformed(sender, raw, err)
		return
	}

	s.sendText(sender.Addr, protocol.TypeWelcome, s.self.Nickname)

	peer := sender.WithNickname(nickname)
	if s.Add(peer, true) {
		log.Printf("👋 %s joined", peer)
		s.handlers.peerJoined(peer)
	}
}

func (s *Session) handleWelcome(sender PeerInfo, pdu *protocol.Pdu, raw []byte) {
	nickname, err := pdu.Text()
	if err != nil {
		s.handleMalformed(sender, raw, err)
		return
	}

	peer := sender.WithNickname(nickname)
	if s.Add(peer, true) {
		log.Printf("%s is online", peer)
		s.handlers.peerOnline(peer)
	}
}

func (s *Session) handleLeave(sender PeerInfo) {
	s.dir.remove(sender.Addr)
	log.Printf("%s left", sender)
	s.handlers.peerLeft(sender)
}

func (s *Session) handleMessage(sender PeerInfo, pdu *protocol.Pdu, raw []byte) {
	text, err := pdu.Text()
	if err != nil {
		s.handleMalformed(sender, raw, err)
		return
	}
	s.handlers.message(sender, pdu, text)
}

// handleConflict reports that the rival named in the payload uses our
// nickname. The unspecified address names the reporter itself.
func (s *Session) handleConflict(reporter PeerInfo, pdu *protocol.Pdu, raw []byte) {
	text, err := pdu.Text()
	if err != nil {
		s.handleMalformed(reporter, raw, err)
		return
	}

	addr, err := netip.ParseAddr(text)
	if err != nil {
		s.handleMalformed(reporter, raw, err)
		return
	}
	addr = addr.Unmap()

	rival := reporter
	if !addr.IsUnspecified() {
		rival = PeerInfo{
			Addr:     addr,
			Port:     s.self.Port,
			Nickname: s.self.Nickname,
			ChatID:   s.self.ChatID,
		}
		if known, ok := s.dir.lookup(addr); ok {
			rival.Nickname = known.Nickname
		}
	}

	log.Printf("⚠️  Nickname conflict reported by %s: %s", reporter, rival)
	s.handlers.conflict(reporter, rival)
}

// handleMalformed answers an undecodable packet with a resync Hello while
// the budget allows, and always reports it.
func (s *Session) handleMalformed(sender PeerInfo, raw []byte, err error) {
	log.Printf("Malformed PDU from %s: %v", sender.Addr, err)

	if s.budget.take() {
		s.sendText(sender.Addr, protocol.TypeHello, s.self.Nickname)
	}

	s.handlers.malformedReceived(sender, raw)
}

// Add stores peer in the directory and reports whether it is new. An entry
// with the same address has its nickname replaced. With notifyConflict set,
// peers sharing the nickname are told about each other, and a clash with our
// own nickname is reported to the peer and to OnConflict.
func (s *Session) Add(peer PeerInfo, notifyConflict bool) bool {
	added, sameNickname := s.dir.upsert(peer)
	if !notifyConflict {
		return added
	}

	for _, other := range sameNickname {
		s.sendText(other.Addr, protocol.TypeConflictNotification, peer.Addr.String())
		s.sendText(peer.Addr, protocol.TypeConflictNotification, other.Addr.String())
	}

	if peer.Nickname == s.self.Nickname {
		s.sendText(peer.Addr, protocol.TypeConflictNotification, netip.IPv4Unspecified().String())
		log.Printf("⚠️  %s uses our nickname", peer)
		s.handlers.conflict(s.self, peer)
	}

	return added
}
