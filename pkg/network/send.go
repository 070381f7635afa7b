package network

import (
	"log"
	"net/netip"

	"github.com/smallchat/smallchat-node/pkg/protocol"
)

// Hello forgets every known peer and broadcasts our nickname to the room.
// Peers that are still present answer with a Welcome and are added again.
func (s *Session) Hello() {
	s.dir.clear()
	s.sendText(s.broadcast, protocol.TypeHello, s.self.Nickname)
}

// HelloTo unicasts our nickname to addr
func (s *Session) HelloTo(addr netip.Addr) {
	s.sendText(addr, protocol.TypeHello, s.self.Nickname)
}

// Send unicasts text to every peer in the directory
func (s *Session) Send(text string) {
	for _, peer := range s.dir.snapshot() {
		s.sendText(peer.Addr, protocol.TypeMessage, text)
	}
}

// SendTo unicasts text to addr
func (s *Session) SendTo(addr netip.Addr, text string) {
	s.sendText(addr, protocol.TypeMessage, text)
}

// BroadcastSend sends text to the broadcast address, reaching peers that
// are not in the directory yet
func (s *Session) BroadcastSend(text string) {
	s.sendText(s.broadcast, protocol.TypeMessage, text)
}

// SendPDU encodes pdu and sends it to addr on the session port.
// Encoding errors are returned; write errors are only logged.
func (s *Session) SendPDU(addr netip.Addr, pdu *protocol.Pdu) error {
	if s.closed() {
		return ErrSessionClosed
	}

	raw, err := s.codec.Encode(pdu)
	if err != nil {
		return err
	}

	dst := PeerInfo{Addr: addr, Port: s.self.Port}
	if _, err := s.conn.WriteTo(raw, dst.UDPAddr()); err != nil {
		log.Printf("Failed to send %v to %s: %v", pdu.Type, addr, err)
	}
	return nil
}

// leave tells every known peer we are going away
func (s *Session) leave() {
	for _, peer := range s.dir.snapshot() {
		s.sendText(peer.Addr, protocol.TypeLeave, "")
	}
}

func (s *Session) sendText(addr netip.Addr, t protocol.PduType, text string) {
	pdu, err := protocol.NewTextPdu(s.self.ChatID, t, s.charset, text)
	if err != nil {
		log.Printf("Failed to build %v: %v", t, err)
		return
	}
	if err := s.SendPDU(addr, pdu); err != nil {
		log.Printf("Failed to send %v to %s: %v", t, addr, err)
	}
}
