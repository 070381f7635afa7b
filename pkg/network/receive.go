package network

import (
	"errors"
	"log"
	"net"
	"net/netip"
	"time"

	"github.com/smallchat/smallchat-node/pkg/protocol"
)

// receiveLoop reads datagrams until Shutdown or socket closure
func (s *Session) receiveLoop() {
	defer s.wg.Done()

	buf := make([]byte, protocol.MaxPduSize)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		// Without a deadline ReadFrom could block past Shutdown
		if err := s.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			if !errors.Is(err, net.ErrClosed) && !s.closed() {
				log.Printf("⚠️  Receive loop stopped: failed to set read deadline: %v", err)
			}
			return
		}

		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) || s.closed() {
				return
			}
			log.Printf("Receive error: %v", err)
			continue
		}

		raw := make([]byte, n)
		copy(raw, buf[:n])
		s.handlePacket(raw, from)
	}
}

// handlePacket filters, decodes and dispatches a single datagram
func (s *Session) handlePacket(raw []byte, from net.Addr) {
	addr, port, ok := addrFromNet(from)
	if !ok || s.isLocal(addr) {
		return
	}
	if !protocol.CheckChatID(raw, s.self.ChatID) {
		return
	}

	sender := PeerInfo{
		Addr:     addr,
		Port:     port,
		Nickname: s.dir.nickname(addr),
		ChatID:   s.self.ChatID,
	}

	pdu, err := s.codec.Decode(raw)
	if err != nil {
		s.handleMalformed(sender, raw, err)
		return
	}

	switch pdu.Type {
	case protocol.TypeHello:
		s.handleHello(sender, pdu, raw)
	case protocol.TypeWelcome:
		s.handleWelcome(sender, pdu, raw)
	case protocol.TypeLeave:
		s.handleLeave(sender)
	case protocol.TypeMessage:
		s.handleMessage(sender, pdu, raw)
	case protocol.TypeMalformedNotification:
		s.handlers.malformedNotified(sender, pdu.Payload)
	case protocol.TypeConflictNotification:
		s.handleConflict(sender, pdu, raw)
	}
}

// isLocal reports whether addr belongs to this host. Interface addresses are
// queried on every packet so that address changes are picked up.
func (s *Session) isLocal(addr netip.Addr) bool {
	if addr.IsLoopback() {
		return true
	}

	addrs, err := s.localAddrs()
	if err != nil {
		log.Printf("Failed to list local addresses: %v", err)
		return false
	}
	for _, a := range addrs {
		if a == addr {
			return true
		}
	}
	return false
}
