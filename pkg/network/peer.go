package network

import (
	"fmt"
	"net"
	"net/netip"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// PeerInfo describes a chat participant. It is a value type; use
// WithNickname to derive an updated copy.
type PeerInfo struct {
	Addr     netip.Addr `json:"address"`
	Port     int        `json:"port"`
	Nickname string     `json:"nickname"`
	ChatID   string     `json:"chat_id"`
}

// WithNickname returns a copy of p with its nickname replaced
func (p PeerInfo) WithNickname(nickname string) PeerInfo {
	p.Nickname = nickname
	return p
}

// UDPAddr returns the peer's UDP endpoint
func (p PeerInfo) UDPAddr() *net.UDPAddr {
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(p.Addr, uint16(p.Port)))
}

// Multiaddr renders the peer endpoint as /ip4/<addr>/udp/<port>
func (p PeerInfo) Multiaddr() (ma.Multiaddr, error) {
	return manet.FromNetAddr(p.UDPAddr())
}

func (p PeerInfo) String() string {
	if p.Nickname == "" {
		return p.Addr.String()
	}
	return fmt.Sprintf("%s (%s)", p.Nickname, p.Addr)
}

// addrFromNet extracts the IP of a datagram source
func addrFromNet(addr net.Addr) (netip.Addr, int, bool) {
	udp, ok := addr.(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, 0, false
	}
	ip, ok := netip.AddrFromSlice(udp.IP)
	if !ok {
		return netip.Addr{}, 0, false
	}
	return ip.Unmap(), udp.Port, true
}
