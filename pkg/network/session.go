package network

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/smallchat/smallchat-node/pkg/protocol"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrInvalidConfig = errors.New("invalid session configuration")
)

// pollInterval bounds how long the receive loop blocks before checking for shutdown
const pollInterval = 250 * time.Millisecond

// PacketConn is the subset of net.PacketConn a session needs
type PacketConn interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	WriteTo(p []byte, addr net.Addr) (n int, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Config holds the parameters of a session
type Config struct {
	Nickname  string
	ChatID    string
	Key       []byte
	Broadcast netip.Addr
	Port      int

	// FirstHello broadcasts a Hello as soon as the session starts
	FirstHello bool

	// Charset used for outgoing text
	Charset string

	Handlers Handlers

	// Optional dependencies. Zero values select the real implementations.
	Conn       PacketConn
	Rand       io.Reader
	Clock      clock.Clock
	LocalAddrs func() ([]netip.Addr, error)
}

// DefaultConfig returns a config with the protocol defaults
func DefaultConfig() *Config {
	return &Config{
		Broadcast:  netip.AddrFrom4([4]byte{255, 255, 255, 255}),
		Port:       protocol.DefaultPort,
		FirstHello: true,
		Charset:    protocol.DefaultCharset,
	}
}

// Session is one host's membership in a chat room. A single goroutine
// reads the socket, maintains the peer directory and dispatches events;
// send methods may be called from any goroutine.
type Session struct {
	self      PeerInfo
	broadcast netip.Addr
	charset   string

	codec      *protocol.Codec
	conn       PacketConn
	clock      clock.Clock
	localAddrs func() ([]netip.Addr, error)
	handlers   Handlers

	dir    *directory
	budget *malformedBudget

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewSession binds the socket, starts the receive loop and, if configured,
// broadcasts the first Hello.
func NewSession(cfg *Config) (*Session, error) {
	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	s.start()
	log.Printf("SmallChat session started: %s in %q on port %d", s.self.Nickname, s.self.ChatID, s.self.Port)

	if cfg.FirstHello {
		s.Hello()
	}

	return s, nil
}

// newSession builds a session without starting the receive loop
func newSession(cfg *Config) (*Session, error) {
	if cfg.Nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, cfg.Port)
	}

	charset := cfg.Charset
	if charset == "" {
		charset = protocol.DefaultCharset
	}
	if _, err := protocol.LookupCharset(charset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	codec, err := protocol.NewCodec(cfg.Key, cfg.Rand)
	if err != nil {
		return nil, err
	}

	broadcast := cfg.Broadcast
	if !broadcast.IsValid() {
		broadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	localAddrs := cfg.LocalAddrs
	if localAddrs == nil {
		localAddrs = interfaceAddrs
	}

	conn := cfg.Conn
	if conn == nil {
		conn, err = ListenUDP(cfg.Port)
		if err != nil {
			return nil, err
		}
	}

	return &Session{
		self: PeerInfo{
			Addr:     netip.AddrFrom4([4]byte{127, 0, 0, 1}),
			Port:     cfg.Port,
			Nickname: cfg.Nickname,
			ChatID:   cfg.ChatID,
		},
		broadcast:  broadcast,
		charset:    charset,
		codec:      codec,
		conn:       conn,
		clock:      clk,
		localAddrs: localAddrs,
		handlers:   cfg.Handlers,
		dir:        newDirectory(),
		budget:     newMalformedBudget(clk),
		done:       make(chan struct{}),
	}, nil
}

// ListenUDP binds the SmallChat port on all IPv4 interfaces.
// Go enables SO_BROADCAST on datagram sockets by default.
func ListenUDP(port int) (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP port %d: %w", port, err)
	}
	return conn, nil
}

func (s *Session) start() {
	s.wg.Add(1)
	go s.receiveLoop()
}

// Self returns the local peer info
func (s *Session) Self() PeerInfo {
	return s.self
}

// Peers returns a snapshot of the directory
func (s *Session) Peers() []PeerInfo {
	return s.dir.snapshot()
}

// Nickname returns the nickname known for addr, or "" if addr is not in the directory
func (s *Session) Nickname(addr netip.Addr) string {
	return s.dir.nickname(addr)
}

// Shutdown sends Leave to every known peer, stops the receive loop and
// releases the socket. It is safe to call more than once, but not from a
// Handlers callback: it would wait for the goroutine it runs on.
func (s *Session) Shutdown() error {
	s.closeOnce.Do(func() {
		s.leave()

		close(s.done)
		s.wg.Wait()

		s.closeErr = s.conn.Close()
		log.Printf("SmallChat session stopped: %s", s.self.Nickname)
	})
	return s.closeErr
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// interfaceAddrs lists the addresses assigned to this host
func interfaceAddrs() ([]netip.Addr, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	out := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			out = append(out, addr.Unmap())
		}
	}
	return out, nil
}
