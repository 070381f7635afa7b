package api

import (
	"log"
	"net/http"
	"net/netip"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smallchat/smallchat-node/pkg/network"
)

// PeerView is the JSON form of a peer
type PeerView struct {
	Address   string `json:"address"`
	Port      int    `json:"port"`
	Nickname  string `json:"nickname"`
	Multiaddr string `json:"multiaddr,omitempty"`
}

// SessionView describes the local session
type SessionView struct {
	Nickname  string `json:"nickname"`
	ChatID    string `json:"chat_id"`
	Port      int    `json:"port"`
	PeerCount int    `json:"peer_count"`
	History   bool   `json:"history"`
}

// SendRequest is the body of POST /messages and POST /broadcast
type SendRequest struct {
	Text string `json:"text" binding:"required"`
	To   string `json:"to,omitempty"`
}

func newPeerView(p network.PeerInfo) PeerView {
	view := PeerView{
		Address:  p.Addr.String(),
		Port:     p.Port,
		Nickname: p.Nickname,
	}
	if m, err := p.Multiaddr(); err == nil {
		view.Multiaddr = m.String()
	}
	return view
}

// handleSession handles GET /api/v1/session
func (s *Server) handleSession(c *gin.Context) {
	self := s.session.Self()
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: SessionView{
			Nickname:  self.Nickname,
			ChatID:    self.ChatID,
			Port:      self.Port,
			PeerCount: len(s.session.Peers()),
			History:   s.history != nil,
		},
	})
}

// handlePeers handles GET /api/v1/peers
func (s *Server) handlePeers(c *gin.Context) {
	peers := s.session.Peers()
	views := make([]PeerView, 0, len(peers))
	for _, p := range peers {
		views = append(views, newPeerView(p))
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: views})
}

// handleHello handles POST /api/v1/hello
func (s *Server) handleHello(c *gin.Context) {
	s.session.Hello()
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Hello broadcast"})
}

// handleHelloTo handles POST /api/v1/hello/:addr
func (s *Server) handleHelloTo(c *gin.Context) {
	addr, ok := parseAddr(c, c.Param("addr"))
	if !ok {
		return
	}

	s.session.HelloTo(addr)
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Hello sent to " + addr.String()})
}

// handleSend handles POST /api/v1/messages
func (s *Server) handleSend(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if req.To == "" {
		s.session.Send(req.Text)
		s.recordOutgoing("", req.Text)
		c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Message sent to all peers"})
		return
	}

	addr, ok := parseAddr(c, req.To)
	if !ok {
		return
	}

	s.session.SendTo(addr, req.Text)
	s.recordOutgoing(addr.String(), req.Text)
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Message sent to " + addr.String()})
}

// handleBroadcast handles POST /api/v1/broadcast
func (s *Server) handleBroadcast(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	s.session.BroadcastSend(req.Text)
	s.recordOutgoing("", req.Text)
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Message broadcast"})
}

// handleHistoryMessages handles GET /api/v1/history/messages?limit=
func (s *Server) handleHistoryMessages(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	messages, err := s.history.GetMessages(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to read history",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: messages})
}

// handleHistoryEvents handles GET /api/v1/history/events?limit=
func (s *Server) handleHistoryEvents(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	events, err := s.history.GetEvents(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to read history",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: events})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"peers":  len(s.session.Peers()),
	})
}

func (s *Server) recordOutgoing(address, text string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordOutgoing(address, s.session.Self().Nickname, s.charset, text); err != nil {
		log.Printf("History: failed to record outgoing message: %v", err)
	}
}

func (s *Server) requireHistory(c *gin.Context) bool {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "History disabled",
			Message: "Start the node with a history path to enable it",
		})
		return false
	}
	return true
}

func parseAddr(c *gin.Context, s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid address",
			Message: "Address must be an IP address",
		})
		return netip.Addr{}, false
	}
	return addr, true
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid limit",
			Message: "Limit must be a non-negative number",
		})
		return 0, false
	}
	return limit, true
}
