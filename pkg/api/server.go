// Package api provides the HTTP control API of a SmallChat node
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smallchat/smallchat-node/pkg/network"
	"github.com/smallchat/smallchat-node/pkg/storage"
)

// Session is the part of a network.Session the API drives
type Session interface {
	Self() network.PeerInfo
	Peers() []network.PeerInfo
	Hello()
	HelloTo(addr netip.Addr)
	Send(text string)
	SendTo(addr netip.Addr, text string)
	BroadcastSend(text string)
}

// Server represents the HTTP control API server
type Server struct {
	session    Session
	history    *storage.HistoryDB // nil when history is disabled
	recorder   *storage.Recorder
	charset    string
	router     *gin.Engine
	limiter    *RateLimiter
	port       int
	httpServer *http.Server
}

// Config holds server configuration
type Config struct {
	Port         int
	EnableCORS   bool
	RateLimit    int // Requests per minute
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Charset recorded for outgoing lines
	Charset string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		RateLimit:    100,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Charset:      "utf-8",
	}
}

// NewServer creates a new HTTP API server. history may be nil.
func NewServer(session Session, history *storage.HistoryDB, recorder *storage.Recorder, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		session:  session,
		history:  history,
		recorder: recorder,
		charset:  config.Charset,
		router:   gin.New(),
		port:     config.Port,
	}

	server.setupMiddleware(config)
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(config *Config) {
	if config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}

	if config.RateLimit > 0 {
		s.limiter = NewRateLimiter(config.RateLimit)
		s.router.Use(RateLimitMiddleware(s.limiter))
	}

	s.router.Use(LoggingMiddleware())
	s.router.Use(gin.Recovery())
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/session", s.handleSession)
		v1.GET("/peers", s.handlePeers)

		v1.POST("/hello", s.handleHello)
		v1.POST("/hello/:addr", s.handleHelloTo)

		v1.POST("/messages", s.handleSend)
		v1.POST("/broadcast", s.handleBroadcast)

		history := v1.Group("/history")
		{
			history.GET("/messages", s.handleHistoryMessages)
			history.GET("/events", s.handleHistoryEvents)
		}
	}

	// Health check endpoint (outside versioning)
	s.router.GET("/health", s.handleHealth)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	go func() {
		log.Printf("🌐 HTTP API server starting on port %d...", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("🛑 Shutting down HTTP API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(shutdownCtx)
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
