package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/smallchat/smallchat-node/pkg/api"
	"github.com/smallchat/smallchat-node/pkg/config"
	"github.com/smallchat/smallchat-node/pkg/crypto"
	"github.com/smallchat/smallchat-node/pkg/network"
	"github.com/smallchat/smallchat-node/pkg/protocol"
	"github.com/smallchat/smallchat-node/pkg/storage"
)

func main() {
	printBanner()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	broadcast, err := cfg.BroadcastAddr()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	key := crypto.KeyFromPassphrase(cfg.Passphrase)
	if cfg.Passphrase == "" {
		log.Println("⚠️  No passphrase set, anyone on the network can read this room")
	}

	// Open history if enabled
	var (
		history  *storage.HistoryDB
		recorder *storage.Recorder
	)
	handlers := consoleHandlers()

	if cfg.HistoryEnabled() {
		passphrase := cfg.History.Passphrase
		if passphrase == "" {
			passphrase = cfg.Passphrase
		}

		history, err = storage.NewHistoryDB(cfg.History.Path, passphrase)
		if err != nil {
			log.Fatalf("Failed to open history: %v", err)
		}
		recorder = storage.NewRecorder(history, nil)
		handlers = network.ChainHandlers(handlers, recorder.Handlers())
		log.Printf("📚 History enabled at %s", cfg.History.Path)
	}

	sessionCfg := network.DefaultConfig()
	sessionCfg.Nickname = cfg.Nickname
	sessionCfg.ChatID = cfg.ChatID
	sessionCfg.Key = key
	sessionCfg.Broadcast = broadcast
	sessionCfg.Port = cfg.Port
	sessionCfg.FirstHello = cfg.FirstHello
	sessionCfg.Charset = cfg.Charset
	sessionCfg.Handlers = handlers

	session, err := network.NewSession(sessionCfg)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	log.Printf("✓ Joined %q as %s on UDP port %d", cfg.ChatID, cfg.Nickname, cfg.Port)

	// Start the control API if enabled
	ctx, cancel := context.WithCancel(context.Background())
	apiDone := make(chan struct{})
	if cfg.API.Enabled {
		apiCfg := api.DefaultConfig()
		apiCfg.Port = cfg.API.Port
		apiCfg.EnableCORS = cfg.API.CORS
		apiCfg.RateLimit = cfg.API.RateLimit
		apiCfg.Charset = cfg.Charset

		server := api.NewServer(session, history, recorder, apiCfg)
		go func() {
			defer close(apiDone)
			if err := server.Start(ctx); err != nil {
				log.Printf("Error stopping API server: %v", err)
			}
		}()
	} else {
		close(apiDone)
	}

	go readConsole(session, recorder, cfg.Charset)

	printHelp()

	waitForShutdown(cancel, apiDone, session, history)
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════════╗")
	fmt.Println("║               SmallChat Node v1.0                 ║")
	fmt.Println("║        Encrypted serverless LAN chat rooms        ║")
	fmt.Println("╚═══════════════════════════════════════════════════╝")
	fmt.Println()
}

func printHelp() {
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("   Type a line to send it to every peer")
	fmt.Println("   /hello          broadcast a Hello")
	fmt.Println("   /peers          list known peers")
	fmt.Println("   /all <text>     broadcast a message")
	fmt.Println("   /quit           leave the room")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}

// consoleHandlers prints chat lines to the terminal. Membership changes
// are already logged by the session.
func consoleHandlers() network.Handlers {
	return network.Handlers{
		OnMessage: func(peer network.PeerInfo, pdu *protocol.Pdu, text string) {
			fmt.Printf("<%s> %s\n", peer.Nickname, text)
		},
		OnMalformedNotified: func(peer network.PeerInfo, payload []byte) {
			log.Printf("⚠️  %s could not read one of our packets, check the passphrase", peer)
		},
	}
}

// readConsole sends stdin lines until EOF or /quit
func readConsole(session *network.Session, recorder *storage.Recorder, charset string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
			return
		case line == "/hello":
			session.Hello()
		case line == "/peers":
			peers := session.Peers()
			fmt.Printf("%d peer(s)\n", len(peers))
			for _, p := range peers {
				fmt.Printf("   %s\n", p)
			}
		case strings.HasPrefix(line, "/all "):
			text := strings.TrimPrefix(line, "/all ")
			session.BroadcastSend(text)
			recordOutgoing(recorder, session, charset, text)
		default:
			session.Send(line)
			recordOutgoing(recorder, session, charset, line)
		}
	}
}

func recordOutgoing(recorder *storage.Recorder, session *network.Session, charset, text string) {
	if recorder == nil {
		return
	}
	if err := recorder.RecordOutgoing("", session.Self().Nickname, charset, text); err != nil {
		log.Printf("History: failed to record outgoing message: %v", err)
	}
}

func waitForShutdown(cancel context.CancelFunc, apiDone <-chan struct{}, session *network.Session, history *storage.HistoryDB) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan

	fmt.Println()
	log.Println("Shutting down gracefully...")

	// Stop the API first so no request races the session shutdown
	cancel()
	<-apiDone

	if err := session.Shutdown(); err != nil {
		log.Printf("Error stopping session: %v", err)
	} else {
		log.Println("✓ Session stopped")
	}

	if history != nil {
		if err := history.Close(); err != nil {
			log.Printf("Error closing history: %v", err)
		} else {
			log.Println("✓ History closed")
		}
	}

	log.Println("Goodbye! 👋")
	os.Exit(0)
}
