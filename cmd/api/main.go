package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/xelth-com/eckscan/internal/buildinfo"
	"github.com/xelth-com/eckscan/internal/config"
	"github.com/xelth-com/eckscan/internal/database"
	"github.com/xelth-com/eckscan/internal/gateway"
	"github.com/xelth-com/eckscan/internal/handlers"
	"github.com/xelth-com/eckscan/internal/realtime"
	"github.com/xelth-com/eckscan/internal/utils"
	"github.com/xelth-com/eckscan/internal/websocket"
)

func main() {
	issueToken := flag.String("issue-token", "", "print a signed token for this terminal id and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of an issued terminal token")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *issueToken != "" {
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET must be set to issue terminal tokens")
		}
		token, err := utils.GenerateTerminalToken(*issueToken, cfg.JWTSecret, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(token)
		return
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. The stock rules live in server-side procedures; warn early if the schema lacks them
	checkCtx, cancelCheck := context.WithTimeout(context.Background(), 10*time.Second)
	missing, err := db.MissingProcedures(checkCtx)
	cancelCheck()
	switch {
	case err != nil:
		log.Printf("⚠️ Could not check backend procedures: %v", err)
	case len(missing) > 0:
		log.Printf("⚠️ Backend is missing procedures: %s (scans calling them will fail)", strings.Join(missing, ", "))
	default:
		log.Println("✅ Backend procedures present")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 4. Change feed: database NOTIFY and local scans -> broker -> terminals
	broker := realtime.NewBroker()
	hub := websocket.NewHub()
	go hub.Run(ctx)

	changes, unsubscribe := broker.Subscribe(256)
	defer unsubscribe()
	go hub.Forward(ctx, changes)

	if cfg.Realtime.Enabled {
		listener := realtime.NewListener(db.DSN, cfg.Realtime.Channel, cfg.Realtime.Retry, broker)
		go listener.Run(ctx)
		log.Printf("📡 Realtime: listening on channel %q", cfg.Realtime.Channel)
	}

	// 5. Set up HTTP router
	router := handlers.NewRouter(gateway.NewPostgres(db.DB), hub, broker, cfg)

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Scan station %s starting on port %s\n", buildinfo.Version, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	// Create context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Stop listener, hub and forwarders
	stop()

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
