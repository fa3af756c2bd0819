package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"trekconnect/auth"
	"trekconnect/gateway"
	"trekconnect/gateway/workers"
	"trekconnect/repositories"
	"trekconnect/sink"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// The pattern keeps every defer effective on exit and makes the wiring testable
// without touching the process exit code.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.SearchIndexPath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	// 3. Repositories & Auth
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	searchIndex := repositories.NewSearchIndex(writer, log)
	userRepository := repositories.NewUserRepository(db)
	tokens := auth.NewTokenManager([]byte(config.JWTSecret), config.TokenDuration)

	// 4. Hub, pipeline and permanent sinks
	sup := workers.NewSupervisor(log)
	registry := gateway.NewRegistry()

	hub := gateway.NewHub(log, sup, registry, messageRepository, searchIndex,
		config.NumberOfWorkers, config.BufferSize, config.SinkTimeout,
		config.ModerationCharReplacement, config.HealthInterval)
	hub.Add(
		sink.NewDiskSink(messageRepository, log),
		sink.NewSearchSink(searchIndex, log),
	)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Use an error channel to capture startup issues from both loops
	errChan := make(chan error, 2)

	go func() {
		if err := hub.Start(ctx); err != nil {
			errChan <- fmt.Errorf("hub failed to start: %w", err)
		}
	}()

	// 6. HTTP surface
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	gateway.NewHandler(log, hub, userRepository, tokens, config.SendBufferSize).Register(app)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	go func() {
		log.Info("Starting gateway", "address", address, "at", time.Now().UTC())
		if err := app.Listen(address); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Warn("HTTP shutdown did not finish cleanly", "error", err)
	}
	hub.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
