package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GregoryFarmer/orthant/internal"
	"github.com/GregoryFarmer/orthant/runtime"
	"github.com/GregoryFarmer/orthant/services"
	"github.com/GregoryFarmer/orthant/web"
	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	appName        = "orthant"
	appVersion     = "1.0.0"
	appAuthor      = "GregoryFarmer"
	appDescription = "A personal website and chat starter."
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	fmt.Print(internal.Banner(appName, appVersion, appAuthor, appDescription))

	// 2. Services
	registry := services.Load(log, services.Definition{
		Name: "database",
		New: func() (any, error) {
			return services.NewDatabase(config.DatabasePath, config.DatabaseName, config.Production(), log), nil
		},
	})
	database, ok := registry.Service("database").(*services.Database)
	if !ok {
		return fmt.Errorf("database service did not load")
	}
	defer func() {
		log.Info("Closing database...")
		_ = database.Close()
	}()
	if _, err := database.Handle(); err != nil {
		// The store reconnects on next use; boot continues without it.
		log.Warn("Database unavailable at startup",
			"database", database.Name(), "production", database.Production(), "error", err)
	}

	// 3. Realtime hub & HTTP server
	hub := runtime.NewHub(log, runtime.PolicyFor(runtime.Mode(config.ChatMode)))
	server := web.NewServer(fmt.Sprintf("%s:%d", config.Host, config.Port), hub, log)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 5. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Shutdown incomplete", "error", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
