package main

import (
	"WrplSpectra/internal/app"
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/storage"
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the YAML config file.")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	processor, err := app.NewProcessor(cfg)
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}

	// Stored replays are optional; parsing works without ClickHouse.
	var querier storage.Querier
	if q, err := storage.NewClickHouseQuerier(cfg.ClickHouse); err != nil {
		log.Printf("ClickHouse unavailable, stored replay endpoints disabled: %v", err)
	} else {
		querier = q
	}

	apiHandler := &APIHandler{
		processor:      processor,
		querier:        querier,
		maxUploadBytes: cfg.API.MaxUploadBytes,
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: apiHandler.Router(),
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}
