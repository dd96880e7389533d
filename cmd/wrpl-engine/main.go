package main

import (
	"WrplSpectra/internal/app"
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/engine/manager"
	"WrplSpectra/internal/transport"
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// processTimeout bounds the handling of one replay received from NATS.
const processTimeout = 2 * time.Minute

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the YAML config file.")
	flag.Parse()

	log.Println("Starting wrpl-engine...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Build the pipeline; a missing decoder stops the engine before it subscribes.
	processor, err := app.NewProcessor(cfg)
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}
	writers, err := app.NewWriters(cfg)
	if err != nil {
		log.Fatalf("Failed to create writers: %v", err)
	}
	defer app.CloseWriters(writers)
	mgr := manager.NewManager(processor, writers, cfg.Extractor.NumWorkers)

	// 3. Health endpoint
	lis, err := net.Listen("tcp", cfg.Engine.HealthAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.Engine.HealthAddr, err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	go func() {
		log.Printf("gRPC health server listening on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC server stopped: %v", err)
		}
	}()

	// 4. Subscribe to raw replays
	sub, err := transport.NewSubscriber(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	err = sub.Start(func(name string, data []byte) ([]byte, error) {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		rec, err := mgr.ProcessBytes(ctx, name, data)
		if err != nil {
			log.Printf("Failed to process %s: %v", name, err)
			if rec == nil {
				return nil, err
			}
		}
		log.Printf("Processed %s: session %s, %d players", name, rec.Header.SessionID, len(rec.Players))
		return transport.EncodeSummary(rec)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	// 5. Wait for a shutdown signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping engine...")
	healthServer.Shutdown()
	sub.Close()
	grpcServer.GracefulStop()
	log.Println("Shutdown complete.")
}
