package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chat-topics-be/internal/bootstrap"
	"chat-topics-be/internal/config"
	"chat-topics-be/internal/tracer"
	"chat-topics-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 4. Start Background Services
	log.Println("Background: Starting Embedder Service...")
	if err := container.EmbedderService.Consume(context.Background()); err != nil {
		log.Panicf("Embedder Service failed to start: %v", err)
	}

	log.Println("Background: Starting Consumer Service...")
	if err := container.ConsumerService.Consume(); err != nil {
		log.Panicf("Consumer Service failed to start: %v", err)
	}

	// 5. Block until shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down categorizer...")
}
