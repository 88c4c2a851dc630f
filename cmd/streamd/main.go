package main

import (
	"flag"
	"log"
	"os"

	"stockpulse/internal/di"
	"stockpulse/pkg/config"

	"github.com/joho/godotenv"
)

// Session worker: serves the admin API the controller drives and runs the
// WebSocket-to-Kafka streaming sessions. Blocks until signalled.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s port=%d topic=%s", cfg.Environment, cfg.Server.Port, cfg.Kafka.TradesTopic)

	app, err := di.InitializeWorker(cfg)
	if err != nil {
		log.Fatalf("worker initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("worker error: %v", err)
		os.Exit(1)
	}
}
