package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"stockpulse/internal/di"
	"stockpulse/pkg/config"

	"github.com/joho/godotenv"
)

// One-shot controller: evaluate the market, reconcile the session worker,
// print the decision as JSON, exit non-zero on failure.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	timeout := flag.Duration("timeout", 30*time.Second, "invocation timeout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	controller, err := di.InitializeController(cfg)
	if err != nil {
		log.Fatalf("controller initialization failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result := controller.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("result encode failed: %v", err)
	}
	if result.StatusCode >= 400 {
		os.Exit(1)
	}
}
